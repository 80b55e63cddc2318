// Package bitpack reads and writes arrays of fixed-width unsigned values packed
// into 64-bit words.
//
// Values are packed low-to-high: value 0 occupies the lowest bits of word 0.
// A value never spans two words. When 64 is not a multiple of the width, the
// high bits left over in each word are padding.
package bitpack

import (
	"errors"
	"fmt"
)

var (
	// ErrPaletteIndexOutOfRange is returned when a packed value does not index
	// into the supplied palette.
	ErrPaletteIndexOutOfRange = errors.New("palette index out of range")

	// ErrShortArray is returned when the word array cannot hold the requested
	// number of values.
	ErrShortArray = errors.New("packed array too short")
)

// MaxBits is the widest supported value.
const MaxBits = 32

// ValuesPerWord returns how many values of the given width fit in one word.
func ValuesPerWord(bits int) int {
	return 64 / bits
}

// WordsFor returns the number of words needed to hold count values.
func WordsFor(bits, count int) int {
	per := ValuesPerWord(bits)
	return (count + per - 1) / per
}

func checkBits(bits int) error {
	if bits < 1 || bits > MaxBits {
		return fmt.Errorf("bitpack: width %d out of range [1, %d]", bits, MaxBits)
	}
	return nil
}

// Unpack extracts count values of the given width. The count is chosen by the
// caller; trailing words beyond what count needs are ignored.
func Unpack(words []uint64, bits, count int) ([]uint32, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}
	if need := WordsFor(bits, count); len(words) < need {
		return nil, fmt.Errorf("%w: %d words, need %d for %d values of %d bits", ErrShortArray, len(words), need, count, bits)
	}

	out := make([]uint32, count)
	for i := range out {
		out[i] = Get(words, bits, i)
	}
	return out, nil
}

// Pack is the inverse of Unpack. Values wider than bits are truncated.
func Pack(values []uint32, bits int) ([]uint64, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}
	words := make([]uint64, WordsFor(bits, len(values)))
	for i, v := range values {
		Set(words, bits, i, v)
	}
	return words, nil
}

// Resolve maps palette indices to palette entries in place of the indices.
func Resolve(indices []uint32, palette []int32) ([]int32, error) {
	out := make([]int32, len(indices))
	for i, idx := range indices {
		if int(idx) >= len(palette) {
			return nil, fmt.Errorf("%w: index %d at position %d, palette holds %d", ErrPaletteIndexOutOfRange, idx, i, len(palette))
		}
		out[i] = palette[idx]
	}
	return out, nil
}

// UnpackPaletted unpacks count values and resolves them through palette. A nil
// or empty palette means direct mode: the packed values are the result.
func UnpackPaletted(words []uint64, bits, count int, palette []int32) ([]int32, error) {
	indices, err := Unpack(words, bits, count)
	if err != nil {
		return nil, err
	}
	if len(palette) == 0 {
		out := make([]int32, len(indices))
		for i, v := range indices {
			out[i] = int32(v)
		}
		return out, nil
	}
	return Resolve(indices, palette)
}

// Get returns value i without unpacking the whole array. Unpack and Pack
// are built on Get and Set.
func Get(words []uint64, bits, i int) uint32 {
	per := ValuesPerWord(bits)
	shift := (i % per) * bits
	return uint32(words[i/per] >> shift & (uint64(1)<<bits - 1))
}

// Set overwrites value i in place.
func Set(words []uint64, bits, i int, v uint32) {
	per := ValuesPerWord(bits)
	shift := (i % per) * bits
	mask := uint64(1)<<bits - 1
	w := &words[i/per]
	*w = *w&^(mask<<shift) | (uint64(v)&mask)<<shift
}

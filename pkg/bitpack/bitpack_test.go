package bitpack

import (
	"errors"
	"math/rand"
	"reflect"
	"strconv"
	"testing"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	const count = 4096
	rng := rand.New(rand.NewSource(1))

	for _, bits := range []int{4, 5, 6, 8, 15} {
		t.Run(strconv.Itoa(bits), func(t *testing.T) {
			values := make([]uint32, count)
			for i := range values {
				values[i] = uint32(rng.Intn(1 << bits))
			}

			words, err := Pack(values, bits)
			if err != nil {
				t.Fatalf("Pack(bits=%d) error: %v", bits, err)
			}
			if len(words) != WordsFor(bits, count) {
				t.Errorf("Pack(bits=%d) = %d words, want %d", bits, len(words), WordsFor(bits, count))
			}

			got, err := Unpack(words, bits, count)
			if err != nil {
				t.Fatalf("Unpack(bits=%d) error: %v", bits, err)
			}
			if !reflect.DeepEqual(got, values) {
				t.Errorf("Unpack(Pack(v), %d) differs from v", bits)
			}
		})
	}
}

func TestPaddingSkipped(t *testing.T) {
	// 5 bits: 12 values per word, top 4 bits padding.
	words := []uint64{
		0xF<<60 | 31, // value 0 = 31, padding set
		7,            // value 12 = 7
	}
	got, err := Unpack(words, 5, 13)
	if err != nil {
		t.Fatalf("Unpack error: %v", err)
	}
	if got[0] != 31 {
		t.Errorf("value 0 = %d, want 31", got[0])
	}
	if got[11] != 0 {
		t.Errorf("value 11 = %d, want 0 (padding must not leak)", got[11])
	}
	if got[12] != 7 {
		t.Errorf("value 12 = %d, want 7", got[12])
	}
}

func TestWordsFor(t *testing.T) {
	tests := []struct {
		bits, count, want int
	}{
		{4, 4096, 256},
		{5, 4096, 342},
		{6, 4096, 410},
		{8, 4096, 512},
		{14, 4096, 1024},
		{15, 4096, 1024},
		{4, 0, 0},
	}
	for _, tt := range tests {
		if got := WordsFor(tt.bits, tt.count); got != tt.want {
			t.Errorf("WordsFor(%d, %d) = %d, want %d", tt.bits, tt.count, got, tt.want)
		}
	}
}

func TestPaletteResolution(t *testing.T) {
	palette := []int32{10, 20, 30}

	words, _ := Pack([]uint32{0, 1, 2, 0}, 4)
	got, err := UnpackPaletted(words, 4, 4, palette)
	if err != nil {
		t.Fatalf("UnpackPaletted error: %v", err)
	}
	if want := []int32{10, 20, 30, 10}; !reflect.DeepEqual(got, want) {
		t.Errorf("UnpackPaletted = %v, want %v", got, want)
	}

	words, _ = Pack([]uint32{0, 3}, 4)
	_, err = UnpackPaletted(words, 4, 2, palette)
	if !errors.Is(err, ErrPaletteIndexOutOfRange) {
		t.Errorf("UnpackPaletted error = %v, want ErrPaletteIndexOutOfRange", err)
	}
}

func TestDirectMode(t *testing.T) {
	words, _ := Pack([]uint32{1, 9000, 17}, 15)
	got, err := UnpackPaletted(words, 15, 3, nil)
	if err != nil {
		t.Fatalf("UnpackPaletted error: %v", err)
	}
	if want := []int32{1, 9000, 17}; !reflect.DeepEqual(got, want) {
		t.Errorf("UnpackPaletted = %v, want %v", got, want)
	}
}

func TestShortArray(t *testing.T) {
	_, err := Unpack(make([]uint64, 10), 4, 4096)
	if !errors.Is(err, ErrShortArray) {
		t.Errorf("Unpack error = %v, want ErrShortArray", err)
	}
}

func TestInvalidWidth(t *testing.T) {
	for _, bits := range []int{0, -1, 33} {
		if _, err := Unpack([]uint64{0}, bits, 1); err == nil {
			t.Errorf("Unpack(bits=%d) should fail", bits)
		}
	}
}

func TestGetSet(t *testing.T) {
	words := make([]uint64, WordsFor(6, 100))
	Set(words, 6, 10, 63)
	Set(words, 6, 11, 5)
	Set(words, 6, 10, 1)

	if got := Get(words, 6, 10); got != 1 {
		t.Errorf("Get(10) = %d, want 1", got)
	}
	if got := Get(words, 6, 11); got != 5 {
		t.Errorf("Get(11) = %d, want 5", got)
	}
	if got := Get(words, 6, 9); got != 0 {
		t.Errorf("Get(9) = %d, want 0", got)
	}
}

func TestSetVisibleToUnpack(t *testing.T) {
	words, err := Pack([]uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, 5)
	if err != nil {
		t.Fatal(err)
	}
	// Twelve 5-bit values fit in a word; the top four bits are padding.
	Set(words, 5, 10, 31)
	got, err := Unpack(words, 5, 11)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 31}; !reflect.DeepEqual(got, want) {
		t.Errorf("Unpack after Set = %v, want %v", got, want)
	}
}

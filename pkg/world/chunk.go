package world

import (
	"bytes"
	"fmt"

	"github.com/StoreStation/VibeShitBot/pkg/bitpack"
	"github.com/StoreStation/VibeShitBot/pkg/nbt"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

// Multi block change layout, pinned to 1.16.2-1.17.1. Each record is
// state<<12 | x<<8 | z<<4 | y with section-local coordinates; the section
// position packs x (22 bits), z (22 bits) and y (20 bits) from the top down.
const (
	recordStateShift = 12
	recordXShift     = 8
	recordZShift     = 4
	recordYShift     = 0
	recordCoordMask  = 0xF
)

// UnpackBlockRecord splits a multi block change record.
func UnpackBlockRecord(rec int64) (state int32, x, y, z int) {
	state = int32(uint64(rec) >> recordStateShift)
	x = int(rec>>recordXShift) & recordCoordMask
	z = int(rec>>recordZShift) & recordCoordMask
	y = int(rec>>recordYShift) & recordCoordMask
	return state, x, y, z
}

// PackBlockRecord builds a multi block change record.
func PackBlockRecord(state int32, x, y, z int) int64 {
	return int64(state)<<recordStateShift |
		int64(x&recordCoordMask)<<recordXShift |
		int64(z&recordCoordMask)<<recordZShift |
		int64(y&recordCoordMask)<<recordYShift
}

// UnpackSectionPosition splits a packed chunk section position.
func UnpackSectionPosition(v int64) (x, y, z int32) {
	x = int32(v >> 42)
	y = int32(v << 44 >> 44)
	z = int32(v << 22 >> 42)
	return x, y, z
}

// PackSectionPosition packs a chunk section position.
func PackSectionPosition(x, y, z int32) int64 {
	return int64(x&0x3FFFFF)<<42 | int64(z&0x3FFFFF)<<20 | int64(y&0xFFFFF)
}

// Block state ids used by the flat column generator (1.16 global palette).
const (
	StateAir        int32 = 0
	StateGrassBlock int32 = 9
	StateDirt       int32 = 10
	StateBedrock    int32 = 33
)

// FlatBlock returns the flat-world block at the given Y level.
// Layers: 0=bedrock, 1-3=dirt, 4=grass, 5+=air
func FlatBlock(y int) int32 {
	switch {
	case y == 0:
		return StateBedrock
	case y >= 1 && y <= 3:
		return StateDirt
	case y == 4:
		return StateGrassBlock
	default:
		return StateAir
	}
}

// EncodeSection writes one section in wire form. Sections with at most 256
// distinct states get a palette; wider ones are written direct at 15 bits.
func EncodeSection(w *bytes.Buffer, blocks []int32) error {
	if len(blocks) != SectionSize {
		return fmt.Errorf("section has %d blocks, want %d", len(blocks), SectionSize)
	}

	var count int16
	index := make(map[int32]uint32)
	var palette []int32
	for _, b := range blocks {
		if b != 0 {
			count++
		}
		if _, ok := index[b]; !ok {
			index[b] = uint32(len(palette))
			palette = append(palette, b)
		}
	}

	width := MinBitsPerBlock
	for 1<<width < len(palette) {
		width++
	}
	values := make([]uint32, SectionSize)
	if width > MaxPaletteBits {
		width = 15
		palette = nil
		for i, b := range blocks {
			values[i] = uint32(b)
		}
	} else {
		for i, b := range blocks {
			values[i] = index[b]
		}
	}

	words, err := bitpack.Pack(values, width)
	if err != nil {
		return err
	}

	protocol.WriteInt16(w, count)
	protocol.WriteByte(w, byte(width))
	if width <= MaxPaletteBits {
		protocol.WriteVarInt(w, int32(len(palette)))
		for _, p := range palette {
			protocol.WriteVarInt(w, p)
		}
	}
	protocol.WriteVarInt(w, int32(len(words)))
	for _, word := range words {
		protocol.WriteInt64(w, int64(word))
	}
	return nil
}

// EncodeColumn writes a full chunk data body (everything after the packet id)
// for the given format. sections[i] == nil leaves section i absent.
func EncodeColumn(format Format, x, z int32, sections [][]int32, blockEntities []*nbt.Compound) ([]byte, error) {
	return encodeColumn(format, true, x, z, sections, blockEntities)
}

// EncodePartialColumn writes a 1.16 non-full chunk update carrying only the
// non-nil sections and no biomes.
func EncodePartialColumn(x, z int32, sections [][]int32) ([]byte, error) {
	return encodeColumn(FormatBitmask, false, x, z, sections, nil)
}

func encodeColumn(format Format, full bool, x, z int32, sections [][]int32, blockEntities []*nbt.Compound) ([]byte, error) {
	var data bytes.Buffer
	mask := make([]uint64, (len(sections)+63)/64)
	for i, s := range sections {
		if s == nil {
			continue
		}
		mask[i/64] |= 1 << (i % 64)
		if err := EncodeSection(&data, s); err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	protocol.WriteInt32(&buf, x)
	protocol.WriteInt32(&buf, z)
	switch format {
	case FormatBitmask:
		if len(sections) > 32 {
			return nil, fmt.Errorf("bitmask format holds at most 32 sections, got %d", len(sections))
		}
		protocol.WriteBool(&buf, full)
		var m uint64
		if len(mask) > 0 {
			m = mask[0]
		}
		protocol.WriteVarInt(&buf, int32(uint32(m)))
	case FormatBitSet:
		protocol.WriteVarInt(&buf, int32(len(mask)))
		for _, m := range mask {
			protocol.WriteInt64(&buf, int64(m))
		}
	default:
		return nil, fmt.Errorf("%w: chunk format %s", protocol.ErrUnsupportedVersion, format)
	}

	heightmaps := nbt.NewCompound(nbt.Field{Name: "MOTION_BLOCKING", Value: make([]int64, 37)})
	if err := nbt.Write(&buf, "", heightmaps); err != nil {
		return nil, err
	}

	if full || format == FormatBitSet {
		// 4x4x4 biome cells over 256 blocks of height: plains everywhere.
		protocol.WriteVarInt(&buf, 1024)
		for i := 0; i < 1024; i++ {
			protocol.WriteVarInt(&buf, 1)
		}
	}

	protocol.WriteByteArray(&buf, data.Bytes())

	protocol.WriteVarInt(&buf, int32(len(blockEntities)))
	for _, be := range blockEntities {
		if err := nbt.Write(&buf, "", be); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// FlatColumnData builds a superflat chunk column with only section 0 present.
func FlatColumnData(format Format, x, z int32) ([]byte, error) {
	section := make([]int32, SectionSize)
	for ly := 0; ly < 16; ly++ {
		for lz := 0; lz < 16; lz++ {
			for lx := 0; lx < 16; lx++ {
				section[sectionIndex(lx, ly, lz)] = FlatBlock(ly)
			}
		}
	}
	return EncodeColumn(format, x, z, [][]int32{section}, nil)
}

package world

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/StoreStation/VibeShitBot/pkg/bitpack"
	"github.com/StoreStation/VibeShitBot/pkg/nbt"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

// rawColumn builds a 1.16.2 chunk body around hand-written section bytes.
func rawColumn(mask int32, sectionData []byte) []byte {
	var buf bytes.Buffer
	protocol.WriteInt32(&buf, 0)
	protocol.WriteInt32(&buf, 0)
	protocol.WriteBool(&buf, false)
	protocol.WriteVarInt(&buf, mask)
	nbt.Write(&buf, "", nbt.NewCompound())
	protocol.WriteByteArray(&buf, sectionData)
	protocol.WriteVarInt(&buf, 0)
	return buf.Bytes()
}

func flatColumn(t *testing.T, format Format) *Column {
	t.Helper()
	raw, err := FlatColumnData(format, 3, -2)
	if err != nil {
		t.Fatalf("FlatColumnData error: %v", err)
	}
	return NewColumn(3, -2, format, true, raw)
}

func TestFlatColumnDecode(t *testing.T) {
	for _, format := range []Format{FormatBitmask, FormatBitSet} {
		t.Run(format.String(), func(t *testing.T) {
			c := flatColumn(t, format)

			tests := []struct {
				x, y, z int
				want    int32
			}{
				{0, 0, 0, StateBedrock},
				{15, 0, 15, StateBedrock},
				{7, 2, 9, StateDirt},
				{1, 4, 1, StateGrassBlock},
				{1, 5, 1, StateAir},
				{0, -1, 0, StateAir},
				{0, 300, 0, StateAir},
			}
			for _, tt := range tests {
				got, err := c.Block(tt.x, tt.y, tt.z)
				if err != nil {
					t.Fatalf("Block(%d,%d,%d) error: %v", tt.x, tt.y, tt.z, err)
				}
				if got != tt.want {
					t.Errorf("Block(%d,%d,%d) = %d, want %d", tt.x, tt.y, tt.z, got, tt.want)
				}
			}

			if n := c.NonAirBlocks(0); n != 16*16*5 {
				t.Errorf("NonAirBlocks(0) = %d, want %d", n, 16*16*5)
			}
			if len(c.Biomes()) != 1024 {
				t.Errorf("len(Biomes) = %d, want 1024", len(c.Biomes()))
			}
			if _, ok := c.Heightmaps().LongArray("MOTION_BLOCKING"); !ok {
				t.Error("MOTION_BLOCKING heightmap missing")
			}
		})
	}
}

func TestAbsentSectionsAreAir(t *testing.T) {
	c := flatColumn(t, FormatBitmask)
	grid, err := c.Grid()
	if err != nil {
		t.Fatalf("Grid error: %v", err)
	}
	for i := SectionSize; i < len(grid); i++ {
		if grid[i] != 0 {
			t.Fatalf("grid[%d] (section %d) = %d, want air", i, i/SectionSize, grid[i])
		}
	}
	if c.SectionPresent(1) {
		t.Error("section 1 should be absent")
	}
	if !c.SectionPresent(0) {
		t.Error("section 0 should be present")
	}
}

func TestDecodeOnceConcurrent(t *testing.T) {
	c := flatColumn(t, FormatBitSet)

	const callers = 16
	grids := make([][]int32, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := c.Grid()
			if err != nil {
				t.Errorf("Grid error: %v", err)
			}
			grids[i] = g
		}(i)
	}
	wg.Wait()

	if n := c.Decodes(); n != 1 {
		t.Errorf("Decodes = %d, want 1", n)
	}
	for i := 1; i < callers; i++ {
		if !reflect.DeepEqual(grids[i], grids[0]) {
			t.Fatalf("grid %d differs from grid 0", i)
		}
	}
}

func TestBitsPerBlockClamped(t *testing.T) {
	var sec bytes.Buffer
	protocol.WriteInt16(&sec, 1)
	protocol.WriteByte(&sec, 2) // below the minimum, read as 4
	protocol.WriteVarInt(&sec, 2)
	protocol.WriteVarInt(&sec, 0)
	protocol.WriteVarInt(&sec, 42)
	values := make([]uint32, SectionSize)
	values[sectionIndex(1, 2, 3)] = 1
	words, _ := bitpack.Pack(values, 4)
	protocol.WriteVarInt(&sec, int32(len(words)))
	for _, w := range words {
		protocol.WriteInt64(&sec, int64(w))
	}

	c := NewColumn(0, 0, FormatBitmask, true, rawColumn(1, sec.Bytes()))
	got, err := c.Block(1, 2, 3)
	if err != nil {
		t.Fatalf("Block error: %v", err)
	}
	if got != 42 {
		t.Errorf("Block(1,2,3) = %d, want 42", got)
	}
}

func TestPaletteIndexOutOfRange(t *testing.T) {
	var sec bytes.Buffer
	protocol.WriteInt16(&sec, 1)
	protocol.WriteByte(&sec, 4)
	protocol.WriteVarInt(&sec, 3)
	for _, p := range []int32{10, 20, 30} {
		protocol.WriteVarInt(&sec, p)
	}
	values := make([]uint32, SectionSize)
	values[7] = 3
	words, _ := bitpack.Pack(values, 4)
	protocol.WriteVarInt(&sec, int32(len(words)))
	for _, w := range words {
		protocol.WriteInt64(&sec, int64(w))
	}

	c := NewColumn(0, 0, FormatBitmask, true, rawColumn(1, sec.Bytes()))
	_, err := c.Block(0, 0, 0)
	if !errors.Is(err, bitpack.ErrPaletteIndexOutOfRange) {
		t.Errorf("Block error = %v, want ErrPaletteIndexOutOfRange", err)
	}
	if c.Decoded() {
		t.Error("failed column must not report decoded")
	}
}

func TestDirectSection(t *testing.T) {
	blocks := make([]int32, SectionSize)
	for i := range blocks {
		blocks[i] = int32(i % 1000)
	}
	raw, err := EncodeColumn(FormatBitSet, 0, 0, [][]int32{nil, blocks}, nil)
	if err != nil {
		t.Fatalf("EncodeColumn error: %v", err)
	}
	c := NewColumn(0, 0, FormatBitSet, true, raw)
	grid, err := c.Grid()
	if err != nil {
		t.Fatalf("Grid error: %v", err)
	}
	if !reflect.DeepEqual(grid[SectionSize:2*SectionSize], blocks) {
		t.Error("direct section did not round-trip")
	}
}

func TestStaleChunkPatch(t *testing.T) {
	c := flatColumn(t, FormatBitmask)

	if err := c.SetBlock(0, 0, 0, 1); !errors.Is(err, ErrStaleChunkPatch) {
		t.Errorf("SetBlock error = %v, want ErrStaleChunkPatch", err)
	}
	if err := c.ApplyRecords(0, []int64{PackBlockRecord(1, 0, 0, 0)}); !errors.Is(err, ErrStaleChunkPatch) {
		t.Errorf("ApplyRecords error = %v, want ErrStaleChunkPatch", err)
	}
	if c.Decodes() != 0 {
		t.Error("a patch must never trigger a decode")
	}

	got, _ := c.Block(0, 0, 0)
	if got != StateBedrock {
		t.Errorf("Block after dropped patch = %d, want bedrock", got)
	}
}

func TestPatchDecodedColumn(t *testing.T) {
	c := flatColumn(t, FormatBitmask)
	if err := c.Decode(); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	before := c.NonAirBlocks(0)

	if err := c.SetBlock(2, 0, 2, StateAir); err != nil {
		t.Fatalf("SetBlock error: %v", err)
	}
	if got, _ := c.Block(2, 0, 2); got != StateAir {
		t.Errorf("Block(2,0,2) = %d, want air", got)
	}
	if n := c.NonAirBlocks(0); n != before-1 {
		t.Errorf("NonAirBlocks = %d, want %d", n, before-1)
	}

	// A patch into an absent section creates it.
	if err := c.SetBlock(5, 40, 6, 7); err != nil {
		t.Fatalf("SetBlock error: %v", err)
	}
	if got, _ := c.Block(5, 40, 6); got != 7 {
		t.Errorf("Block(5,40,6) = %d, want 7", got)
	}
	if n := c.NonAirBlocks(2); n != 1 {
		t.Errorf("NonAirBlocks(2) = %d, want 1", n)
	}

	records := []int64{
		PackBlockRecord(100, 0, 1, 0),
		PackBlockRecord(101, 15, 15, 15),
	}
	if err := c.ApplyRecords(1, records); err != nil {
		t.Fatalf("ApplyRecords error: %v", err)
	}
	if got, _ := c.Block(0, 17, 0); got != 100 {
		t.Errorf("Block(0,17,0) = %d, want 100", got)
	}
	if got, _ := c.Block(15, 31, 15); got != 101 {
		t.Errorf("Block(15,31,15) = %d, want 101", got)
	}
	if c.Decodes() != 1 {
		t.Errorf("Decodes = %d, want 1", c.Decodes())
	}
}

func TestBlockRecord(t *testing.T) {
	rec := PackBlockRecord(9000, 3, 14, 7)
	if rec != 9000<<12|3<<8|7<<4|14 {
		t.Errorf("PackBlockRecord = %#x", rec)
	}
	state, x, y, z := UnpackBlockRecord(rec)
	if state != 9000 || x != 3 || y != 14 || z != 7 {
		t.Errorf("UnpackBlockRecord = %d (%d,%d,%d), want 9000 (3,14,7)", state, x, y, z)
	}
}

func TestSectionPosition(t *testing.T) {
	tests := []struct{ x, y, z int32 }{
		{0, 0, 0},
		{1, 2, 3},
		{-1, -1, -1},
		{-2097152, 524287, 2097151},
	}
	for _, tt := range tests {
		x, y, z := UnpackSectionPosition(PackSectionPosition(tt.x, tt.y, tt.z))
		if x != tt.x || y != tt.y || z != tt.z {
			t.Errorf("section position (%d,%d,%d) round-trip = (%d,%d,%d)", tt.x, tt.y, tt.z, x, y, z)
		}
	}
}

func TestBlockEntities(t *testing.T) {
	sign := nbt.NewCompound(nbt.Field{Name: "id", Value: "minecraft:sign"})
	raw, err := EncodeColumn(FormatBitmask, 0, 0, nil, []*nbt.Compound{sign})
	if err != nil {
		t.Fatalf("EncodeColumn error: %v", err)
	}
	c := NewColumn(0, 0, FormatBitmask, true, raw)
	be := c.BlockEntities()
	if len(be) != 1 {
		t.Fatalf("len(BlockEntities) = %d, want 1", len(be))
	}
	if id, _ := be[0].String("id"); id != "minecraft:sign" {
		t.Errorf("block entity id = %q", id)
	}
}

func TestChunkStore(t *testing.T) {
	s := NewChunkStore(true)

	if _, err := s.Block(0, 0, 0); !errors.Is(err, ErrColumnNotLoaded) {
		t.Errorf("Block on empty store error = %v, want ErrColumnNotLoaded", err)
	}

	raw, _ := FlatColumnData(FormatBitmask, -1, 0)
	if err := s.Load(NewColumn(-1, 0, FormatBitmask, true, raw)); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}

	// x=-1 is local x 15 of chunk -1.
	if got, err := s.Block(-1, 0, 3); err != nil || got != StateBedrock {
		t.Errorf("Block(-1,0,3) = %d, %v; want bedrock", got, err)
	}

	if err := s.SetBlock(-16, 4, 0, StateDirt); err != nil {
		t.Fatalf("SetBlock error: %v", err)
	}
	if got, _ := s.Block(-16, 4, 0); got != StateDirt {
		t.Errorf("Block(-16,4,0) = %d, want dirt", got)
	}

	if err := s.ApplyMultiBlockChange(-1, 0, 0, []int64{PackBlockRecord(55, 0, 6, 0)}); err != nil {
		t.Fatalf("ApplyMultiBlockChange error: %v", err)
	}
	if got, _ := s.Block(-16, 6, 0); got != 55 {
		t.Errorf("Block(-16,6,0) = %d, want 55", got)
	}
	if err := s.ApplyMultiBlockChange(4, 0, 4, nil); !errors.Is(err, ErrColumnNotLoaded) {
		t.Errorf("ApplyMultiBlockChange on missing column error = %v", err)
	}

	if !s.Unload(-1, 0) {
		t.Error("Unload reported no column")
	}
	if s.Unload(-1, 0) {
		t.Error("second Unload reported a column")
	}
}

func TestPartialChunkMerge(t *testing.T) {
	s := NewChunkStore(false)
	raw, _ := FlatColumnData(FormatBitmask, 0, 0)
	s.Load(NewColumn(0, 0, FormatBitmask, true, raw))

	stone := make([]int32, SectionSize)
	for i := range stone {
		stone[i] = 1
	}
	partial, err := EncodePartialColumn(0, 0, [][]int32{nil, stone})
	if err != nil {
		t.Fatalf("EncodePartialColumn error: %v", err)
	}
	if err := s.Load(NewColumn(0, 0, FormatBitmask, false, partial)); err != nil {
		t.Fatalf("Load partial error: %v", err)
	}

	if got, _ := s.Block(0, 0, 0); got != StateBedrock {
		t.Errorf("section 0 after merge = %d, want bedrock", got)
	}
	if got, _ := s.Block(3, 20, 3); got != 1 {
		t.Errorf("section 1 after merge = %d, want 1", got)
	}

	if err := s.Load(NewColumn(9, 9, FormatBitmask, false, partial)); !errors.Is(err, ErrColumnNotLoaded) {
		t.Errorf("partial without base error = %v, want ErrColumnNotLoaded", err)
	}
}

func TestDecodeWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewChunkStore(false)
	s.StartWorkers(ctx, 2)

	raw, _ := FlatColumnData(FormatBitSet, 1, 1)
	c := NewColumn(1, 1, FormatBitSet, true, raw)
	s.Load(c)

	deadline := time.Now().Add(2 * time.Second)
	for !c.Decoded() {
		if time.Now().After(deadline) {
			t.Fatal("worker did not decode the column")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if c.Decodes() != 1 {
		t.Errorf("Decodes = %d, want 1", c.Decodes())
	}
}

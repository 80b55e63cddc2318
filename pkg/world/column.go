package world

import (
	"bytes"
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/golang/snappy"
	"github.com/sasha-s/go-deadlock"

	"github.com/StoreStation/VibeShitBot/pkg/bitpack"
	"github.com/StoreStation/VibeShitBot/pkg/nbt"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

var (
	// ErrStaleChunkPatch is returned when a block patch targets a column that
	// has not been decoded yet. The patch is dropped.
	ErrStaleChunkPatch = errors.New("patch to undecoded chunk column")

	// ErrColumnNotLoaded is returned when no column is cached at a position.
	ErrColumnNotLoaded = errors.New("chunk column not loaded")
)

// Format selects the chunk data header layout.
type Format uint8

const (
	// FormatBitmask is the 1.16.2 layout: a full-chunk flag, a VarInt section
	// mask, and biomes only on full chunks.
	FormatBitmask Format = iota
	// FormatBitSet is the 1.17 layout: the section mask is a long array and
	// biomes are always present.
	FormatBitSet
)

func (f Format) String() string {
	switch f {
	case FormatBitmask:
		return "bitmask"
	case FormatBitSet:
		return "bitset"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

const (
	SectionSize     = 16 * 16 * 16
	MinSections     = 16
	MinBitsPerBlock = 4
	// MaxPaletteBits is the widest section that still carries a palette.
	MaxPaletteBits = 8

	maxMaskWords = 64
	maxBiomes    = 1 << 16
)

// Section is one 16x16x16 volume. Bits and Palette describe the section as it
// arrived on the wire; after a patch the grid is authoritative.
type Section struct {
	BlockCount int16
	Bits       uint8
	Palette    []int32

	blocks []int32
}

func newAirSection() *Section {
	return &Section{Bits: MinBitsPerBlock, blocks: make([]int32, SectionSize)}
}

func sectionIndex(x, y, z int) int {
	return (y*16+z)*16 + x
}

// Block returns the state id at local coordinates. A nil section is all air.
func (s *Section) Block(x, y, z int) int32 {
	if s == nil {
		return 0
	}
	return s.blocks[sectionIndex(x, y, z)]
}

func (s *Section) set(x, y, z int, state int32) {
	i := sectionIndex(x, y, z)
	old := s.blocks[i]
	switch {
	case old == 0 && state != 0:
		s.BlockCount++
	case old != 0 && state == 0:
		s.BlockCount--
	}
	s.blocks[i] = state
}

func readSection(r *bytes.Reader) (*Section, error) {
	count, err := protocol.ReadInt16(r)
	if err != nil {
		return nil, err
	}
	width, err := protocol.ReadByte(r)
	if err != nil {
		return nil, err
	}
	if width < MinBitsPerBlock {
		width = MinBitsPerBlock
	}

	var palette []int32
	if width <= MaxPaletteBits {
		n, _, err := protocol.ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > SectionSize {
			return nil, fmt.Errorf("%w: palette length %d", protocol.ErrInvalidEncoding, n)
		}
		palette = make([]int32, n)
		for i := range palette {
			if palette[i], _, err = protocol.ReadVarInt(r); err != nil {
				return nil, err
			}
		}
	}

	n, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > SectionSize {
		return nil, fmt.Errorf("%w: data array length %d", protocol.ErrInvalidEncoding, n)
	}
	words := make([]uint64, n)
	for i := range words {
		v, err := protocol.ReadInt64(r)
		if err != nil {
			return nil, err
		}
		words[i] = uint64(v)
	}

	blocks, err := bitpack.UnpackPaletted(words, int(width), SectionSize, palette)
	if err != nil {
		return nil, err
	}
	return &Section{BlockCount: count, Bits: width, Palette: palette, blocks: blocks}, nil
}

// Column is one chunk column. It holds the raw chunk data until the first
// block access, decodes it exactly once, and then serves reads and patches
// from the decoded grid.
type Column struct {
	X, Z int32
	// Full is false for 1.16 partial updates that only replace the sections
	// in their mask.
	Full   bool
	Format Format

	once    sync.Once
	decoded atomic.Bool
	decodes atomic.Int32
	err     error

	mu            deadlock.RWMutex
	raw           []byte
	snappyRaw     bool
	mask          []uint64
	sections      []*Section
	heightmaps    *nbt.Compound
	biomes        []int32
	blockEntities []*nbt.Compound
}

// NewColumn wraps raw chunk data. raw is the whole chunk data packet body,
// starting at the column's x coordinate.
func NewColumn(x, z int32, format Format, full bool, raw []byte) *Column {
	return &Column{X: x, Z: z, Format: format, Full: full, raw: raw}
}

// compressRaw snappy-encodes the retained bytes. Must be called before the
// column is shared.
func (c *Column) compressRaw() {
	if c.raw == nil || c.snappyRaw {
		return
	}
	c.raw = snappy.Encode(nil, c.raw)
	c.snappyRaw = true
}

// Decoded reports whether the column has been decoded successfully.
func (c *Column) Decoded() bool {
	return c.decoded.Load()
}

// Decodes returns how many times the decode routine has run. It is at most 1.
func (c *Column) Decodes() int {
	return int(c.decodes.Load())
}

// Decode decodes the retained bytes. Concurrent callers block until the single
// decode finishes and all observe its result.
func (c *Column) Decode() error {
	c.once.Do(func() {
		c.decodes.Add(1)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.err = c.decode()
		c.raw = nil
		if c.err == nil {
			c.decoded.Store(true)
		}
	})
	return c.err
}

func (c *Column) decode() error {
	raw := c.raw
	if c.snappyRaw {
		var err error
		if raw, err = snappy.Decode(nil, raw); err != nil {
			return fmt.Errorf("chunk (%d, %d): %w", c.X, c.Z, err)
		}
	}
	if err := c.parse(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("chunk (%d, %d): %w", c.X, c.Z, err)
	}
	return nil
}

func (c *Column) parse(r *bytes.Reader) error {
	if _, err := protocol.ReadInt32(r); err != nil {
		return err
	}
	if _, err := protocol.ReadInt32(r); err != nil {
		return err
	}

	var hasBiomes bool
	switch c.Format {
	case FormatBitmask:
		full, err := protocol.ReadBool(r)
		if err != nil {
			return err
		}
		m, _, err := protocol.ReadVarInt(r)
		if err != nil {
			return err
		}
		c.mask = []uint64{uint64(uint32(m))}
		hasBiomes = full
	case FormatBitSet:
		n, _, err := protocol.ReadVarInt(r)
		if err != nil {
			return err
		}
		if n < 0 || n > maxMaskWords {
			return fmt.Errorf("%w: section mask of %d longs", protocol.ErrInvalidEncoding, n)
		}
		c.mask = make([]uint64, n)
		for i := range c.mask {
			v, err := protocol.ReadInt64(r)
			if err != nil {
				return err
			}
			c.mask[i] = uint64(v)
		}
		hasBiomes = true
	default:
		return fmt.Errorf("%w: chunk format %s", protocol.ErrUnsupportedVersion, c.Format)
	}

	heightmaps, err := nbt.Read(r)
	if err != nil {
		return fmt.Errorf("heightmaps: %w", err)
	}
	c.heightmaps = heightmaps

	if hasBiomes {
		n, _, err := protocol.ReadVarInt(r)
		if err != nil {
			return err
		}
		if n < 0 || n > maxBiomes {
			return fmt.Errorf("%w: %d biomes", protocol.ErrInvalidEncoding, n)
		}
		c.biomes = make([]int32, n)
		for i := range c.biomes {
			if c.biomes[i], _, err = protocol.ReadVarInt(r); err != nil {
				return err
			}
		}
	}

	data, err := protocol.ReadByteArray(r)
	if err != nil {
		return fmt.Errorf("section data: %w", err)
	}
	c.sections = make([]*Section, max(MinSections, maskLen(c.mask)))
	dr := bytes.NewReader(data)
	for i := range c.sections {
		if !maskHas(c.mask, i) {
			continue
		}
		if c.sections[i], err = readSection(dr); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
	}

	n, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return err
	}
	if n < 0 || int(n) > SectionSize*len(c.sections) {
		return fmt.Errorf("%w: %d block entities", protocol.ErrInvalidEncoding, n)
	}
	c.blockEntities = make([]*nbt.Compound, 0, n)
	for i := int32(0); i < n; i++ {
		be, err := nbt.Read(r)
		if err != nil {
			return fmt.Errorf("block entity %d: %w", i, err)
		}
		c.blockEntities = append(c.blockEntities, be)
	}
	return nil
}

func maskHas(mask []uint64, i int) bool {
	w := i / 64
	return w < len(mask) && mask[w]&(1<<(i%64)) != 0
}

// maskLen returns one past the highest set bit.
func maskLen(mask []uint64) int {
	for w := len(mask) - 1; w >= 0; w-- {
		if mask[w] != 0 {
			return w*64 + 64 - bits.LeadingZeros64(mask[w])
		}
	}
	return 0
}

// Block returns the state id at column-local x and z (0-15) and absolute y,
// decoding the column on first use. Coordinates outside the column height
// read as air.
func (c *Column) Block(x, y, z int) (int32, error) {
	if err := c.Decode(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := y >> 4
	if y < 0 || i >= len(c.sections) {
		return 0, nil
	}
	return c.sections[i].Block(x&15, y&15, z&15), nil
}

// Grid returns a copy of the decoded block grid, sections stacked bottom to
// top, each indexed by (y*16+z)*16+x.
func (c *Column) Grid() ([]int32, error) {
	if err := c.Decode(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	grid := make([]int32, SectionSize*len(c.sections))
	for i, s := range c.sections {
		if s != nil {
			copy(grid[i*SectionSize:], s.blocks)
		}
	}
	return grid, nil
}

// SectionPresent reports whether section i arrived on the wire or was created
// by a patch.
func (c *Column) SectionPresent(i int) bool {
	if err := c.Decode(); err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return i >= 0 && i < len(c.sections) && c.sections[i] != nil
}

// NonAirBlocks returns the non-air block count of section i.
func (c *Column) NonAirBlocks(i int) int16 {
	if err := c.Decode(); err != nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.sections) || c.sections[i] == nil {
		return 0
	}
	return c.sections[i].BlockCount
}

// Heightmaps returns the decoded height-map compound.
func (c *Column) Heightmaps() *nbt.Compound {
	if c.Decode() != nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.heightmaps
}

// Biomes returns the decoded biome ids.
func (c *Column) Biomes() []int32 {
	if c.Decode() != nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int32(nil), c.biomes...)
}

// BlockEntities returns the decoded block entity compounds.
func (c *Column) BlockEntities() []*nbt.Compound {
	if c.Decode() != nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*nbt.Compound(nil), c.blockEntities...)
}

// SetBlock patches one block in place. It never triggers a decode: an
// undecoded column returns ErrStaleChunkPatch and is left untouched.
func (c *Column) SetBlock(x, y, z int, state int32) error {
	if !c.decoded.Load() {
		return ErrStaleChunkPatch
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.sectionForWrite(y >> 4)
	if err != nil {
		return err
	}
	s.set(x&15, y&15, z&15, state)
	return nil
}

// ApplyRecords patches blocks of one section from multi-block change records.
func (c *Column) ApplyRecords(sectionY int, records []int64) error {
	if !c.decoded.Load() {
		return ErrStaleChunkPatch
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.sectionForWrite(sectionY)
	if err != nil {
		return err
	}
	for _, rec := range records {
		state, x, y, z := UnpackBlockRecord(rec)
		s.set(x, y, z, state)
	}
	return nil
}

func (c *Column) sectionForWrite(i int) (*Section, error) {
	if i < 0 || i >= maxMaskWords*64 {
		return nil, fmt.Errorf("section %d outside column (%d, %d)", i, c.X, c.Z)
	}
	for i >= len(c.sections) {
		c.sections = append(c.sections, nil)
	}
	if c.sections[i] == nil {
		c.sections[i] = newAirSection()
	}
	return c.sections[i], nil
}

// merge copies the sections present in a partial column into c.
func (c *Column) merge(partial *Column) error {
	if err := partial.Decode(); err != nil {
		return err
	}
	if err := c.Decode(); err != nil {
		return err
	}
	partial.mu.RLock()
	defer partial.mu.RUnlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range partial.sections {
		if !maskHas(partial.mask, i) {
			continue
		}
		for i >= len(c.sections) {
			c.sections = append(c.sections, nil)
		}
		c.sections[i] = s
	}
	if partial.heightmaps != nil {
		c.heightmaps = partial.heightmaps
	}
	c.blockEntities = append(c.blockEntities, partial.blockEntities...)
	return nil
}

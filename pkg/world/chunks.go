package world

import (
	"context"
	"fmt"
	"log"

	"github.com/sasha-s/go-deadlock"
)

// ChunkPos identifies a chunk column.
type ChunkPos struct {
	X, Z int32
}

// ChunkStore caches chunk columns by position.
type ChunkStore struct {
	mu       deadlock.RWMutex
	columns  map[ChunkPos]*Column
	compress bool
	pending  chan *Column
}

// NewChunkStore creates an empty store. With compress set, raw column bytes
// are snappy-compressed while they wait for their first access.
func NewChunkStore(compress bool) *ChunkStore {
	return &ChunkStore{
		columns:  make(map[ChunkPos]*Column),
		compress: compress,
	}
}

// StartWorkers decodes newly loaded columns on n background goroutines until
// ctx is done. Without workers columns decode on first access.
func (s *ChunkStore) StartWorkers(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	queue := make(chan *Column, 64*n)
	s.mu.Lock()
	s.pending = queue
	s.mu.Unlock()

	for i := 0; i < n; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case c := <-queue:
					if err := c.Decode(); err != nil {
						log.Printf("Chunk (%d, %d) failed to decode: %v", c.X, c.Z, err)
					}
				}
			}
		}()
	}
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.pending == queue {
			s.pending = nil
		}
		s.mu.Unlock()
	}()
}

// Load stores a column. Full columns replace whatever was cached; partial
// columns are merged into the cached one, which is decoded for the purpose.
func (s *ChunkStore) Load(c *Column) error {
	pos := ChunkPos{c.X, c.Z}
	if !c.Full {
		s.mu.RLock()
		existing, ok := s.columns[pos]
		s.mu.RUnlock()
		if !ok {
			return fmt.Errorf("partial update for chunk (%d, %d): %w", c.X, c.Z, ErrColumnNotLoaded)
		}
		return existing.merge(c)
	}

	if s.compress {
		c.compressRaw()
	}
	s.mu.Lock()
	s.columns[pos] = c
	queue := s.pending
	s.mu.Unlock()

	if queue != nil {
		select {
		case queue <- c:
		default:
			// Workers are behind; the column decodes on first access instead.
		}
	}
	return nil
}

// Unload drops a column. It reports whether one was cached.
func (s *ChunkStore) Unload(x, z int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := ChunkPos{x, z}
	_, ok := s.columns[pos]
	delete(s.columns, pos)
	return ok
}

// Clear drops every column.
func (s *ChunkStore) Clear() {
	s.mu.Lock()
	s.columns = make(map[ChunkPos]*Column)
	s.mu.Unlock()
}

// Column returns the column at chunk coordinates.
func (s *ChunkStore) Column(x, z int32) (*Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.columns[ChunkPos{x, z}]
	return c, ok
}

// Len returns the number of cached columns.
func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.columns)
}

// Block returns the state id at world block coordinates.
func (s *ChunkStore) Block(x, y, z int32) (int32, error) {
	c, ok := s.Column(x>>4, z>>4)
	if !ok {
		return 0, fmt.Errorf("block (%d, %d, %d): %w", x, y, z, ErrColumnNotLoaded)
	}
	return c.Block(int(x&15), int(y), int(z&15))
}

// SetBlock patches one block at world coordinates.
func (s *ChunkStore) SetBlock(x, y, z, state int32) error {
	c, ok := s.Column(x>>4, z>>4)
	if !ok {
		return fmt.Errorf("block (%d, %d, %d): %w", x, y, z, ErrColumnNotLoaded)
	}
	if err := c.SetBlock(int(x&15), int(y), int(z&15), state); err != nil {
		return fmt.Errorf("block (%d, %d, %d): %w", x, y, z, err)
	}
	return nil
}

// ApplyMultiBlockChange patches one chunk section from packed records.
func (s *ChunkStore) ApplyMultiBlockChange(sectionX, sectionY, sectionZ int32, records []int64) error {
	c, ok := s.Column(sectionX, sectionZ)
	if !ok {
		return fmt.Errorf("section (%d, %d, %d): %w", sectionX, sectionY, sectionZ, ErrColumnNotLoaded)
	}
	if err := c.ApplyRecords(int(sectionY), records); err != nil {
		return fmt.Errorf("section (%d, %d, %d): %w", sectionX, sectionY, sectionZ, err)
	}
	return nil
}

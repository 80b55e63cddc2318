package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

// DeltaScale converts fixed-point movement deltas to blocks.
const DeltaScale = 4096.0

// Entity is a tracked mob, object or other player.
type Entity struct {
	ID       int32
	UUID     uuid.UUID
	Type     int32
	IsPlayer bool
	Position mgl64.Vec3
	Yaw      float32
	Pitch    float32
	HeadYaw  float32
	OnGround bool
}

// EntityStore maps entity ids to entities. Reads return copies.
type EntityStore struct {
	mu       deadlock.RWMutex
	entities map[int32]*Entity
}

// NewEntityStore creates an empty store.
func NewEntityStore() *EntityStore {
	return &EntityStore{entities: make(map[int32]*Entity)}
}

// Spawn records an entity on first sighting, replacing any entity with the
// same id.
func (s *EntityStore) Spawn(e Entity) {
	s.mu.Lock()
	s.entities[e.ID] = &e
	s.mu.Unlock()
}

// Get returns a copy of the entity.
func (s *EntityStore) Get(id int32) (Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// Move applies a fixed-point delta (raw/4096 blocks). Unknown ids are
// ignored and report false.
func (s *EntityStore) Move(id int32, dx, dy, dz int16, onGround bool) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return Entity{}, false
	}
	e.Position = e.Position.Add(DeltaVec(dx, dy, dz))
	e.OnGround = onGround
	return *e, true
}

// Rotate sets yaw and pitch from wire angles.
func (s *EntityStore) Rotate(id int32, yaw, pitch int8, onGround bool) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return Entity{}, false
	}
	e.Yaw = protocol.AngleToDegrees(yaw)
	e.Pitch = protocol.AngleToDegrees(pitch)
	e.OnGround = onGround
	return *e, true
}

// MoveAndRotate applies a delta and a rotation together.
func (s *EntityStore) MoveAndRotate(id int32, dx, dy, dz int16, yaw, pitch int8, onGround bool) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return Entity{}, false
	}
	e.Position = e.Position.Add(DeltaVec(dx, dy, dz))
	e.Yaw = protocol.AngleToDegrees(yaw)
	e.Pitch = protocol.AngleToDegrees(pitch)
	e.OnGround = onGround
	return *e, true
}

// Teleport sets an absolute position and rotation.
func (s *EntityStore) Teleport(id int32, pos mgl64.Vec3, yaw, pitch int8, onGround bool) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return Entity{}, false
	}
	e.Position = pos
	e.Yaw = protocol.AngleToDegrees(yaw)
	e.Pitch = protocol.AngleToDegrees(pitch)
	e.OnGround = onGround
	return *e, true
}

// Len returns the number of tracked entities.
func (s *EntityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// All returns copies of every tracked entity in no particular order.
func (s *EntityStore) All() []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, *e)
	}
	return out
}

// Nearest returns the entity closest to pos that matches filter. A nil
// filter matches everything.
func (s *EntityStore) Nearest(pos mgl64.Vec3, filter func(Entity) bool) (Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *Entity
	bestDist := math.Inf(1)
	for _, e := range s.entities {
		if filter != nil && !filter(*e) {
			continue
		}
		if d := e.Position.Sub(pos).Len(); d < bestDist {
			best, bestDist = e, d
		}
	}
	if best == nil {
		return Entity{}, false
	}
	return *best, true
}

// Clear forgets every entity.
func (s *EntityStore) Clear() {
	s.mu.Lock()
	s.entities = make(map[int32]*Entity)
	s.mu.Unlock()
}

// DeltaVec converts a fixed-point delta to a vector in blocks.
func DeltaVec(dx, dy, dz int16) mgl64.Vec3 {
	return mgl64.Vec3{float64(dx) / DeltaScale, float64(dy) / DeltaScale, float64(dz) / DeltaScale}
}

package world

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"github.com/StoreStation/VibeShitBot/internal/notify"
)

// Relative flags of Player Position And Look. A set bit means the field is an
// offset from the current value.
const (
	RelativeX     uint8 = 0x01
	RelativeY     uint8 = 0x02
	RelativeZ     uint8 = 0x04
	RelativeYaw   uint8 = 0x08
	RelativePitch uint8 = 0x10
)

// Gamemodes
const (
	Survival  uint8 = 0
	Creative  uint8 = 1
	Adventure uint8 = 2
	Spectator uint8 = 3
)

// PlayerState is a snapshot of the local player.
type PlayerState struct {
	EntityID      int32
	Username      string
	UUID          uuid.UUID
	Position      mgl64.Vec3
	Yaw           float32
	Pitch         float32
	OnGround      bool
	PositionKnown bool
	Sneaking      bool

	Health     float32
	Food       int32
	Saturation float32
	Gamemode   uint8
}

// Dead reports whether a health update has brought the player to zero.
func (s PlayerState) Dead() bool {
	return s.Health <= 0
}

// Player is the local player.
type Player struct {
	mu    deadlock.RWMutex
	state PlayerState

	healthChanged   notify.Notifier
	positionChanged notify.Notifier
}

// NewPlayer creates a player with full health, as a fresh login has.
func NewPlayer() *Player {
	return &Player{state: PlayerState{Health: 20, Food: 20, Saturation: 5}}
}

// Snapshot returns a copy of the current state.
func (p *Player) Snapshot() PlayerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// SetIdentity records the username and UUID from login success.
func (p *Player) SetIdentity(username string, id uuid.UUID) {
	p.mu.Lock()
	p.state.Username = username
	p.state.UUID = id
	p.mu.Unlock()
}

// SetEntityID records the entity id from join game.
func (p *Player) SetEntityID(id int32) {
	p.mu.Lock()
	p.state.EntityID = id
	p.mu.Unlock()
}

// SetGamemode records the gamemode.
func (p *Player) SetGamemode(mode uint8) {
	p.mu.Lock()
	p.state.Gamemode = mode
	p.mu.Unlock()
}

// SetSneaking records the sneak state sent to the server.
func (p *Player) SetSneaking(sneaking bool) {
	p.mu.Lock()
	p.state.Sneaking = sneaking
	p.mu.Unlock()
}

// ApplyPositionLook applies a server position update. Fields whose flag bit
// is set are offsets from the current value.
func (p *Player) ApplyPositionLook(pos mgl64.Vec3, yaw, pitch float32, flags uint8) PlayerState {
	p.mu.Lock()
	s := &p.state
	if flags&RelativeX != 0 {
		pos[0] += s.Position[0]
	}
	if flags&RelativeY != 0 {
		pos[1] += s.Position[1]
	}
	if flags&RelativeZ != 0 {
		pos[2] += s.Position[2]
	}
	if flags&RelativeYaw != 0 {
		yaw += s.Yaw
	}
	if flags&RelativePitch != 0 {
		pitch += s.Pitch
	}
	s.Position = pos
	s.Yaw = yaw
	s.Pitch = pitch
	s.PositionKnown = true
	snap := *s
	p.mu.Unlock()

	p.positionChanged.Broadcast()
	return snap
}

// SetPosition records a client-initiated move.
func (p *Player) SetPosition(pos mgl64.Vec3, onGround bool) {
	p.mu.Lock()
	p.state.Position = pos
	p.state.OnGround = onGround
	p.mu.Unlock()
}

// SetRotation records a client-initiated look.
func (p *Player) SetRotation(yaw, pitch float32) {
	p.mu.Lock()
	p.state.Yaw = yaw
	p.state.Pitch = pitch
	p.mu.Unlock()
}

// SetHealth applies an Update Health packet.
func (p *Player) SetHealth(health float32, food int32, saturation float32) PlayerState {
	p.mu.Lock()
	p.state.Health = health
	p.state.Food = food
	p.state.Saturation = saturation
	snap := p.state
	p.mu.Unlock()

	p.healthChanged.Broadcast()
	return snap
}

// HealthChanged returns a channel closed by the next health update.
func (p *Player) HealthChanged() <-chan struct{} {
	return p.healthChanged.C()
}

// WaitPosition blocks until the server has placed the player.
func (p *Player) WaitPosition(ctx context.Context) error {
	return p.positionChanged.Wait(ctx, func() bool {
		return p.Snapshot().PositionKnown
	})
}

package world

import (
	"github.com/sasha-s/go-deadlock"

	"github.com/StoreStation/VibeShitBot/pkg/inventory"
)

// TicksPerSecond is the server simulation rate.
const TicksPerSecond = 20

// Info describes the world the player is in, from Join Game and Respawn.
type Info struct {
	Dimension        string
	WorldName        string
	HashedSeed       int64
	Hardcore         bool
	Gamemode         uint8
	PreviousGamemode int8
	ViewDistance     int32
	Debug            bool
	Flat             bool
}

// Options configures a World.
type Options struct {
	// StackConfirmations keeps every window confirmation verdict in order
	// instead of only the newest per (window, action).
	StackConfirmations bool
	// CompressChunks snappy-compresses chunk data until first access.
	CompressChunks bool
}

// World tracks everything the client knows: the local player, entities,
// inventory and the chunk cache. Each part carries its own lock; the world
// itself only guards Info, time and the title overlay.
type World struct {
	Chunks        *ChunkStore
	Entities      *EntityStore
	Player        *Player
	Inventory     *inventory.Inventory
	Confirmations *inventory.Confirmations

	mu        deadlock.RWMutex
	info      Info
	age       int64
	timeOfDay int64
	title     TitleState
}

// New creates an empty World.
func New(opts Options) *World {
	return &World{
		Chunks:        NewChunkStore(opts.CompressChunks),
		Entities:      NewEntityStore(),
		Player:        NewPlayer(),
		Inventory:     inventory.New(),
		Confirmations: inventory.NewConfirmations(opts.StackConfirmations),
		title:         defaultTitle(),
	}
}

// Join records Join Game.
func (w *World) Join(info Info) {
	w.mu.Lock()
	w.info = info
	w.mu.Unlock()
	w.Player.SetGamemode(info.Gamemode)
}

// Respawn records a Respawn. Changing dimension drops chunks and entities;
// the inventory is cleared either way and refilled by the server.
func (w *World) Respawn(info Info) {
	w.mu.Lock()
	changed := w.info.Dimension != info.Dimension || w.info.WorldName != info.WorldName
	info.ViewDistance = w.info.ViewDistance
	info.Hardcore = w.info.Hardcore
	w.info = info
	w.mu.Unlock()

	if changed {
		w.Chunks.Clear()
		w.Entities.Clear()
	}
	w.Inventory.Clear()
	w.Player.SetGamemode(info.Gamemode)
}

// Info returns the current world description.
func (w *World) Info() Info {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.info
}

// SetTime records a Time Update.
func (w *World) SetTime(age, timeOfDay int64) {
	w.mu.Lock()
	w.age = age
	w.timeOfDay = timeOfDay
	w.mu.Unlock()
}

// Time returns the world age and time of day in ticks. A negative time of
// day means the daylight cycle is frozen.
func (w *World) Time() (age, timeOfDay int64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.age, w.timeOfDay
}

// IsDay reports whether the time of day is in the daylight half.
func (w *World) IsDay() bool {
	_, t := w.Time()
	if t < 0 {
		t = -t
	}
	t %= 24000
	return t < 12000
}

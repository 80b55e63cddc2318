package client

import (
	"time"

	"github.com/StoreStation/VibeShitBot/pkg/packets"
)

// Config holds client configuration.
type Config struct {
	Address  string
	Username string
	// Version is the protocol version sent in the handshake and used to pick
	// packet layouts.
	Version    int32
	Thresholds packets.Thresholds

	DialTimeout time.Duration
	// ReadTimeout ends the session when the server stays silent this long.
	// Keep alives arrive every 15 seconds.
	ReadTimeout time.Duration
	// ConfirmTimeout bounds waits for window click confirmations.
	ConfirmTimeout time.Duration

	StackConfirmations bool
	ChunkWorkers       int
	CompressChunks     bool
	AutoRespawn        bool
	Settings           packets.ClientSettings
	Brand              string
	Debug              bool
}

// DefaultConfig returns a default client configuration.
func DefaultConfig() Config {
	return Config{
		Address:        "localhost:25565",
		Username:       "VibeShitBot",
		Version:        packets.Version1_16_5,
		Thresholds:     packets.DefaultThresholds(),
		DialTimeout:    10 * time.Second,
		ReadTimeout:    30 * time.Second,
		ConfirmTimeout: 5 * time.Second,
		ChunkWorkers:   2,
		AutoRespawn:    true,
		Settings:       packets.DefaultClientSettings(),
		Brand:          "vanilla",
	}
}

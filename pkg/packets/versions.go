// Package packets maps wire frames to typed packets and back, choosing the
// field layout and packet ids by negotiated protocol version.
package packets

import (
	"fmt"

	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

// Thresholds are the protocol versions at which layouts change. They are
// configuration, not constants, so a caller can pin a server that reports a
// snapshot number.
type Thresholds struct {
	// BinaryLoginUUID is the first version whose Login Success carries a
	// 128-bit UUID instead of a hyphenated string (1.16).
	BinaryLoginUUID int32
	// NetherUpdate2 is the first version with play packet ids (1.16.2).
	NetherUpdate2 int32
	// CavesAndCliffs (1.17) switches the chunk mask to a long array, drops
	// window confirmations, adds ping/pong and splits combat events.
	CavesAndCliffs int32
	// CavesAndCliffs1 (1.17.1) adds state ids to window packets.
	CavesAndCliffs1 int32
	// MaxSupported is the last version with play packet ids (1.17.1).
	MaxSupported int32
}

// DefaultThresholds returns the release version numbers.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BinaryLoginUUID: 735,
		NetherUpdate2:   751,
		CavesAndCliffs:  755,
		CavesAndCliffs1: 756,
		MaxSupported:    756,
	}
}

// Protocol versions of the releases this module has id tables for.
const (
	Version1_16_5 int32 = 754
	Version1_17_1 int32 = 756
)

// branch is one layout of a packet, valid for versions in [since, until).
// until 0 means no upper bound.
type branch[F any] struct {
	since, until int32
	fn           F
}

type branches[F any] []branch[F]

func always[F any](fn F) branches[F] {
	return branches[F]{{fn: fn}}
}

func (bs branches[F]) pick(version int32) (F, error) {
	for _, b := range bs {
		if version >= b.since && (b.until == 0 || version < b.until) {
			return b.fn, nil
		}
	}
	var zero F
	return zero, fmt.Errorf("%w: %d", protocol.ErrUnsupportedVersion, version)
}

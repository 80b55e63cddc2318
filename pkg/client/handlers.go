package client

import (
	"log"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/StoreStation/VibeShitBot/pkg/chat"
	"github.com/StoreStation/VibeShitBot/pkg/nbt"
	"github.com/StoreStation/VibeShitBot/pkg/packets"
	"github.com/StoreStation/VibeShitBot/pkg/world"
)

// Handlers are application callbacks. They run on the read loop after the
// world has been updated, so a callback sees the state the packet produced.
// Any of them may be nil. A panicking callback is logged and the loop goes on.
type Handlers struct {
	OnJoin func(c *Client)
	// OnChat receives player chat, system messages and action bar text.
	// Chat the local player sent is not echoed back.
	OnChat        func(c *Client, msg chat.Message, position int8, sender uuid.UUID)
	OnBlockChange func(c *Client, x, y, z, state int32)
	OnChunkLoad   func(c *Client, x, z int32)
	// OnWindowUpdate fires after a window opens, closes or has slots set.
	OnWindowUpdate func(c *Client, windowID uint8)
	OnHealth       func(c *Client, s world.PlayerState)
	// OnPosition fires when the server moves the player. Returning false
	// suppresses the teleport confirmation and position echo.
	OnPosition       func(c *Client, s world.PlayerState) bool
	OnEntitySpawn    func(c *Client, e world.Entity)
	OnEntityMove     func(c *Client, e world.Entity)
	OnEntityTeleport func(c *Client, e world.Entity)
	OnTabComplete    func(c *Client, p packets.TabComplete)
	OnNBTQuery       func(c *Client, transactionID int32, tag *nbt.Compound)
	OnDeath          func(c *Client, msg chat.Message)
	OnDisconnect     func(c *Client, reason chat.Message)
	OnWindowProperty func(c *Client, windowID uint8, property, value int16)
	OnDiggingAck     func(c *Client, p packets.AckPlayerDigging)
	// OnBlockBreakAnimation reports another entity's digging progress. Stage
	// runs 0 to 9; any other value removes the animation.
	OnBlockBreakAnimation func(c *Client, entityID, x, y, z int32, stage int8)
	// OnTitle fires after any title packet with the action it carried and the
	// resulting overlay.
	OnTitle func(c *Client, action int32, s world.TitleState)
	// OnPacket sees every packet, including Unhandled ones.
	OnPacket func(c *Client, p packets.Packet)
}

// call runs a callback, isolating the read loop from its panics.
func (c *Client) call(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Callback %s panicked: %v\n%s", name, r, debug.Stack())
		}
	}()
	fn()
}

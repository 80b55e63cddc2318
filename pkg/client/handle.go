package client

import (
	"bytes"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/StoreStation/VibeShitBot/pkg/chat"
	"github.com/StoreStation/VibeShitBot/pkg/nbt"
	"github.com/StoreStation/VibeShitBot/pkg/packets"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
	"github.com/StoreStation/VibeShitBot/pkg/world"
)

// handle applies one packet to the session and the world, then notifies the
// application.
func (c *Client) handle(p packets.Packet) {
	h := &c.handlers
	w := c.World

	switch p := p.(type) {
	case packets.LoginDisconnect:
		c.kicked(p.Reason)
	case packets.Disconnect:
		c.kicked(p.Reason)

	case packets.EncryptionRequest:
		c.finish(ErrEncryptionRequired)

	case packets.SetCompression:
		c.threshold.Store(p.Threshold)

	case packets.LoginPluginRequest:
		c.reply(packets.LoginPluginResponse{MessageID: p.MessageID})

	case packets.LoginSuccess:
		w.Player.SetIdentity(p.Username, p.UUID)
		log.Printf("Logged in as %s (%s)", p.Username, p.UUID)
		c.setStage(protocol.StatePlay)

	case packets.KeepAlive:
		c.reply(packets.KeepAliveResponse{ID: p.ID})

	case packets.Ping:
		c.reply(packets.Pong{ID: p.ID})

	case packets.JoinGame:
		w.Player.SetEntityID(p.EntityID)
		w.Join(world.Info{
			Dimension:        dimensionName(p.Dimension, p.WorldName),
			WorldName:        p.WorldName,
			HashedSeed:       p.HashedSeed,
			Hardcore:         p.Hardcore,
			Gamemode:         p.Gamemode,
			PreviousGamemode: p.PreviousGamemode,
			ViewDistance:     p.ViewDistance,
			Debug:            p.Debug,
			Flat:             p.Flat,
		})
		log.Printf("Joined %s (EID: %d)", p.WorldName, p.EntityID)
		c.reply(c.cfg.Settings)
		c.reply(brand(c.cfg.Brand))
		if h.OnJoin != nil {
			c.call("OnJoin", func() { h.OnJoin(c) })
		}

	case packets.Respawn:
		w.Respawn(world.Info{
			Dimension:        dimensionName(p.Dimension, p.WorldName),
			WorldName:        p.WorldName,
			HashedSeed:       p.HashedSeed,
			Gamemode:         p.Gamemode,
			PreviousGamemode: p.PreviousGamemode,
			Debug:            p.Debug,
			Flat:             p.Flat,
		})

	case packets.ChatMessage:
		self := w.Player.Snapshot().UUID
		if p.Position == packets.ChatPositionChat && p.Sender != uuid.Nil && p.Sender == self {
			return
		}
		if h.OnChat != nil {
			c.call("OnChat", func() { h.OnChat(c, p.Message, p.Position, p.Sender) })
		}

	case packets.ChunkData:
		col := world.NewColumn(p.X, p.Z, p.Format, p.Full, p.Raw)
		if err := w.Chunks.Load(col); err != nil {
			log.Printf("Chunk (%d, %d) not loaded: %v", p.X, p.Z, err)
			return
		}
		if h.OnChunkLoad != nil {
			c.call("OnChunkLoad", func() { h.OnChunkLoad(c, p.X, p.Z) })
		}

	case packets.UnloadChunk:
		w.Chunks.Unload(p.X, p.Z)

	case packets.BlockChange:
		c.patchLogged(w.Chunks.SetBlock(p.X, p.Y, p.Z, p.State))
		if h.OnBlockChange != nil {
			c.call("OnBlockChange", func() { h.OnBlockChange(c, p.X, p.Y, p.Z, p.State) })
		}

	case packets.MultiBlockChange:
		c.patchLogged(w.Chunks.ApplyMultiBlockChange(p.SectionX, p.SectionY, p.SectionZ, p.Records))
		if h.OnBlockChange != nil {
			for _, rec := range p.Records {
				state, x, y, z := world.UnpackBlockRecord(rec)
				bx, by, bz := p.SectionX<<4|int32(x), p.SectionY<<4|int32(y), p.SectionZ<<4|int32(z)
				c.call("OnBlockChange", func() { h.OnBlockChange(c, bx, by, bz, state) })
			}
		}

	case packets.SpawnPlayer:
		e := world.Entity{
			ID:       p.EntityID,
			UUID:     p.UUID,
			IsPlayer: true,
			Position: p.Position,
			Yaw:      protocol.AngleToDegrees(p.Yaw),
			Pitch:    protocol.AngleToDegrees(p.Pitch),
		}
		w.Entities.Spawn(e)
		c.entityEvent("OnEntitySpawn", h.OnEntitySpawn, e, true)

	case packets.SpawnLivingEntity:
		e := world.Entity{
			ID:       p.EntityID,
			UUID:     p.UUID,
			Type:     p.Type,
			Position: p.Position,
			Yaw:      protocol.AngleToDegrees(p.Yaw),
			Pitch:    protocol.AngleToDegrees(p.Pitch),
			HeadYaw:  protocol.AngleToDegrees(p.HeadPitch),
		}
		w.Entities.Spawn(e)
		c.entityEvent("OnEntitySpawn", h.OnEntitySpawn, e, true)

	case packets.EntityPosition:
		e, ok := w.Entities.Move(p.EntityID, p.DX, p.DY, p.DZ, p.OnGround)
		c.entityEvent("OnEntityMove", h.OnEntityMove, e, ok)

	case packets.EntityPositionRotation:
		e, ok := w.Entities.MoveAndRotate(p.EntityID, p.DX, p.DY, p.DZ, p.Yaw, p.Pitch, p.OnGround)
		c.entityEvent("OnEntityMove", h.OnEntityMove, e, ok)

	case packets.EntityRotation:
		e, ok := w.Entities.Rotate(p.EntityID, p.Yaw, p.Pitch, p.OnGround)
		c.entityEvent("OnEntityMove", h.OnEntityMove, e, ok)

	case packets.EntityTeleport:
		e, ok := w.Entities.Teleport(p.EntityID, p.Position, p.Yaw, p.Pitch, p.OnGround)
		c.entityEvent("OnEntityTeleport", h.OnEntityTeleport, e, ok)

	case packets.PlayerPositionLook:
		s := w.Player.ApplyPositionLook(p.Position, p.Yaw, p.Pitch, p.Flags)
		ack := true
		if h.OnPosition != nil {
			c.call("OnPosition", func() { ack = h.OnPosition(c, s) })
		}
		if !ack {
			return
		}
		c.reply(packets.TeleportConfirm{TeleportID: p.TeleportID})
		c.reply(packets.PlayerPositionRotation{Position: s.Position, Yaw: s.Yaw, Pitch: s.Pitch, OnGround: s.OnGround})

	case packets.UpdateHealth:
		s := w.Player.SetHealth(p.Health, p.Food, p.Saturation)
		if h.OnHealth != nil {
			c.call("OnHealth", func() { h.OnHealth(c, s) })
		}

	case packets.CombatEvent:
		if p.Event != packets.CombatEntityDead || p.PlayerID != w.Player.Snapshot().EntityID {
			return
		}
		log.Printf("Died: %s", p.Message.PlainText())
		if h.OnDeath != nil {
			c.call("OnDeath", func() { h.OnDeath(c, p.Message) })
		}
		if c.cfg.AutoRespawn {
			c.reply(packets.ClientStatus{Action: packets.StatusRespawn})
		}

	case packets.OpenWindow:
		if err := w.Inventory.Open(uint8(p.WindowID), p.Type, p.Title); err != nil {
			log.Printf("Open window %d: %v", p.WindowID, err)
			return
		}
		c.windowEvent(uint8(p.WindowID))

	case packets.CloseWindow:
		w.Inventory.Close()
		c.windowEvent(p.WindowID)

	case packets.WindowItems:
		if err := w.Inventory.SetItems(p.WindowID, p.Slots, p.Carried); err != nil {
			log.Printf("Window items for %d: %v", p.WindowID, err)
			return
		}
		w.Inventory.SetStateID(p.StateID)
		c.windowEvent(p.WindowID)

	case packets.SetSlot:
		if err := w.Inventory.SetSlot(p.WindowID, p.Slot, p.Item); err != nil {
			log.Printf("Set slot %d in window %d: %v", p.Slot, p.WindowID, err)
			return
		}
		w.Inventory.SetStateID(p.StateID)
		if p.WindowID >= 0 {
			c.windowEvent(uint8(p.WindowID))
		}

	case packets.WindowConfirmation:
		w.Confirmations.Put(p.WindowID, p.Action, p.Accepted)
		if !p.Accepted {
			// The server stops processing clicks until a rejection is echoed.
			c.reply(packets.ConfirmWindow{WindowID: p.WindowID, Action: p.Action, Accepted: false})
		}

	case packets.HeldItemChange:
		if err := w.Inventory.Select(int(p.Slot)); err != nil {
			log.Printf("Held item change: %v", err)
			return
		}
		c.reply(packets.SetHeldItem{Slot: int16(p.Slot)})

	case packets.TimeUpdate:
		w.SetTime(p.WorldAge, p.TimeOfDay)

	case packets.TabComplete:
		if h.OnTabComplete != nil {
			c.call("OnTabComplete", func() { h.OnTabComplete(c, p) })
		}

	case packets.NBTQueryResponse:
		if h.OnNBTQuery != nil {
			c.call("OnNBTQuery", func() { h.OnNBTQuery(c, p.TransactionID, p.NBT) })
		}

	case packets.AckPlayerDigging:
		if !p.Successful && c.cfg.Debug {
			log.Printf("Digging at (%d, %d, %d) rejected", p.X, p.Y, p.Z)
		}
		if h.OnDiggingAck != nil {
			c.call("OnDiggingAck", func() { h.OnDiggingAck(c, p) })
		}

	case packets.BlockBreakAnimation:
		if h.OnBlockBreakAnimation != nil {
			c.call("OnBlockBreakAnimation", func() { h.OnBlockBreakAnimation(c, p.EntityID, p.X, p.Y, p.Z, p.Stage) })
		}

	case packets.WindowProperty:
		if h.OnWindowProperty != nil {
			c.call("OnWindowProperty", func() { h.OnWindowProperty(c, p.WindowID, p.Property, p.Value) })
		}

	case packets.Title:
		var s world.TitleState
		switch p.Action {
		case packets.TitleSetTitle:
			s = w.SetTitle(p.Text)
		case packets.TitleSetSubtitle:
			s = w.SetSubtitle(p.Text)
		case packets.TitleSetActionBar:
			s = w.SetActionBar(p.Text)
		case packets.TitleSetTimes:
			s = w.SetTitleTimes(p.FadeIn, p.Stay, p.FadeOut)
		case packets.TitleHide:
			s = w.ClearTitle(false)
		case packets.TitleReset:
			s = w.ClearTitle(true)
		default:
			if c.cfg.Debug {
				log.Printf("Unknown title action %d", p.Action)
			}
			return
		}
		if h.OnTitle != nil {
			c.call("OnTitle", func() { h.OnTitle(c, p.Action, s) })
		}

	case packets.Unhandled:
		if c.cfg.Debug {
			log.Printf("Unhandled %s packet 0x%02X (%d bytes)", p.Stage, p.ID, len(p.Data))
		}
	}
}

func (c *Client) kicked(reason chat.Message) {
	c.mu.Lock()
	c.reason = &reason
	c.mu.Unlock()
	log.Printf("Kicked: %s", reason.PlainText())
	if c.handlers.OnDisconnect != nil {
		c.call("OnDisconnect", func() { c.handlers.OnDisconnect(c, reason) })
	}
	c.finish(nil)
}

// reply sends from the read loop, where a failure only needs logging.
func (c *Client) reply(p packets.Packet) {
	if err := c.send(p); err != nil && !errors.Is(err, ErrNotConnected) {
		log.Printf("Reply %s failed: %v", p.Kind(), err)
	}
}

func (c *Client) patchLogged(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, world.ErrStaleChunkPatch):
		log.Printf("Block patch skipped: %v", err)
	case errors.Is(err, world.ErrColumnNotLoaded):
		if c.cfg.Debug {
			log.Printf("Block patch skipped: %v", err)
		}
	default:
		log.Printf("Block patch failed: %v", err)
	}
}

func (c *Client) entityEvent(name string, fn func(*Client, world.Entity), e world.Entity, ok bool) {
	if ok && fn != nil {
		c.call(name, func() { fn(c, e) })
	}
}

func (c *Client) windowEvent(id uint8) {
	if c.handlers.OnWindowUpdate != nil {
		c.call("OnWindowUpdate", func() { c.handlers.OnWindowUpdate(c, id) })
	}
}

// dimensionName reads the dimension type's effects key, which names the
// vanilla dimension even for datapack worlds.
func dimensionName(dim *nbt.Compound, worldName string) string {
	if dim != nil {
		if s, ok := dim.String("effects"); ok {
			return s
		}
	}
	return worldName
}

func brand(name string) packets.PluginMessage {
	var w bytes.Buffer
	protocol.WriteString(&w, name)
	return packets.PluginMessage{Channel: "minecraft:brand", Data: w.Bytes()}
}

package client

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/StoreStation/VibeShitBot/pkg/inventory"
	"github.com/StoreStation/VibeShitBot/pkg/packets"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

// MaxChatLength is the longest chat message the server accepts.
const MaxChatLength = 256

func (c *Client) inPlay() error {
	if c.ended() || c.Stage() != protocol.StatePlay {
		return ErrNotConnected
	}
	return nil
}

// playSend sends a packet that only makes sense once in Play.
func (c *Client) playSend(p packets.Packet) error {
	if err := c.inPlay(); err != nil {
		return err
	}
	return c.send(p)
}

// Move shifts the player by a delta in blocks and reports the new position.
func (c *Client) Move(delta mgl64.Vec3, onGround bool) error {
	return c.MoveTo(c.World.Player.Snapshot().Position.Add(delta), onGround)
}

// MoveTo reports an absolute position.
func (c *Client) MoveTo(pos mgl64.Vec3, onGround bool) error {
	if err := c.inPlay(); err != nil {
		return err
	}
	c.World.Player.SetPosition(pos, onGround)
	return c.send(packets.PlayerPosition{Position: pos, OnGround: onGround})
}

// Look sets yaw and pitch in degrees.
func (c *Client) Look(yaw, pitch float32) error {
	if err := c.inPlay(); err != nil {
		return err
	}
	c.World.Player.SetRotation(yaw, pitch)
	return c.send(packets.PlayerRotation{Yaw: yaw, Pitch: pitch, OnGround: c.World.Player.Snapshot().OnGround})
}

// LookAt turns the player's head towards a point.
func (c *Client) LookAt(target mgl64.Vec3) error {
	yaw, pitch := LookAngles(c.World.Player.Snapshot().Position.Add(mgl64.Vec3{0, EyeHeight, 0}), target)
	return c.Look(yaw, pitch)
}

// EyeHeight is the standing eye height above the feet.
const EyeHeight = 1.62

// LookAngles returns the yaw and pitch that point from eye at target, in the
// game's convention: yaw 0 faces +Z and grows clockwise, pitch grows
// downward.
func LookAngles(eye, target mgl64.Vec3) (yaw, pitch float32) {
	d := target.Sub(eye)
	horizontal := math.Hypot(d.X(), d.Z())
	yaw = float32(mgl64.RadToDeg(math.Atan2(-d.X(), d.Z())))
	pitch = float32(mgl64.RadToDeg(-math.Atan2(d.Y(), horizontal)))
	return yaw, pitch
}

// Chat sends a chat message or command. Longer messages are truncated.
func (c *Client) Chat(msg string) error {
	if r := []rune(msg); len(r) > MaxChatLength {
		msg = string(r[:MaxChatLength])
	}
	return c.playSend(packets.SendChat{Message: msg})
}

// StartDigging begins breaking a block.
func (c *Client) StartDigging(x, y, z int32, face int8) error {
	return c.playSend(packets.PlayerDigging{Status: packets.DigStart, X: x, Y: y, Z: z, Face: face})
}

// CancelDigging abandons a block.
func (c *Client) CancelDigging(x, y, z int32, face int8) error {
	return c.playSend(packets.PlayerDigging{Status: packets.DigCancel, X: x, Y: y, Z: z, Face: face})
}

// FinishDigging tells the server the block is broken.
func (c *Client) FinishDigging(x, y, z int32, face int8) error {
	return c.playSend(packets.PlayerDigging{Status: packets.DigFinish, X: x, Y: y, Z: z, Face: face})
}

// BreakBlock digs for the given duration and then finishes. Cancelling ctx
// mid-way sends a cancel instead.
func (c *Client) BreakBlock(ctx context.Context, x, y, z int32, face int8, duration time.Duration) error {
	if err := c.StartDigging(x, y, z, face); err != nil {
		return err
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return c.FinishDigging(x, y, z, face)
	case <-ctx.Done():
		c.CancelDigging(x, y, z, face)
		return ctx.Err()
	case <-c.done:
		return ErrNotConnected
	}
}

// PlaceBlock uses the held item against a block face, aiming at its centre.
func (c *Client) PlaceBlock(x, y, z int32, face int8, hand int32) error {
	return c.playSend(packets.PlayerBlockPlacement{
		Hand:   hand,
		X:      x,
		Y:      y,
		Z:      z,
		Face:   int32(face),
		Cursor: [3]float32{0.5, 0.5, 0.5},
	})
}

// UseItem uses the item in a hand.
func (c *Client) UseItem(hand int32) error {
	return c.playSend(packets.UseItem{Hand: hand})
}

// ReleaseUseItem stops using an item: finishes eating, shoots a bow.
func (c *Client) ReleaseUseItem() error {
	return c.playSend(packets.PlayerDigging{Status: packets.DigShootArrow, Face: packets.FaceBottom})
}

// Eat starts eating the held item and stops once the server reports new
// food levels or ctx ends.
func (c *Client) Eat(ctx context.Context, hand int32) error {
	changed := c.World.Player.HealthChanged()
	if err := c.UseItem(hand); err != nil {
		return err
	}
	select {
	case <-changed:
	case <-ctx.Done():
		c.ReleaseUseItem()
		return ctx.Err()
	case <-c.done:
		return ErrNotConnected
	}
	return c.ReleaseUseItem()
}

// DropItem drops one item, or the whole stack, from the selected slot.
func (c *Client) DropItem(stack bool) error {
	status := packets.DigDropItem
	if stack {
		status = packets.DigDropStack
	}
	return c.playSend(packets.PlayerDigging{Status: status, Face: packets.FaceBottom})
}

// SwapHands swaps the main and off hand items.
func (c *Client) SwapHands() error {
	return c.playSend(packets.PlayerDigging{Status: packets.DigSwapHands, Face: packets.FaceBottom})
}

// Sneak starts or stops sneaking.
func (c *Client) Sneak(sneaking bool) error {
	action := packets.ActionStopSneaking
	if sneaking {
		action = packets.ActionStartSneaking
	}
	err := c.playSend(packets.EntityAction{EntityID: c.World.Player.Snapshot().EntityID, Action: action})
	if err != nil {
		return err
	}
	c.World.Player.SetSneaking(sneaking)
	return nil
}

// Respawn asks to respawn after death.
func (c *Client) Respawn() error {
	return c.playSend(packets.ClientStatus{Action: packets.StatusRespawn})
}

// SelectSlot changes the held hotbar slot (0-8).
func (c *Client) SelectSlot(hotbar int) error {
	if err := c.inPlay(); err != nil {
		return err
	}
	if err := c.World.Inventory.Select(hotbar); err != nil {
		return err
	}
	return c.send(packets.SetHeldItem{Slot: int16(hotbar)})
}

// Interact uses an entity, as right-clicking it does.
func (c *Client) Interact(entityID int32, hand int32) error {
	return c.playSend(packets.InteractEntity{
		EntityID: entityID,
		Type:     packets.InteractUse,
		Hand:     hand,
		Sneaking: c.World.Player.Snapshot().Sneaking,
	})
}

// InteractAt uses an entity at a point relative to its position.
func (c *Client) InteractAt(entityID int32, target mgl64.Vec3, hand int32) error {
	return c.playSend(packets.InteractEntity{
		EntityID: entityID,
		Type:     packets.InteractAt,
		Target:   [3]float32{float32(target.X()), float32(target.Y()), float32(target.Z())},
		Hand:     hand,
		Sneaking: c.World.Player.Snapshot().Sneaking,
	})
}

// Attack hits an entity.
func (c *Client) Attack(entityID int32) error {
	return c.playSend(packets.InteractEntity{
		EntityID: entityID,
		Type:     packets.InteractAttack,
		Sneaking: c.World.Player.Snapshot().Sneaking,
	})
}

// TabComplete requests completions for text. The answer arrives through
// Handlers.OnTabComplete with the returned transaction id.
func (c *Client) TabComplete(text string) (int32, error) {
	id := c.nextTransaction.Add(1)
	return id, c.playSend(packets.RequestTabComplete{TransactionID: id, Text: text})
}

// QueryBlockNBT requests a block entity's data. The answer arrives through
// Handlers.OnNBTQuery with the returned transaction id.
func (c *Client) QueryBlockNBT(x, y, z int32) (int32, error) {
	id := c.nextTransaction.Add(1)
	return id, c.playSend(packets.QueryBlockNBT{TransactionID: id, X: x, Y: y, Z: z})
}

// CloseWindow closes the open container, or the player inventory.
func (c *Client) CloseWindow() error {
	id := c.World.Inventory.WindowID()
	if err := c.playSend(packets.CloseContainer{WindowID: id}); err != nil {
		return err
	}
	c.World.Inventory.Close()
	return nil
}

// Click left-clicks a slot of a window in pickup mode and reports whether
// the server accepted it. Before 1.17 this waits for the server's
// confirmation, bounded by ctx and Config.ConfirmTimeout, and a rejected click
// is undone locally; later versions have no confirmations and a sent click
// counts as accepted.
func (c *Client) Click(ctx context.Context, windowID uint8, slot int16) (bool, error) {
	if err := c.inPlay(); err != nil {
		return false, err
	}
	inv := c.World.Inventory
	cursor := inv.Cursor()
	before, err := inv.Click(windowID, int(slot))
	if err != nil {
		return false, err
	}
	after, _ := inv.Slot(windowID, int(slot))

	action := int16(c.nextAction.Add(1))
	err = c.send(packets.ClickWindow{
		WindowID: windowID,
		StateID:  inv.StateID(),
		Slot:     slot,
		Button:   0,
		Action:   action,
		Mode:     packets.ClickModePickup,
		Clicked:  before,
		Changed:  []packets.ChangedSlot{{Slot: slot, Item: after}},
		Carried:  inv.Cursor(),
	})
	if err != nil {
		return false, err
	}
	if c.cfg.Version >= c.cfg.Thresholds.CavesAndCliffs {
		return true, nil
	}

	if c.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
		defer cancel()
	}
	accepted, err := c.World.Confirmations.Wait(ctx, int8(windowID), action)
	if err != nil {
		return false, fmt.Errorf("click %d in window %d: %w", slot, windowID, err)
	}
	if !accepted {
		if err := inv.Restore(windowID, int(slot), before, cursor); err != nil {
			log.Printf("Rolling back click %d in window %d: %v", slot, windowID, err)
		}
	}
	return accepted, nil
}

// SwitchSlots swaps the contents of two slots with three clicks: pick up a,
// put down on b, put the former b content back on a.
func (c *Client) SwitchSlots(ctx context.Context, windowID uint8, a, b int16) error {
	for _, slot := range []int16{a, b, a} {
		accepted, err := c.Click(ctx, windowID, slot)
		if err != nil {
			return err
		}
		if !accepted {
			return fmt.Errorf("switch slots %d and %d: click on %d rejected", a, b, slot)
		}
	}
	return nil
}

// HeldItem returns the item in the selected hotbar slot.
func (c *Client) HeldItem() inventory.Slot {
	return c.World.Inventory.SelectedItem()
}

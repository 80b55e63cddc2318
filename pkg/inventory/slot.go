// Package inventory models the player inventory, container windows and the
// server's click confirmations.
package inventory

import (
	"fmt"
	"io"

	"github.com/StoreStation/VibeShitBot/pkg/nbt"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

// Slot is an optional item stack. An absent slot is not the same as a present
// stack with item id 0, and both round-trip as such.
type Slot struct {
	Present bool
	ItemID  int32
	Count   int8
	NBT     *nbt.Compound
}

// Item creates a present slot.
func Item(id int32, count int8) Slot {
	return Slot{Present: true, ItemID: id, Count: count}
}

// Empty reports whether the slot holds nothing usable.
func (s Slot) Empty() bool {
	return !s.Present || s.Count <= 0
}

func (s Slot) String() string {
	if !s.Present {
		return "empty"
	}
	return fmt.Sprintf("%dx#%d", s.Count, s.ItemID)
}

// ReadSlot reads a slot: presence flag, then item id, count and NBT.
func ReadSlot(r io.Reader) (Slot, error) {
	present, err := protocol.ReadBool(r)
	if err != nil {
		return Slot{}, err
	}
	if !present {
		return Slot{}, nil
	}
	id, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return Slot{}, err
	}
	count, err := protocol.ReadInt8(r)
	if err != nil {
		return Slot{}, err
	}
	tag, err := nbt.Read(r)
	if err != nil {
		return Slot{}, fmt.Errorf("slot nbt: %w", err)
	}
	return Slot{Present: true, ItemID: id, Count: count, NBT: tag}, nil
}

// WriteSlot writes a slot in the layout ReadSlot reads.
func WriteSlot(w io.Writer, s Slot) error {
	if err := protocol.WriteBool(w, s.Present); err != nil {
		return err
	}
	if !s.Present {
		return nil
	}
	if _, err := protocol.WriteVarInt(w, s.ItemID); err != nil {
		return err
	}
	if err := protocol.WriteByte(w, byte(s.Count)); err != nil {
		return err
	}
	return nbt.Write(w, "", s.NBT)
}

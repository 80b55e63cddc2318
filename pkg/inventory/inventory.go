package inventory

import (
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"

	"github.com/StoreStation/VibeShitBot/pkg/chat"
)

var (
	// ErrOutOfRangeSlotIndex is returned for slot writes outside the window.
	ErrOutOfRangeSlotIndex = errors.New("slot index out of range")

	// ErrUnknownWindow is returned for writes to a window that is not open, or
	// for an Open Window of an unknown type.
	ErrUnknownWindow = errors.New("unknown window")
)

// CursorWindow and CursorSlot address the item held on the cursor in Set Slot.
const (
	CursorWindow = -1
	CursorSlot   = -1
)

// Window is an open container.
type Window struct {
	ID       uint8
	Type     int32
	Title    chat.Message
	Template Template
	Slots    []Slot
}

// Inventory holds the player's own slots (window 0), the most recently
// opened container, the cursor item and the selected hotbar slot.
type Inventory struct {
	mu       deadlock.RWMutex
	player   []Slot
	window   Window
	cursor   Slot
	stateID  int32
	selected int
}

// New creates an empty inventory.
func New() *Inventory {
	return &Inventory{player: make([]Slot, PlayerSize)}
}

// Open replaces the container layout with the template of windowType.
func (inv *Inventory) Open(id uint8, windowType int32, title chat.Message) error {
	t, ok := TemplateFor(windowType)
	if !ok {
		return fmt.Errorf("%w: type %d", ErrUnknownWindow, windowType)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.window = Window{
		ID:       id,
		Type:     windowType,
		Title:    title,
		Template: t,
		Slots:    make([]Slot, t.Size),
	}
	return nil
}

// Close marks the container closed. Its slots are kept.
func (inv *Inventory) Close() {
	inv.mu.Lock()
	inv.window.ID = 0
	inv.mu.Unlock()
}

// WindowID returns the id of the open container, or 0.
func (inv *Inventory) WindowID() uint8 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.window.ID
}

// Window returns a copy of the most recent container, open or not.
func (inv *Inventory) Window() Window {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	w := inv.window
	w.Slots = append([]Slot(nil), inv.window.Slots...)
	return w
}

// Template returns the layout of the open window, or the player layout.
func (inv *Inventory) Template() Template {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	if inv.window.ID != 0 {
		return inv.window.Template
	}
	return PlayerTemplate
}

// SetSlot applies a Set Slot packet. Window -1 slot -1 is the cursor.
func (inv *Inventory) SetSlot(windowID int8, index int16, s Slot) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if windowID == CursorWindow && index == CursorSlot {
		inv.cursor = s
		return nil
	}
	if windowID == 0 {
		if index < 0 || int(index) >= len(inv.player) {
			return fmt.Errorf("%w: %d in player inventory", ErrOutOfRangeSlotIndex, index)
		}
		inv.player[index] = s
		return nil
	}
	if inv.window.ID == 0 || windowID != int8(inv.window.ID) {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, windowID)
	}
	if index < 0 || int(index) >= len(inv.window.Slots) {
		return fmt.Errorf("%w: %d in %s", ErrOutOfRangeSlotIndex, index, inv.window.Template.Name)
	}
	inv.window.Slots[index] = s
	inv.mirrorLocked(int(index))
	return nil
}

// mirrorLocked copies a container's view of the player slots back into
// window 0.
func (inv *Inventory) mirrorLocked(i int) {
	main, ok := inv.window.Template.Range("main_inventory")
	if !ok || !main.Contains(i) {
		return
	}
	inv.player[MainInventoryLo+i-main.Lo] = inv.window.Slots[i]
}

// SetItems applies a Window Items packet. Window 0 is updated slot by slot,
// never replaced. A non-nil carried replaces the cursor item.
func (inv *Inventory) SetItems(windowID uint8, slots []Slot, carried *Slot) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	var target []Slot
	switch {
	case windowID == 0:
		target = inv.player
	case windowID == inv.window.ID:
		target = inv.window.Slots
	default:
		return fmt.Errorf("%w: %d", ErrUnknownWindow, windowID)
	}
	if len(slots) > len(target) {
		return fmt.Errorf("%w: %d items for %d slots", ErrOutOfRangeSlotIndex, len(slots), len(target))
	}
	copy(target, slots)
	if windowID != 0 {
		for i := range slots {
			inv.mirrorLocked(i)
		}
	}
	if carried != nil {
		inv.cursor = *carried
	}
	return nil
}

// Slot returns a slot of window 0 or of the open container.
func (inv *Inventory) Slot(windowID uint8, index int) (Slot, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	slots := inv.player
	if windowID != 0 {
		if windowID != inv.window.ID {
			return Slot{}, fmt.Errorf("%w: %d", ErrUnknownWindow, windowID)
		}
		slots = inv.window.Slots
	}
	if index < 0 || index >= len(slots) {
		return Slot{}, fmt.Errorf("%w: %d", ErrOutOfRangeSlotIndex, index)
	}
	return slots[index], nil
}

// PlayerSlots returns a copy of window 0.
func (inv *Inventory) PlayerSlots() []Slot {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return append([]Slot(nil), inv.player...)
}

// Cursor returns the item held on the cursor.
func (inv *Inventory) Cursor() Slot {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.cursor
}

// Click simulates a left click on a slot: the cursor and the slot swap.
// It returns the slot content before the click.
func (inv *Inventory) Click(windowID uint8, index int) (Slot, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	slots := inv.player
	if windowID != 0 {
		if windowID != inv.window.ID {
			return Slot{}, fmt.Errorf("%w: %d", ErrUnknownWindow, windowID)
		}
		slots = inv.window.Slots
	}
	if index < 0 || index >= len(slots) {
		return Slot{}, fmt.Errorf("%w: %d", ErrOutOfRangeSlotIndex, index)
	}
	before := slots[index]
	slots[index], inv.cursor = inv.cursor, before
	if windowID != 0 {
		inv.mirrorLocked(index)
	}
	return before, nil
}

// Restore puts a slot and the cursor back to what they held before a click
// the server rejected.
func (inv *Inventory) Restore(windowID uint8, index int, slot, cursor Slot) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	slots := inv.player
	if windowID != 0 {
		if windowID != inv.window.ID {
			return fmt.Errorf("%w: %d", ErrUnknownWindow, windowID)
		}
		slots = inv.window.Slots
	}
	if index < 0 || index >= len(slots) {
		return fmt.Errorf("%w: %d", ErrOutOfRangeSlotIndex, index)
	}
	slots[index] = slot
	inv.cursor = cursor
	if windowID != 0 {
		inv.mirrorLocked(index)
	}
	return nil
}

// SetStateID records the 1.17 window state id.
func (inv *Inventory) SetStateID(id int32) {
	inv.mu.Lock()
	inv.stateID = id
	inv.mu.Unlock()
}

// StateID returns the last window state id.
func (inv *Inventory) StateID() int32 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.stateID
}

// Select sets the selected hotbar slot (0-8).
func (inv *Inventory) Select(hotbar int) error {
	if hotbar < 0 || hotbar >= HotbarSize {
		return fmt.Errorf("%w: hotbar %d", ErrOutOfRangeSlotIndex, hotbar)
	}
	inv.mu.Lock()
	inv.selected = hotbar
	inv.mu.Unlock()
	return nil
}

// Selected returns the selected hotbar slot.
func (inv *Inventory) Selected() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.selected
}

// SelectedItem returns the item in the selected hotbar slot.
func (inv *Inventory) SelectedItem() Slot {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.player[HotbarStart+inv.selected]
}

// Clear empties every slot and the cursor, as a respawn does.
func (inv *Inventory) Clear() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	clear(inv.player)
	clear(inv.window.Slots)
	inv.window.ID = 0
	inv.cursor = Slot{}
}

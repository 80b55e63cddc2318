package inventory

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"github.com/StoreStation/VibeShitBot/internal/notify"
)

// ConfirmationKey identifies a click awaiting the server's verdict.
type ConfirmationKey struct {
	Window int8
	Action int16
}

// Confirmations holds Window Confirmation verdicts until a waiter consumes
// them. Without stacking a newer verdict for a key overwrites an unread one;
// with stacking verdicts queue in arrival order.
type Confirmations struct {
	mu       deadlock.Mutex
	stacking bool
	pending  map[ConfirmationKey][]bool
	arrived  notify.Notifier
}

// NewConfirmations creates an empty queue.
func NewConfirmations(stacking bool) *Confirmations {
	return &Confirmations{
		stacking: stacking,
		pending:  make(map[ConfirmationKey][]bool),
	}
}

// Put records a verdict and wakes waiters.
func (c *Confirmations) Put(window int8, action int16, accepted bool) {
	key := ConfirmationKey{window, action}
	c.mu.Lock()
	if c.stacking {
		c.pending[key] = append(c.pending[key], accepted)
	} else {
		c.pending[key] = []bool{accepted}
	}
	c.mu.Unlock()
	c.arrived.Broadcast()
}

// TryTake consumes the oldest verdict for a key if one is waiting.
func (c *Confirmations) TryTake(window int8, action int16) (accepted, ok bool) {
	key := ConfirmationKey{window, action}
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.pending[key]
	if len(q) == 0 {
		return false, false
	}
	accepted = q[0]
	if len(q) == 1 {
		delete(c.pending, key)
	} else {
		c.pending[key] = q[1:]
	}
	return accepted, true
}

// Wait blocks until a verdict for the key exists, then consumes it.
func (c *Confirmations) Wait(ctx context.Context, window int8, action int16) (bool, error) {
	var accepted bool
	err := c.arrived.Wait(ctx, func() bool {
		var ok bool
		accepted, ok = c.TryTake(window, action)
		return ok
	})
	return accepted, err
}

// Pending returns the number of unread verdicts for a key.
func (c *Confirmations) Pending(window int8, action int16) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending[ConfirmationKey{window, action}])
}

// Package notify provides a broadcast wakeup for goroutines waiting on a
// condition guarded elsewhere.
package notify

import (
	"context"
	"sync"
)

// Notifier wakes every waiter on each Broadcast. Take the channel from C
// before checking the condition so a broadcast in between is not missed.
type Notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

// C returns a channel closed by the next Broadcast.
func (n *Notifier) C() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch == nil {
		n.ch = make(chan struct{})
	}
	return n.ch
}

// Broadcast wakes all current waiters.
func (n *Notifier) Broadcast() {
	n.mu.Lock()
	if n.ch != nil {
		close(n.ch)
		n.ch = nil
	}
	n.mu.Unlock()
}

// Wait blocks until cond returns true or ctx is done. cond is re-checked
// after every broadcast.
func (n *Notifier) Wait(ctx context.Context, cond func() bool) error {
	for {
		ch := n.C()
		if cond() {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitWakesOnBroadcast(t *testing.T) {
	var n Notifier
	var ready atomic.Bool

	done := make(chan error, 1)
	go func() {
		done <- n.Wait(context.Background(), ready.Load)
	}()

	time.Sleep(10 * time.Millisecond)
	ready.Store(true)
	n.Broadcast()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Broadcast")
	}
}

func TestWaitReturnsImmediately(t *testing.T) {
	var n Notifier
	if err := n.Wait(context.Background(), func() bool { return true }); err != nil {
		t.Errorf("Wait error: %v", err)
	}
}

func TestWaitCancelled(t *testing.T) {
	var n Notifier
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := n.Wait(ctx, func() bool { return false })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait error = %v, want DeadlineExceeded", err)
	}
}

func TestBroadcastWithoutWaiters(t *testing.T) {
	var n Notifier
	n.Broadcast()
	n.Broadcast()
	select {
	case <-n.C():
		t.Error("fresh channel should not be closed")
	default:
	}
}

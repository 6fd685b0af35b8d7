// SPDX-License-Identifier: Unlicense OR MIT

// Package gate implements a one shot rendezvous that blocks a native
// caller until the UI side has finished processing a notification.
package gate

import (
	"context"
	"sync"
	"time"
)

// Gate is closed until Open is called, after which it stays open.
// The zero value is not usable; use New.
type Gate struct {
	mu   sync.Mutex
	done bool
	open chan struct{}
}

func New() *Gate {
	return &Gate{open: make(chan struct{})}
}

// Open releases every current and future waiter. It reports
// whether the gate was closed before the call.
func (g *Gate) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return false
	}
	g.done = true
	close(g.open)
	return true
}

// Done reports whether the gate is open.
func (g *Gate) Done() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done
}

// Wait blocks until the gate is open or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	return g.WaitPump(ctx, 0, nil)
}

// WaitPump is like Wait but calls pump every interval while
// the gate is closed, so the caller can keep processing its own
// messages. Pump is not called if the gate is already open.
func (g *Gate) WaitPump(ctx context.Context, interval time.Duration, pump func()) error {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		return nil
	}
	open := g.open
	g.mu.Unlock()

	var tick <-chan time.Time
	if pump != nil && interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-open:
			return nil
		case <-ctx.Done():
			// Prefer success if both happened.
			select {
			case <-open:
				return nil
			default:
			}
			return ctx.Err()
		case <-tick:
			pump()
		}
	}
}

// SPDX-License-Identifier: Unlicense OR MIT

// Package dispatch tracks the delivery of native drag and drop
// notifications to the UI.
//
// One native notification is represented by a Dispatcher. The
// notification may be delivered as several Units, one per UI
// component it is routed to; the Dispatcher is done when every Unit
// has been delivered.
package dispatch

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"gioui.org/dnd/internal/gate"
	"gioui.org/dnd/io/transfer"
)

// Snapshot is the native state captured when a notification is
// received.
type Snapshot struct {
	// Action is the proposed or chosen action.
	Action transfer.Action
	// Supported is the set of actions supported by the other side.
	Supported transfer.Action
	Formats   []string
	// Context is the opaque native context handle. Zero is invalid.
	Context uintptr
	// Sync reports whether a native caller waits for delivery.
	Sync bool
}

// Dispatcher counts the Units of one notification in flight.
type Dispatcher struct {
	snap      Snapshot
	gate      *gate.Gate
	delivered func(ret transfer.Action)

	mu   sync.Mutex
	live map[*Unit]struct{}
	done bool
	ret  transfer.Action
	ctx  uintptr
}

// Unit is one copy of a notification on its way to a UI component.
type Unit struct {
	Kind    transfer.Kind
	Pos     image.Point
	Payload interface{}

	d *Dispatcher
}

// New returns a Dispatcher for a notification. The delivered function,
// if not nil, is called exactly once with the return value when the
// last Unit is delivered.
func New(s Snapshot, delivered func(ret transfer.Action)) *Dispatcher {
	s.Formats = slices.Clone(s.Formats)
	return &Dispatcher{
		snap:      s,
		gate:      gate.New(),
		delivered: delivered,
		live:      make(map[*Unit]struct{}),
		ctx:       s.Context,
		ret:       s.Action,
	}
}

// NewUnit creates and registers a Unit.
func (d *Dispatcher) NewUnit(kind transfer.Kind, pos image.Point, payload interface{}) *Unit {
	u := &Unit{Kind: kind, Pos: pos, Payload: payload, d: d}
	d.register(u)
	return u
}

// Copy creates and registers another Unit for the same notification.
func (u *Unit) Copy() *Unit {
	c := &Unit{Kind: u.Kind, Pos: u.Pos, Payload: u.Payload, d: u.d}
	u.d.register(c)
	return c
}

// Dispatcher returns the Dispatcher u belongs to.
func (u *Unit) Dispatcher() *Dispatcher {
	return u.d
}

// Deliver marks u as delivered. It reports whether u was
// still in flight.
func (u *Unit) Deliver() bool {
	return u.d.Unregister(u)
}

func (d *Dispatcher) register(u *Unit) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		panic(fmt.Errorf("dispatch: %v unit registered after delivery completed", u.Kind))
	}
	d.live[u] = struct{}{}
}

// Unregister removes u from the set of Units in flight. Unregistering a
// Unit that is no longer in flight is a no-op and returns false.
func (d *Dispatcher) Unregister(u *Unit) bool {
	d.mu.Lock()
	if _, ok := d.live[u]; !ok {
		d.mu.Unlock()
		return false
	}
	delete(d.live, u)
	drained := len(d.live) == 0 && !d.done
	if drained {
		d.done = true
		d.ctx = 0
	}
	ret := d.ret
	d.mu.Unlock()
	if drained {
		d.finish(ret)
	}
	return true
}

// UnregisterAll removes every Unit in flight, completing the
// notification. It returns the number of Units removed.
func (d *Dispatcher) UnregisterAll() int {
	d.mu.Lock()
	n := len(d.live)
	for u := range d.live {
		delete(d.live, u)
	}
	drained := !d.done
	if drained {
		d.done = true
		d.ctx = 0
	}
	ret := d.ret
	d.mu.Unlock()
	if drained {
		d.finish(ret)
	}
	return n
}

func (d *Dispatcher) finish(ret transfer.Action) {
	d.gate.Open()
	if d.delivered != nil {
		d.delivered(ret)
	}
}

// Live returns the number of Units in flight.
func (d *Dispatcher) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Done reports whether every Unit has been delivered.
func (d *Dispatcher) Done() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Context returns the native context handle, which is only valid
// until the notification is done.
func (d *Dispatcher) Context() (uintptr, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx, d.ctx != 0
}

// SetReturn sets the action code returned to the native caller.
func (d *Dispatcher) SetReturn(a transfer.Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ret = a
}

// Return returns the action code for the native caller.
func (d *Dispatcher) Return() transfer.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ret
}

// Snapshot returns the native state of the notification.
func (d *Dispatcher) Snapshot() Snapshot {
	s := d.snap
	s.Formats = slices.Clone(s.Formats)
	return s
}

// Wait blocks until every Unit is delivered or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	return d.gate.Wait(ctx)
}

// WaitPump is like Wait, calling pump every interval while waiting.
func (d *Dispatcher) WaitPump(ctx context.Context, interval time.Duration, pump func()) error {
	return d.gate.WaitPump(ctx, interval, pump)
}

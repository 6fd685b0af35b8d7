// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"gioui.org/dnd/io/event"
	"gioui.org/dnd/io/pointer"
	"gioui.org/dnd/io/transfer"
)

// Coordinator holds the drag state shared by every session of a
// process: whether a drag is in progress, and the transferable of a
// same-process drag. Each field is guarded independently.
type Coordinator struct {
	log *zap.Logger

	mu       sync.Mutex
	dragging bool

	localMu sync.Mutex
	local   transfer.Transferable

	// suppress is set while input queued before the current drag
	// started is being processed.
	suppress atomic.Bool
}

func NewCoordinator(opts ...Option) *Coordinator {
	cnf := newConfig(opts)
	return &Coordinator{log: cnf.Logger}
}

// SetDragInProgress sets whether a drag is in progress. Setting the
// flag to the value it already has is an error.
func (c *Coordinator) SetDragInProgress(v bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragging == v {
		if v {
			return fmt.Errorf("app: drag already in progress: %w", transfer.ErrInvalidOperation)
		}
		return fmt.Errorf("app: no drag in progress: %w", transfer.ErrInvalidOperation)
	}
	c.dragging = v
	c.log.Debug("drag in progress", zap.Bool("value", v))
	return nil
}

// DragInProgress reports whether a drag is in progress.
func (c *Coordinator) DragInProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// PublishLocal makes t available to drop targets of the process. It
// fails if another transferable is already published.
func (c *Coordinator) PublishLocal(t transfer.Transferable) error {
	if t == nil {
		return fmt.Errorf("app: publish nil transferable: %w", transfer.ErrInvalidArgument)
	}
	c.localMu.Lock()
	defer c.localMu.Unlock()
	if c.local != nil {
		return fmt.Errorf("app: local transferable already published: %w", transfer.ErrInvalidOperation)
	}
	c.local = t
	return nil
}

// Local returns the published transferable, if any.
func (c *Coordinator) Local() (transfer.Transferable, bool) {
	c.localMu.Lock()
	defer c.localMu.Unlock()
	return c.local, c.local != nil
}

// TakeLocal consumes the published transferable. At most one caller
// receives it.
func (c *Coordinator) TakeLocal() (transfer.Transferable, bool) {
	c.localMu.Lock()
	defer c.localMu.Unlock()
	t := c.local
	c.local = nil
	return t, t != nil
}

// ClearLocal discards the published transferable, if any.
func (c *Coordinator) ClearLocal() {
	c.localMu.Lock()
	defer c.localMu.Unlock()
	c.local = nil
}

// SuppressStaleInput reports whether input events should be dropped
// because they were queued before the current drag started.
func (c *Coordinator) SuppressStaleInput() bool {
	return c.suppress.Load()
}

// FilterInput reports whether e should be dropped by an input handler
// running on the loop the drag started from.
func (c *Coordinator) FilterInput(e event.Event) bool {
	if _, ok := e.(pointer.Event); !ok {
		return false
	}
	return c.suppress.Load()
}

// armStaleInputFilter suppresses input until every function already
// posted to l has run.
func (c *Coordinator) armStaleInputFilter(l *Loop) {
	c.suppress.Store(true)
	if !l.Post(func() { c.suppress.Store(false) }) {
		c.suppress.Store(false)
	}
}

// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gioui.org/dnd/io/pointer"
	"gioui.org/dnd/io/transfer"
)

var errEngine = errors.New("engine failure")

// sourceEngine records the calls of a DragSession.
type sourceEngine struct {
	mu      sync.Mutex
	err     error
	handle  Handle
	// onStart, if set, runs before StartDrag returns.
	onStart func(s *DragSession)
	starts  []DragStart
	cursors []pointer.Cursor
	kinds   []transfer.Kind
}

func (e *sourceEngine) StartDrag(s *DragSession, d DragStart) (Handle, error) {
	e.mu.Lock()
	if e.err != nil {
		e.mu.Unlock()
		return 0, e.err
	}
	e.starts = append(e.starts, d)
	if e.handle == 0 {
		e.handle = 1
	}
	h, onStart := e.handle, e.onStart
	e.mu.Unlock()
	if onStart != nil {
		onStart(s)
	}
	return h, nil
}

func (e *sourceEngine) SetNativeCursor(h Handle, c pointer.Cursor, k transfer.Kind) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursors = append(e.cursors, c)
	e.kinds = append(e.kinds, k)
	return nil
}

func (e *sourceEngine) Cursors() []pointer.Cursor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]pointer.Cursor(nil), e.cursors...)
}

type dropDone struct {
	Handle  Handle
	Success bool
	Action  transfer.Action
	Local   bool
}

// targetEngine serves raw payloads and records drop outcomes.
type targetEngine struct {
	mu       sync.Mutex
	payloads map[string][]byte
	err      error
	done     []dropDone
}

func (e *targetEngine) Payload(h Handle, format string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.payloads[format], nil
}

func (e *targetEngine) DropDone(h Handle, success bool, action transfer.Action, local bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done = append(e.done, dropDone{Handle: h, Success: success, Action: action, Local: local})
}

func (e *targetEngine) Done() []dropDone {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]dropDone(nil), e.done...)
}

// sourceRecorder records the events of an outgoing drag.
type sourceRecorder struct {
	mu      sync.Mutex
	calls   []string
	events  []transfer.DragEvent
	ends    []transfer.DropEndEvent
	panicOn string
}

func (r *sourceRecorder) record(call string, e transfer.DragEvent) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.events = append(r.events, e)
	r.mu.Unlock()
	if call == r.panicOn {
		panic(call)
	}
}

func (r *sourceRecorder) DragEnter(e transfer.DragEvent)         { r.record("enter", e) }
func (r *sourceRecorder) DragOver(e transfer.DragEvent)          { r.record("over", e) }
func (r *sourceRecorder) DropActionChanged(e transfer.DragEvent) { r.record("changed", e) }
func (r *sourceRecorder) DragExit(e transfer.DragEvent)          { r.record("exit", e) }

func (r *sourceRecorder) DragDropEnd(e transfer.DropEndEvent) {
	r.mu.Lock()
	r.calls = append(r.calls, "end")
	r.ends = append(r.ends, e)
	r.mu.Unlock()
	if r.panicOn == "end" {
		panic("end")
	}
}

func (r *sourceRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *sourceRecorder) Events() []transfer.DragEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]transfer.DragEvent(nil), r.events...)
}

func (r *sourceRecorder) Ends() []transfer.DropEndEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]transfer.DropEndEvent(nil), r.ends...)
}

// motionRecorder also observes pointer motion.
type motionRecorder struct {
	sourceRecorder
}

func (r *motionRecorder) DragMouseMoved(e transfer.DragEvent) { r.record("moved", e) }

// targetRecorder records the events of a drop target and lets tests
// respond to them.
type targetRecorder struct {
	mu      sync.Mutex
	calls   []string
	actions []transfer.Action
	local   []bool

	enter   func(e transfer.TargetEvent)
	over    func(e transfer.TargetEvent)
	changed func(e transfer.TargetEvent)
	drop    func(e transfer.DropEvent)
	panicOn string
}

func (r *targetRecorder) record(call string, a transfer.Action) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.actions = append(r.actions, a)
	r.mu.Unlock()
	if call == r.panicOn {
		panic(call)
	}
}

func (r *targetRecorder) DragEnter(e transfer.TargetEvent) {
	r.record("enter", e.Action)
	if r.enter != nil {
		r.enter(e)
	}
}

func (r *targetRecorder) DragOver(e transfer.TargetEvent) {
	r.record("over", e.Action)
	if r.over != nil {
		r.over(e)
	}
}

func (r *targetRecorder) DropActionChanged(e transfer.TargetEvent) {
	r.record("changed", e.Action)
	if r.changed != nil {
		r.changed(e)
	}
}

func (r *targetRecorder) DragExit(ctx transfer.DropContext) {
	r.record("exit", transfer.ActionNone)
}

func (r *targetRecorder) Drop(e transfer.DropEvent) {
	r.mu.Lock()
	r.local = append(r.local, e.Local)
	r.mu.Unlock()
	r.record("drop", e.Action)
	if r.drop != nil {
		r.drop(e)
	}
}

func (r *targetRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newTestLoop(t *testing.T, opts ...Option) *Loop {
	l := NewLoop(opts...)
	t.Cleanup(l.Close)
	return l
}

// blockLoop occupies l until the returned function is called.
func blockLoop(t *testing.T, l *Loop) (release func()) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	require.True(t, l.Post(func() {
		close(started)
		<-unblock
	}))
	<-started
	var once sync.Once
	release = func() { once.Do(func() { close(unblock) }) }
	t.Cleanup(release)
	return release
}

func waitClosed(t *testing.T, c <-chan struct{}) {
	t.Helper()
	select {
	case <-c:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func gestureAt(p image.Point) transfer.Gesture {
	return transfer.Gesture{
		Origin:  p,
		Action:  transfer.ActionMove,
		Trigger: []pointer.Event{{Kind: pointer.Press, Position: p}},
	}
}

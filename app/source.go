// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"gioui.org/dnd/internal/dispatch"
	"gioui.org/dnd/io/key"
	"gioui.org/dnd/io/pointer"
	"gioui.org/dnd/io/transfer"
)

// DragRequest describes a drag to start.
type DragRequest struct {
	Gesture      transfer.Gesture
	Transferable transfer.Transferable
	// Actions is the set of actions the source supports.
	Actions transfer.Action
	// Cursor, if not CursorDefault, is a custom cursor that is shown
	// for the whole drag.
	Cursor pointer.Cursor
	// Image is an optional drag image shown at Offset from the pointer.
	Image    image.Image
	Offset   image.Point
	Listener transfer.SourceListener
}

type sourceState uint8

const (
	sourceIdle sourceState = iota
	sourceArmed
	sourceFinishing
	sourceFinished
)

// DragSession tracks one outgoing drag. Its native callbacks are
// called by the SourceEngine; listeners run on the session Loop.
type DragSession struct {
	coord  *Coordinator
	engine SourceEngine
	n      notifier

	mu        sync.Mutex
	state     sourceState
	gesture   transfer.Gesture
	data      transfer.Transferable
	actions   transfer.Action
	formats   []string
	cursor    pointer.Cursor
	custom    bool
	image     image.Image
	offset    image.Point
	native    Handle
	listeners []transfer.SourceListener

	finished chan struct{}
}

// NewDragSession returns a session for a drag started from a component
// whose listeners run on l.
func NewDragSession(c *Coordinator, l *Loop, e SourceEngine, opts ...Option) *DragSession {
	cnf := newConfig(opts)
	return &DragSession{
		coord:    c,
		engine:   e,
		n:        notifier{cnf: cnf, loop: l, log: cnf.Logger.Named("source")},
		finished: make(chan struct{}),
	}
}

// AddListener adds a listener notified after the request listener.
// Listeners added during a drag are notified from the next
// notification on.
func (s *DragSession) AddListener(l transfer.SourceListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// StartDrag starts the drag described by r. It fails with
// transfer.ErrInvalidOperation if the gesture has no trigger events, if
// the session was already started, or if another drag is in progress.
func (s *DragSession) StartDrag(r DragRequest) error {
	if len(r.Gesture.Trigger) == 0 {
		return fmt.Errorf("app: start drag: gesture has no trigger events: %w", transfer.ErrInvalidOperation)
	}
	if r.Transferable == nil {
		return fmt.Errorf("app: start drag: nil transferable: %w", transfer.ErrInvalidArgument)
	}
	s.mu.Lock()
	if s.state != sourceIdle {
		s.mu.Unlock()
		return fmt.Errorf("app: start drag: session already started: %w", transfer.ErrInvalidOperation)
	}
	if err := s.coord.SetDragInProgress(true); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("app: start drag: %w", err)
	}
	s.state = sourceArmed
	s.gesture = r.Gesture
	s.data = r.Transferable
	s.actions = r.Actions
	s.formats = slices.Clone(r.Transferable.Formats())
	s.cursor, s.custom = r.Cursor, r.Cursor != pointer.CursorDefault
	s.image, s.offset = scaleDragImage(r.Image, r.Offset, s.n.cnf.MaxDragImageSize)
	added := s.listeners
	if r.Listener != nil {
		s.listeners = append([]transfer.SourceListener{r.Listener}, s.listeners...)
	}
	start := DragStart{
		Formats: slices.Clone(s.formats),
		Actions: s.actions,
		Cursor:  s.cursor,
		Image:   s.image,
		Offset:  s.offset,
	}
	s.mu.Unlock()

	if err := s.coord.PublishLocal(r.Transferable); err != nil {
		s.abort(added)
		return fmt.Errorf("app: start drag: %w", err)
	}
	s.coord.armStaleInputFilter(s.n.loop)
	h, err := s.engine.StartDrag(s, start)
	if err != nil {
		s.coord.ClearLocal()
		s.abort(added)
		return fmt.Errorf("app: start drag: %w", err)
	}
	s.mu.Lock()
	// An engine may finish the drag before StartDrag returns.
	if s.state == sourceArmed {
		s.native = h
	}
	s.mu.Unlock()
	s.n.log.Debug("drag started",
		zap.Stringer("actions", start.Actions),
		zap.Strings("formats", start.Formats),
		zap.Uintptr("context", uintptr(h)))
	return nil
}

// abort returns a session that failed to start to its idle state,
// restoring the listeners added before the start.
func (s *DragSession) abort(listeners []transfer.SourceListener) {
	s.mu.Lock()
	s.state = sourceIdle
	s.listeners = listeners
	s.image = nil
	s.data = nil
	s.mu.Unlock()
	if err := s.coord.SetDragInProgress(false); err != nil {
		s.n.log.Warn("release drag flag", zap.Error(err))
	}
}

// DragEnter is called by the native engine when the drag enters a
// target supporting targetActions.
func (s *DragSession) DragEnter(targetActions transfer.Action, mods key.Modifiers, pos image.Point) {
	s.progress(transfer.Enter, targetActions, mods, pos)
}

// DragMotion is called by the native engine when the drag moves over
// the current target.
func (s *DragSession) DragMotion(targetActions transfer.Action, mods key.Modifiers, pos image.Point) {
	s.progress(transfer.Motion, targetActions, mods, pos)
}

// ActionChanged is called by the native engine when the user changes
// the action over the current target.
func (s *DragSession) ActionChanged(targetActions transfer.Action, mods key.Modifiers, pos image.Point) {
	s.progress(transfer.ActionChanged, targetActions, mods, pos)
}

// DragExit is called by the native engine when the drag leaves the
// current target.
func (s *DragSession) DragExit(pos image.Point) {
	s.progress(transfer.Exit, transfer.ActionNone, 0, pos)
}

// DragMouseMoved is called by the native engine for every pointer
// motion during the drag.
func (s *DragSession) DragMouseMoved(targetActions transfer.Action, mods key.Modifiers, pos image.Point) {
	s.progress(transfer.MouseMoved, targetActions, mods, pos)
}

// progress delivers a progress notification and waits for it.
func (s *DragSession) progress(kind transfer.Kind, targetActions transfer.Action, mods key.Modifiers, pos image.Point) {
	s.mu.Lock()
	if s.state != sourceArmed {
		s.mu.Unlock()
		s.n.log.Debug("ignoring notification for inactive drag", zap.Stringer("kind", kind))
		return
	}
	sourceActions := s.actions
	listeners := slices.Clone(s.listeners)
	h := s.native
	formats := s.formats
	s.mu.Unlock()

	e := transfer.DragEvent{
		Context:       s,
		UserAction:    transfer.DropActionForModifiers(mods, sourceActions),
		TargetActions: targetActions & sourceActions,
		Modifiers:     mods,
		Position:      pos,
	}
	d := dispatch.New(dispatch.Snapshot{
		Action:    e.UserAction,
		Supported: e.TargetActions,
		Formats:   formats,
		Context:   uintptr(h),
		Sync:      true,
	}, nil)
	routes := []route{s.updateCursor}
	for _, l := range listeners {
		l := l
		routes = append(routes, func(u *dispatch.Unit) { s.deliverProgress(u, l) })
	}
	if s.n.post(d, kind, pos, e, routes...) {
		s.n.await(d, kind)
	}
}

func (s *DragSession) deliverProgress(u *dispatch.Unit, l transfer.SourceListener) {
	e := u.Payload.(transfer.DragEvent)
	switch u.Kind {
	case transfer.Enter:
		defer s.n.recoverListener("DragEnter", nil)
		l.DragEnter(e)
	case transfer.Motion:
		defer s.n.recoverListener("DragOver", nil)
		l.DragOver(e)
	case transfer.ActionChanged:
		defer s.n.recoverListener("DropActionChanged", nil)
		l.DropActionChanged(e)
	case transfer.Exit:
		defer s.n.recoverListener("DragExit", nil)
		l.DragExit(e)
	case transfer.MouseMoved:
		if ml, ok := l.(transfer.MotionListener); ok {
			defer s.n.recoverListener("DragMouseMoved", nil)
			ml.DragMouseMoved(e)
		}
	}
}

// updateCursor shows the cursor matching the effective action of the
// notification, unless a custom cursor is set.
func (s *DragSession) updateCursor(u *dispatch.Unit) {
	var c pointer.Cursor
	switch u.Kind {
	case transfer.Enter, transfer.Motion, transfer.ActionChanged:
		e := u.Payload.(transfer.DragEvent)
		c = cursorFor(e.Action())
	case transfer.Exit:
		c = pointer.CursorNotAllowed
	default:
		return
	}
	s.mu.Lock()
	if s.custom || s.cursor == c || s.state != sourceArmed {
		s.mu.Unlock()
		return
	}
	s.cursor = c
	h := s.native
	s.mu.Unlock()
	s.setNativeCursor(h, c, u.Kind)
}

func (s *DragSession) setNativeCursor(h Handle, c pointer.Cursor, k transfer.Kind) {
	if err := s.engine.SetNativeCursor(h, c, k); err != nil {
		s.n.log.Warn("set native cursor", zap.Stringer("cursor", c), zap.Error(err))
	}
}

func cursorFor(a transfer.Action) pointer.Cursor {
	switch {
	case a.Contain(transfer.ActionLink):
		return pointer.CursorLink
	case a.Contain(transfer.ActionMove):
		return pointer.CursorGrabbing
	case a.Contain(transfer.ActionCopy):
		return pointer.CursorCopy
	default:
		return pointer.CursorNotAllowed
	}
}

// DragDropFinished is called by the native engine when the drag ends.
// It doesn't wait for listeners. Once they have run, the session state
// is cleared and the drag flag released, whether or not a listener
// panicked.
func (s *DragSession) DragDropFinished(success bool, action transfer.Action, pos image.Point) {
	s.mu.Lock()
	if s.state != sourceArmed {
		s.mu.Unlock()
		s.n.log.Warn("drop finished for inactive drag", zap.Bool("success", success))
		return
	}
	s.state = sourceFinishing
	listeners := slices.Clone(s.listeners)
	h := s.native
	s.mu.Unlock()

	e := transfer.DropEndEvent{Context: s, Success: success, Action: action, Position: pos}
	d := dispatch.New(dispatch.Snapshot{Action: action, Context: uintptr(h)}, func(transfer.Action) {
		s.cleanup()
	})
	routes := make([]route, 0, len(listeners)+1)
	for _, l := range listeners {
		l := l
		routes = append(routes, func(u *dispatch.Unit) {
			defer s.n.recoverListener("DragDropEnd", nil)
			l.DragDropEnd(u.Payload.(transfer.DropEndEvent))
		})
	}
	// The session itself is the last stop, so the drag is never
	// cleaned up before its listeners ran.
	routes = append(routes, func(*dispatch.Unit) {})
	s.n.post(d, transfer.DropFinish, pos, e, routes...)
}

func (s *DragSession) cleanup() {
	s.mu.Lock()
	s.state = sourceFinished
	s.cursor = pointer.CursorDefault
	s.custom = false
	s.image = nil
	s.offset = image.Point{}
	s.native = 0
	s.listeners = nil
	s.mu.Unlock()
	s.coord.ClearLocal()
	if err := s.coord.SetDragInProgress(false); err != nil {
		s.n.log.Warn("release drag flag", zap.Error(err))
	}
	close(s.finished)
	s.n.log.Debug("drag finished")
}

// Finished returns a channel closed when the drag has been cleaned up.
func (s *DragSession) Finished() <-chan struct{} {
	return s.finished
}

// Gesture returns the gesture the drag started from.
func (s *DragSession) Gesture() transfer.Gesture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gesture
}

func (s *DragSession) Transferable() transfer.Transferable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *DragSession) SourceActions() transfer.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actions
}

func (s *DragSession) Cursor() pointer.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// SetCursor sets a custom cursor for the rest of the drag. Setting
// CursorDefault restores the cursor tracking the drop action.
func (s *DragSession) SetCursor(c pointer.Cursor) {
	s.mu.Lock()
	if s.state != sourceArmed {
		s.mu.Unlock()
		return
	}
	s.custom = c != pointer.CursorDefault
	changed := s.cursor != c
	s.cursor = c
	h := s.native
	s.mu.Unlock()
	if changed {
		s.setNativeCursor(h, c, transfer.Motion)
	}
}

// Image returns the drag image and its offset, if any.
func (s *DragSession) Image() (image.Image, image.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image, s.offset
}

// Context returns the native drag context, which is zero before the
// drag starts and after it finishes.
func (s *DragSession) Context() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.native
}

// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"gioui.org/dnd/internal/dispatch"
	"gioui.org/dnd/io/transfer"
)

// DropStatus is the state of a drop target session.
type DropStatus uint8

const (
	// StatusNone means no drop is pending.
	StatusNone DropStatus = iota
	// StatusWait means data was dropped and the listener has not
	// responded yet.
	StatusWait
	// StatusAccept means the drop was accepted.
	StatusAccept
	// StatusReject means the drop was rejected.
	StatusReject
)

// DropSession tracks drags over one drop target. It is reused across
// drags. Its native callbacks are called by the TargetEngine; listeners
// run on the session Loop.
type DropSession struct {
	coord  *Coordinator
	engine TargetEngine
	n      notifier
	// defaults is the set of actions the target supports.
	defaults transfer.Action

	mu        sync.Mutex
	active    bool
	listeners []transfer.TargetListener

	status   DropStatus
	complete bool
	// over is set while a drag is over the active target.
	over     bool
	rejected bool
	// targetActions is the target action set in effect, narrowed to the
	// accepted action by AcceptDrop.
	targetActions transfer.Action
	sourceActions transfer.Action
	action        transfer.Action
	prevAction    transfer.Action
	formats       []string
	local         transfer.Transferable
	// dropInProcess is set while the drop listener runs.
	dropInProcess bool
	// drop is the last drop notification that reached the target.
	drop *dispatch.Dispatcher
	native        Handle
	// result is the action reported by the most recent DropDone.
	result transfer.Action
}

// NewDropSession returns a session for a drop target whose listeners
// run on l. The target is active.
func NewDropSession(c *Coordinator, l *Loop, e TargetEngine, opts ...Option) *DropSession {
	cnf := newConfig(opts)
	return &DropSession{
		coord:    c,
		engine:   e,
		n:        notifier{cnf: cnf, loop: l, log: cnf.Logger.Named("target")},
		defaults: cnf.TargetActions,
		active:   true,
	}
}

// AddListener adds a listener. Listeners are notified in the order
// they were added.
func (s *DropSession) AddListener(l transfer.TargetListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SetActive enables or disables the target. Drags over an inactive
// target are not reported to listeners and negotiate ActionNone.
func (s *DropSession) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

// DragEnter is called by the native engine when a drag enters the
// target. It returns the negotiated action once the listeners ran.
func (s *DropSession) DragEnter(n NativeDrag) transfer.Action {
	return s.notify(transfer.Enter, n, true)
}

// DragMotion is called by the native engine when a drag moves over the
// target or its action changes. It returns the negotiated action.
func (s *DropSession) DragMotion(n NativeDrag) transfer.Action {
	return s.notify(transfer.Motion, n, true)
}

// DragExit is called by the native engine when a drag leaves the
// target.
func (s *DropSession) DragExit(n NativeDrag) {
	s.notify(transfer.Exit, n, true)
}

// Drop is called by the native engine when data is dropped on the
// target. If sync is set, Drop waits for the listeners and returns the
// action reported to DropDone; otherwise it returns ActionNone at once.
func (s *DropSession) Drop(n NativeDrag, sync bool) transfer.Action {
	return s.notify(transfer.Drop, n, sync)
}

func (s *DropSession) notify(kind transfer.Kind, n NativeDrag, sync bool) transfer.Action {
	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	d := dispatch.New(dispatch.Snapshot{
		Action:    n.Action,
		Supported: n.Supported,
		Formats:   n.Formats,
		Context:   uintptr(n.Context),
		Sync:      sync,
	}, func(ret transfer.Action) {
		s.n.log.Debug("notification delivered", zap.Stringer("kind", kind), zap.Stringer("action", ret))
	})

	// deliver reports whether listeners should see the notification;
	// it is only accessed from the loop.
	var deliver bool
	var changed bool
	routes := []route{func(u *dispatch.Unit) {
		switch kind {
		case transfer.Enter:
			deliver = s.beginEnter(d)
		case transfer.Motion:
			deliver, changed = s.beginMotion(d)
		case transfer.Exit:
			deliver = s.beginExit(d)
		case transfer.Drop:
			deliver = s.beginDrop(d)
		}
	}}
	for _, l := range listeners {
		l := l
		routes = append(routes, func(u *dispatch.Unit) {
			if deliver {
				s.deliver(u, l, changed)
			}
		})
	}
	routes = append(routes, func(u *dispatch.Unit) {
		var ret transfer.Action
		switch kind {
		case transfer.Enter, transfer.Motion:
			ret = s.endDrag()
		case transfer.Exit:
			s.endExit()
		case transfer.Drop:
			ret = s.endDrop(deliver)
		}
		d.SetReturn(ret)
	})
	if !s.n.post(d, kind, n.Pos, n, routes...) {
		s.abandon(kind, d, n.Context)
		return transfer.ActionNone
	}
	if !sync {
		return transfer.ActionNone
	}
	if !s.n.await(d, kind) {
		s.abandon(kind, d, n.Context)
		return transfer.ActionNone
	}
	return d.Return()
}

// abandon force-fails a notification whose wait timed out. Its
// remaining routes are skipped, so the state left by the routes that
// already ran is reset here.
func (s *DropSession) abandon(kind transfer.Kind, d *dispatch.Dispatcher, h Handle) {
	switch kind {
	case transfer.Enter, transfer.Motion:
		s.mu.Lock()
		if s.status == StatusAccept && !s.dropInProcess {
			s.status = StatusNone
		}
		s.action = transfer.ActionNone
		s.mu.Unlock()
	case transfer.Exit:
		s.endExit()
	case transfer.Drop:
		s.mu.Lock()
		began := s.drop == d
		pending := s.status != StatusNone
		s.dropInProcess = false
		s.mu.Unlock()
		if !began {
			s.n.log.Debug("drop abandoned before delivery", zap.Uintptr("context", uintptr(h)))
			s.engine.DropDone(h, false, transfer.ActionNone, false)
			return
		}
		if !pending {
			return
		}
		if err := s.DropComplete(false); err != nil {
			s.n.log.Debug("complete abandoned drop", zap.Error(err))
		}
	}
}

func (s *DropSession) beginEnter(d *dispatch.Dispatcher) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.take(d)
	if !ok {
		return false
	}
	s.prevAction = snap.Action
	s.rejected = false
	if t, ok := s.coord.Local(); ok {
		s.local = t
		s.formats = slices.Clone(t.Formats())
	} else {
		s.local = nil
	}
	// Data may be inspected while the listeners run.
	s.status = StatusAccept
	s.complete = false
	s.over = s.active
	if !s.active {
		s.clearDrag()
		return false
	}
	s.targetActions = s.defaults
	return true
}

func (s *DropSession) beginMotion(d *dispatch.Dispatcher) (deliver, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	formats := s.formats
	snap, ok := s.take(d)
	if !ok {
		return false, false
	}
	changed = s.prevAction != snap.Action
	s.prevAction = snap.Action
	if s.local != nil {
		s.formats = formats
	}
	s.status = StatusAccept
	s.complete = false
	s.over = s.active
	if !s.active {
		s.action = transfer.ActionNone
		return false, changed
	}
	s.targetActions = s.defaults
	return true, changed
}

func (s *DropSession) beginExit(d *dispatch.Dispatcher) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !d.Done() && s.over && s.active
}

func (s *DropSession) beginDrop(d *dispatch.Dispatcher) bool {
	s.mu.Lock()
	if _, ok := s.take(d); !ok {
		s.mu.Unlock()
		return false
	}
	s.drop = d
	s.status = StatusWait
	s.complete = false
	if !s.active {
		s.mu.Unlock()
		if err := s.RejectDrop(); err != nil {
			s.n.log.Warn("reject drop on inactive target", zap.Error(err))
		}
		return false
	}
	s.over = true
	s.targetActions = s.defaults
	if t, ok := s.coord.TakeLocal(); ok {
		s.local = t
		s.formats = slices.Clone(t.Formats())
	} else {
		s.local = nil
	}
	s.dropInProcess = true
	s.mu.Unlock()
	return true
}

// take records the native state of a notification. It reports false,
// recording nothing, if the notification was abandoned. The caller
// holds s.mu, which orders take with abandon.
func (s *DropSession) take(d *dispatch.Dispatcher) (dispatch.Snapshot, bool) {
	if d.Done() {
		return dispatch.Snapshot{}, false
	}
	snap := d.Snapshot()
	h, _ := d.Context()
	s.native = Handle(h)
	s.formats = snap.Formats
	s.sourceActions = snap.Supported
	s.action = snap.Action
	return snap, true
}

func (s *DropSession) deliver(u *dispatch.Unit, l transfer.TargetListener, changed bool) {
	fault := func(error) { s.setAction(transfer.ActionNone) }
	switch u.Kind {
	case transfer.Enter:
		defer s.n.recoverListener("DragEnter", fault)
		l.DragEnter(s.targetEvent(u))
	case transfer.Motion:
		if changed {
			defer s.n.recoverListener("DropActionChanged", fault)
			l.DropActionChanged(s.targetEvent(u))
		} else {
			defer s.n.recoverListener("DragOver", fault)
			l.DragOver(s.targetEvent(u))
		}
	case transfer.Exit:
		defer s.n.recoverListener("DragExit", nil)
		l.DragExit(s)
	case transfer.Drop:
		s.mu.Lock()
		pending := s.status != StatusNone
		s.mu.Unlock()
		// A listener before this one completed the drop.
		if !pending {
			return
		}
		defer s.n.recoverListener("Drop", nil)
		e := transfer.DropEvent{TargetEvent: s.targetEvent(u)}
		e.Local = s.IsLocal()
		l.Drop(e)
	}
}

func (s *DropSession) targetEvent(u *dispatch.Unit) transfer.TargetEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return transfer.TargetEvent{
		Context:       s,
		Position:      u.Pos,
		Action:        s.action,
		SourceActions: s.sourceActions,
	}
}

func (s *DropSession) setAction(a transfer.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.action = a
}

// endDrag ends the transient acceptance of an enter or motion
// notification and returns the negotiated action.
func (s *DropSession) endDrag() transfer.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusNone
	// A rejected drag stays rejected whatever action is proposed.
	if !s.over || s.rejected {
		s.action = transfer.ActionNone
	}
	return s.action
}

func (s *DropSession) endExit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearDrag()
	s.over = false
	s.local = nil
	s.rejected = false
	s.status = StatusNone
}

func (s *DropSession) clearDrag() {
	s.targetActions = transfer.ActionNone
	s.sourceActions = transfer.ActionNone
	s.action = transfer.ActionNone
	s.formats = nil
}

// endDrop completes a drop the listeners left pending: a drop that was
// neither accepted nor rejected is rejected, and an accepted drop that
// wasn't completed fails.
func (s *DropSession) endDrop(delivered bool) transfer.Action {
	s.mu.Lock()
	status, complete := s.status, s.complete
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.dropInProcess = false
		s.mu.Unlock()
	}()
	switch {
	case status == StatusWait:
		if err := s.RejectDrop(); err != nil {
			s.n.log.Warn("reject unanswered drop", zap.Error(err))
		}
	case status != StatusNone && !complete:
		if err := s.DropComplete(false); err != nil {
			s.n.log.Warn("complete unfinished drop", zap.Error(err))
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// AcceptDrag accepts the drag over the target with the highest priority
// action of a supported by the source.
func (s *DropSession) AcceptDrag(a transfer.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.over {
		return fmt.Errorf("app: accept drag: no drag pending: %w", transfer.ErrInvalidOperation)
	}
	s.action = transfer.ChooseAction(a & s.sourceActions)
	if s.action != transfer.ActionNone {
		s.rejected = false
	}
	return nil
}

// RejectDrag rejects the drag over the target. Subsequent motion
// negotiates ActionNone until the drag is accepted again.
func (s *DropSession) RejectDrag() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.over {
		return fmt.Errorf("app: reject drag: no drag pending: %w", transfer.ErrInvalidOperation)
	}
	s.action = transfer.ActionNone
	s.rejected = true
	return nil
}

// AcceptDrop accepts a pending drop. It may be called again to change
// the accepted action.
func (s *DropSession) AcceptDrop(a transfer.Action) error {
	if a == transfer.ActionNone {
		return fmt.Errorf("app: accept drop with no action: %w", transfer.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusWait && s.status != StatusAccept {
		return fmt.Errorf("app: accept drop: no drop pending: %w", transfer.ErrInvalidOperation)
	}
	s.action = transfer.ChooseAction(a & s.sourceActions)
	s.targetActions = s.action
	s.status = StatusAccept
	s.complete = false
	return nil
}

// RejectDrop rejects a pending drop and completes it as failed.
func (s *DropSession) RejectDrop() error {
	s.mu.Lock()
	if s.status != StatusWait {
		s.mu.Unlock()
		return fmt.Errorf("app: reject drop: no unanswered drop: %w", transfer.ErrInvalidOperation)
	}
	s.status = StatusReject
	s.action = transfer.ActionNone
	s.mu.Unlock()
	return s.DropComplete(false)
}

// DropComplete completes a pending drop and reports its outcome to the
// native engine.
func (s *DropSession) DropComplete(success bool) error {
	s.mu.Lock()
	if s.status == StatusNone {
		s.mu.Unlock()
		return fmt.Errorf("app: drop complete: no drop pending: %w", transfer.ErrInvalidOperation)
	}
	s.over = false
	s.formats = nil
	s.targetActions = transfer.ActionNone
	s.status = StatusNone
	s.complete = true
	s.rejected = false
	action, local, h := s.action, s.local != nil, s.native
	s.mu.Unlock()
	s.coord.ClearLocal()

	defer func() {
		s.mu.Lock()
		s.result = action
		s.action = transfer.ActionNone
		s.native = 0
		s.mu.Unlock()
	}()
	s.n.log.Debug("drop complete",
		zap.Bool("success", success),
		zap.Stringer("action", action),
		zap.Bool("local", local))
	s.engine.DropDone(h, success, action, local)
	return nil
}

// Data returns the dropped data in format. It fails with
// transfer.ErrInvalidOperation unless the drop is accepted and not yet
// complete, and with transfer.ErrUnsupportedFormat if format is not
// advertised. Translation failures are reported as *transfer.IOError.
func (s *DropSession) Data(format string) (interface{}, error) {
	s.mu.Lock()
	if s.status != StatusAccept || s.complete {
		s.mu.Unlock()
		return nil, fmt.Errorf("app: read %s: no drop accepted: %w", format, transfer.ErrInvalidOperation)
	}
	if !slices.Contains(s.formats, format) {
		s.mu.Unlock()
		return nil, fmt.Errorf("app: read %s: %w", format, transfer.ErrUnsupportedFormat)
	}
	local, h, inDrop := s.local, s.native, s.dropInProcess
	s.mu.Unlock()

	if !inDrop && s.n.cnf.DataPermission != nil {
		if err := s.n.cnf.DataPermission(format); err != nil {
			return nil, fmt.Errorf("app: read %s: %w", format, err)
		}
	}
	if local != nil {
		return local.Data(format)
	}
	raw, err := s.engine.Payload(h, format)
	if err != nil {
		return nil, &transfer.IOError{Format: format, Err: err}
	}
	v, err := s.n.cnf.Translator.Translate(format, raw)
	if err != nil {
		return nil, &transfer.IOError{Format: format, Err: err}
	}
	return v, nil
}

// Formats returns the formats advertised for the current drag.
func (s *DropSession) Formats() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.formats)
}

// Supports reports whether format is advertised for the current drag.
func (s *DropSession) Supports(format string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.formats, format)
}

// TargetActions returns the actions supported by the target.
func (s *DropSession) TargetActions() transfer.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.targetActions == transfer.ActionNone {
		return s.defaults
	}
	return s.targetActions
}

// IsLocal reports whether the current drag comes from the same process.
func (s *DropSession) IsLocal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local != nil
}

// Status returns the drop status.
func (s *DropSession) Status() DropStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Action returns the negotiated action.
func (s *DropSession) Action() transfer.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.action
}

// Result returns the action reported by the most recent completed drop.
func (s *DropSession) Result() transfer.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s DropStatus) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusWait:
		return "Wait"
	case StatusAccept:
		return "Accept"
	case StatusReject:
		return "Reject"
	default:
		panic("unknown DropStatus")
	}
}

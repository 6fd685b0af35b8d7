// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gioui.org/dnd/io/key"
	"gioui.org/dnd/io/pointer"
	"gioui.org/dnd/io/transfer"
)

var plainText = transfer.Value{Format: "text/plain", Value: "hello"}

func startedDrag(t *testing.T, actions transfer.Action, opts ...Option) (*DragSession, *sourceEngine, *sourceRecorder) {
	l := newTestLoop(t)
	e := new(sourceEngine)
	s := NewDragSession(NewCoordinator(), l, e, opts...)
	rec := new(sourceRecorder)
	require.NoError(t, s.StartDrag(DragRequest{
		Gesture:      gestureAt(image.Pt(1, 1)),
		Transferable: plainText,
		Actions:      actions,
		Listener:     rec,
	}))
	return s, e, rec
}

func TestStartDragErrors(t *testing.T) {
	l := newTestLoop(t)
	c := NewCoordinator()
	e := new(sourceEngine)

	s := NewDragSession(c, l, e)
	err := s.StartDrag(DragRequest{Transferable: plainText, Actions: transfer.ActionCopy})
	assert.ErrorIs(t, err, transfer.ErrInvalidOperation, "empty trigger")
	err = s.StartDrag(DragRequest{Gesture: gestureAt(image.Pt(0, 0)), Actions: transfer.ActionCopy})
	assert.ErrorIs(t, err, transfer.ErrInvalidArgument, "nil transferable")
	assert.False(t, c.DragInProgress())

	req := DragRequest{Gesture: gestureAt(image.Pt(0, 0)), Transferable: plainText, Actions: transfer.ActionCopy}
	require.NoError(t, s.StartDrag(req))
	assert.ErrorIs(t, s.StartDrag(req), transfer.ErrInvalidOperation, "session restarted")

	other := NewDragSession(c, l, e)
	assert.ErrorIs(t, other.StartDrag(req), transfer.ErrInvalidOperation, "concurrent drag")
	assert.Equal(t, Handle(1), s.Context())
}

func TestStartDragEngineFailure(t *testing.T) {
	l := newTestLoop(t)
	c := NewCoordinator()
	e := &sourceEngine{err: errEngine}
	s := NewDragSession(c, l, e)
	req := DragRequest{Gesture: gestureAt(image.Pt(0, 0)), Transferable: plainText, Actions: transfer.ActionCopy}

	assert.ErrorIs(t, s.StartDrag(req), errEngine)
	assert.False(t, c.DragInProgress())
	_, ok := c.Local()
	assert.False(t, ok)

	e.err = nil
	require.NoError(t, s.StartDrag(req))
	assert.True(t, c.DragInProgress())
	_, ok = c.Local()
	assert.True(t, ok)
}

func TestStartDragSnapshot(t *testing.T) {
	s, e, _ := startedDrag(t, transfer.ActionCopyOrMove)
	require.Len(t, e.starts, 1)
	assert.Equal(t, []string{"text/plain"}, e.starts[0].Formats)
	assert.Equal(t, transfer.ActionCopyOrMove, e.starts[0].Actions)
	assert.Equal(t, transfer.ActionCopyOrMove, s.SourceActions())
	assert.Equal(t, image.Pt(1, 1), s.Gesture().Origin)
	assert.Equal(t, transfer.Transferable(plainText), s.Transferable())
}

func TestDragProgress(t *testing.T) {
	s, e, rec := startedDrag(t, transfer.ActionCopyOrMove)

	s.DragEnter(transfer.ActionAll, 0, image.Pt(2, 2))
	s.DragMotion(transfer.ActionCopy, key.ModCtrl, image.Pt(3, 3))
	s.ActionChanged(transfer.ActionLink, 0, image.Pt(3, 3))
	s.DragExit(image.Pt(4, 4))

	require.Equal(t, []string{"enter", "over", "changed", "exit"}, rec.Calls())
	evs := rec.Events()
	assert.Equal(t, transfer.ActionMove, evs[0].UserAction)
	assert.Equal(t, transfer.ActionCopyOrMove, evs[0].TargetActions)
	assert.Equal(t, transfer.ActionMove, evs[0].Action())
	assert.Equal(t, transfer.ActionCopy, evs[1].Action())
	assert.Equal(t, key.ModCtrl, evs[1].Modifiers)
	assert.Equal(t, transfer.ActionNone, evs[2].Action(), "target only links")
	assert.Equal(t, image.Pt(4, 4), evs[3].Position)
	assert.Equal(t, transfer.DragContext(s), evs[0].Context)

	// The exit cursor equals the cursor already shown.
	assert.Equal(t, []pointer.Cursor{
		pointer.CursorGrabbing,
		pointer.CursorCopy,
		pointer.CursorNotAllowed,
	}, e.Cursors())
	assert.Equal(t, pointer.CursorNotAllowed, s.Cursor())
}

func TestDragMouseMoved(t *testing.T) {
	l := newTestLoop(t)
	e := new(sourceEngine)
	s := NewDragSession(NewCoordinator(), l, e)
	plain := new(sourceRecorder)
	motion := new(motionRecorder)
	s.AddListener(motion)
	require.NoError(t, s.StartDrag(DragRequest{
		Gesture:      gestureAt(image.Pt(0, 0)),
		Transferable: plainText,
		Actions:      transfer.ActionCopy,
		Listener:     plain,
	}))

	s.DragMouseMoved(transfer.ActionNone, 0, image.Pt(9, 9))
	assert.Empty(t, plain.Calls())
	assert.Equal(t, []string{"moved"}, motion.Calls())
	assert.Empty(t, e.Cursors(), "motion doesn't change the cursor")
}

func TestDragCustomCursor(t *testing.T) {
	l := newTestLoop(t)
	e := new(sourceEngine)
	s := NewDragSession(NewCoordinator(), l, e)
	require.NoError(t, s.StartDrag(DragRequest{
		Gesture:      gestureAt(image.Pt(0, 0)),
		Transferable: plainText,
		Actions:      transfer.ActionMove,
		Cursor:       pointer.CursorWait,
	}))
	assert.Equal(t, pointer.CursorWait, e.starts[0].Cursor)

	s.DragEnter(transfer.ActionMove, 0, image.Pt(1, 1))
	assert.Empty(t, e.Cursors())

	s.SetCursor(pointer.CursorDefault)
	s.DragMotion(transfer.ActionMove, 0, image.Pt(2, 2))
	assert.Equal(t, []pointer.Cursor{pointer.CursorDefault, pointer.CursorGrabbing}, e.Cursors())
}

func TestDragListenerPanic(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := newTestLoop(t)
	s := NewDragSession(NewCoordinator(), l, new(sourceEngine), WithLogger(zap.New(core)))
	second := new(sourceRecorder)
	s.AddListener(second)
	require.NoError(t, s.StartDrag(DragRequest{
		Gesture:      gestureAt(image.Pt(0, 0)),
		Transferable: plainText,
		Actions:      transfer.ActionMove,
		Listener:     &sourceRecorder{panicOn: "enter"},
	}))

	s.DragEnter(transfer.ActionMove, 0, image.Pt(1, 1))
	assert.Equal(t, []string{"enter"}, second.Calls())
	assert.Equal(t, 1, logs.FilterMessage("listener panicked").Len())
}

func TestDragDropFinished(t *testing.T) {
	l := newTestLoop(t)
	c := NewCoordinator()
	s := NewDragSession(c, l, new(sourceEngine))
	after := new(sourceRecorder)
	s.AddListener(after)
	require.NoError(t, s.StartDrag(DragRequest{
		Gesture:      gestureAt(image.Pt(0, 0)),
		Transferable: plainText,
		Actions:      transfer.ActionMove,
		Listener:     &sourceRecorder{panicOn: "end"},
	}))

	s.DragDropFinished(true, transfer.ActionMove, image.Pt(5, 5))
	waitClosed(t, s.Finished())

	ends := after.Ends()
	require.Len(t, ends, 1)
	assert.True(t, ends[0].Success)
	assert.Equal(t, transfer.ActionMove, ends[0].Action)
	assert.Equal(t, image.Pt(5, 5), ends[0].Position)

	assert.False(t, c.DragInProgress())
	_, ok := c.Local()
	assert.False(t, ok)
	assert.Equal(t, Handle(0), s.Context())
	assert.Equal(t, pointer.CursorDefault, s.Cursor())

	// Late native callbacks are ignored.
	s.DragEnter(transfer.ActionMove, 0, image.Pt(1, 1))
	s.DragDropFinished(false, transfer.ActionNone, image.Pt(1, 1))
	assert.Equal(t, []string{"end"}, after.Calls())

	// The next drag can start.
	next := NewDragSession(c, l, new(sourceEngine))
	require.NoError(t, next.StartDrag(DragRequest{
		Gesture:      gestureAt(image.Pt(0, 0)),
		Transferable: plainText,
		Actions:      transfer.ActionMove,
	}))
}

func TestDragDropFinishedAsync(t *testing.T) {
	s, _, rec := startedDrag(t, transfer.ActionMove)
	release := blockLoop(t, s.n.loop)

	s.DragDropFinished(false, transfer.ActionNone, image.Point{})
	assert.Empty(t, rec.Calls(), "listener ran before the loop was free")
	release()
	waitClosed(t, s.Finished())
	assert.Equal(t, []string{"end"}, rec.Calls())
}

func TestDragWaitTimeout(t *testing.T) {
	var pumps atomic.Int32
	s, _, rec := startedDrag(t, transfer.ActionMove,
		WithWaitTimeout(20*time.Millisecond),
		WithPump(time.Millisecond, func() { pumps.Add(1) }))
	release := blockLoop(t, s.n.loop)

	start := time.Now()
	s.DragEnter(transfer.ActionMove, 0, image.Pt(1, 1))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, rec.Calls())
	assert.Positive(t, pumps.Load())
	release()
}

func TestDragClosedLoop(t *testing.T) {
	s, _, rec := startedDrag(t, transfer.ActionMove)
	s.n.loop.Close()
	s.DragMotion(transfer.ActionMove, 0, image.Pt(1, 1))
	assert.Empty(t, rec.Calls())
}

func TestDragImage(t *testing.T) {
	l := newTestLoop(t)
	e := new(sourceEngine)
	s := NewDragSession(NewCoordinator(), l, e)
	img := image.NewRGBA(image.Rect(0, 0, 512, 256))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	require.NoError(t, s.StartDrag(DragRequest{
		Gesture:      gestureAt(image.Pt(0, 0)),
		Transferable: plainText,
		Actions:      transfer.ActionCopy,
		Image:        img,
		Offset:       image.Pt(100, 50),
	}))
	got, off := s.Image()
	require.NotNil(t, got)
	assert.Equal(t, image.Pt(256, 128), got.Bounds().Size())
	assert.Equal(t, image.Pt(50, 25), off)
	assert.Equal(t, got, e.starts[0].Image)
}

func TestDragFinishedDuringStart(t *testing.T) {
	l := newTestLoop(t)
	c := NewCoordinator()
	e := &sourceEngine{handle: 9}
	e.onStart = func(s *DragSession) {
		s.DragDropFinished(false, transfer.ActionNone, image.Point{})
		waitClosed(t, s.Finished())
	}
	s := NewDragSession(c, l, e)
	rec := new(sourceRecorder)
	require.NoError(t, s.StartDrag(DragRequest{
		Gesture:      gestureAt(image.Pt(0, 0)),
		Transferable: plainText,
		Actions:      transfer.ActionMove,
		Listener:     rec,
	}))
	assert.Equal(t, Handle(0), s.Context(), "finished drag keeps no native context")
	assert.Equal(t, []string{"end"}, rec.Calls())
	assert.False(t, c.DragInProgress())
}

// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"

	"gioui.org/dnd/app"
	"gioui.org/dnd/io/key"
	"gioui.org/dnd/io/pointer"
	"gioui.org/dnd/io/transfer"
)

// simEngine plays the native drag and drop engine for one drag
// between a source and a target laid out on a virtual screen.
type simEngine struct {
	log    *zap.Logger
	target image.Rectangle
	mods   key.Modifiers

	mu      sync.Mutex
	source  *app.DragSession
	start   app.DragStart
	started chan struct{}
	cursor  pointer.Cursor
	// data backs Payload for drags between processes.
	data transfer.Transferable
	done chan dropResult
}

type dropResult struct {
	success bool
	action  transfer.Action
	local   bool
}

const simHandle app.Handle = 1

func newSimEngine(log *zap.Logger, target image.Rectangle, mods key.Modifiers) *simEngine {
	return &simEngine{
		log:     log,
		target:  target,
		mods:    mods,
		started: make(chan struct{}),
		done:    make(chan dropResult, 1),
	}
}

func (e *simEngine) StartDrag(s *app.DragSession, d app.DragStart) (app.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source != nil {
		return 0, errors.New("dndsim: drag already started")
	}
	e.source = s
	e.start = d
	e.data = s.Transferable()
	e.cursor = d.Cursor
	close(e.started)
	return simHandle, nil
}

func (e *simEngine) SetNativeCursor(h app.Handle, c pointer.Cursor, k transfer.Kind) error {
	if h != simHandle {
		return fmt.Errorf("dndsim: set cursor: invalid context %d", h)
	}
	e.mu.Lock()
	e.cursor = c
	e.mu.Unlock()
	e.log.Info("cursor", zap.Stringer("cursor", c), zap.Stringer("kind", k))
	return nil
}

// Payload serializes the source data the way a native clipboard
// would: text as UTF-8 bytes, anything else with fmt.
func (e *simEngine) Payload(h app.Handle, format string) ([]byte, error) {
	e.mu.Lock()
	data := e.data
	e.mu.Unlock()
	if data == nil || h != simHandle {
		return nil, fmt.Errorf("dndsim: payload %s: no drag", format)
	}
	v, err := data.Data(format)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return []byte(fmt.Sprint(v)), nil
	}
}

func (e *simEngine) DropDone(h app.Handle, success bool, action transfer.Action, local bool) {
	e.log.Info("drop done",
		zap.Bool("success", success),
		zap.Stringer("action", action),
		zap.Bool("local", local))
	select {
	case e.done <- dropResult{success: success, action: action, local: local}:
	default:
		e.log.Warn("drop completed twice")
	}
}

// run moves the pointer along path, reporting the drag to the
// source and to dst, and drops at the last point.
func (e *simEngine) run(ctx context.Context, dst *app.DropSession, path []image.Point) error {
	select {
	case <-e.started:
	case <-ctx.Done():
		return ctx.Err()
	}
	e.mu.Lock()
	src, start := e.source, e.start
	e.mu.Unlock()

	native := app.NativeDrag{
		Action:    transfer.DropActionForModifiers(e.mods, start.Actions),
		Supported: start.Actions,
		Formats:   start.Formats,
		Context:   simHandle,
	}
	over := false
	var last image.Point
	for _, p := range path {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = p
		native.Pos = p.Sub(e.target.Min)
		inside := p.In(e.target)
		switch {
		case inside && !over:
			a := dst.DragEnter(native)
			src.DragEnter(dst.TargetActions(), e.mods, p)
			e.log.Debug("enter", zap.Stringer("action", a))
		case inside:
			a := dst.DragMotion(native)
			src.DragMotion(dst.TargetActions(), e.mods, p)
			e.log.Debug("motion", zap.Stringer("action", a))
		case over:
			dst.DragExit(native)
			src.DragExit(p)
		}
		over = inside
		src.DragMouseMoved(dst.TargetActions(), e.mods, p)
	}

	res := dropResult{}
	if over {
		dst.Drop(native, true)
		select {
		case res = <-e.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	src.DragDropFinished(res.success, res.action, last)
	select {
	case <-src.Finished():
	case <-ctx.Done():
		return ctx.Err()
	}
	if !res.success {
		return errDropFailed
	}
	return nil
}

var errDropFailed = errors.New("drop failed")

// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"image"

	"gioui.org/dnd/io/pointer"
	"gioui.org/dnd/io/transfer"
)

// Handle is an opaque native drag context. The zero Handle is invalid.
type Handle uintptr

// DragStart describes an outgoing drag to the native engine.
type DragStart struct {
	Formats []string
	Actions transfer.Action
	Cursor  pointer.Cursor
	// Image is the optional drag image, already scaled to the
	// configured maximum size, and Offset its offset from the pointer.
	Image  image.Image
	Offset image.Point
}

// SourceEngine is the native side of outgoing drags.
type SourceEngine interface {
	// StartDrag starts the native drag for s. The engine reports
	// progress by calling the native callbacks of s from its own
	// goroutine, never from the loop s runs listeners on. Callbacks
	// made before StartDrag returns see a zero s.Context.
	StartDrag(s *DragSession, d DragStart) (Handle, error)
	// SetNativeCursor updates the cursor shown for the drag, in
	// response to the notification of kind k.
	SetNativeCursor(h Handle, c pointer.Cursor, k transfer.Kind) error
}

// TargetEngine is the native side of incoming drags.
type TargetEngine interface {
	// Payload returns the raw native data of a cross-process drag.
	Payload(h Handle, format string) ([]byte, error)
	// DropDone reports the outcome of a drop.
	DropDone(h Handle, success bool, action transfer.Action, local bool)
}

// NativeDrag is the native state of a drag over a drop target.
type NativeDrag struct {
	Pos image.Point
	// Action is the action proposed by the native engine.
	Action transfer.Action
	// Supported is the set of actions supported by the source.
	Supported transfer.Action
	Formats   []string
	Context   Handle
}

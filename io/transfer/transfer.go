// SPDX-License-Identifier: Unlicense OR MIT

// Package transfer contains the types exchanged between drag and drop
// sessions and the application listeners observing them.
//
// The transfer protocol is as follows:
//
//   - A drag source starts a drag from a [Gesture] with a [Transferable]
//     and the set of actions it supports. Its [SourceListener] receives
//     a [DragEvent] for every progress notification from the native
//     engine and a [DropEndEvent] when the drag finishes.
//   - A drop target's [TargetListener] receives a [TargetEvent] when a
//     drag enters, moves over or changes action over the target, and
//     a [DropEvent] when data is dropped on it. The listener responds
//     through the [DropContext] carried by the event.
//   - The effective action is negotiated with [DropActionForModifiers]
//     on the source side and [ChooseAction] on the target side.
//
// When the source and target live in the same process, the target
// reads the source Transferable directly instead of translating the
// native payload.
package transfer

import (
	"image"

	"gioui.org/dnd/io/event"
	"gioui.org/dnd/io/key"
	"gioui.org/dnd/io/pointer"
)

// Transferable is the data offered by a drag source.
type Transferable interface {
	// Formats returns the MIME types the data is available in,
	// in order of preference.
	Formats() []string
	// Data returns the data in the given format.
	Data(format string) (interface{}, error)
}

// Translator converts a native payload into an application value.
type Translator interface {
	Translate(format string, raw []byte) (interface{}, error)
}

// Value is a Transferable holding a single representation of data.
type Value struct {
	Format string
	Value  interface{}
}

// Values is a Transferable holding one representation per format.
type Values []Value

// Gesture describes the user gesture that triggered a drag.
type Gesture struct {
	// Source is the tag of the component the drag originates from.
	Source event.Tag
	// Origin is the position where the gesture started.
	Origin image.Point
	// Action is the user action selected when the gesture
	// was recognized.
	Action Action
	// Modifiers held when the gesture was recognized.
	Modifiers key.Modifiers
	// Trigger lists the pointer events that make up the gesture.
	// A drag can only start from a gesture with at least one event.
	Trigger []pointer.Event
}

// DragContext is the source side view of a drag in progress.
type DragContext interface {
	Gesture() Gesture
	Transferable() Transferable
	SourceActions() Action
	Cursor() pointer.Cursor
	// SetCursor replaces the cursor shown during the drag. Once set,
	// the cursor is no longer updated to reflect the drop action.
	SetCursor(c pointer.Cursor)
}

// DropContext is the target side view of a drag, used by listeners to
// respond to it.
type DropContext interface {
	// AcceptDrag accepts the drag with the highest priority action in a.
	AcceptDrag(a Action) error
	// RejectDrag rejects the drag until the next AcceptDrag.
	RejectDrag() error
	// AcceptDrop accepts a pending drop with the highest priority action
	// in a that the source supports.
	AcceptDrop(a Action) error
	// RejectDrop rejects a pending drop and completes it as failed.
	RejectDrop() error
	// DropComplete signals the outcome of an accepted drop.
	DropComplete(success bool) error
	// Formats returns the formats advertised by the drag source.
	Formats() []string
	// Supports reports whether format is advertised.
	Supports(format string) bool
	// Data returns the dropped data in format. It is only valid after
	// the drop is accepted and before it completes.
	Data(format string) (interface{}, error)
	// TargetActions returns the actions the target supports.
	TargetActions() Action
	// IsLocal reports whether the source lives in the same process.
	IsLocal() bool
}

// DragEvent is sent to a SourceListener as the drag progresses.
type DragEvent struct {
	Context DragContext
	// UserAction is the action selected by the modifiers, restricted
	// to the source actions.
	UserAction Action
	// TargetActions is the set of actions supported by both the
	// source and the target under the pointer.
	TargetActions Action
	Modifiers     key.Modifiers
	Position      image.Point
}

// DropEndEvent is sent to a SourceListener when a drag finishes.
type DropEndEvent struct {
	Context  DragContext
	Success  bool
	Action   Action
	Position image.Point
}

// TargetEvent is sent to a TargetListener while a drag is over the
// target.
type TargetEvent struct {
	Context  DropContext
	Position image.Point
	// Action is the negotiated action.
	Action Action
	// SourceActions is the set of actions supported by the source.
	SourceActions Action
}

// DropEvent is sent to a TargetListener when data is dropped.
type DropEvent struct {
	TargetEvent
	// Local reports whether the source lives in the same process.
	Local bool
}

// SourceListener observes an outgoing drag.
type SourceListener interface {
	DragEnter(e DragEvent)
	DragOver(e DragEvent)
	DropActionChanged(e DragEvent)
	DragExit(e DragEvent)
	DragDropEnd(e DropEndEvent)
}

// MotionListener is implemented by source listeners that want to observe
// every pointer motion during a drag, regardless of the target.
type MotionListener interface {
	DragMouseMoved(e DragEvent)
}

// TargetListener observes drags over a drop target.
type TargetListener interface {
	DragEnter(e TargetEvent)
	DragOver(e TargetEvent)
	DropActionChanged(e TargetEvent)
	DragExit(ctx DropContext)
	Drop(e DropEvent)
}

// Action returns the action the drag would perform on drop: the user
// action, provided the target supports it.
func (e DragEvent) Action() Action {
	return e.UserAction & e.TargetActions
}

func (v Value) Formats() []string {
	return []string{v.Format}
}

func (v Value) Data(format string) (interface{}, error) {
	if format != v.Format {
		return nil, ErrUnsupportedFormat
	}
	return v.Value, nil
}

func (vs Values) Formats() []string {
	formats := make([]string, len(vs))
	for i, v := range vs {
		formats[i] = v.Format
	}
	return formats
}

func (vs Values) Data(format string) (interface{}, error) {
	for _, v := range vs {
		if v.Format == format {
			return v.Value, nil
		}
	}
	return nil, ErrUnsupportedFormat
}

func (DragEvent) ImplementsEvent()    {}
func (DropEndEvent) ImplementsEvent() {}
func (TargetEvent) ImplementsEvent()  {}
func (DropEvent) ImplementsEvent()    {}

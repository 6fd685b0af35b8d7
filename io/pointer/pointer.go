// SPDX-License-Identifier: Unlicense OR MIT

// Package pointer implements the pointer events a drag gesture is
// recognized from, and the cursor shapes shown while the pointer
// drives a drag.
package pointer

import (
	"image"
	"strings"
	"time"

	"gioui.org/dnd/io/key"
)

// Event is a pointer event.
type Event struct {
	Kind   Kind
	Source Source
	// PointerID tracks one pointer from Press to Release or Cancel.
	PointerID ID
	// Time is relative to an undefined base.
	Time time.Duration
	// Buttons held during the event.
	Buttons   Buttons
	Position  image.Point
	Modifiers key.Modifiers
}

type ID uint16

// Kind of an Event. Kinds are single bits so a set of kinds can be
// used as a filter.
type Kind uint

// Source of an Event.
type Source uint8

// Buttons is a set of mouse buttons.
type Buttons uint8

// Cursor is a cursor shape.
type Cursor byte

const (
	// Cancel means the gesture was interrupted, for example because
	// the native engine took over the pointer.
	Cancel Kind = 1 << iota
	Press
	Release
	Move
	// Drag is a Move with a button held.
	Drag
)

const (
	Mouse Source = iota
	Touch
)

const (
	// ButtonPrimary is usually the left mouse button.
	ButtonPrimary Buttons = 1 << iota
	// ButtonSecondary is usually the right mouse button.
	ButtonSecondary
	// ButtonTertiary is usually the middle mouse button.
	ButtonTertiary
)

const (
	// CursorDefault lets the drag track the drop action.
	CursorDefault Cursor = iota
	CursorNone
	CursorPointer
	// CursorGrab is shown over content that can be dragged.
	CursorGrab
	// CursorGrabbing is shown while content is dragged to be moved.
	CursorGrabbing
	// CursorCopy is shown while a drop would copy the data.
	CursorCopy
	// CursorLink is shown while a drop would link the data.
	CursorLink
	// CursorNotAllowed is shown while no drop is possible.
	CursorNotAllowed
	CursorWait
)

var kindNames = [...]string{"Cancel", "Press", "Release", "Move", "Drag"}

func (k Kind) String() string {
	var names []string
	for i, n := range kindNames {
		if k&(1<<uint(i)) != 0 {
			names = append(names, n)
		}
	}
	return strings.Join(names, "|")
}

func (s Source) String() string {
	switch s {
	case Mouse:
		return "Mouse"
	case Touch:
		return "Touch"
	default:
		panic("unknown pointer source")
	}
}

// Contain reports whether b holds every button of buttons.
func (b Buttons) Contain(buttons Buttons) bool {
	return b&buttons == buttons
}

var buttonNames = [...]string{"ButtonPrimary", "ButtonSecondary", "ButtonTertiary"}

func (b Buttons) String() string {
	var names []string
	for i, n := range buttonNames {
		if b.Contain(1 << uint(i)) {
			names = append(names, n)
		}
	}
	return strings.Join(names, "|")
}

var cursorNames = [...]string{
	CursorDefault:    "Default",
	CursorNone:       "None",
	CursorPointer:    "Pointer",
	CursorGrab:       "Grab",
	CursorGrabbing:   "Grabbing",
	CursorCopy:       "Copy",
	CursorLink:       "Link",
	CursorNotAllowed: "NotAllowed",
	CursorWait:       "Wait",
}

func (c Cursor) String() string {
	if int(c) >= len(cursorNames) {
		panic("unknown cursor")
	}
	return cursorNames[c]
}

func (Event) ImplementsEvent() {}

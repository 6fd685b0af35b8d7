// SPDX-License-Identifier: Unlicense OR MIT

/*
Package gesture recognizes drag gestures from pointer events.

A Drag consumes the low level pointer Events of a drag source
and reports a transfer.Gesture once the pointer has moved past
the touch slop with a button held. The gesture carries the events
that triggered it, ready for app.DragSession.StartDrag.
*/
package gesture

import (
	"image"

	"gioui.org/dnd/io/event"
	"gioui.org/dnd/io/pointer"
	"gioui.org/dnd/io/transfer"
)

// TouchSlop is the default distance in pixels a pressed pointer
// must travel before a drag is recognized.
const TouchSlop = 3

// Drag detects drag gestures.
type Drag struct {
	// Source tags the recognized gestures.
	Source event.Tag
	// Actions is the set of actions the source supports. Zero
	// means transfer.ActionAll.
	Actions transfer.Action
	// Slop overrides TouchSlop when positive.
	Slop int
	// Filter reports whether an event must be ignored. It is
	// typically set to Coordinator.FilterInput.
	Filter func(e event.Event) bool

	pressed    bool
	recognized bool
	pid        pointer.ID
	start      image.Point
	trigger    []pointer.Event
}

// Update feeds e to the recognizer. It reports the gesture the
// first time the pressed pointer moves past the slop.
func (d *Drag) Update(e pointer.Event) (transfer.Gesture, bool) {
	if d.Filter != nil && d.Filter(e) {
		return transfer.Gesture{}, false
	}
	switch e.Kind {
	case pointer.Press:
		if d.pressed {
			break
		}
		if e.Source == pointer.Mouse && e.Buttons&pointer.ButtonPrimary == 0 {
			break
		}
		d.pressed = true
		d.recognized = false
		d.pid = e.PointerID
		d.start = e.Position
		d.trigger = append(d.trigger[:0], e)
	case pointer.Drag, pointer.Move:
		if !d.pressed || d.recognized || e.PointerID != d.pid {
			break
		}
		d.trigger = append(d.trigger, e)
		if !d.pastSlop(e.Position) {
			break
		}
		d.recognized = true
		actions := d.Actions
		if actions == transfer.ActionNone {
			actions = transfer.ActionAll
		}
		g := transfer.Gesture{
			Source:    d.Source,
			Origin:    d.start,
			Modifiers: e.Modifiers,
			Action:    transfer.DropActionForModifiers(e.Modifiers, actions),
			Trigger:   append([]pointer.Event(nil), d.trigger...),
		}
		return g, true
	case pointer.Release, pointer.Cancel:
		if e.PointerID == d.pid || e.Kind == pointer.Cancel {
			d.Reset()
		}
	}
	return transfer.Gesture{}, false
}

// Dragging reports whether a drag was recognized and the pointer
// is still held.
func (d *Drag) Dragging() bool {
	return d.pressed && d.recognized
}

// Reset drops any in-flight gesture.
func (d *Drag) Reset() {
	d.pressed = false
	d.recognized = false
	d.pid = 0
	d.trigger = d.trigger[:0]
}

func (d *Drag) pastSlop(p image.Point) bool {
	slop := d.Slop
	if slop <= 0 {
		slop = TouchSlop
	}
	dx, dy := p.X-d.start.X, p.Y-d.start.Y
	return dx*dx+dy*dy > slop*slop
}

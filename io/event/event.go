// SPDX-License-Identifier: Unlicense OR MIT

// Package event contains the marker types shared by input and
// drag and drop notifications.
package event

// Tag is the stable identifier for an event handler, such as
// a drag source or a drop target. For a handler h, the tag is
// typically &h.
type Tag interface{}

// Event is the marker interface for events.
type Event interface {
	ImplementsEvent()
}

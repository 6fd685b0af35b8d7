// SPDX-License-Identifier: Unlicense OR MIT

// Package key implements the keyboard modifier state carried by
// pointer and drag events. Modifiers select the drop action of a
// drag, see transfer.DropActionForModifiers.
package key

import (
	"strings"
)

// Modifiers is a set of modifier keys.
type Modifiers uint32

const (
	ModCtrl Modifiers = 1 << iota
	// ModCommand is the command key of Apple keyboards.
	ModCommand
	ModShift
	// ModAlt is also the option key of Apple keyboards.
	ModAlt
	// ModSuper is the "logo" key.
	ModSuper
)

// Name is the display name of a modifier key.
type Name string

const (
	NameCtrl    Name = "Ctrl"
	NameShift   Name = "Shift"
	NameAlt     Name = "Alt"
	NameSuper   Name = "Super"
	NameCommand Name = "⌘"
)

var names = [...]Name{NameCtrl, NameCommand, NameShift, NameAlt, NameSuper}

// Contain reports whether m holds every modifier of m2.
func (m Modifiers) Contain(m2 Modifiers) bool {
	return m&m2 == m2
}

// Only reports whether the modifiers of m within mask are exactly m2.
func (m Modifiers) Only(mask, m2 Modifiers) bool {
	return m&mask == m2
}

func (m Modifiers) String() string {
	var strs []string
	for i, n := range names {
		if m.Contain(1 << uint(i)) {
			strs = append(strs, string(n))
		}
	}
	return strings.Join(strs, "-")
}

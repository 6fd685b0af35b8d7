// SPDX-License-Identifier: Unlicense OR MIT

package transfer

import (
	"strings"

	"gioui.org/dnd/io/key"
)

// Action is a set of drop actions. A single bit names the action in
// effect for a drag; several bits describe the actions a source or
// target supports. The numeric value is the drop action code exchanged
// with the native engine.
type Action uint32

const (
	// ActionNone means no data is transferred.
	ActionNone Action = 0
	// ActionCopy copies the data to the target.
	ActionCopy Action = 1 << (iota - 1)
	// ActionMove moves the data to the target; the source
	// deletes its copy when the drop succeeds.
	ActionMove
	// ActionLink makes the target refer to the source data.
	ActionLink

	ActionCopyOrMove = ActionCopy | ActionMove
	ActionAll        = ActionCopy | ActionMove | ActionLink
)

const (
	// ModDropMove selects ActionMove when held alone during a drag.
	ModDropMove = key.ModShift
	// ModDropCopy selects ActionCopy when held alone during a drag.
	// Holding both ModDropMove and ModDropCopy selects ActionLink.
	ModDropCopy = key.ModCtrl
)

// priority is the order in which actions are picked when
// several are acceptable.
var priority = [...]Action{ActionMove, ActionCopy, ActionLink}

// DropActionForModifiers returns the action a user selects by holding
// mods while dragging data that supports the supported actions. With
// no selecting modifier held, the highest priority supported action is
// used. The result is always a subset of supported and may be
// ActionNone.
func DropActionForModifiers(mods key.Modifiers, supported Action) Action {
	const selecting = ModDropMove | ModDropCopy
	var a Action
	switch mods & selecting {
	case selecting:
		a = ActionLink
	case ModDropCopy:
		a = ActionCopy
	case ModDropMove:
		a = ActionMove
	default:
		for _, p := range priority {
			if supported.Contain(p) {
				a = p
				break
			}
		}
	}
	return a & supported
}

// ChooseAction returns the highest priority single action contained in
// requested, or ActionNone.
func ChooseAction(requested Action) Action {
	for _, p := range priority {
		if requested.Contain(p) {
			return p
		}
	}
	return ActionNone
}

// Contain reports whether a contains all actions in a2.
// Every set contains ActionNone.
func (a Action) Contain(a2 Action) bool {
	return a&a2 == a2
}

func (a Action) String() string {
	if a == ActionNone {
		return "None"
	}
	var strs []string
	for _, p := range priority {
		if a.Contain(p) {
			strs = append(strs, p.string())
		}
	}
	if rest := a &^ ActionAll; rest != 0 {
		strs = append(strs, "Unknown")
	}
	return strings.Join(strs, "|")
}

func (a Action) string() string {
	switch a {
	case ActionMove:
		return "Move"
	case ActionCopy:
		return "Copy"
	case ActionLink:
		return "Link"
	default:
		panic("unknown action")
	}
}

// SPDX-License-Identifier: Unlicense OR MIT

package transfer

// Kind identifies a drag and drop notification from the native engine.
type Kind uint8

const (
	// Enter is sent when a drag enters a target.
	Enter Kind = iota
	// Motion is sent when a drag moves over a target.
	Motion
	// ActionChanged is sent when the user action changes
	// while over a target.
	ActionChanged
	// Exit is sent when a drag leaves a target.
	Exit
	// DropFinish is sent to the source when the drag ends.
	DropFinish
	// MouseMoved is sent to the source for every pointer motion.
	MouseMoved
	// Drop is sent to a target when data is dropped on it.
	Drop
)

func (k Kind) String() string {
	switch k {
	case Enter:
		return "Enter"
	case Motion:
		return "Motion"
	case ActionChanged:
		return "ActionChanged"
	case Exit:
		return "Exit"
	case DropFinish:
		return "DropFinish"
	case MouseMoved:
		return "MouseMoved"
	case Drop:
		return "Drop"
	default:
		panic("unknown Kind")
	}
}

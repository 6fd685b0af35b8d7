// SPDX-License-Identifier: Unlicense OR MIT

package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOperation is returned when an operation is called
	// outside the session state it is valid in, for example accepting a
	// drop that is not pending or starting a second concurrent drag.
	ErrInvalidOperation = errors.New("transfer: invalid drag and drop operation")
	// ErrInvalidArgument is returned for arguments that are never
	// valid, such as accepting a drop with ActionNone.
	ErrInvalidArgument = errors.New("transfer: invalid argument")
	// ErrUnsupportedFormat is returned when the requested format is not
	// among the formats advertised for the current drag.
	ErrUnsupportedFormat = errors.New("transfer: unsupported format")
)

// IOError reports a failure to produce the data for a format, typically
// because a Translator could not convert the native payload.
type IOError struct {
	Format string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("transfer: read %s: %v", e.Format, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ListenerError describes a listener callback that panicked. Sessions
// recover such panics, log them and degrade the drag to ActionNone.
type ListenerError struct {
	// Callback names the listener method, such as "DragEnter".
	Callback string
	// Value is the recovered panic value.
	Value interface{}
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("transfer: listener %s panicked: %v", e.Callback, e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *ListenerError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

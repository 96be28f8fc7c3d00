package cec

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection reports that no compliant bus was found or the native
	// library could not open the device.
	ErrConnection = errors.New("cec: bus connection failed")
	// ErrInvalidState reports an operation invoked in the wrong lifecycle state.
	ErrInvalidState = errors.New("cec: invalid adapter state")
	// ErrTransmission reports a frame the bus did not accept or acknowledge.
	ErrTransmission = errors.New("cec: transmission failed")
	// ErrUnknownButton reports a button outside the fixed table.
	ErrUnknownButton = errors.New("cec: unknown remote button")
	// ErrUnknownOpcode reports an opcode outside the recognised set.
	ErrUnknownOpcode = errors.New("cec: unrecognized opcode")
	// ErrInvalidCommand reports a malformed outbound command.
	ErrInvalidCommand = errors.New("cec: invalid command")
)

// StateError is returned when an operation is not allowed in the adapter's
// current state. It matches ErrInvalidState.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cec: %s not allowed in state %s", e.Op, e.State)
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// CallbackError wraps a failure raised by a user supplied callback or command
// handler during dispatch.
type CallbackError struct {
	// Category is "keypress" or "command".
	Category string
	Opcode   Opcode
	// Index is the callback's position in its list at dispatch time.
	Index int
	Err   error
}

func (e *CallbackError) Error() string {
	if e.Category == categoryCommand {
		return fmt.Sprintf("cec: %s callback %d for %s failed: %v", e.Category, e.Index, e.Opcode, e.Err)
	}
	return fmt.Sprintf("cec: %s callback %d failed: %v", e.Category, e.Index, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

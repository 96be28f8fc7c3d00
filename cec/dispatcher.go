package cec

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	categoryKeyPress = "keypress"
	categoryCommand  = "command"
)

// KeyPress is a decoded remote-control key event. A press is reported with a
// zero Duration; the matching release carries how long the key was held.
type KeyPress struct {
	Button   Button
	Code     uint8
	Duration time.Duration
	Released bool
}

// KeyPressCallback observes decoded key events.
type KeyPressCallback func(ev KeyPress) error

// CommandCallback observes inbound commands for one opcode.
type CommandCallback func(cmd Command) error

// ErrorHandler receives every callback failure isolated during dispatch.
type ErrorHandler func(err *CallbackError)

// Unregister removes the callback it was returned for. Calling it again is a
// no-op.
type Unregister func()

type keyEntry struct {
	id uint64
	fn KeyPressCallback
}

type cmdEntry struct {
	id uint64
	fn CommandCallback
}

// Dispatcher fans inbound events out to registered callbacks. Registration
// may happen from any goroutine while a dispatch is in progress; each
// dispatch works on the callback list as it was when the dispatch started.
type Dispatcher struct {
	registry *Registry
	log      *slog.Logger
	onError  ErrorHandler

	mu           sync.RWMutex
	nextID       uint64
	keyCallbacks []keyEntry
	cmdCallbacks map[Opcode][]cmdEntry
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatchLogger sets the logger used for diagnostics.
func WithDispatchLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// WithDispatchErrorHandler routes isolated callback failures to fn instead of
// the log.
func WithDispatchErrorHandler(fn ErrorHandler) DispatcherOption {
	return func(d *Dispatcher) { d.onError = fn }
}

// NewDispatcher returns a Dispatcher that consults reg for command handlers.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:     reg,
		log:          slog.Default(),
		cmdCallbacks: make(map[Opcode][]cmdEntry),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.onError == nil {
		d.onError = func(err *CallbackError) {
			d.log.Error("cec callback failed", "category", err.Category, "opcode", err.Opcode.String(), "index", err.Index, "error", err.Err)
		}
	}
	return d
}

// OnKeyPress appends fn to the keypress callbacks. Registering the same
// function twice invokes it twice; each registration is removed separately.
func (d *Dispatcher) OnKeyPress(fn KeyPressCallback) Unregister {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	next := make([]keyEntry, len(d.keyCallbacks), len(d.keyCallbacks)+1)
	copy(next, d.keyCallbacks)
	d.keyCallbacks = append(next, keyEntry{id: id, fn: fn})
	return func() { d.removeKeyPress(id) }
}

// OnCommand appends fn to the callbacks for op.
func (d *Dispatcher) OnCommand(op Opcode, fn CommandCallback) Unregister {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	cur := d.cmdCallbacks[op]
	next := make([]cmdEntry, len(cur), len(cur)+1)
	copy(next, cur)
	d.cmdCallbacks[op] = append(next, cmdEntry{id: id, fn: fn})
	return func() { d.removeCommand(op, id) }
}

// Removal builds a new slice so a dispatch already holding the old one
// finishes its pass unchanged.
func (d *Dispatcher) removeKeyPress(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := make([]keyEntry, 0, len(d.keyCallbacks))
	for _, e := range d.keyCallbacks {
		if e.id != id {
			next = append(next, e)
		}
	}
	d.keyCallbacks = next
}

func (d *Dispatcher) removeCommand(op Opcode, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur := d.cmdCallbacks[op]
	next := make([]cmdEntry, 0, len(cur))
	for _, e := range cur {
		if e.id != id {
			next = append(next, e)
		}
	}
	if len(next) == 0 {
		delete(d.cmdCallbacks, op)
		return
	}
	d.cmdCallbacks[op] = next
}

// Reset drops every registered callback.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyCallbacks = nil
	d.cmdCallbacks = make(map[Opcode][]cmdEntry)
}

// DispatchKeyPress invokes every keypress callback in registration order.
// Failing callbacks are reported and do not stop delivery to the rest; the
// returned error joins all failures.
func (d *Dispatcher) DispatchKeyPress(ev KeyPress) error {
	d.mu.RLock()
	callbacks := d.keyCallbacks
	d.mu.RUnlock()

	var errs []error
	for i, e := range callbacks {
		if err := d.call(categoryKeyPress, 0, i, func() error { return e.fn(ev) }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DispatchCommand runs the registry handlers for cmd.Opcode, stopping at the
// first that reports Handled, then every command callback for the opcode.
// Commands with unrecognised opcodes are dropped.
func (d *Dispatcher) DispatchCommand(cmd Command) error {
	if !cmd.Opcode.Known() {
		d.log.Debug("dropping command with unrecognized opcode", "opcode", fmt.Sprintf("0x%02X", uint8(cmd.Opcode)), "from", cmd.Initiator.String())
		return nil
	}

	handlers := d.registry.Lookup(cmd.Opcode)

	d.mu.RLock()
	callbacks := d.cmdCallbacks[cmd.Opcode]
	d.mu.RUnlock()

	if len(handlers) == 0 && len(callbacks) == 0 {
		d.log.Debug("unhandled command", "opcode", cmd.Opcode.String(), "from", cmd.Initiator.String(), "to", cmd.Destination.String())
		return nil
	}

	var errs []error
	for i, h := range handlers {
		var res Result
		err := d.call(categoryCommand, cmd.Opcode, i, func() error {
			var err error
			res, err = h(cmd)
			return err
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if res == Handled {
			break
		}
	}
	for i, e := range callbacks {
		if err := d.call(categoryCommand, cmd.Opcode, len(handlers)+i, func() error { return e.fn(cmd) }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// call runs fn, converting a returned error or a panic into a reported
// *CallbackError.
func (d *Dispatcher) call(category string, op Opcode, index int, fn func() error) (cbErr *CallbackError) {
	defer func() {
		if r := recover(); r != nil {
			cbErr = &CallbackError{Category: category, Opcode: op, Index: index, Err: fmt.Errorf("panic: %v", r)}
		}
		if cbErr != nil {
			d.onError(cbErr)
		}
	}()
	if err := fn(); err != nil {
		return &CallbackError{Category: category, Opcode: op, Index: index, Err: err}
	}
	return nil
}

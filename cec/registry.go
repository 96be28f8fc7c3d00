package cec

import (
	"fmt"
	"sync"
)

// Result tells the dispatcher whether later handlers for the same command
// should still run.
type Result int

const (
	// Continue lets the next handler run.
	Continue Result = iota
	// Handled stops the handler chain for this command.
	Handled
)

// CommandHandler responds to an inbound command.
type CommandHandler func(cmd Command) (Result, error)

// Registry maps opcodes to a built-in default handler and an optional
// caller supplied override.
type Registry struct {
	mu        sync.RWMutex
	defaults  map[Opcode]CommandHandler
	overrides map[Opcode]CommandHandler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		defaults:  make(map[Opcode]CommandHandler),
		overrides: make(map[Opcode]CommandHandler),
	}
}

// RegisterDefault installs the built-in handler for op.
func (r *Registry) RegisterDefault(op Opcode, h CommandHandler) error {
	return r.register(r.defaults, op, h)
}

// RegisterOverride installs a handler that runs before the default for op.
// A second call for the same opcode replaces the first.
func (r *Registry) RegisterOverride(op Opcode, h CommandHandler) error {
	return r.register(r.overrides, op, h)
}

func (r *Registry) register(m map[Opcode]CommandHandler, op Opcode, h CommandHandler) error {
	if !op.Known() {
		return fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, uint8(op))
	}
	if h == nil {
		return fmt.Errorf("cec: nil handler for %s", op)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m[op] = h
	return nil
}

// Lookup returns the override (if any) followed by the default (if any).
func (r *Registry) Lookup(op Opcode) []CommandHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []CommandHandler
	if h, ok := r.overrides[op]; ok {
		out = append(out, h)
	}
	if h, ok := r.defaults[op]; ok {
		out = append(out, h)
	}
	return out
}

package cec

import (
	"errors"
	"testing"
)

func handlerReturning(calls *[]string, name string, res Result) CommandHandler {
	return func(Command) (Result, error) {
		*calls = append(*calls, name)
		return res, nil
	}
}

func TestRegistryLookupOrder(t *testing.T) {
	r := NewRegistry()
	var calls []string

	if got := r.Lookup(OpcodeStandby); len(got) != 0 {
		t.Fatalf("empty registry returned %d handlers", len(got))
	}

	if err := r.RegisterDefault(OpcodeStandby, handlerReturning(&calls, "default", Continue)); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterOverride(OpcodeStandby, handlerReturning(&calls, "override", Continue)); err != nil {
		t.Fatal(err)
	}

	handlers := r.Lookup(OpcodeStandby)
	if len(handlers) != 2 {
		t.Fatalf("got %d handlers, want 2", len(handlers))
	}
	for _, h := range handlers {
		h(Command{})
	}
	if len(calls) != 2 || calls[0] != "override" || calls[1] != "default" {
		t.Fatalf("unexpected order: %v", calls)
	}
}

func TestRegistryOverrideReplaces(t *testing.T) {
	r := NewRegistry()
	var calls []string
	r.RegisterOverride(OpcodeStandby, handlerReturning(&calls, "first", Continue))
	r.RegisterOverride(OpcodeStandby, handlerReturning(&calls, "second", Continue))

	handlers := r.Lookup(OpcodeStandby)
	if len(handlers) != 1 {
		t.Fatalf("got %d handlers, want 1", len(handlers))
	}
	handlers[0](Command{})
	if calls[0] != "second" {
		t.Fatalf("override not replaced: %v", calls)
	}
}

func TestRegistryRejectsUnknownOpcode(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterOverride(Opcode(0xC0), func(Command) (Result, error) { return Handled, nil })
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("got %v, want ErrUnknownOpcode", err)
	}
	if err := r.RegisterDefault(OpcodeStandby, nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

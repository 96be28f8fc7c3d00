// Package keyboard replays remote button presses on a virtual uinput
// keyboard, so applications on the host see ordinary key events.
package keyboard

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bendahl/uinput"

	"pitvremote/cec"
)

// DefaultPath is the uinput device node on most distributions.
const DefaultPath = "/dev/uinput"

// VirtualKeyboard is the subset of uinput.Keyboard the forwarder uses.
type VirtualKeyboard interface {
	KeyDown(key int) error
	KeyUp(key int) error
	Close() error
}

// Open creates a virtual keyboard named name through the uinput node at path.
func Open(path, name string) (VirtualKeyboard, error) {
	if path == "" {
		path = DefaultPath
	}
	kb, err := uinput.CreateKeyboard(path, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard on %s: %w", path, err)
	}
	return kb, nil
}

// Forwarder turns key events into key down and key up events.
type Forwarder struct {
	kb   VirtualKeyboard
	keys map[cec.Button]int
	log  *slog.Logger

	mu   sync.Mutex
	down map[int]bool
}

// NewForwarder uses DefaultKeyMap when keys is nil.
func NewForwarder(kb VirtualKeyboard, keys map[cec.Button]int, log *slog.Logger) *Forwarder {
	if keys == nil {
		keys = DefaultKeyMap
	}
	if log == nil {
		log = slog.Default()
	}
	return &Forwarder{kb: kb, keys: keys, log: log, down: make(map[int]bool)}
}

// OnKeyPress is a cec.KeyPressCallback.
func (f *Forwarder) OnKeyPress(ev cec.KeyPress) error {
	key, ok := f.keys[ev.Button]
	if !ok {
		f.log.Debug("no key mapped for button", "button", ev.Button.String())
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.Released {
		if !f.down[key] {
			return nil
		}
		delete(f.down, key)
		if err := f.kb.KeyUp(key); err != nil {
			return fmt.Errorf("key up %d for %s: %w", key, ev.Button, err)
		}
		return nil
	}

	// A second press without a release arrives when the remote repeats.
	if f.down[key] {
		if err := f.kb.KeyUp(key); err != nil {
			return fmt.Errorf("key up %d for %s: %w", key, ev.Button, err)
		}
	}
	if err := f.kb.KeyDown(key); err != nil {
		delete(f.down, key)
		return fmt.Errorf("key down %d for %s: %w", key, ev.Button, err)
	}
	f.down[key] = true
	return nil
}

// Close releases held keys and closes the keyboard.
func (f *Forwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.down {
		if err := f.kb.KeyUp(key); err != nil {
			f.log.Warn("releasing key failed", "key", key, "error", err)
		}
	}
	f.down = make(map[int]bool)
	return f.kb.Close()
}

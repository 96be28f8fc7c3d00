package cec

import (
	"log/slog"
	"time"
)

// keyTracker turns User Control Pressed/Released frames into KeyPress
// events. It is only touched from the run loop.
type keyTracker struct {
	log *slog.Logger
	now func() time.Time

	held  bool
	ev    KeyPress
	since time.Time
}

func newKeyTracker(log *slog.Logger) *keyTracker {
	return &keyTracker{log: log, now: time.Now}
}

func (k *keyTracker) press(cmd Command) (KeyPress, bool) {
	k.held = false
	if len(cmd.Parameters) == 0 {
		k.log.Warn("user control pressed without key code", "from", cmd.Initiator.String())
		return KeyPress{}, false
	}
	code := cmd.Parameters[0]
	button, ok := DecodeButton(code)
	if !ok {
		k.log.Debug("unhandled remote key", "code", code, "from", cmd.Initiator.String())
		return KeyPress{}, false
	}
	k.held = true
	k.ev = KeyPress{Button: button, Code: code}
	k.since = k.now()
	return k.ev, true
}

func (k *keyTracker) release() (KeyPress, bool) {
	if !k.held {
		return KeyPress{}, false
	}
	k.held = false
	ev := k.ev
	ev.Released = true
	if d := k.now().Sub(k.since); d > 0 {
		ev.Duration = d
	}
	return ev, true
}

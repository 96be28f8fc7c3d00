package httpapi

import (
	"fmt"
	"sync"
	"time"

	"pitvremote/cec"
)

const defaultMaxEvents = 100

// Event is one entry of the recent activity log.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Kind        string    `json:"kind"`
	Initiator   string    `json:"initiator,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Opcode      string    `json:"opcode,omitempty"`
	Parameters  string    `json:"parameters,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// EventLog keeps the most recent inbound events and what the TV last
// reported about itself. It implements cec.Observer.
type EventLog struct {
	cec.NopObserver

	mu          sync.RWMutex
	events      []Event
	maxEvents   int
	tvPower     cec.PowerStatus
	tvVendor    uint64
	vendorKnown bool
	now         func() time.Time
}

func NewEventLog() *EventLog {
	return &EventLog{
		events:    make([]Event, 0, defaultMaxEvents),
		maxEvents: defaultMaxEvents,
		tvPower:   cec.PowerStatusUnknown,
		now:       time.Now,
	}
}

func (l *EventLog) add(ev Event) {
	ev.Timestamp = l.now()
	l.events = append(l.events, ev)
	if len(l.events) > l.maxEvents {
		l.events = l.events[1:]
	}
}

func (l *EventLog) FrameReceived(cmd cec.Command) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cmd.Initiator == cec.LogicalAddressTV {
		switch cmd.Opcode {
		case cec.OpcodeReportPowerStatus:
			if len(cmd.Parameters) > 0 {
				l.tvPower = cec.PowerStatus(cmd.Parameters[0])
			}
		case cec.OpcodeStandby:
			l.tvPower = cec.PowerStatusStandby
		case cec.OpcodeDeviceVendorID:
			if id, ok := cec.VendorIDFromParameters(cmd.Parameters); ok {
				l.tvVendor, l.vendorKnown = id, true
			}
		}
	}

	l.add(Event{
		Kind:        "command",
		Initiator:   cmd.Initiator.String(),
		Destination: cmd.Destination.String(),
		Opcode:      cmd.Opcode.String(),
		Parameters:  fmt.Sprintf("% X", cmd.Parameters),
	})
}

func (l *EventLog) FrameDropped(cmd cec.Command, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(Event{Kind: "dropped", Opcode: cmd.Opcode.String(), Message: reason})
}

func (l *EventLog) CallbackFailed(err *cec.CallbackError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(Event{Kind: "callback_error", Opcode: err.Opcode.String(), Message: err.Error()})
}

// OnKeyPress records decoded key events. Register it with the adapter.
func (l *EventLog) OnKeyPress(ev cec.KeyPress) error {
	msg := "pressed"
	if ev.Released {
		msg = fmt.Sprintf("released after %s", ev.Duration)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(Event{Kind: "key", Message: ev.Button.String() + " " + msg})
	return nil
}

// Recent returns a copy of the logged events, oldest first.
func (l *EventLog) Recent() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// TVPower is the power status last reported by the TV.
func (l *EventLog) TVPower() cec.PowerStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tvPower
}

// TVVendor is the vendor id last reported by the TV.
func (l *EventLog) TVVendor() (uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tvVendor, l.vendorKnown
}

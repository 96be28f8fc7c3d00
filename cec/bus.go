package cec

// FrameListener is invoked by a Connection for every inbound frame. It may be
// called from a goroutine owned by the native driver.
type FrameListener func(cmd Command)

// Bus opens connections to a CEC bus. The native driver is usually a process
// wide resource; owning it through a Bus value keeps it out of package state
// and lets tests substitute a fake.
type Bus interface {
	Open(config Configuration) (Connection, error)
}

// Connection is one open link to the bus.
type Connection interface {
	// Transmit sends cmd and reports whether the bus accepted it.
	Transmit(cmd Command) error
	// SetFrameListener replaces the inbound frame listener; nil stops delivery.
	SetFrameListener(fn FrameListener)
	// LogicalAddress is the address the connection claimed on the bus.
	LogicalAddress() LogicalAddress
	Close() error
}

// Observer is notified of adapter traffic. Implementations must be safe for
// concurrent use.
type Observer interface {
	FrameReceived(cmd Command)
	FrameSent(cmd Command, err error)
	FrameDropped(cmd Command, reason string)
	CallbackFailed(err *CallbackError)
}

// NopObserver provides no-op implementations of Observer for embedding.
type NopObserver struct{}

func (NopObserver) FrameReceived(cmd Command)               {}
func (NopObserver) FrameSent(cmd Command, err error)        {}
func (NopObserver) FrameDropped(cmd Command, reason string) {}
func (NopObserver) CallbackFailed(err *CallbackError)       {}

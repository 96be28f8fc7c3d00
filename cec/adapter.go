package cec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the adapter lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateShutDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateShutDown:
		return "shut down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const defaultQueueSize = 64

// Adapter owns a single connection to the CEC bus. It sends commands on
// behalf of the caller and dispatches inbound frames to registered callbacks
// while Run is active.
type Adapter struct {
	bus        Bus
	config     Configuration
	registry   *Registry
	dispatcher *Dispatcher
	keys       *keyTracker
	log        *slog.Logger
	observers  []Observer
	onError    ErrorHandler
	queueSize  int
	replies    bool

	// sendMu serialises transmissions and is taken before mu.
	sendMu sync.Mutex

	mu     sync.Mutex
	state  State
	conn   Connection
	frames chan Command
	stop   chan struct{}
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithObserver adds an observer of adapter traffic. It may be given more
// than once.
func WithObserver(o Observer) Option {
	return func(a *Adapter) { a.observers = append(a.observers, o) }
}

// WithQueueSize bounds the number of inbound frames buffered while the run
// loop is busy.
func WithQueueSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.queueSize = n
		}
	}
}

// WithErrorHandler receives callback failures in addition to the log.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(a *Adapter) { a.onError = fn }
}

// WithDefaultReplies controls whether the built-in handlers answer protocol
// queries (power status, OSD name, physical address, CEC version). Disable it
// when the native library already answers them.
func WithDefaultReplies(enabled bool) Option {
	return func(a *Adapter) { a.replies = enabled }
}

// NewAdapter validates config and returns an uninitialised adapter.
func NewAdapter(bus Bus, config Configuration, opts ...Option) (*Adapter, error) {
	if bus == nil {
		return nil, errors.New("cec: nil bus")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("cec: invalid configuration: %w", err)
	}

	a := &Adapter{
		bus:       bus,
		config:    config,
		registry:  NewRegistry(),
		log:       slog.Default(),
		queueSize: defaultQueueSize,
		replies:   true,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.dispatcher = NewDispatcher(a.registry, WithDispatchLogger(a.log), WithDispatchErrorHandler(a.callbackFailed))
	a.keys = newKeyTracker(a.log)
	if a.replies {
		a.registerDefaults()
	}
	return a, nil
}

// Config returns the configuration the adapter was built with.
func (a *Adapter) Config() Configuration {
	return a.config
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Init opens the bus connection. It is a no-op when the adapter is already
// initialised or running. A failed open leaves the adapter uninitialised and
// wraps ErrConnection.
func (a *Adapter) Init() error {
	a.mu.Lock()
	switch a.state {
	case StateInitialized, StateRunning:
		a.mu.Unlock()
		return nil
	case StateShutDown:
		a.mu.Unlock()
		return &StateError{Op: "init", State: StateShutDown}
	}

	conn, err := a.bus.Open(a.config)
	if err != nil {
		a.mu.Unlock()
		a.log.Error("cec bus open failed", "error", err)
		if errors.Is(err, ErrConnection) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	frames := make(chan Command, a.queueSize)
	conn.SetFrameListener(a.enqueuer(frames))
	a.conn = conn
	a.frames = frames
	a.stop = make(chan struct{})
	a.state = StateInitialized
	a.mu.Unlock()

	a.log.Info("cec adapter initialized",
		"name", a.config.DeviceName,
		"type", a.config.DeviceType.String(),
		"address", conn.LogicalAddress().String(),
		"physical_address", PhysicalAddressToString(a.config.PhysicalAddress))

	if a.config.AutoPowerOn {
		if err := a.PowerOnTV(); err != nil {
			a.log.Warn("auto power on failed", "error", err)
		}
	}
	return nil
}

// enqueuer returns the listener handed to the connection. It never blocks the
// driver: frames that do not fit the queue are dropped.
func (a *Adapter) enqueuer(frames chan<- Command) FrameListener {
	return func(cmd Command) {
		cmd.Parameters = append([]uint8(nil), cmd.Parameters...)
		select {
		case frames <- cmd:
		default:
			a.log.Warn("inbound queue full, dropping frame", "command", cmd.String())
			for _, o := range a.observers {
				o.FrameDropped(cmd, "queue full")
			}
		}
	}
}

// Run dispatches inbound frames until duration elapses (when positive), ctx
// is cancelled or Shutdown is called. It returns nil when stopped by the
// duration or by Shutdown and ctx.Err() on cancellation. After a duration or
// cancellation the adapter is back in StateInitialized and may run again.
func (a *Adapter) Run(ctx context.Context, duration time.Duration) error {
	a.mu.Lock()
	if a.state != StateInitialized {
		st := a.state
		a.mu.Unlock()
		return &StateError{Op: "run", State: st}
	}
	a.state = StateRunning
	frames, stop := a.frames, a.stop
	a.mu.Unlock()

	a.log.Info("cec event loop started", "duration", duration)

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-stop:
			a.log.Info("cec event loop stopped by shutdown")
			return nil
		case <-ctx.Done():
			a.leaveRunning()
			a.log.Info("cec event loop cancelled")
			return ctx.Err()
		case <-timeout:
			a.leaveRunning()
			a.log.Info("cec event loop reached maximum duration", "duration", duration)
			return nil
		case cmd := <-frames:
			select {
			case <-stop:
				return nil
			default:
			}
			a.handleFrame(cmd)
		}
	}
}

func (a *Adapter) leaveRunning() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateRunning {
		a.state = StateInitialized
	}
}

// Shutdown releases the bus connection and stops Run. It may be called from
// any goroutine and in any state; repeated calls return nil. Registered
// callbacks are discarded.
func (a *Adapter) Shutdown() error {
	a.sendMu.Lock()
	defer a.sendMu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateShutDown {
		return nil
	}
	prev := a.state
	a.state = StateShutDown

	if a.stop != nil {
		close(a.stop)
	}

	var err error
	if a.conn != nil {
		a.conn.SetFrameListener(nil)
		if cerr := a.conn.Close(); cerr != nil {
			err = fmt.Errorf("cec: closing bus connection: %w", cerr)
		}
		a.conn = nil
	}
	a.dispatcher.Reset()

	a.log.Info("cec adapter shut down", "previous_state", prev.String())
	return err
}

// OnKeyPress registers a callback for every decoded remote key event. The
// returned func removes it.
func (a *Adapter) OnKeyPress(fn KeyPressCallback) Unregister {
	return a.dispatcher.OnKeyPress(fn)
}

// OnButton registers a callback for key events of a single button.
func (a *Adapter) OnButton(b Button, fn KeyPressCallback) Unregister {
	return a.dispatcher.OnKeyPress(func(ev KeyPress) error {
		if ev.Button != b {
			return nil
		}
		return fn(ev)
	})
}

// OnCommand registers a callback for inbound commands with opcode op.
func (a *Adapter) OnCommand(op Opcode, fn CommandCallback) Unregister {
	return a.dispatcher.OnCommand(op, fn)
}

// OverrideCommand installs h ahead of the built-in handler for op. Returning
// Handled from h suppresses the built-in response.
func (a *Adapter) OverrideCommand(op Opcode, h CommandHandler) error {
	return a.registry.RegisterOverride(op, h)
}

func (a *Adapter) handleFrame(cmd Command) {
	for _, o := range a.observers {
		o.FrameReceived(cmd)
	}
	a.log.Debug("cec command received", "from", cmd.Initiator.String(), "to", cmd.Destination.String(), "opcode", cmd.Opcode.String(), "params", fmt.Sprintf("% X", cmd.Parameters))

	switch cmd.Opcode {
	case OpcodeUserControlPressed:
		if ev, ok := a.keys.press(cmd); ok {
			a.log.Debug("remote button pressed", "button", ev.Button.String(), "code", fmt.Sprintf("0x%02X", ev.Code))
			_ = a.dispatcher.DispatchKeyPress(ev)
		}
	case OpcodeUserControlReleased:
		if ev, ok := a.keys.release(); ok {
			a.log.Debug("remote button released", "button", ev.Button.String(), "held", ev.Duration)
			_ = a.dispatcher.DispatchKeyPress(ev)
		}
	}
	_ = a.dispatcher.DispatchCommand(cmd)
}

func (a *Adapter) callbackFailed(err *CallbackError) {
	a.log.Error("cec callback failed", "category", err.Category, "opcode", err.Opcode.String(), "index", err.Index, "error", err.Err)
	if a.onError != nil {
		a.onError(err)
	}
	for _, o := range a.observers {
		o.CallbackFailed(err)
	}
}

// PowerOnTV wakes the TV with Image View On.
func (a *Adapter) PowerOnTV() error {
	a.log.Info("sending power on to TV")
	return a.transmit("power on", Command{Destination: LogicalAddressTV, Opcode: OpcodeImageViewOn})
}

// StandbyTV puts the TV into standby.
func (a *Adapter) StandbyTV() error {
	a.log.Info("sending standby to TV")
	return a.transmit("standby", Command{Destination: LogicalAddressTV, Opcode: OpcodeStandby})
}

// SetActiveSource broadcasts Active Source with the configured physical
// address so the TV switches to this input.
func (a *Adapter) SetActiveSource() error {
	a.log.Info("setting device as active source", "physical_address", PhysicalAddressToString(a.config.PhysicalAddress))
	return a.transmit("set active source", Command{
		Destination: LogicalAddressBroadcast,
		Opcode:      OpcodeActiveSource,
		Parameters:  physicalAddressBytes(a.config.PhysicalAddress),
	})
}

// SendRemoteButton sends User Control Pressed for b to the TV and, when the
// configured hold time is positive, the matching release after it. The pair
// is sent under the send lock, so Shutdown and other transmissions wait for
// the release instead of leaving the key held on the TV.
func (a *Adapter) SendRemoteButton(b Button) error {
	code, err := EncodeButton(b)
	if err != nil {
		return err
	}
	a.log.Info("sending remote button", "button", b.String(), "code", fmt.Sprintf("0x%02X", code))

	a.sendMu.Lock()
	defer a.sendMu.Unlock()

	err = a.transmitLocked("send remote button", Command{
		Destination: LogicalAddressTV,
		Opcode:      OpcodeUserControlPressed,
		Parameters:  []uint8{code},
	})
	if err != nil || a.config.ButtonHold <= 0 {
		return err
	}

	time.Sleep(a.config.ButtonHold)
	return a.transmitLocked("send remote button", Command{Destination: LogicalAddressTV, Opcode: OpcodeUserControlReleased})
}

// RequestPowerStatus asks the TV for its power status. The answer arrives
// as a Report Power Status command.
func (a *Adapter) RequestPowerStatus() error {
	a.log.Info("requesting power status from TV")
	return a.transmit("request power status", Command{Destination: LogicalAddressTV, Opcode: OpcodeGiveDevicePowerStatus})
}

// RequestVendorID asks the TV for its vendor id. The answer arrives as a
// Device Vendor ID command.
func (a *Adapter) RequestVendorID() error {
	a.log.Info("requesting vendor ID from TV")
	return a.transmit("request vendor id", Command{Destination: LogicalAddressTV, Opcode: OpcodeGiveDeviceVendorID})
}

// SendCommand transmits a raw command. Opcodes outside the recognised set are
// allowed here.
func (a *Adapter) SendCommand(op Opcode, destination LogicalAddress, parameters []uint8) error {
	if destination > LogicalAddressBroadcast {
		return fmt.Errorf("%w: destination %d out of range 0-15", ErrInvalidCommand, destination)
	}
	if len(parameters) > MaxParameters {
		return fmt.Errorf("%w: %d parameter bytes (max %d)", ErrInvalidCommand, len(parameters), MaxParameters)
	}
	if !op.Known() {
		a.log.Debug("sending raw command with unrecognized opcode", "opcode", fmt.Sprintf("0x%02X", uint8(op)))
	}
	return a.transmit("send command", Command{
		Destination: destination,
		Opcode:      op,
		Parameters:  append([]uint8(nil), parameters...),
	})
}

func (a *Adapter) transmit(op string, cmd Command) error {
	a.sendMu.Lock()
	defer a.sendMu.Unlock()
	return a.transmitLocked(op, cmd)
}

// transmitLocked requires sendMu.
func (a *Adapter) transmitLocked(op string, cmd Command) error {
	a.mu.Lock()
	state, conn := a.state, a.conn
	a.mu.Unlock()

	if state != StateInitialized && state != StateRunning {
		a.log.Error("cec not initialized, cannot send command", "op", op, "state", state.String())
		return &StateError{Op: op, State: state}
	}

	cmd.Initiator = conn.LogicalAddress()
	if cmd.Initiator == LogicalAddressUnregistered {
		cmd.Initiator = a.config.DeviceType.PrimaryAddress()
	}

	err := conn.Transmit(cmd)
	for _, o := range a.observers {
		o.FrameSent(cmd, err)
	}
	if err != nil {
		a.log.Error("cec transmit failed", "opcode", cmd.Opcode.String(), "to", cmd.Destination.String(), "error", err)
		return fmt.Errorf("%w: %s to %s: %w", ErrTransmission, cmd.Opcode, cmd.Destination, err)
	}
	a.log.Debug("cec command sent", "opcode", cmd.Opcode.String(), "to", cmd.Destination.String(), "params", fmt.Sprintf("% X", cmd.Parameters))
	return nil
}

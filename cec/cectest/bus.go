// Package cectest provides an in-memory CEC bus for tests.
package cectest

import (
	"errors"
	"sync"

	"pitvremote/cec"
)

// ErrClosed is returned by Transmit after Close.
var ErrClosed = errors.New("cectest: connection closed")

// Bus is a fake cec.Bus. The zero value is not usable; call NewBus.
type Bus struct {
	mu      sync.Mutex
	address cec.LogicalAddress
	openErr error
	opens   int
	conns   []*Conn
}

func NewBus(address cec.LogicalAddress) *Bus {
	return &Bus{address: address}
}

// FailOpen makes the next Open calls fail with err. A nil err clears it.
func (b *Bus) FailOpen(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openErr = err
}

func (b *Bus) Open(config cec.Configuration) (cec.Connection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opens++
	if b.openErr != nil {
		return nil, b.openErr
	}
	c := &Conn{address: b.address, config: config}
	b.conns = append(b.conns, c)
	return c, nil
}

// Opens counts Open calls, failed ones included.
func (b *Bus) Opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

// Conn returns the most recently opened connection, or nil.
func (b *Bus) Conn() *Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.conns) == 0 {
		return nil
	}
	return b.conns[len(b.conns)-1]
}

// Conn is a fake cec.Connection that records transmitted commands.
type Conn struct {
	mu          sync.Mutex
	address     cec.LogicalAddress
	config      cec.Configuration
	listener    cec.FrameListener
	sent        []cec.Command
	transmitErr error
	closed      bool
	sentCh      chan cec.Command
}

func (c *Conn) Transmit(cmd cec.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.transmitErr != nil {
		return c.transmitErr
	}
	cmd.Parameters = append([]uint8(nil), cmd.Parameters...)
	c.sent = append(c.sent, cmd)
	if c.sentCh != nil {
		select {
		case c.sentCh <- cmd:
		default:
		}
	}
	return nil
}

func (c *Conn) SetFrameListener(fn cec.FrameListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = fn
}

func (c *Conn) LogicalAddress() cec.LogicalAddress {
	return c.address
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Config returns the configuration the connection was opened with.
func (c *Conn) Config() cec.Configuration {
	return c.config
}

// FailTransmit makes Transmit fail with err until cleared with nil.
func (c *Conn) FailTransmit(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transmitErr = err
}

// Deliver hands cmd to the frame listener the way a driver would. It reports
// false when no listener is set.
func (c *Conn) Deliver(cmd cec.Command) bool {
	c.mu.Lock()
	fn := c.listener
	c.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(cmd)
	return true
}

// Sent returns a copy of every command transmitted so far.
func (c *Conn) Sent() []cec.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]cec.Command, len(c.sent))
	copy(out, c.sent)
	return out
}

// SentWith returns the transmitted commands with opcode op.
func (c *Conn) SentWith(op cec.Opcode) []cec.Command {
	var out []cec.Command
	for _, cmd := range c.Sent() {
		if cmd.Opcode == op {
			out = append(out, cmd)
		}
	}
	return out
}

// Notify returns a channel that receives each command transmitted after the
// call. Commands are dropped when the channel buffer is full.
func (c *Conn) Notify(buffer int) <-chan cec.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sentCh = make(chan cec.Command, buffer)
	return c.sentCh
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Package libcec connects the cec adapter to a physical bus through the
// native libcec library.
package libcec

/*
#cgo pkg-config: libcec
#include <libcec/cecc.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

extern void goLogMessage(uintptr_t, int, char*);
extern void goCommandReceived(uintptr_t, cec_command*);
extern void goAlert(uintptr_t, int);
extern void goSourceActivated(uintptr_t, int, int);

static void logMessageTrampoline(void* param, const cec_log_message* msg) {
	goLogMessage((uintptr_t)param, (int)msg->level, (char*)msg->message);
}

static void commandReceivedTrampoline(void* param, const cec_command* cmd) {
	goCommandReceived((uintptr_t)param, (cec_command*)cmd);
}

static void alertTrampoline(void* param, const libcec_alert alert, const libcec_parameter p) {
	goAlert((uintptr_t)param, (int)alert);
}

static void sourceActivatedTrampoline(void* param, const cec_logical_address addr, const uint8_t activated) {
	goSourceActivated((uintptr_t)param, (int)addr, (int)activated);
}

static ICECCallbacks* newCallbacks(void) {
	ICECCallbacks* cb = (ICECCallbacks*)calloc(1, sizeof(ICECCallbacks));
	if (cb == NULL) {
		return NULL;
	}
	cb->logMessage = logMessageTrampoline;
	cb->commandReceived = commandReceivedTrampoline;
	cb->alert = alertTrampoline;
	cb->sourceActivated = sourceActivatedTrampoline;
	return cb;
}

static void setCallbackParam(libcec_configuration* c, uintptr_t id) {
	c->callbackParam = (void*)id;
}

static void setDeviceName(libcec_configuration* c, const char* name) {
	strncpy(c->strDeviceName, name, sizeof(c->strDeviceName) - 1);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"pitvremote/cec"
)

const (
	openTimeoutMs = 5000
	maxAdapters   = 10
)

// Bus opens connections through libcec. AdapterPath selects a port; when it
// is empty the first detected adapter is used.
type Bus struct {
	AdapterPath string
	Log         *slog.Logger
}

var (
	_ cec.Bus        = (*Bus)(nil)
	_ cec.Connection = (*Connection)(nil)
)

// connections maps the id handed to libcec as callback parameter to the Go
// side of the connection.
var (
	connections   = make(map[uintptr]*Connection)
	connectionsMu sync.RWMutex
	nextID        uintptr
)

// Connection is an open libcec handle.
type Connection struct {
	id        uintptr
	handle    C.libcec_connection_t
	callbacks *C.ICECCallbacks
	log       *slog.Logger

	mu       sync.Mutex
	listener cec.FrameListener
	closed   bool
}

// Open initialises libcec with config and opens the adapter. Failures wrap
// cec.ErrConnection.
func (b *Bus) Open(config cec.Configuration) (cec.Connection, error) {
	log := b.Log
	if log == nil {
		log = slog.Default()
	}

	connectionsMu.Lock()
	nextID++
	c := &Connection{id: nextID, log: log}
	connections[c.id] = c
	connectionsMu.Unlock()

	var cConfig C.libcec_configuration
	C.libcec_clear_configuration(&cConfig)

	cName := C.CString(config.DeviceName)
	defer C.free(unsafe.Pointer(cName))
	C.setDeviceName(&cConfig, cName)

	cConfig.deviceTypes.types[0] = C.cec_device_type(config.DeviceType)
	cConfig.iPhysicalAddress = C.uint16_t(config.PhysicalAddress)
	cConfig.baseDevice = C.cec_logical_address(cec.LogicalAddressTV)
	cConfig.iHDMIPort = C.uint8_t(config.HDMIPort)
	cConfig.clientVersion = C.uint32_t(C.LIBCEC_VERSION_CURRENT)
	cConfig.bActivateSource = 0

	c.callbacks = C.newCallbacks()
	if c.callbacks == nil {
		c.release()
		return nil, fmt.Errorf("%w: allocating libcec callbacks", cec.ErrConnection)
	}
	cConfig.callbacks = c.callbacks
	C.setCallbackParam(&cConfig, C.uintptr_t(c.id))

	c.handle = C.libcec_initialise(&cConfig)
	if c.handle == nil {
		c.release()
		return nil, fmt.Errorf("%w: libcec initialisation failed", cec.ErrConnection)
	}
	C.libcec_init_video_standalone(c.handle)

	path := b.AdapterPath
	if path == "" {
		adapters, err := c.findAdapters()
		if err != nil || len(adapters) == 0 {
			c.destroy()
			if err == nil {
				err = errors.New("no CEC adapters found")
			}
			return nil, fmt.Errorf("%w: %w", cec.ErrConnection, err)
		}
		for i, a := range adapters {
			log.Debug("found cec adapter", "index", i, "path", a.Path, "comm", a.Comm)
		}
		path = adapters[0].Comm
	}

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	if C.libcec_open(c.handle, cPath, openTimeoutMs) == 0 {
		c.destroy()
		return nil, fmt.Errorf("%w: cannot open adapter %s", cec.ErrConnection, path)
	}

	log.Info("libcec adapter opened", "port", path, "lib_info", C.GoString(C.libcec_get_lib_info(c.handle)))
	return c, nil
}

// FindAdapters lists the CEC adapters libcec can see.
func (b *Bus) FindAdapters() ([]AdapterInfo, error) {
	var cConfig C.libcec_configuration
	C.libcec_clear_configuration(&cConfig)
	cConfig.clientVersion = C.uint32_t(C.LIBCEC_VERSION_CURRENT)

	handle := C.libcec_initialise(&cConfig)
	if handle == nil {
		return nil, errors.New("libcec initialisation failed")
	}
	defer C.libcec_destroy(handle)

	c := &Connection{handle: handle}
	return c.findAdapters()
}

func (c *Connection) findAdapters() ([]AdapterInfo, error) {
	var adapters [maxAdapters]C.cec_adapter
	count := C.libcec_find_adapters(c.handle, &adapters[0], maxAdapters, nil)
	if count < 0 {
		return nil, errors.New("failed to find adapters")
	}

	result := make([]AdapterInfo, count)
	for i := 0; i < int(count); i++ {
		result[i] = AdapterInfo{
			Path: C.GoString(&adapters[i].path[0]),
			Comm: C.GoString(&adapters[i].comm[0]),
		}
	}
	return result, nil
}

// Transmit sends cmd and waits for libcec to report the acknowledgement.
func (c *Connection) Transmit(cmd cec.Command) error {
	if len(cmd.Parameters) > cec.MaxParameters {
		return fmt.Errorf("%d parameter bytes exceeds frame size", len(cmd.Parameters))
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errors.New("libcec connection closed")
	}

	var cCmd C.cec_command
	cCmd.initiator = C.cec_logical_address(cmd.Initiator)
	cCmd.destination = C.cec_logical_address(cmd.Destination)
	cCmd.opcode = C.cec_opcode(cmd.Opcode)
	cCmd.opcode_set = 1
	cCmd.parameters.size = C.uint8_t(len(cmd.Parameters))
	for i, p := range cmd.Parameters {
		cCmd.parameters.data[i] = C.uint8_t(p)
	}

	if C.libcec_transmit(c.handle, &cCmd) == 0 {
		return errors.New("libcec transmit not acknowledged")
	}
	return nil
}

func (c *Connection) SetFrameListener(fn cec.FrameListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = fn
}

// LogicalAddress returns the primary address libcec claimed, or
// cec.LogicalAddressUnregistered before allocation finished.
func (c *Connection) LogicalAddress() cec.LogicalAddress {
	addresses := C.libcec_get_logical_addresses(c.handle)
	if addresses.primary == C.CECDEVICE_UNKNOWN {
		return cec.LogicalAddressUnregistered
	}
	return cec.LogicalAddress(addresses.primary)
}

// Close releases the adapter. Calling it twice is harmless.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.listener = nil
	c.mu.Unlock()

	C.libcec_close(c.handle)
	c.destroy()
	return nil
}

func (c *Connection) destroy() {
	C.libcec_destroy(c.handle)
	c.handle = nil
	c.release()
}

// release drops the registry entry and frees the callback table. libcec must
// no longer reference either.
func (c *Connection) release() {
	connectionsMu.Lock()
	delete(connections, c.id)
	connectionsMu.Unlock()

	if c.callbacks != nil {
		C.free(unsafe.Pointer(c.callbacks))
		c.callbacks = nil
	}
}

func lookup(id uintptr) *Connection {
	connectionsMu.RLock()
	defer connectionsMu.RUnlock()
	return connections[id]
}

func (c *Connection) deliver(cmd cec.Command) {
	c.mu.Lock()
	fn := c.listener
	c.mu.Unlock()
	if fn != nil {
		fn(cmd)
	}
}

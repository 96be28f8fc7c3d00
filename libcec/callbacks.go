package libcec

/*
#include <libcec/cecc.h>
#include <stdint.h>
*/
import "C"

import (
	"context"

	"pitvremote/cec"
)

//export goLogMessage
func goLogMessage(id C.uintptr_t, level C.int, message *C.char) {
	c := lookup(uintptr(id))
	if c == nil {
		return
	}
	lvl := LogLevel(level)
	c.log.Log(context.Background(), lvl.SlogLevel(), C.GoString(message), "source", "libcec", "level", lvl.String())
}

//export goCommandReceived
func goCommandReceived(id C.uintptr_t, command *C.cec_command) {
	c := lookup(uintptr(id))
	if c == nil || command == nil {
		return
	}

	n := int(command.parameters.size)
	if n > cec.MaxParameters {
		n = cec.MaxParameters
	}
	params := make([]uint8, n)
	for i := 0; i < n; i++ {
		params[i] = uint8(command.parameters.data[i])
	}

	c.deliver(cec.Command{
		Initiator:   cec.LogicalAddress(command.initiator),
		Destination: cec.LogicalAddress(command.destination),
		Opcode:      cec.Opcode(command.opcode),
		Parameters:  params,
	})
}

//export goAlert
func goAlert(id C.uintptr_t, alert C.int) {
	c := lookup(uintptr(id))
	if c == nil {
		return
	}
	a := Alert(alert)
	switch a {
	case AlertConnectionLost, AlertPermissionError, AlertPortBusy:
		c.log.Error("libcec alert", "alert", a.String())
	default:
		c.log.Warn("libcec alert", "alert", a.String())
	}
}

//export goSourceActivated
func goSourceActivated(id C.uintptr_t, address C.int, activated C.int) {
	c := lookup(uintptr(id))
	if c == nil {
		return
	}
	c.log.Info("source activation changed", "address", cec.LogicalAddress(address).String(), "activated", activated != 0)
}

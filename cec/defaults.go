package cec

// registerDefaults seeds the registry with the replies a CEC device is
// expected to give. Only directed queries are answered.
func (a *Adapter) registerDefaults() {
	defaults := []struct {
		op Opcode
		h  CommandHandler
	}{
		{OpcodeGiveDevicePowerStatus, a.replyPowerStatus},
		{OpcodeGiveOSDName, a.replyOSDName},
		{OpcodeGivePhysicalAddress, a.replyPhysicalAddress},
		{OpcodeGetCECVersion, a.replyCECVersion},
		{OpcodeGiveDeviceVendorID, a.replyFeatureAbort},
	}
	for _, d := range defaults {
		// All opcodes above are in the known set.
		_ = a.registry.RegisterDefault(d.op, d.h)
	}
}

func (a *Adapter) reply(cmd Command, op Opcode, params ...uint8) (Result, error) {
	if cmd.IsBroadcast() {
		return Continue, nil
	}
	return Handled, a.transmit("reply "+op.String(), Command{
		Destination: cmd.Initiator,
		Opcode:      op,
		Parameters:  params,
	})
}

func (a *Adapter) replyPowerStatus(cmd Command) (Result, error) {
	return a.reply(cmd, OpcodeReportPowerStatus, uint8(PowerStatusOn))
}

func (a *Adapter) replyOSDName(cmd Command) (Result, error) {
	return a.reply(cmd, OpcodeSetOSDName, []uint8(a.config.DeviceName)...)
}

func (a *Adapter) replyCECVersion(cmd Command) (Result, error) {
	return a.reply(cmd, OpcodeCECVersion, uint8(CECVersion1_4))
}

func (a *Adapter) replyFeatureAbort(cmd Command) (Result, error) {
	return a.reply(cmd, OpcodeFeatureAbort, uint8(cmd.Opcode), uint8(AbortReasonRefused))
}

// replyPhysicalAddress answers with a broadcast, as the protocol requires.
func (a *Adapter) replyPhysicalAddress(cmd Command) (Result, error) {
	if cmd.IsBroadcast() {
		return Continue, nil
	}
	params := append(physicalAddressBytes(a.config.PhysicalAddress), uint8(a.config.DeviceType))
	return Handled, a.transmit("reply "+OpcodeReportPhysicalAddress.String(), Command{
		Destination: LogicalAddressBroadcast,
		Opcode:      OpcodeReportPhysicalAddress,
		Parameters:  params,
	})
}

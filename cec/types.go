package cec

import (
	"fmt"
	"strings"
)

// LogicalAddress represents a CEC logical address (0-15)
type LogicalAddress uint8

const (
	LogicalAddressTV               LogicalAddress = 0x0
	LogicalAddressRecordingDevice1 LogicalAddress = 0x1
	LogicalAddressRecordingDevice2 LogicalAddress = 0x2
	LogicalAddressTuner1           LogicalAddress = 0x3
	LogicalAddressPlaybackDevice1  LogicalAddress = 0x4
	LogicalAddressAudioSystem      LogicalAddress = 0x5
	LogicalAddressTuner2           LogicalAddress = 0x6
	LogicalAddressTuner3           LogicalAddress = 0x7
	LogicalAddressPlaybackDevice2  LogicalAddress = 0x8
	LogicalAddressRecordingDevice3 LogicalAddress = 0x9
	LogicalAddressTuner4           LogicalAddress = 0xA
	LogicalAddressPlaybackDevice3  LogicalAddress = 0xB
	LogicalAddressReserved1        LogicalAddress = 0xC
	LogicalAddressReserved2        LogicalAddress = 0xD
	LogicalAddressFreeUse          LogicalAddress = 0xE
	LogicalAddressBroadcast        LogicalAddress = 0xF

	// LogicalAddressUnregistered shares 0xF with broadcast; as an initiator
	// it means the device has not claimed an address.
	LogicalAddressUnregistered LogicalAddress = 0xF
)

func (l LogicalAddress) String() string {
	switch l {
	case LogicalAddressTV:
		return "TV"
	case LogicalAddressRecordingDevice1:
		return "Recording Device 1"
	case LogicalAddressRecordingDevice2:
		return "Recording Device 2"
	case LogicalAddressTuner1:
		return "Tuner 1"
	case LogicalAddressPlaybackDevice1:
		return "Playback Device 1"
	case LogicalAddressAudioSystem:
		return "Audio System"
	case LogicalAddressTuner2:
		return "Tuner 2"
	case LogicalAddressTuner3:
		return "Tuner 3"
	case LogicalAddressPlaybackDevice2:
		return "Playback Device 2"
	case LogicalAddressRecordingDevice3:
		return "Recording Device 3"
	case LogicalAddressTuner4:
		return "Tuner 4"
	case LogicalAddressPlaybackDevice3:
		return "Playback Device 3"
	case LogicalAddressFreeUse:
		return "Free Use"
	case LogicalAddressBroadcast:
		return "Broadcast"
	default:
		return "Reserved"
	}
}

// DeviceType represents a CEC device type
type DeviceType uint8

const (
	DeviceTypeTV              DeviceType = 0
	DeviceTypeRecordingDevice DeviceType = 1
	DeviceTypeReserved        DeviceType = 2
	DeviceTypeTuner           DeviceType = 3
	DeviceTypePlaybackDevice  DeviceType = 4
	DeviceTypeAudioSystem     DeviceType = 5
)

func (d DeviceType) String() string {
	switch d {
	case DeviceTypeTV:
		return "TV"
	case DeviceTypeRecordingDevice:
		return "Recording Device"
	case DeviceTypeTuner:
		return "Tuner"
	case DeviceTypePlaybackDevice:
		return "Playback Device"
	case DeviceTypeAudioSystem:
		return "Audio System"
	default:
		return "Reserved"
	}
}

// ParseDeviceType accepts the short names used on the command line.
func ParseDeviceType(s string) (DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "recording", "recorder", "record":
		return DeviceTypeRecordingDevice, nil
	case "playback", "player":
		return DeviceTypePlaybackDevice, nil
	case "tuner":
		return DeviceTypeTuner, nil
	}
	return DeviceTypeReserved, fmt.Errorf("unsupported device type %q (want recording, playback or tuner)", s)
}

// PrimaryAddress returns the first logical address a device of this type
// claims on the bus.
func (d DeviceType) PrimaryAddress() LogicalAddress {
	switch d {
	case DeviceTypeTV:
		return LogicalAddressTV
	case DeviceTypeRecordingDevice:
		return LogicalAddressRecordingDevice1
	case DeviceTypeTuner:
		return LogicalAddressTuner1
	case DeviceTypePlaybackDevice:
		return LogicalAddressPlaybackDevice1
	case DeviceTypeAudioSystem:
		return LogicalAddressAudioSystem
	default:
		return LogicalAddressFreeUse
	}
}

// PowerStatus represents device power status
type PowerStatus uint8

const (
	PowerStatusOn                      PowerStatus = 0x00
	PowerStatusStandby                 PowerStatus = 0x01
	PowerStatusInTransitionStandbyToOn PowerStatus = 0x02
	PowerStatusInTransitionOnToStandby PowerStatus = 0x03
	PowerStatusUnknown                 PowerStatus = 0xFF
)

func (p PowerStatus) String() string {
	switch p {
	case PowerStatusOn:
		return "On"
	case PowerStatusStandby:
		return "Standby"
	case PowerStatusInTransitionStandbyToOn:
		return "Transitioning to On"
	case PowerStatusInTransitionOnToStandby:
		return "Transitioning to Standby"
	default:
		return "Unknown"
	}
}

// CECVersion represents CEC version
type CECVersion uint8

const (
	CECVersionUnknown CECVersion = 0x00
	CECVersion1_2     CECVersion = 0x01
	CECVersion1_2A    CECVersion = 0x02
	CECVersion1_3     CECVersion = 0x03
	CECVersion1_3A    CECVersion = 0x04
	CECVersion1_4     CECVersion = 0x05
)

// AbortReason is the operand of a Feature Abort reply.
type AbortReason uint8

const (
	AbortReasonUnrecognizedOpcode  AbortReason = 0x00
	AbortReasonNotInCorrectMode    AbortReason = 0x01
	AbortReasonCannotProvideSource AbortReason = 0x02
	AbortReasonInvalidOperand      AbortReason = 0x03
	AbortReasonRefused             AbortReason = 0x04
)

// Opcode represents a CEC opcode
type Opcode uint8

const (
	OpcodeActiveSource              Opcode = 0x82
	OpcodeImageViewOn               Opcode = 0x04
	OpcodeTextViewOn                Opcode = 0x0D
	OpcodeInactiveSource            Opcode = 0x9D
	OpcodeRequestActiveSource       Opcode = 0x85
	OpcodeRoutingChange             Opcode = 0x80
	OpcodeRoutingInformation        Opcode = 0x81
	OpcodeSetStreamPath             Opcode = 0x86
	OpcodeStandby                   Opcode = 0x36
	OpcodeRecordOff                 Opcode = 0x0B
	OpcodeRecordOn                  Opcode = 0x09
	OpcodeRecordStatus              Opcode = 0x0A
	OpcodeRecordTVScreen            Opcode = 0x0F
	OpcodeClearAnalogueTimer        Opcode = 0x33
	OpcodeClearDigitalTimer         Opcode = 0x99
	OpcodeClearExternalTimer        Opcode = 0xA1
	OpcodeSetAnalogueTimer          Opcode = 0x34
	OpcodeSetDigitalTimer           Opcode = 0x97
	OpcodeSetExternalTimer          Opcode = 0xA2
	OpcodeSetTimerProgramTitle      Opcode = 0x67
	OpcodeTimerClearedStatus        Opcode = 0x43
	OpcodeTimerStatus               Opcode = 0x35
	OpcodeCECVersion                Opcode = 0x9E
	OpcodeGetCECVersion             Opcode = 0x9F
	OpcodeGivePhysicalAddress       Opcode = 0x83
	OpcodeGetMenuLanguage           Opcode = 0x91
	OpcodeReportPhysicalAddress     Opcode = 0x84
	OpcodeSetMenuLanguage           Opcode = 0x32
	OpcodeDeckControl               Opcode = 0x42
	OpcodeDeckStatus                Opcode = 0x1B
	OpcodeGiveDeckStatus            Opcode = 0x1A
	OpcodePlay                      Opcode = 0x41
	OpcodeGiveTunerDeviceStatus     Opcode = 0x08
	OpcodeSelectAnalogueService     Opcode = 0x92
	OpcodeSelectDigitalService      Opcode = 0x93
	OpcodeTunerDeviceStatus         Opcode = 0x07
	OpcodeTunerStepDecrement        Opcode = 0x06
	OpcodeTunerStepIncrement        Opcode = 0x05
	OpcodeDeviceVendorID            Opcode = 0x87
	OpcodeGiveDeviceVendorID        Opcode = 0x8C
	OpcodeVendorCommand             Opcode = 0x89
	OpcodeVendorCommandWithID       Opcode = 0xA0
	OpcodeVendorRemoteButtonDown    Opcode = 0x8A
	OpcodeVendorRemoteButtonUp      Opcode = 0x8B
	OpcodeSetOSDString              Opcode = 0x64
	OpcodeGiveOSDName               Opcode = 0x46
	OpcodeSetOSDName                Opcode = 0x47
	OpcodeMenuRequest               Opcode = 0x8D
	OpcodeMenuStatus                Opcode = 0x8E
	OpcodeUserControlPressed        Opcode = 0x44
	OpcodeUserControlReleased       Opcode = 0x45
	OpcodeGiveDevicePowerStatus     Opcode = 0x8F
	OpcodeReportPowerStatus         Opcode = 0x90
	OpcodeFeatureAbort              Opcode = 0x00
	OpcodeAbort                     Opcode = 0xFF
	OpcodeGiveAudioStatus           Opcode = 0x71
	OpcodeGiveSystemAudioModeStatus Opcode = 0x7D
	OpcodeReportAudioStatus         Opcode = 0x7A
	OpcodeSetSystemAudioMode        Opcode = 0x72
	OpcodeSystemAudioModeRequest    Opcode = 0x70
	OpcodeSystemAudioModeStatus     Opcode = 0x7E
	OpcodeSetAudioRate              Opcode = 0x9A
)

var opcodeNames = map[Opcode]string{
	OpcodeActiveSource:              "Active Source",
	OpcodeImageViewOn:               "Image View On",
	OpcodeTextViewOn:                "Text View On",
	OpcodeInactiveSource:            "Inactive Source",
	OpcodeRequestActiveSource:       "Request Active Source",
	OpcodeRoutingChange:             "Routing Change",
	OpcodeRoutingInformation:        "Routing Information",
	OpcodeSetStreamPath:             "Set Stream Path",
	OpcodeStandby:                   "Standby",
	OpcodeRecordOff:                 "Record Off",
	OpcodeRecordOn:                  "Record On",
	OpcodeRecordStatus:              "Record Status",
	OpcodeRecordTVScreen:            "Record TV Screen",
	OpcodeClearAnalogueTimer:        "Clear Analogue Timer",
	OpcodeClearDigitalTimer:         "Clear Digital Timer",
	OpcodeClearExternalTimer:        "Clear External Timer",
	OpcodeSetAnalogueTimer:          "Set Analogue Timer",
	OpcodeSetDigitalTimer:           "Set Digital Timer",
	OpcodeSetExternalTimer:          "Set External Timer",
	OpcodeSetTimerProgramTitle:      "Set Timer Program Title",
	OpcodeTimerClearedStatus:        "Timer Cleared Status",
	OpcodeTimerStatus:               "Timer Status",
	OpcodeCECVersion:                "CEC Version",
	OpcodeGetCECVersion:             "Get CEC Version",
	OpcodeGivePhysicalAddress:       "Give Physical Address",
	OpcodeGetMenuLanguage:           "Get Menu Language",
	OpcodeReportPhysicalAddress:     "Report Physical Address",
	OpcodeSetMenuLanguage:           "Set Menu Language",
	OpcodeDeckControl:               "Deck Control",
	OpcodeDeckStatus:                "Deck Status",
	OpcodeGiveDeckStatus:            "Give Deck Status",
	OpcodePlay:                      "Play",
	OpcodeGiveTunerDeviceStatus:     "Give Tuner Device Status",
	OpcodeSelectAnalogueService:     "Select Analogue Service",
	OpcodeSelectDigitalService:      "Select Digital Service",
	OpcodeTunerDeviceStatus:         "Tuner Device Status",
	OpcodeTunerStepDecrement:        "Tuner Step Decrement",
	OpcodeTunerStepIncrement:        "Tuner Step Increment",
	OpcodeDeviceVendorID:            "Device Vendor ID",
	OpcodeGiveDeviceVendorID:        "Give Device Vendor ID",
	OpcodeVendorCommand:             "Vendor Command",
	OpcodeVendorCommandWithID:       "Vendor Command With ID",
	OpcodeVendorRemoteButtonDown:    "Vendor Remote Button Down",
	OpcodeVendorRemoteButtonUp:      "Vendor Remote Button Up",
	OpcodeSetOSDString:              "Set OSD String",
	OpcodeGiveOSDName:               "Give OSD Name",
	OpcodeSetOSDName:                "Set OSD Name",
	OpcodeMenuRequest:               "Menu Request",
	OpcodeMenuStatus:                "Menu Status",
	OpcodeUserControlPressed:        "User Control Pressed",
	OpcodeUserControlReleased:       "User Control Released",
	OpcodeGiveDevicePowerStatus:     "Give Device Power Status",
	OpcodeReportPowerStatus:         "Report Power Status",
	OpcodeFeatureAbort:              "Feature Abort",
	OpcodeAbort:                     "Abort",
	OpcodeGiveAudioStatus:           "Give Audio Status",
	OpcodeGiveSystemAudioModeStatus: "Give System Audio Mode Status",
	OpcodeReportAudioStatus:         "Report Audio Status",
	OpcodeSetSystemAudioMode:        "Set System Audio Mode",
	OpcodeSystemAudioModeRequest:    "System Audio Mode Request",
	OpcodeSystemAudioModeStatus:     "System Audio Mode Status",
	OpcodeSetAudioRate:              "Set Audio Rate",
}

// Known reports whether o is part of the recognised HDMI-CEC opcode set.
func (o Opcode) Known() bool {
	_, ok := opcodeNames[o]
	return ok
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(0x%02X)", uint8(o))
}

// MaxParameters is the largest operand block a single CEC frame carries.
const MaxParameters = 14

// Command represents a CEC command
type Command struct {
	Initiator   LogicalAddress
	Destination LogicalAddress
	Opcode      Opcode
	Parameters  []uint8
}

// IsBroadcast reports whether the command is addressed to every device.
func (c Command) IsBroadcast() bool {
	return c.Destination == LogicalAddressBroadcast
}

func (c Command) String() string {
	return fmt.Sprintf("%s -> %s: %s % X", c.Initiator, c.Destination, c.Opcode, c.Parameters)
}

package cec

import (
	"fmt"
	"time"
)

// MaxOSDNameLength is the longest OSD name a Set OSD Name frame can carry.
const MaxOSDNameLength = 14

// Configuration holds CEC configuration. The adapter keeps its own copy, so
// changes made after NewAdapter have no effect.
type Configuration struct {
	// DeviceName is the OSD name shown by the TV.
	DeviceName string
	// DeviceType is the role claimed on the bus: recording, tuner or playback.
	DeviceType DeviceType
	// PhysicalAddress is announced in Active Source and Report Physical
	// Address frames.
	PhysicalAddress uint16
	HDMIPort        uint8
	// AutoPowerOn wakes the TV when the adapter initialises.
	AutoPowerOn bool
	// ButtonHold is the delay between press and release when sending a
	// remote button. Zero sends the press only.
	ButtonHold time.Duration
	// Duration bounds how long the CLI runs; zero runs until shutdown.
	Duration time.Duration
}

// DefaultConfiguration returns the configuration used when nothing is
// overridden.
func DefaultConfiguration() Configuration {
	return Configuration{
		DeviceName:      "RaspberryPi",
		DeviceType:      DeviceTypeRecordingDevice,
		PhysicalAddress: 0x1000,
		HDMIPort:        1,
		AutoPowerOn:     true,
		ButtonHold:      200 * time.Millisecond,
	}
}

// Validate reports the first problem with c.
func (c Configuration) Validate() error {
	if c.DeviceName == "" {
		return fmt.Errorf("device name must not be empty")
	}
	if len(c.DeviceName) > MaxOSDNameLength {
		return fmt.Errorf("device name %q longer than %d bytes", c.DeviceName, MaxOSDNameLength)
	}
	for _, r := range c.DeviceName {
		if r < 0x20 || r > 0x7E {
			return fmt.Errorf("device name %q contains non printable ASCII", c.DeviceName)
		}
	}
	switch c.DeviceType {
	case DeviceTypeRecordingDevice, DeviceTypeTuner, DeviceTypePlaybackDevice:
	default:
		return fmt.Errorf("device type %s cannot be emulated", c.DeviceType)
	}
	if c.HDMIPort > 15 {
		return fmt.Errorf("invalid HDMI port %d (must be 0-15)", c.HDMIPort)
	}
	if c.ButtonHold < 0 {
		return fmt.Errorf("button hold must not be negative")
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	return nil
}

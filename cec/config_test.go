package cec

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfiguration(t *testing.T) {
	c := DefaultConfiguration()
	if c.DeviceName != "RaspberryPi" {
		t.Errorf("device name: got %q", c.DeviceName)
	}
	if c.DeviceType != DeviceTypeRecordingDevice {
		t.Errorf("device type: got %s", c.DeviceType)
	}
	if PhysicalAddressToString(c.PhysicalAddress) != "1.0.0.0" {
		t.Errorf("physical address: got %s", PhysicalAddressToString(c.PhysicalAddress))
	}
	if c.HDMIPort != 1 || !c.AutoPowerOn || c.Duration != 0 {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}
}

func TestConfigurationValidate(t *testing.T) {
	for _, c := range []struct {
		name   string
		mutate func(*Configuration)
		errMsg string
	}{
		{"empty name", func(c *Configuration) { c.DeviceName = "" }, "empty"},
		{"long name", func(c *Configuration) { c.DeviceName = strings.Repeat("x", MaxOSDNameLength+1) }, "longer"},
		{"non ascii", func(c *Configuration) { c.DeviceName = "Pié" }, "printable"},
		{"tv type", func(c *Configuration) { c.DeviceType = DeviceTypeTV }, "cannot be emulated"},
		{"port", func(c *Configuration) { c.HDMIPort = 16 }, "HDMI port"},
		{"hold", func(c *Configuration) { c.ButtonHold = -time.Second }, "button hold"},
		{"duration", func(c *Configuration) { c.Duration = -time.Second }, "duration"},
	} {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			c.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), c.errMsg) {
				t.Fatalf("got %v, want error containing %q", err, c.errMsg)
			}
		})
	}

	cfg := DefaultConfiguration()
	cfg.DeviceName = "MyPi"
	cfg.DeviceType = DeviceTypePlaybackDevice
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid configuration rejected: %v", err)
	}
}

package cec

import (
	"fmt"
	"strconv"
	"strings"
)

// GetVendorName returns a human-readable vendor name
func GetVendorName(vendorId uint64) string {
	vendors := map[uint64]string{
		0x000039: "Toshiba",
		0x0000F0: "Samsung",
		0x0005CD: "Denon",
		0x000678: "Marantz",
		0x000982: "Loewe",
		0x0009B0: "Onkyo",
		0x000CB8: "Medion",
		0x000CE7: "Toshiba",
		0x001582: "Pulse Eight",
		0x001950: "Google",
		0x001A11: "Akai",
		0x0020C7: "AOC",
		0x002467: "Panasonic",
		0x008045: "Philips",
		0x00903E: "Pioneer",
		0x009053: "LG",
		0x00A0DE: "Sharp",
		0x00D0D5: "Vizio",
		0x00E036: "Harman Kardon",
		0x00E091: "Yamaha",
		0x08001F: "Sony",
		0x18C086: "Broadcom",
		0x6B746D: "Vizio",
		0x8065E9: "Benq",
		0x9C645E: "Daewoo",
	}

	if name, ok := vendors[vendorId]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%06X)", vendorId)
}

// VendorIDFromParameters decodes the 24-bit vendor id of a Device Vendor ID
// frame.
func VendorIDFromParameters(params []uint8) (uint64, bool) {
	if len(params) < 3 {
		return 0, false
	}
	return uint64(params[0])<<16 | uint64(params[1])<<8 | uint64(params[2]), true
}

// PhysicalAddressToString converts a physical address to dot notation
func PhysicalAddressToString(addr uint16) string {
	a := (addr >> 12) & 0xF
	b := (addr >> 8) & 0xF
	c := (addr >> 4) & 0xF
	d := addr & 0xF
	return fmt.Sprintf("%d.%d.%d.%d", a, b, c, d)
}

// ParsePhysicalAddress converts dot notation to physical address
func ParsePhysicalAddress(addrStr string) (uint16, error) {
	parts := strings.Split(addrStr, ".")
	if len(parts) != 4 {
		return 0, fmt.Errorf("invalid physical address %q (want a.b.c.d)", addrStr)
	}

	var addr uint16
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid physical address %q: %w", addrStr, err)
		}
		if n > 15 {
			return 0, fmt.Errorf("invalid physical address components (must be 0-15)")
		}
		addr = addr<<4 | uint16(n)
	}
	return addr, nil
}

func physicalAddressBytes(addr uint16) []uint8 {
	return []uint8{uint8(addr >> 8), uint8(addr & 0xFF)}
}

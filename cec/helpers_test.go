package cec

import "testing"

func TestPhysicalAddress(t *testing.T) {
	for _, c := range []struct {
		in   string
		addr uint16
	}{
		{"0.0.0.0", 0x0000},
		{"1.0.0.0", 0x1000},
		{"2.1.0.0", 0x2100},
		{"15.15.15.15", 0xFFFF},
	} {
		addr, err := ParsePhysicalAddress(c.in)
		if err != nil || addr != c.addr {
			t.Errorf("ParsePhysicalAddress(%q) = 0x%04X, %v; want 0x%04X", c.in, addr, err, c.addr)
		}
		if s := PhysicalAddressToString(c.addr); s != c.in {
			t.Errorf("PhysicalAddressToString(0x%04X) = %q, want %q", c.addr, s, c.in)
		}
	}

	for _, bad := range []string{"", "1.0.0", "1.0.0.0.0", "16.0.0.0", "a.b.c.d", "1.0.0.-1"} {
		if _, err := ParsePhysicalAddress(bad); err == nil {
			t.Errorf("ParsePhysicalAddress(%q) accepted", bad)
		}
	}
}

func TestVendorID(t *testing.T) {
	id, ok := VendorIDFromParameters([]uint8{0x00, 0xF0, 0x00})
	if !ok || id != 0x00F000 {
		t.Fatalf("got 0x%06X, %v", id, ok)
	}
	id, _ = VendorIDFromParameters([]uint8{0x00, 0x00, 0xF0})
	if GetVendorName(id) != "Samsung" {
		t.Errorf("vendor 0x%06X: got %q", id, GetVendorName(id))
	}
	if GetVendorName(0x123456) != "Unknown (0x123456)" {
		t.Errorf("unexpected unknown vendor name %q", GetVendorName(0x123456))
	}
	if _, ok := VendorIDFromParameters([]uint8{0x00}); ok {
		t.Errorf("short parameter block accepted")
	}
}

func TestOpcodeKnown(t *testing.T) {
	if !OpcodeUserControlPressed.Known() || OpcodeUserControlPressed.String() != "User Control Pressed" {
		t.Fatalf("user control pressed not recognised")
	}
	if Opcode(0xC0).Known() {
		t.Fatalf("0xC0 reported as known")
	}
	if Opcode(0xC0).String() != "Opcode(0xC0)" {
		t.Fatalf("unexpected name %q", Opcode(0xC0).String())
	}
}

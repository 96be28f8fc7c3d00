package cec

import (
	"errors"
	"testing"
)

func TestButtonRoundTrip(t *testing.T) {
	for _, b := range Buttons() {
		code, err := EncodeButton(b)
		if err != nil {
			t.Fatalf("encode %s: %v", b, err)
		}
		got, ok := DecodeButton(code)
		if !ok || got != b {
			t.Errorf("decode(encode(%s)) = %s, %v; want %s", b, got, ok, b)
		}
	}
}

func TestButtonTableInjective(t *testing.T) {
	codes := map[uint8]Button{}
	names := map[string]Button{}
	for _, e := range buttonTable {
		if prev, dup := codes[e.code]; dup {
			t.Errorf("code 0x%02X used by %s and %s", e.code, prev, e.button)
		}
		if prev, dup := names[e.name]; dup {
			t.Errorf("name %q used by %d and %d", e.name, prev, e.button)
		}
		codes[e.code] = e.button
		names[e.name] = e.button
	}
	if len(buttonsByButton) != len(buttonTable) {
		t.Fatalf("duplicate buttons in table: %d entries, %d buttons", len(buttonTable), len(buttonsByButton))
	}
}

func TestDecodeUnmappedCodes(t *testing.T) {
	for code := 0; code <= 0xFF; code++ {
		if _, mapped := buttonsByCode[uint8(code)]; mapped {
			continue
		}
		if b, ok := DecodeButton(uint8(code)); ok {
			t.Errorf("code 0x%02X decoded to %s, want absent", code, b)
		}
	}
}

func TestEncodeUnknownButton(t *testing.T) {
	for _, b := range []Button{0, ButtonYellow + 1, 0xFF} {
		if _, err := EncodeButton(b); !errors.Is(err, ErrUnknownButton) {
			t.Errorf("encode %d: got %v, want ErrUnknownButton", uint8(b), err)
		}
	}
}

func TestKnownCodes(t *testing.T) {
	for _, c := range []struct {
		b    Button
		code uint8
	}{
		{ButtonSelect, 0x00},
		{ButtonBack, 0x0D},
		{Button0, 0x20},
		{Button9, 0x29},
		{ButtonVolumeUp, 0x41},
		{ButtonVolumeDown, 0x42},
		{ButtonMute, 0x43},
		{ButtonPlay, 0x44},
		{ButtonFastForward, 0x49},
		{ButtonBlue, 0x71},
		{ButtonYellow, 0x74},
	} {
		if code, _ := EncodeButton(c.b); code != c.code {
			t.Errorf("%s: got 0x%02X want 0x%02X", c.b, code, c.code)
		}
	}
}

func TestParseButton(t *testing.T) {
	for _, c := range []struct {
		in   string
		want Button
	}{
		{"volume_up", ButtonVolumeUp},
		{"Volume-Up", ButtonVolumeUp},
		{" fast forward ", ButtonFastForward},
		{"7", Button7},
		{"BACK", ButtonBack},
	} {
		got, err := ParseButton(c.in)
		if err != nil || got != c.want {
			t.Errorf("ParseButton(%q) = %s, %v; want %s", c.in, got, err, c.want)
		}
	}
	if _, err := ParseButton("teleport"); !errors.Is(err, ErrUnknownButton) {
		t.Errorf("unknown name: got %v, want ErrUnknownButton", err)
	}
}

func TestButtonText(t *testing.T) {
	text, err := ButtonRed.MarshalText()
	if err != nil || string(text) != "red" {
		t.Fatalf("MarshalText = %q, %v", text, err)
	}
	var b Button
	if err := b.UnmarshalText([]byte("green")); err != nil || b != ButtonGreen {
		t.Fatalf("UnmarshalText = %s, %v", b, err)
	}
	if _, err := Button(0).MarshalText(); err == nil {
		t.Fatalf("expected error marshalling unknown button")
	}
}

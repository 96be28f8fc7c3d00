package cec

import (
	"fmt"
	"strings"
)

// Button is a symbolic remote-control key. Each button maps to exactly one
// CEC user control code and back.
type Button uint8

const (
	ButtonSelect Button = iota + 1
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonRootMenu
	ButtonSetupMenu
	ButtonContentsMenu
	ButtonBack
	Button0
	Button1
	Button2
	Button3
	Button4
	Button5
	Button6
	Button7
	Button8
	Button9
	ButtonEnter
	ButtonChannelUp
	ButtonChannelDown
	ButtonInfo
	ButtonPower
	ButtonVolumeUp
	ButtonVolumeDown
	ButtonMute
	ButtonPlay
	ButtonStop
	ButtonPause
	ButtonRecord
	ButtonRewind
	ButtonFastForward
	ButtonForward
	ButtonBackward
	ButtonBlue
	ButtonRed
	ButtonGreen
	ButtonYellow
)

type buttonEntry struct {
	button Button
	code   uint8
	name   string
}

// buttonTable is ordered by code; codes are the HDMI-CEC user control codes.
var buttonTable = []buttonEntry{
	{ButtonSelect, 0x00, "select"},
	{ButtonUp, 0x01, "up"},
	{ButtonDown, 0x02, "down"},
	{ButtonLeft, 0x03, "left"},
	{ButtonRight, 0x04, "right"},
	{ButtonRootMenu, 0x09, "root_menu"},
	{ButtonSetupMenu, 0x0A, "setup_menu"},
	{ButtonContentsMenu, 0x0B, "contents_menu"},
	{ButtonBack, 0x0D, "back"},
	{Button0, 0x20, "0"},
	{Button1, 0x21, "1"},
	{Button2, 0x22, "2"},
	{Button3, 0x23, "3"},
	{Button4, 0x24, "4"},
	{Button5, 0x25, "5"},
	{Button6, 0x26, "6"},
	{Button7, 0x27, "7"},
	{Button8, 0x28, "8"},
	{Button9, 0x29, "9"},
	{ButtonEnter, 0x2B, "enter"},
	{ButtonChannelUp, 0x30, "channel_up"},
	{ButtonChannelDown, 0x31, "channel_down"},
	{ButtonInfo, 0x35, "info"},
	{ButtonPower, 0x40, "power"},
	{ButtonVolumeUp, 0x41, "volume_up"},
	{ButtonVolumeDown, 0x42, "volume_down"},
	{ButtonMute, 0x43, "mute"},
	{ButtonPlay, 0x44, "play"},
	{ButtonStop, 0x45, "stop"},
	{ButtonPause, 0x46, "pause"},
	{ButtonRecord, 0x47, "record"},
	{ButtonRewind, 0x48, "rewind"},
	{ButtonFastForward, 0x49, "fast_forward"},
	{ButtonForward, 0x4B, "forward"},
	{ButtonBackward, 0x4C, "backward"},
	{ButtonBlue, 0x71, "blue"},
	{ButtonRed, 0x72, "red"},
	{ButtonGreen, 0x73, "green"},
	{ButtonYellow, 0x74, "yellow"},
}

var (
	buttonsByButton = make(map[Button]buttonEntry, len(buttonTable))
	buttonsByCode   = make(map[uint8]Button, len(buttonTable))
	buttonsByName   = make(map[string]Button, len(buttonTable))
)

func init() {
	for _, e := range buttonTable {
		buttonsByButton[e.button] = e
		buttonsByCode[e.code] = e.button
		buttonsByName[e.name] = e.button
	}
}

// EncodeButton returns the user control code for b.
func EncodeButton(b Button) (uint8, error) {
	e, ok := buttonsByButton[b]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownButton, uint8(b))
	}
	return e.code, nil
}

// DecodeButton maps a user control code back to its button. Vendor specific
// and unmapped codes report false.
func DecodeButton(code uint8) (Button, bool) {
	b, ok := buttonsByCode[code]
	return b, ok
}

// ParseButton looks a button up by name. Names are case insensitive and
// accept dashes or spaces in place of underscores.
func ParseButton(name string) (Button, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if b, ok := buttonsByName[key]; ok {
		return b, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownButton, name)
}

// Buttons returns every known button in code order.
func Buttons() []Button {
	out := make([]Button, len(buttonTable))
	for i, e := range buttonTable {
		out[i] = e.button
	}
	return out
}

func (b Button) String() string {
	if e, ok := buttonsByButton[b]; ok {
		return e.name
	}
	return fmt.Sprintf("Button(%d)", uint8(b))
}

// MarshalText renders the button name, so events serialise readably.
func (b Button) MarshalText() ([]byte, error) {
	if _, ok := buttonsByButton[b]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownButton, uint8(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText parses a button name.
func (b *Button) UnmarshalText(text []byte) error {
	v, err := ParseButton(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

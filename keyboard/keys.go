package keyboard

import "pitvremote/cec"

// Linux input event codes (linux/input-event-codes.h). Only codes inside the
// range a uinput keyboard registers are used.
const (
	keyEsc          = 1
	key1            = 2
	key2            = 3
	key3            = 4
	key4            = 5
	key5            = 6
	key6            = 7
	key7            = 8
	key8            = 9
	key9            = 10
	key0            = 11
	keyI            = 23
	keyEnter        = 28
	keyC            = 46
	keyF1           = 59
	keyF2           = 60
	keyF3           = 61
	keyF4           = 62
	keyHome         = 102
	keyUp           = 103
	keyPageUp       = 104
	keyLeft         = 105
	keyRight        = 106
	keyDown         = 108
	keyPageDown     = 109
	keyMute         = 113
	keyVolumeDown   = 114
	keyVolumeUp     = 115
	keyMenu         = 139
	keyNextSong     = 163
	keyPreviousSong = 165
	keyStopCD       = 166
	keyRecord       = 167
	keyRewind       = 168
	keyPauseCD      = 201
	keyPlay         = 207
	keyFastForward  = 208
)

// DefaultKeyMap maps remote buttons onto keys media centres understand.
// Power is left out so a remote cannot suspend the host.
var DefaultKeyMap = map[cec.Button]int{
	cec.ButtonSelect:       keyEnter,
	cec.ButtonEnter:        keyEnter,
	cec.ButtonUp:           keyUp,
	cec.ButtonDown:         keyDown,
	cec.ButtonLeft:         keyLeft,
	cec.ButtonRight:        keyRight,
	cec.ButtonBack:         keyEsc,
	cec.ButtonRootMenu:     keyHome,
	cec.ButtonSetupMenu:    keyMenu,
	cec.ButtonContentsMenu: keyC,
	cec.ButtonInfo:         keyI,
	cec.Button0:            key0,
	cec.Button1:            key1,
	cec.Button2:            key2,
	cec.Button3:            key3,
	cec.Button4:            key4,
	cec.Button5:            key5,
	cec.Button6:            key6,
	cec.Button7:            key7,
	cec.Button8:            key8,
	cec.Button9:            key9,
	cec.ButtonChannelUp:    keyPageUp,
	cec.ButtonChannelDown:  keyPageDown,
	cec.ButtonVolumeUp:     keyVolumeUp,
	cec.ButtonVolumeDown:   keyVolumeDown,
	cec.ButtonMute:         keyMute,
	cec.ButtonPlay:         keyPlay,
	cec.ButtonPause:        keyPauseCD,
	cec.ButtonStop:         keyStopCD,
	cec.ButtonRecord:       keyRecord,
	cec.ButtonRewind:       keyRewind,
	cec.ButtonFastForward:  keyFastForward,
	cec.ButtonForward:      keyNextSong,
	cec.ButtonBackward:     keyPreviousSong,
	cec.ButtonRed:          keyF1,
	cec.ButtonGreen:        keyF2,
	cec.ButtonYellow:       keyF3,
	cec.ButtonBlue:         keyF4,
}

package libcec

import (
	"fmt"
	"log/slog"
)

// LogLevel is the severity libcec attaches to its log messages.
type LogLevel int

const (
	LogLevelError   LogLevel = 1
	LogLevelWarning LogLevel = 2
	LogLevelNotice  LogLevel = 4
	LogLevelTraffic LogLevel = 8
	LogLevelDebug   LogLevel = 16
	LogLevelAll     LogLevel = 31
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelNotice:
		return "NOTICE"
	case LogLevelTraffic:
		return "TRAFFIC"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "ALL"
	}
}

// SlogLevel maps the libcec level onto slog. Bus traffic is debug output.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarning:
		return slog.LevelWarn
	case LogLevelNotice:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Alert is raised by libcec when the adapter needs attention.
type Alert int

const (
	AlertServiceDevice Alert = iota
	AlertConnectionLost
	AlertPermissionError
	AlertPortBusy
	AlertPhysicalAddressError
	AlertTVPollFailed
)

func (a Alert) String() string {
	switch a {
	case AlertServiceDevice:
		return "service device"
	case AlertConnectionLost:
		return "connection lost"
	case AlertPermissionError:
		return "permission error"
	case AlertPortBusy:
		return "port busy"
	case AlertPhysicalAddressError:
		return "physical address error"
	case AlertTVPollFailed:
		return "TV poll failed"
	default:
		return fmt.Sprintf("Alert(%d)", int(a))
	}
}

// AdapterInfo describes a CEC adapter found on the system.
type AdapterInfo struct {
	Path string
	Comm string
}

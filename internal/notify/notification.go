// Package notify implements the shared notification model and the
// priority queue behind the shell's marquee and notification panel.
package notify

import "time"

type ID uint64

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Priority returns the default queue priority for a level. Higher values
// sort earlier and stay visible longer.
func (l Level) Priority() uint8 {
	switch l {
	case LevelSuccess:
		return 2
	case LevelWarning:
		return 3
	case LevelError:
		return 4
	default:
		return 1
	}
}

func (l Level) Icon() string {
	switch l {
	case LevelSuccess:
		return "✓"
	case LevelWarning:
		return "⚠"
	case LevelError:
		return "✗"
	default:
		return "ℹ"
	}
}

// Action is an optional command a notification offers to run.
type Action struct {
	Label   string   `json:"label"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Notification is a message raised by a hosted app or by the shell itself.
type Notification struct {
	ID        ID        `json:"id"`
	Source    string    `json:"source"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Action    *Action   `json:"action,omitempty"`
	Priority  uint8     `json:"priority"`
}

func New(source string, level Level, message string) Notification {
	return Notification{
		Source:    source,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Priority:  level.Priority(),
	}
}

func Info(source, message string) Notification {
	return New(source, LevelInfo, message)
}

func Success(source, message string) Notification {
	return New(source, LevelSuccess, message)
}

func Warning(source, message string) Notification {
	return New(source, LevelWarning, message)
}

func Error(source, message string) Notification {
	return New(source, LevelError, message)
}

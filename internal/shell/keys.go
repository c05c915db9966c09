package shell

import (
	"time"
)

// Action is a shell command triggered through the prefix key.
type Action int

const (
	ActionNone Action = iota
	// ActionPassPrefix forwards a literal prefix keypress to the focused
	// app (double-tap).
	ActionPassPrefix
	ActionSplitHorizontal
	ActionSplitVertical
	ActionClosePane
	ActionFocusLeft
	ActionFocusRight
	ActionFocusUp
	ActionFocusDown
	ActionResizeGrow
	ActionResizeShrink
	ActionNextWorkspace
	ActionPrevWorkspace
	ActionWorkspace1
	ActionWorkspace2
	ActionWorkspace3
	ActionWorkspace4
	ActionWorkspace5
	ActionWorkspace6
	ActionWorkspace7
	ActionWorkspace8
	ActionWorkspace9
	ActionNextApp
	ActionPrevApp
	ActionOpenLauncher
	ActionKillApp
	ActionSaveSession
	ActionToggleNotifications
	ActionShowHelp
	ActionQuit
)

func defaultBindings() map[string]Action {
	return map[string]Action{
		"s":     ActionSplitHorizontal,
		"v":     ActionSplitVertical,
		"x":     ActionClosePane,
		"left":  ActionFocusLeft,
		"right": ActionFocusRight,
		"up":    ActionFocusUp,
		"down":  ActionFocusDown,
		"+":     ActionResizeGrow,
		"=":     ActionResizeGrow,
		"-":     ActionResizeShrink,
		"n":     ActionNextWorkspace,
		"p":     ActionPrevWorkspace,
		"1":     ActionWorkspace1,
		"2":     ActionWorkspace2,
		"3":     ActionWorkspace3,
		"4":     ActionWorkspace4,
		"5":     ActionWorkspace5,
		"6":     ActionWorkspace6,
		"7":     ActionWorkspace7,
		"8":     ActionWorkspace8,
		"9":     ActionWorkspace9,
		"]":     ActionNextApp,
		"[":     ActionPrevApp,
		"a":     ActionOpenLauncher,
		"c":     ActionKillApp,
		"w":     ActionSaveSession,
		"m":     ActionToggleNotifications,
		"?":     ActionShowHelp,
		"q":     ActionQuit,
	}
}

// PrefixHandler is the two-state key machine: idle until the prefix key
// arrives, then armed until the next key, Esc, or the timeout.
type PrefixHandler struct {
	prefix   string
	timeout  time.Duration
	bindings map[string]Action

	armed   bool
	armedAt time.Time
}

func NewPrefixHandler(prefix string, timeout time.Duration) *PrefixHandler {
	return &PrefixHandler{
		prefix:   prefix,
		timeout:  timeout,
		bindings: defaultBindings(),
	}
}

func (p *PrefixHandler) Armed() bool {
	return p.armed
}

// HandleKey consumes one keypress. handled=false means the key belongs to
// the focused app.
func (p *PrefixHandler) HandleKey(key string, now time.Time) (Action, bool) {
	if !p.armed {
		if key == p.prefix {
			p.armed = true
			p.armedAt = now
			return ActionNone, true
		}
		return ActionNone, false
	}

	p.armed = false
	switch key {
	case p.prefix:
		return ActionPassPrefix, true
	case "esc":
		return ActionNone, true
	}
	if action, ok := p.bindings[key]; ok {
		return action, true
	}
	// Unknown chord: swallow the key rather than leaking half a binding
	// into the app.
	return ActionNone, true
}

// Expire disarms the handler once the timeout has passed. Called from the
// control-loop tick; reports whether it disarmed.
func (p *PrefixHandler) Expire(now time.Time) bool {
	if p.armed && now.Sub(p.armedAt) >= p.timeout {
		p.armed = false
		return true
	}
	return false
}

// WorkspaceIndex maps the direct-switch actions to a zero-based index,
// or -1 for anything else.
func WorkspaceIndex(action Action) int {
	if action >= ActionWorkspace1 && action <= ActionWorkspace9 {
		return int(action - ActionWorkspace1)
	}
	return -1
}

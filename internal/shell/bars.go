package shell

import (
	"fmt"
	"strings"

	"tuishell/internal/layout"
	"tuishell/internal/notify"
)

// workspaceBarView renders the top bar: one cell per workspace, active
// one highlighted.
func workspaceBarView(workspaces []*layout.Workspace, width int) string {
	var cells []string
	for i, ws := range workspaces {
		label := fmt.Sprintf(" %d:%s ", i+1, ws.Name)
		if ws.Active {
			cells = append(cells, workspaceActiveStyle.Render(label))
		} else {
			cells = append(cells, workspaceBarStyle.Render(label))
		}
	}
	bar := strings.Join(cells, "")
	return padToWidth(truncateToWidth(bar, width), width)
}

// notificationLineView renders the marquee: the most recent visible
// notification, or empty when there is nothing to show.
func notificationLineView(queue *notify.Queue, width int) string {
	latest, ok := queue.Latest()
	if !ok {
		return ""
	}
	line := fmt.Sprintf("%s %s: %s", latest.Level.Icon(), latest.Source, latest.Message)
	return notifyStyle(latest.Level).Render(truncateToWidth(line, width))
}

// notificationPanelView renders the expanded history panel.
func notificationPanelView(queue *notify.Queue, width, height int) string {
	history := queue.History()
	if len(history) == 0 {
		return statusStyle.Render("No notifications.")
	}
	maxRows := max(1, height)
	if len(history) > maxRows {
		history = history[:maxRows]
	}
	lines := make([]string, 0, len(history))
	for _, n := range history {
		line := fmt.Sprintf("%s %s %s: %s",
			n.Timestamp.Format("15:04:05"), n.Level.Icon(), n.Source, n.Message)
		lines = append(lines, notifyStyle(n.Level).Render(truncateToWidth(line, width)))
	}
	return strings.Join(lines, "\n")
}

func notifyStyle(level notify.Level) interface{ Render(...string) string } {
	switch level {
	case notify.LevelSuccess:
		return notifySuccessStyle
	case notify.LevelWarning:
		return notifyWarningStyle
	case notify.LevelError:
		return notifyErrorStyle
	default:
		return notifyInfoStyle
	}
}

// statusBarView renders the bottom line: prefix indicator plus status
// text.
func statusBarView(status string, prefixArmed bool, width int) string {
	prefix := ""
	if prefixArmed {
		prefix = prefixArmedStyle.Render("[prefix] ")
	}
	line := prefix + statusStyle.Render(truncateToWidth(status, max(0, width-cellWidth("[prefix] "))))
	return truncateToWidth(line, width)
}

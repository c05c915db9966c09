package shell

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"tuishell/internal/supervisor"
)

func (m *Model) View() tea.View {
	view := tea.NewView(m.render())
	view.AltScreen = true
	return view
}

func (m *Model) render() string {
	content := m.contentView()
	if m.showHelp {
		content = renderHelp(min(m.width, 78))
	} else if m.notifications.IsExpanded() {
		content = notificationPanelView(m.notifications, m.width, m.contentHeight())
	} else {
		if m.palette.IsOpen() {
			content = overlayAt(content, m.centeredOverlay(m.palette.View()), 2)
		}
		if m.crashDialog.IsOpen() {
			block, y := m.crashDialog.View(m.width, m.contentHeight())
			content = overlayAt(content, block, y)
		}
	}

	sections := []string{
		workspaceBarView(m.workspaces.List(), m.width),
		content,
		notificationLineView(m.notifications, m.width),
		statusBarView(m.statusLine(), m.prefix.Armed(), m.width),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) contentView() string {
	tab := m.activeTab()
	if tab == nil {
		return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center,
			statusStyle.Render("no workspace"))
	}
	return renderContainer(tab.Root, m.width, m.contentHeight(), true, m.paneBody)
}

// paneBody fills a pane's interior. Apps draw on their own terminal
// surfaces; the compositor shows each pane's process status.
func (m *Model) paneBody(name string, width, height int, focused bool) string {
	h, ok := m.appByName(name)
	if !ok {
		return statusStyle.Render(truncateToWidth("not running", width))
	}
	var line string
	switch h.State {
	case supervisor.StateRunning:
		line = fmt.Sprintf("%s (pid %d)", name, h.PID)
		if h.Channel == nil {
			line += " · connecting"
		}
	case supervisor.StateLaunching:
		line = "starting " + name
	case supervisor.StateCrashed, supervisor.StateBackoff:
		wait := h.NextAllowedRestart.Sub(m.now())
		if wait > 0 && !h.AwaitingDecision {
			line = fmt.Sprintf("crashed · restart in %s", fmtBackoff(wait))
		} else {
			line = "crashed"
		}
	default:
		line = "stopped"
	}
	return statusStyle.Render(truncateToWidth(line, width))
}

func (m *Model) statusLine() string {
	if m.status != "" {
		return m.status
	}
	if h := m.supervisor.FocusedHandle(); h != nil {
		return h.Manifest.Name
	}
	return "ready"
}

func (m *Model) centeredOverlay(block string) string {
	width := 0
	for _, line := range strings.Split(block, "\n") {
		if w := cellWidth(line); w > width {
			width = w
		}
	}
	if m.width > width {
		return indentBlock(block, (m.width-width)/2)
	}
	return block
}

// overlayAt splices a block over the base content starting at row y.
func overlayAt(base, block string, y int) string {
	if block == "" {
		return base
	}
	baseLines := strings.Split(base, "\n")
	blockLines := strings.Split(block, "\n")
	for i, line := range blockLines {
		row := y + i
		if row < 0 {
			continue
		}
		for row >= len(baseLines) {
			baseLines = append(baseLines, "")
		}
		baseLines[row] = line
	}
	return strings.Join(baseLines, "\n")
}

package shell

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	xansi "github.com/charmbracelet/x/ansi"

	"tuishell/internal/layout"
)

type crashChoice int

const (
	crashChoiceNone crashChoice = iota
	crashChoiceRestart
	crashChoiceDismiss
)

const crashDialogMaxWidth = 60

// CrashDialog asks whether a crashed app should be restarted. One dialog
// at a time; further crashes queue up behind it in the supervisor.
type CrashDialog struct {
	active   bool
	appID    layout.AppID
	appName  string
	failures int
	selected int
}

func NewCrashDialog() *CrashDialog {
	return &CrashDialog{}
}

func (c *CrashDialog) IsOpen() bool {
	return c != nil && c.active
}

func (c *CrashDialog) AppID() layout.AppID {
	return c.appID
}

func (c *CrashDialog) Open(appID layout.AppID, appName string, failures int) {
	c.active = true
	c.appID = appID
	c.appName = appName
	c.failures = failures
	c.selected = 0
}

func (c *CrashDialog) Close() {
	c.active = false
	c.appID = 0
	c.appName = ""
	c.failures = 0
	c.selected = 0
}

func (c *CrashDialog) HandleKey(msg tea.KeyMsg) (bool, crashChoice) {
	if c == nil || !c.active {
		return false, crashChoiceNone
	}
	switch msg.String() {
	case "esc", "n":
		return true, crashChoiceDismiss
	case "y", "r":
		return true, crashChoiceRestart
	case "left", "h":
		c.selected = 0
		return true, crashChoiceNone
	case "right", "l":
		c.selected = 1
		return true, crashChoiceNone
	case "tab":
		c.selected = 1 - c.selected
		return true, crashChoiceNone
	case "enter":
		if c.selected == 0 {
			return true, crashChoiceRestart
		}
		return true, crashChoiceDismiss
	}
	return false, crashChoiceNone
}

func (c *CrashDialog) View(maxWidth, maxHeight int) (string, int) {
	if c == nil || !c.active {
		return "", 0
	}
	message := fmt.Sprintf("%s exited unexpectedly", c.appName)
	if c.failures > 1 {
		message = fmt.Sprintf("%s exited unexpectedly (%d crashes)", c.appName, c.failures)
	}

	width := xansi.StringWidth(message) + 4
	if width > crashDialogMaxWidth {
		width = crashDialogMaxWidth
	}
	if maxWidth > 0 && width > maxWidth {
		width = maxWidth
	}
	contentWidth := max(1, width-4)

	lines := []string{dialogHeaderStyle.Render(" " + padToWidth(truncateToWidth("App crashed", contentWidth), contentWidth) + " ")}
	for _, line := range strings.Split(xansi.Hardwrap(message, contentWidth, true), "\n") {
		lines = append(lines, dialogBodyStyle.Render(" "+padToWidth(truncateToWidth(line, contentWidth), contentWidth)+" "))
	}

	restart := padToWidth("[Restart]", contentWidth/2)
	dismiss := padToWidth("[Dismiss]", contentWidth-contentWidth/2)
	if c.selected == 0 {
		restart = selectedStyle.Render(restart)
		dismiss = dialogBodyStyle.Render(dismiss)
	} else {
		restart = dialogBodyStyle.Render(restart)
		dismiss = selectedStyle.Render(dismiss)
	}
	lines = append(lines, " "+restart+dismiss+" ")

	block := dialogBorderStyle.Render(strings.Join(lines, "\n"))
	x := 0
	if maxWidth > width {
		x = (maxWidth - width) / 2
	}
	y := 1
	height := len(lines) + 2
	if maxHeight > height {
		y = (maxHeight - height) / 2
	}
	if x > 0 {
		block = indentBlock(block, x)
	}
	return block, y
}

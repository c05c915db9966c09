package shell

import (
	"charm.land/lipgloss/v2"
)

var (
	workspaceBarStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	workspaceActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("239")).Bold(true)
	statusStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	prefixArmedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	paneTitleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	paneFocusedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	paneBorderStyle      = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("238"))
	paneFocusBorderStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("75"))
	dialogBorderStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("203"))
	dialogHeaderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("251")).Background(lipgloss.Color("235")).Bold(true)
	dialogBodyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("235"))
	selectedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))

	notifyInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	notifySuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	notifyWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	notifyErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

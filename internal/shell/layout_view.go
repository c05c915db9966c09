package shell

import (
	"strings"

	"charm.land/lipgloss/v2"

	"tuishell/internal/layout"
)

// paneContent fills the inside of an app pane. The compositor owns the
// chrome; apps own their own terminal surfaces.
type paneContent func(name string, width, height int, focused bool) string

// renderContainer draws a container tree into a width x height cell box.
func renderContainer(c *layout.Container, width, height int, focused bool, content paneContent) string {
	if width < 2 || height < 2 {
		return ""
	}
	switch c.Kind {
	case layout.KindApp:
		return renderPane(c, width, height, focused, content)
	case layout.KindSplit:
		return renderSplit(c, width, height, focused, content)
	case layout.KindTabbed:
		return renderTabbed(c, width, height, focused, content)
	default:
		empty := statusStyle.Render("no apps, press the prefix then 'a' to launch one")
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, empty)
	}
}

func renderPane(c *layout.Container, width, height int, focused bool, content paneContent) string {
	innerWidth := width - 2
	innerHeight := height - 3
	if innerWidth < 1 {
		innerWidth = 1
	}
	if innerHeight < 0 {
		innerHeight = 0
	}

	titleStyle := paneTitleStyle
	border := paneBorderStyle
	if focused {
		titleStyle = paneFocusedStyle
		border = paneFocusBorderStyle
	}
	title := c.Title
	if title == "" {
		title = c.Name
	}
	lines := []string{titleStyle.Render(truncateToWidth(title, innerWidth))}
	if content != nil && innerHeight > 0 {
		body := content(c.Name, innerWidth, innerHeight, focused)
		lines = append(lines, strings.Split(body, "\n")...)
	}
	for len(lines) < innerHeight+1 {
		lines = append(lines, "")
	}
	if len(lines) > innerHeight+1 {
		lines = lines[:innerHeight+1]
	}
	for i := range lines {
		lines[i] = padToWidth(truncateToWidth(lines[i], innerWidth), innerWidth)
	}
	return border.Render(strings.Join(lines, "\n"))
}

func renderSplit(c *layout.Container, width, height int, focused bool, content paneContent) string {
	sizes := splitSizes(len(c.Children), c.Ratios, axisExtent(c.Direction, width, height))
	parts := make([]string, 0, len(c.Children))
	for i, child := range c.Children {
		childFocused := focused && i == c.Focused
		if c.Direction == layout.Horizontal {
			parts = append(parts, renderContainer(child, sizes[i], height, childFocused, content))
		} else {
			parts = append(parts, renderContainer(child, width, sizes[i], childFocused, content))
		}
	}
	if c.Direction == layout.Horizontal {
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderTabbed(c *layout.Container, width, height int, focused bool, content paneContent) string {
	var labels []string
	for i, child := range c.Children {
		label := " " + child.Title + " "
		if i == c.Active {
			label = workspaceActiveStyle.Render(label)
		} else {
			label = workspaceBarStyle.Render(label)
		}
		labels = append(labels, label)
	}
	header := truncateToWidth(strings.Join(labels, ""), width)
	body := ""
	if c.Active >= 0 && c.Active < len(c.Children) {
		body = renderContainer(c.Children[c.Active], width, height-1, focused, content)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func axisExtent(dir layout.Direction, width, height int) int {
	if dir == layout.Horizontal {
		return width
	}
	return height
}

// splitSizes divides extent cells among n children by ratio, giving the
// last child the remainder so the total is exact.
func splitSizes(n int, ratios []float64, extent int) []int {
	sizes := make([]int, n)
	used := 0
	for i := 0; i < n; i++ {
		if i == n-1 {
			sizes[i] = extent - used
			continue
		}
		ratio := 1.0 / float64(n)
		if i < len(ratios) {
			ratio = ratios[i]
		}
		sizes[i] = int(float64(extent) * ratio)
		if sizes[i] < 2 {
			sizes[i] = 2
		}
		used += sizes[i]
	}
	if n > 0 && sizes[n-1] < 2 {
		sizes[n-1] = 2
	}
	return sizes
}

// PaneSize is the inner cell area handed to an app for Resize messages.
type PaneSize struct {
	Width  int
	Height int
}

// paneSizes walks the tree and records each app leaf's inner size.
func paneSizes(c *layout.Container, width, height int, out map[string]PaneSize) {
	switch c.Kind {
	case layout.KindApp:
		out[c.Name] = PaneSize{Width: max(1, width-2), Height: max(1, height-2)}
	case layout.KindSplit:
		sizes := splitSizes(len(c.Children), c.Ratios, axisExtent(c.Direction, width, height))
		for i, child := range c.Children {
			if c.Direction == layout.Horizontal {
				paneSizes(child, sizes[i], height, out)
			} else {
				paneSizes(child, width, sizes[i], out)
			}
		}
	case layout.KindTabbed:
		for _, child := range c.Children {
			paneSizes(child, width, height-1, out)
		}
	}
}

package shell

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	xansi "github.com/charmbracelet/x/ansi"
)

const helpMarkdown = `# tui-shell

All commands start with the prefix key (default ` + "`ctrl+space`" + `).
Tap the prefix twice to send it to the focused app.

## Panes
| Key | Action |
| --- | ------ |
| s | split horizontally |
| v | split vertically |
| x | close focused pane |
| arrows | move focus |
| + / - | resize split |

## Workspaces
| Key | Action |
| --- | ------ |
| n / p | next / previous workspace |
| 1-9 | switch to workspace |

## Apps & session
| Key | Action |
| --- | ------ |
| a | open launcher |
| ] / [ | next / previous app |
| c | close focused app |
| w | save session |
| m | toggle notifications |
| ? | this help |
| q | quit |
`

var (
	helpMu        sync.Mutex
	helpRenderers = map[int]*glamour.TermRenderer{}
)

// renderHelp renders the help text for the given width. Falls back to
// raw markdown when the renderer cannot be built.
func renderHelp(width int) string {
	if width <= 0 {
		width = 80
	}
	r := helpRenderer(width)
	if r == nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	out = strings.TrimRight(out, "\n")
	return strings.TrimRight(xansi.Hardwrap(out, width, true), "\n")
}

func helpRenderer(width int) *glamour.TermRenderer {
	helpMu.Lock()
	defer helpMu.Unlock()
	if r, ok := helpRenderers[width]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	helpRenderers[width] = r
	return r
}

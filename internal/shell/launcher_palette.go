package shell

import (
	"strings"

	"charm.land/bubbles/v2/list"
	tea "charm.land/bubbletea/v2"

	"tuishell/internal/launcher"
)

type launcherItem struct {
	entry launcher.Entry
}

func (i launcherItem) Title() string {
	if i.entry.Manifest.DisplayName != "" {
		return i.entry.Manifest.DisplayName
	}
	return i.entry.Manifest.Name
}

func (i launcherItem) Description() string {
	desc := i.entry.Manifest.Description
	if i.entry.Category != "" {
		if desc != "" {
			return i.entry.Category + " · " + desc
		}
		return i.entry.Category
	}
	return desc
}

func (i launcherItem) FilterValue() string {
	parts := []string{i.entry.Manifest.Name, i.entry.Manifest.DisplayName, i.entry.Category}
	parts = append(parts, i.entry.Manifest.Keywords...)
	return strings.Join(parts, " ")
}

// LauncherPalette is the app-picker overlay, fed from the launcher
// catalog with its recents listed first.
type LauncherPalette struct {
	list   list.Model
	active bool
}

func NewLauncherPalette(width, height int) *LauncherPalette {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), width, height)
	l.Title = "Launch app"
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.SetShowStatusBar(false)
	return &LauncherPalette{list: l}
}

func (p *LauncherPalette) IsOpen() bool {
	return p != nil && p.active
}

// Open fills the palette: recents first, then the rest of the catalog.
func (p *LauncherPalette) Open(catalog *launcher.Launcher) {
	recents, _ := catalog.Recents(5)
	seen := map[string]struct{}{}
	items := make([]list.Item, 0, len(recents))
	for _, entry := range recents {
		seen[entry.Manifest.Name] = struct{}{}
		items = append(items, launcherItem{entry: entry})
	}
	for _, entry := range catalog.Entries() {
		if _, ok := seen[entry.Manifest.Name]; ok {
			continue
		}
		items = append(items, launcherItem{entry: entry})
	}
	p.list.SetItems(items)
	p.list.ResetFilter()
	p.list.Select(0)
	p.active = true
}

func (p *LauncherPalette) Close() {
	p.active = false
}

func (p *LauncherPalette) SetSize(width, height int) {
	p.list.SetSize(width, height)
}

// Update routes keys into the list. It reports a selection when the user
// hits enter, or handled=false for keys the palette does not own.
func (p *LauncherPalette) Update(msg tea.Msg) (tea.Cmd, *launcher.Entry, bool) {
	if !p.active {
		return nil, nil, false
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			if p.list.FilterState() == list.Unfiltered {
				p.Close()
				return nil, nil, true
			}
		case "enter":
			if item, ok := p.list.SelectedItem().(launcherItem); ok {
				entry := item.entry
				p.Close()
				return nil, &entry, true
			}
			return nil, nil, true
		}
	}
	updated, cmd := p.list.Update(msg)
	p.list = updated
	return cmd, nil, true
}

func (p *LauncherPalette) View() string {
	if !p.active {
		return ""
	}
	return p.list.View()
}

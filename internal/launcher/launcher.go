// Package launcher maintains the catalog of launchable apps for the
// shell's launcher palette, including recents and frequents backed by the
// history store.
package launcher

import (
	"sort"
	"strings"
	"time"

	"tuishell/internal/store"
	"tuishell/internal/supervisor"
)

// Entry is one catalog row: an app manifest plus launcher-only metadata.
type Entry struct {
	Manifest supervisor.Manifest
	Category string
}

type Launcher struct {
	entries map[string]Entry
	recents store.RecentStore
	now     func() time.Time
}

// New builds a launcher. recents may be nil, in which case launch history
// is kept only for the lifetime of the process (not recorded).
func New(recents store.RecentStore) *Launcher {
	return &Launcher{
		entries: make(map[string]Entry),
		recents: recents,
		now:     time.Now,
	}
}

func (l *Launcher) Register(entry Entry) {
	l.entries[entry.Manifest.Name] = entry
}

func (l *Launcher) Get(name string) (Entry, bool) {
	entry, ok := l.entries[name]
	return entry, ok
}

// Entries returns the catalog sorted by display name.
func (l *Launcher) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return displayName(out[i]) < displayName(out[j])
	})
	return out
}

// Categories returns the distinct category names, sorted.
func (l *Launcher) Categories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, entry := range l.entries {
		category := strings.TrimSpace(entry.Category)
		if category == "" {
			continue
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Filter returns entries whose name, display name, description,
// category, or keywords contain the query, case-insensitively. An empty
// query matches everything.
func (l *Launcher) Filter(query string) []Entry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return l.Entries()
	}
	var out []Entry
	for _, entry := range l.Entries() {
		fields := []string{
			entry.Manifest.Name,
			entry.Manifest.DisplayName,
			entry.Manifest.Description,
			entry.Category,
		}
		fields = append(fields, entry.Manifest.Keywords...)
		haystack := strings.ToLower(strings.Join(fields, " "))
		if strings.Contains(haystack, query) {
			out = append(out, entry)
		}
	}
	return out
}

// RecordLaunch notes a successful launch in the history store.
func (l *Launcher) RecordLaunch(name string) error {
	if l.recents == nil {
		return nil
	}
	return l.recents.RecordLaunch(name, l.now())
}

// Recents returns known catalog entries in most-recently-launched order.
// Apps that have vanished from the catalog are skipped.
func (l *Launcher) Recents(limit int) ([]Entry, error) {
	return l.history(limit, func(r store.RecentStore) ([]store.RecentEntry, error) {
		return r.Recents(limit)
	})
}

// Frequents returns known catalog entries in most-launched order.
func (l *Launcher) Frequents(limit int) ([]Entry, error) {
	return l.history(limit, func(r store.RecentStore) ([]store.RecentEntry, error) {
		return r.Frequents(limit)
	})
}

func (l *Launcher) history(limit int, fetch func(store.RecentStore) ([]store.RecentEntry, error)) ([]Entry, error) {
	if l.recents == nil {
		return nil, nil
	}
	records, err := fetch(l.recents)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, record := range records {
		if entry, ok := l.entries[record.AppName]; ok {
			out = append(out, entry)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func displayName(entry Entry) string {
	if entry.Manifest.DisplayName != "" {
		return entry.Manifest.DisplayName
	}
	return entry.Manifest.Name
}

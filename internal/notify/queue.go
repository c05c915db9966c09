package notify

import "time"

// Config controls what the queue shows and for how long.
type Config struct {
	ShowLevel       Level            `toml:"show_level"`
	MaxVisible      int              `toml:"max_visible"`
	MaxHistory      int              `toml:"max_history"`
	AutoDismissSecs map[string]int64 `toml:"auto_dismiss_secs"`
}

func DefaultConfig() Config {
	return Config{
		ShowLevel:  LevelInfo,
		MaxVisible: 3,
		MaxHistory: 100,
		AutoDismissSecs: map[string]int64{
			string(LevelInfo):    5,
			string(LevelSuccess): 5,
			string(LevelWarning): 10,
			string(LevelError):   0,
		},
	}
}

// Queue orders notifications by priority and ages them out per level.
type Queue struct {
	items    []Notification
	config   Config
	expanded bool
	nextID   ID
	now      func() time.Time
}

func NewQueue(config Config) *Queue {
	if config.MaxVisible <= 0 {
		config.MaxVisible = 3
	}
	if config.MaxHistory <= 0 {
		config.MaxHistory = 100
	}
	return &Queue{config: config, nextID: 1, now: time.Now}
}

// Push assigns an id and inserts by priority, highest first. Oldest
// low-priority entries fall off once the history cap is hit.
func (q *Queue) Push(n Notification) ID {
	n.ID = q.nextID
	q.nextID++
	if n.Priority == 0 {
		n.Priority = n.Level.Priority()
	}

	pos := len(q.items)
	for i, existing := range q.items {
		if existing.Priority < n.Priority {
			pos = i
			break
		}
	}
	q.items = append(q.items, Notification{})
	copy(q.items[pos+1:], q.items[pos:])
	q.items[pos] = n

	if len(q.items) > q.config.MaxHistory {
		q.items = q.items[:q.config.MaxHistory]
	}
	return n.ID
}

func (q *Queue) Dismiss(id ID) {
	kept := q.items[:0]
	for _, n := range q.items {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	q.items = kept
}

func (q *Queue) DismissAll() {
	q.items = q.items[:0]
}

func (q *Queue) TogglePanel() {
	q.expanded = !q.expanded
}

func (q *Queue) IsExpanded() bool {
	return q.expanded
}

// Visible returns the notifications the marquee shows, filtered by the
// configured minimum level and capped at MaxVisible.
func (q *Queue) Visible() []Notification {
	min := q.config.ShowLevel.Priority()
	out := make([]Notification, 0, q.config.MaxVisible)
	for _, n := range q.items {
		if n.Level.Priority() < min {
			continue
		}
		out = append(out, n)
		if len(out) == q.config.MaxVisible {
			break
		}
	}
	return out
}

func (q *Queue) History() []Notification {
	return append([]Notification(nil), q.items...)
}

func (q *Queue) Count() int {
	return len(q.items)
}

func (q *Queue) Latest() (Notification, bool) {
	if len(q.items) == 0 {
		return Notification{}, false
	}
	return q.items[0], true
}

// ProcessAutoDismiss drops notifications older than their level's dismiss
// window. A window of zero means the notification never expires.
func (q *Queue) ProcessAutoDismiss() {
	now := q.now()
	kept := q.items[:0]
	for _, n := range q.items {
		secs := q.config.AutoDismissSecs[string(n.Level)]
		if secs == 0 || now.Sub(n.Timestamp) < time.Duration(secs)*time.Second {
			kept = append(kept, n)
		}
	}
	q.items = kept
}

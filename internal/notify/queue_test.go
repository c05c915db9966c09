package notify

import (
	"testing"
	"time"
)

func TestNotificationConstructors(t *testing.T) {
	n := Info("test-app", "Hello")
	if n.Source != "test-app" || n.Message != "Hello" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if n.Level != LevelInfo {
		t.Fatalf("expected info level, got %q", n.Level)
	}
	if n.Priority != LevelInfo.Priority() {
		t.Fatalf("expected default priority")
	}
	if Error("a", "b").Priority <= Info("a", "b").Priority {
		t.Fatalf("error must outrank info")
	}
}

func TestQueuePushAndCount(t *testing.T) {
	q := NewQueue(DefaultConfig())
	if q.Count() != 0 {
		t.Fatalf("new queue should be empty")
	}
	q.Push(Info("app", "Test"))
	if q.Count() != 1 {
		t.Fatalf("expected 1 notification, got %d", q.Count())
	}
	if _, ok := q.Latest(); !ok {
		t.Fatalf("expected latest notification")
	}
}

func TestQueuePriorityOrdering(t *testing.T) {
	q := NewQueue(DefaultConfig())
	q.Push(Info("app", "Info"))
	q.Push(Error("app", "Error"))
	q.Push(Warning("app", "Warning"))

	visible := q.Visible()
	if len(visible) != 3 {
		t.Fatalf("expected 3 visible, got %d", len(visible))
	}
	if visible[0].Level != LevelError || visible[1].Level != LevelWarning {
		t.Fatalf("unexpected order: %v %v", visible[0].Level, visible[1].Level)
	}
}

func TestQueueDismiss(t *testing.T) {
	q := NewQueue(DefaultConfig())
	id := q.Push(Info("app", "Test"))
	q.Dismiss(id)
	if q.Count() != 0 {
		t.Fatalf("expected empty queue after dismiss")
	}

	q.Push(Info("app", "a"))
	q.Push(Info("app", "b"))
	q.DismissAll()
	if q.Count() != 0 {
		t.Fatalf("expected empty queue after dismiss all")
	}
}

func TestQueueHistoryCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistory = 3
	q := NewQueue(cfg)
	for i := 0; i < 5; i++ {
		q.Push(Info("app", "msg"))
	}
	if q.Count() != 3 {
		t.Fatalf("expected history capped at 3, got %d", q.Count())
	}
}

func TestQueueVisibleFiltersLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShowLevel = LevelWarning
	q := NewQueue(cfg)
	q.Push(Info("app", "quiet"))
	q.Push(Error("app", "loud"))

	visible := q.Visible()
	if len(visible) != 1 || visible[0].Level != LevelError {
		t.Fatalf("expected only error visible, got %+v", visible)
	}
}

func TestAutoDismiss(t *testing.T) {
	q := NewQueue(DefaultConfig())
	base := time.Now()
	q.now = func() time.Time { return base }

	old := Info("app", "old")
	old.Timestamp = base.Add(-10 * time.Second)
	fresh := Info("app", "fresh")
	fresh.Timestamp = base.Add(-1 * time.Second)
	sticky := Error("app", "sticky")
	sticky.Timestamp = base.Add(-time.Hour)

	q.Push(old)
	q.Push(fresh)
	q.Push(sticky)
	q.ProcessAutoDismiss()

	if q.Count() != 2 {
		t.Fatalf("expected 2 notifications after dismiss, got %d", q.Count())
	}
	for _, n := range q.History() {
		if n.Message == "old" {
			t.Fatalf("expired info notification should be gone")
		}
	}
}

func TestTogglePanel(t *testing.T) {
	q := NewQueue(DefaultConfig())
	if q.IsExpanded() {
		t.Fatalf("panel starts collapsed")
	}
	q.TogglePanel()
	if !q.IsExpanded() {
		t.Fatalf("panel should expand")
	}
}

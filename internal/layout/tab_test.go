package layout

import "testing"

func TestTabNew(t *testing.T) {
	tab := NewTab(1, "app1", "App 1")
	if tab.ID != 1 {
		t.Fatalf("expected tab id 1, got %d", tab.ID)
	}
	if tab.Title() != "App 1" {
		t.Fatalf("expected title %q, got %q", "App 1", tab.Title())
	}
	if tab.Pinned {
		t.Fatalf("new tab should not be pinned")
	}
}

func TestTabSplitFocusesNewPane(t *testing.T) {
	tab := NewTab(1, "app1", "App 1")
	tab.Split(Horizontal, "app2", "App 2")

	if tab.Root.Kind != KindSplit {
		t.Fatalf("expected split root, got %q", tab.Root.Kind)
	}
	if tab.Root.Direction != Horizontal {
		t.Fatalf("expected horizontal split")
	}
	if tab.Root.Focused != 1 {
		t.Fatalf("expected focus on new pane, got %d", tab.Root.Focused)
	}
	if tab.Title() != "App 2" {
		t.Fatalf("expected focused title %q, got %q", "App 2", tab.Title())
	}
	if err := tab.Root.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSplitThenCloseRestoresLeaf(t *testing.T) {
	tab := NewTab(1, "app1", "App 1")
	tab.Split(Horizontal, "app2", "App 2")

	if !tab.CloseFocusedPane() {
		t.Fatalf("expected close to collapse the split")
	}
	if !tab.Root.IsLeaf() {
		t.Fatalf("expected single leaf after close, got %q", tab.Root.Kind)
	}
	if tab.Title() != "App 1" {
		t.Fatalf("expected surviving sibling title %q, got %q", "App 1", tab.Title())
	}
}

func TestCloseOnLeafIsRejected(t *testing.T) {
	tab := NewTab(1, "app1", "App 1")
	if tab.CloseFocusedPane() {
		t.Fatalf("leaf has nothing to close into")
	}
	if tab.Title() != "App 1" {
		t.Fatalf("leaf must be unchanged")
	}
}

func TestFocusPaneOnlyTogglesMatchingDirection(t *testing.T) {
	tab := NewTab(1, "app1", "App 1")
	tab.Split(Vertical, "app2", "App 2")

	tab.FocusPane(Horizontal)
	if tab.Root.Focused != 1 {
		t.Fatalf("mismatched direction must not change focus")
	}

	tab.FocusPane(Vertical)
	if tab.Root.Focused != 0 {
		t.Fatalf("expected focus toggled to 0, got %d", tab.Root.Focused)
	}
	tab.FocusPane(Vertical)
	if tab.Root.Focused != 1 {
		t.Fatalf("expected focus toggled back to 1, got %d", tab.Root.Focused)
	}
	if tab.FocusedName() != "app2" {
		t.Fatalf("expected focused name app2, got %q", tab.FocusedName())
	}
}

func TestResizeSplitClampsRatio(t *testing.T) {
	deltas := []float64{0.1, -0.5, 5.0, -5.0, 0.0, 0.3, -0.01, 100, -100}

	tab := NewTab(1, "app1", "App 1")
	tab.Split(Vertical, "app2", "App 2")

	for _, delta := range deltas {
		tab.ResizeSplit(delta)
		r := tab.Root.Ratios[0]
		if r < MinRatio || r > MaxRatio {
			t.Fatalf("delta %f produced ratio %f outside [%f, %f]", delta, r, MinRatio, MaxRatio)
		}
		if got := tab.Root.Ratios[0] + tab.Root.Ratios[1]; got < 0.999 || got > 1.001 {
			t.Fatalf("ratios no longer sum to 1: %f", got)
		}
	}
}

func TestResizeSplitOnLeafIsNoop(t *testing.T) {
	tab := NewTab(1, "app1", "App 1")
	tab.ResizeSplit(0.3)
	if tab.Root.Kind != KindApp {
		t.Fatalf("leaf must be unchanged")
	}
}

func TestWorkspaceMembership(t *testing.T) {
	ws := NewWorkspace(1, "main")
	if !ws.IsEmpty() {
		t.Fatalf("new workspace should be empty")
	}

	ws.AddApp(100)
	ws.AddApp(200)
	ws.AddApp(100)
	if ws.AppCount() != 2 {
		t.Fatalf("expected 2 apps, got %d", ws.AppCount())
	}
	if !ws.Contains(100) {
		t.Fatalf("expected workspace to contain app 100")
	}

	ws.RemoveApp(100)
	if ws.Contains(100) {
		t.Fatalf("expected app 100 removed")
	}

	ws.Root = NewApp(1, "editor", "Editor")
	if ws.IsEmpty() {
		t.Fatalf("workspace with app root is not empty")
	}
}

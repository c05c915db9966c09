package shell

import (
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestCrashDialogChoices(t *testing.T) {
	d := NewCrashDialog()
	if d.IsOpen() {
		t.Fatalf("new dialog must be closed")
	}
	d.Open(7, "Editor", 2)
	if !d.IsOpen() || d.AppID() != 7 {
		t.Fatalf("dialog did not open for app 7")
	}

	handled, choice := d.HandleKey(keyPress('y'))
	if !handled || choice != crashChoiceRestart {
		t.Fatalf("'y' should restart, got %v", choice)
	}

	handled, choice = d.HandleKey(keyPress('n'))
	if !handled || choice != crashChoiceDismiss {
		t.Fatalf("'n' should dismiss, got %v", choice)
	}
}

func TestCrashDialogEnterFollowsSelection(t *testing.T) {
	d := NewCrashDialog()
	d.Open(1, "Files", 1)

	if _, choice := d.HandleKey(tea.KeyPressMsg{Code: tea.KeyEnter}); choice != crashChoiceRestart {
		t.Fatalf("default selection is restart, got %v", choice)
	}

	d.HandleKey(tea.KeyPressMsg{Code: tea.KeyTab})
	if _, choice := d.HandleKey(tea.KeyPressMsg{Code: tea.KeyEnter}); choice != crashChoiceDismiss {
		t.Fatalf("tab should move selection to dismiss, got %v", choice)
	}
}

func TestCrashDialogViewNamesApp(t *testing.T) {
	d := NewCrashDialog()
	d.Open(3, "Monitor", 3)
	view, _ := d.View(80, 24)
	if !containsPlain(view, "Monitor") || !containsPlain(view, "3 crashes") {
		t.Fatalf("dialog view missing context: %q", view)
	}
}

package supervisor

import (
	"errors"
	"testing"
	"time"

	"tuishell/internal/layout"
)

// fakeClock drives the manager's time without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(policy CrashPolicy) (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(policy, nil)
	m.now = clock.now
	m.start = func(h *Handle, args []string) (*startedProcess, error) {
		return &startedProcess{pid: 12345, wait: func() error {
			select {} // fake process never exits on its own
		}}, nil
	}
	return m, clock
}

func editorManifest() Manifest {
	return Manifest{Name: "editor", DisplayName: "Editor", Command: "tui-editor", AutoRestart: true}
}

func TestLaunchUnknownApp(t *testing.T) {
	m, _ := newTestManager(DefaultCrashPolicy())
	if _, err := m.Launch("ghost", nil); !errors.Is(err, ErrUnknownApp) {
		t.Fatalf("expected ErrUnknownApp, got %v", err)
	}
}

func TestLaunchAssignsIDsAndFocus(t *testing.T) {
	m, _ := newTestManager(DefaultCrashPolicy())
	m.Register(editorManifest())
	m.Register(Manifest{Name: "files", Command: "tui-files"})

	first, err := m.Launch("editor", nil)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	second, err := m.Launch("files", nil)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if first == second {
		t.Fatalf("ids must be unique")
	}

	focused, ok := m.Focused()
	if !ok || focused != first {
		t.Fatalf("first launch should take focus, got %d", focused)
	}

	h, ok := m.Get(first)
	if !ok || h.State != StateRunning {
		t.Fatalf("expected running handle, got %+v", h)
	}
}

func TestSingletonConflict(t *testing.T) {
	m, _ := newTestManager(DefaultCrashPolicy())
	m.Register(Manifest{Name: "monitor", Command: "tui-monitor", Singleton: true})

	if _, err := m.Launch("monitor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if _, err := m.Launch("monitor", nil); !errors.Is(err, ErrAppAlreadyRunning) {
		t.Fatalf("expected ErrAppAlreadyRunning, got %v", err)
	}
}

func TestLaunchFailureNotRetried(t *testing.T) {
	m, _ := newTestManager(DefaultCrashPolicy())
	m.Register(editorManifest())
	m.start = func(*Handle, []string) (*startedProcess, error) {
		return nil, errors.New("no such binary")
	}

	if _, err := m.Launch("editor", nil); !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("expected ErrLaunchFailed, got %v", err)
	}
	if m.Count() != 0 {
		t.Fatalf("failed launch must not leave a handle")
	}
	if due := m.DueRestarts(); len(due) != 0 {
		t.Fatalf("launch failures are not restarted: %v", due)
	}
}

func TestSpawnFailureReleasesBoundResources(t *testing.T) {
	m, _ := newTestManager(DefaultCrashPolicy())
	m.Register(editorManifest())

	var bound, released []layout.AppID
	m.BeforeSpawn = func(h *Handle) error {
		bound = append(bound, h.ID)
		return nil
	}
	m.SpawnFailed = func(h *Handle) {
		released = append(released, h.ID)
	}
	m.start = func(*Handle, []string) (*startedProcess, error) {
		return nil, errors.New("no such binary")
	}

	if _, err := m.Launch("editor", nil); !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("expected ErrLaunchFailed, got %v", err)
	}
	if len(bound) != 1 || len(released) != 1 || bound[0] != released[0] {
		t.Fatalf("every bind must be released on failure: bound=%v released=%v", bound, released)
	}
}

func TestSpawnFailedSkippedWhenBeforeSpawnFails(t *testing.T) {
	m, _ := newTestManager(DefaultCrashPolicy())
	m.Register(editorManifest())

	m.BeforeSpawn = func(*Handle) error { return errors.New("bind failed") }
	called := false
	m.SpawnFailed = func(*Handle) { called = true }

	if _, err := m.Launch("editor", nil); !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("expected ErrLaunchFailed, got %v", err)
	}
	if called {
		t.Fatalf("nothing was bound, nothing to release")
	}
}

func TestBackoffDelaySequence(t *testing.T) {
	policy := DefaultCrashPolicy()
	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
		30000 * time.Millisecond,
		30000 * time.Millisecond,
	}
	for i, expect := range want {
		if got := policy.BackoffDelay(i + 1); got != expect {
			t.Fatalf("failure %d: expected %v, got %v", i+1, expect, got)
		}
	}
}

func crash(t *testing.T, m *Manager, id layout.AppID) {
	t.Helper()
	m.exits <- exitEvent{id: id, code: 1}
	crashed := m.Reconcile()
	if len(crashed) != 1 || crashed[0] != id {
		t.Fatalf("expected crash of %d, got %v", id, crashed)
	}
}

func TestCrashIncrementsFailuresAndSchedulesRestart(t *testing.T) {
	policy := DefaultCrashPolicy()
	policy.ShowDialog = false
	m, clock := newTestManager(policy)
	m.Register(editorManifest())

	id, err := m.Launch("editor", nil)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	crash(t, m, id)

	h, _ := m.Get(id)
	if h.State != StateCrashed || h.ConsecutiveFailures != 1 {
		t.Fatalf("unexpected handle after crash: %+v", h)
	}

	// Still in backoff: not due yet, and relaunch refuses.
	if due := m.DueRestarts(); len(due) != 0 {
		t.Fatalf("restart before backoff elapsed: %v", due)
	}
	if err := m.Relaunch(id); !errors.Is(err, ErrNotRestartable) {
		t.Fatalf("expected ErrNotRestartable during backoff, got %v", err)
	}

	clock.advance(1100 * time.Millisecond)
	due := m.DueRestarts()
	if len(due) != 1 || due[0] != id {
		t.Fatalf("expected %d due, got %v", id, due)
	}
	if err := m.Relaunch(id); err != nil {
		t.Fatalf("relaunch: %v", err)
	}
	if h.State != StateRunning {
		t.Fatalf("expected running after relaunch, got %s", h.State)
	}
}

func TestBackoffDoublesAcrossCrashes(t *testing.T) {
	policy := DefaultCrashPolicy()
	policy.ShowDialog = false
	m, clock := newTestManager(policy)
	m.Register(editorManifest())

	id, _ := m.Launch("editor", nil)
	delays := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, delay := range delays {
		crash(t, m, id)
		h, _ := m.Get(id)
		if got := h.NextAllowedRestart.Sub(clock.now()); got != delay {
			t.Fatalf("crash %d: expected delay %v, got %v", i+1, delay, got)
		}
		clock.advance(delay + time.Millisecond)
		if err := m.Relaunch(id); err != nil {
			t.Fatalf("relaunch %d: %v", i+1, err)
		}
	}
}

func TestStabilityResetAfterQuietPeriod(t *testing.T) {
	policy := DefaultCrashPolicy()
	policy.ShowDialog = false
	m, clock := newTestManager(policy)
	m.Register(editorManifest())

	id, _ := m.Launch("editor", nil)
	crash(t, m, id)
	clock.advance(2 * time.Second)
	if err := m.Relaunch(id); err != nil {
		t.Fatalf("relaunch: %v", err)
	}

	// Run past the stability window, then crash again: back to the
	// initial delay.
	clock.advance(policy.StabilityWindow() + time.Second)
	m.Reconcile()
	crash(t, m, id)
	h, _ := m.Get(id)
	if h.ConsecutiveFailures != 1 {
		t.Fatalf("expected failure count reset, got %d", h.ConsecutiveFailures)
	}
}

func TestCleanExitStopsWithoutRestart(t *testing.T) {
	policy := DefaultCrashPolicy()
	policy.ShowDialog = false
	m, clock := newTestManager(policy)
	m.Register(editorManifest())

	id, _ := m.Launch("editor", nil)
	m.exits <- exitEvent{id: id, code: 0}
	if crashed := m.Reconcile(); len(crashed) != 0 {
		t.Fatalf("clean exit is not a crash: %v", crashed)
	}
	h, _ := m.Get(id)
	if h.State != StateStopped {
		t.Fatalf("expected stopped, got %s", h.State)
	}
	clock.advance(time.Minute)
	if due := m.DueRestarts(); len(due) != 0 {
		t.Fatalf("stopped apps must stay stopped: %v", due)
	}
}

func TestCrashDialogGatesRestart(t *testing.T) {
	m, clock := newTestManager(DefaultCrashPolicy())
	m.Register(editorManifest())

	id, _ := m.Launch("editor", nil)
	crash(t, m, id)

	pending := m.PendingCrashes()
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("expected pending crash dialog, got %v", pending)
	}

	clock.advance(time.Minute)
	if due := m.DueRestarts(); len(due) != 0 {
		t.Fatalf("restart must wait for the user's decision: %v", due)
	}

	if err := m.ConfirmRestart(id, true); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	due := m.DueRestarts()
	if len(due) != 1 || due[0] != id {
		t.Fatalf("expected restart after confirmation, got %v", due)
	}
}

func TestConfirmedRestartIgnoresAutoRestartFlag(t *testing.T) {
	m, clock := newTestManager(DefaultCrashPolicy())
	m.Register(Manifest{Name: "files", Command: "tui-files"}) // auto_restart off

	id, _ := m.Launch("files", nil)
	crash(t, m, id)
	if err := m.ConfirmRestart(id, true); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	clock.advance(2 * time.Second)
	due := m.DueRestarts()
	if len(due) != 1 || due[0] != id {
		t.Fatalf("user approval must allow the restart, got %v", due)
	}
	if err := m.Relaunch(id); err != nil {
		t.Fatalf("relaunch: %v", err)
	}

	// Approval covers one restart only.
	crash(t, m, id)
	if err := m.ConfirmRestart(id, false); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	clock.advance(time.Minute)
	if due := m.DueRestarts(); len(due) != 0 {
		t.Fatalf("declined crash must not restart: %v", due)
	}
}

func TestCrashDialogDecline(t *testing.T) {
	m, _ := newTestManager(DefaultCrashPolicy())
	m.Register(editorManifest())

	id, _ := m.Launch("editor", nil)
	crash(t, m, id)
	if err := m.ConfirmRestart(id, false); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	h, _ := m.Get(id)
	if h.State != StateStopped {
		t.Fatalf("declined restart must stop the app, got %s", h.State)
	}
}

func TestAutoRestartDefaultSkipsDialog(t *testing.T) {
	policy := DefaultCrashPolicy()
	policy.AutoRestartDefault = true
	m, clock := newTestManager(policy)
	m.Register(Manifest{Name: "clock", Command: "tui-clock"}) // no per-app auto_restart

	id, _ := m.Launch("clock", nil)
	crash(t, m, id)
	if len(m.PendingCrashes()) != 0 {
		t.Fatalf("auto_restart_default must bypass the dialog")
	}
	clock.advance(2 * time.Second)
	if due := m.DueRestarts(); len(due) != 1 {
		t.Fatalf("expected auto restart, got %v", due)
	}
}

func TestKillRemovesAndRefocuses(t *testing.T) {
	m, _ := newTestManager(DefaultCrashPolicy())
	m.Register(editorManifest())
	m.Register(Manifest{Name: "files", Command: "tui-files"})

	first, _ := m.Launch("editor", nil)
	second, _ := m.Launch("files", nil)
	if err := m.Focus(second); err != nil {
		t.Fatalf("focus: %v", err)
	}

	if err := m.Kill(second); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if _, ok := m.Get(second); ok {
		t.Fatalf("killed app must be removed")
	}
	focused, ok := m.Focused()
	if !ok || focused != first {
		t.Fatalf("focus should fall back to most recent app, got %d", focused)
	}

	if err := m.Kill(second); !errors.Is(err, ErrAppNotFound) {
		t.Fatalf("expected ErrAppNotFound, got %v", err)
	}
}

func TestFocusHistoryOrder(t *testing.T) {
	m, _ := newTestManager(DefaultCrashPolicy())
	m.Register(editorManifest())
	m.Register(Manifest{Name: "files", Command: "tui-files"})
	m.Register(Manifest{Name: "logs", Command: "tui-logs"})

	a, _ := m.Launch("editor", nil)
	b, _ := m.Launch("files", nil)
	c, _ := m.Launch("logs", nil)

	m.Focus(b)
	m.Focus(a)
	history := m.FocusHistory()
	want := []layout.AppID{c, b, a}
	if len(history) != 3 {
		t.Fatalf("unexpected history length: %v", history)
	}
	for i, id := range want {
		if history[i] != id {
			t.Fatalf("history[%d]: expected %d, got %d (%v)", i, id, history[i], history)
		}
	}
}

func TestWorkspaceMembership(t *testing.T) {
	m, _ := newTestManager(DefaultCrashPolicy())
	m.Register(editorManifest())

	id, _ := m.Launch("editor", nil)
	m.AddToWorkspace(id, 1)
	m.AddToWorkspace(id, 3)
	h, _ := m.Get(id)
	if len(h.Workspaces) != 2 {
		t.Fatalf("expected two memberships, got %v", h.Workspaces)
	}
	m.RemoveFromWorkspace(id, 1)
	if _, ok := h.Workspaces[1]; ok {
		t.Fatalf("membership not removed")
	}
}

package shell

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	xansi "github.com/charmbracelet/x/ansi"

	"tuishell/internal/config"
	"tuishell/internal/ipc"
	"tuishell/internal/launcher"
	"tuishell/internal/layout"
	"tuishell/internal/session"
	"tuishell/internal/supervisor"
	"tuishell/internal/workspace"
)

// testModel builds a model around real processes (sleep) so launches and
// kills exercise the supervisor end to end. Sockets land in a temp
// runtime dir.
func testModel(t *testing.T, cfg config.ShellConfig) *Model {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	manifests := []supervisor.Manifest{
		{Name: "editor", DisplayName: "Editor", Command: "sleep", Args: []string{"60"}, SupportsSession: true},
		{Name: "files", DisplayName: "Files", Command: "sleep", Args: []string{"60"}},
		{Name: "monitor", DisplayName: "Monitor", Command: "sleep", Args: []string{"60"}, Singleton: true},
	}
	sup := supervisor.NewManager(cfg.CrashPolicy(), nil)
	catalog := launcher.New(nil)
	for _, manifest := range manifests {
		sup.Register(manifest)
		catalog.Register(launcher.Entry{Manifest: manifest})
	}

	m := NewModel(Deps{
		Config:     cfg,
		Supervisor: sup,
		Workspaces: workspace.New(),
		Sessions:   session.NewManager(filepath.Join(t.TempDir(), "session.json"), time.Minute, nil),
		Catalog:    catalog,
	})
	t.Cleanup(func() {
		sup.Shutdown()
		for _, ln := range m.listeners {
			_ = ln.Close()
		}
	})
	return m
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func containsPlain(s, substr string) bool {
	return strings.Contains(xansi.Strip(s), substr)
}

func TestLaunchPlacesFirstPane(t *testing.T) {
	m := testModel(t, config.DefaultShellConfig())

	if err := m.launchApp("editor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}
	tab := m.activeTab()
	if tab == nil || tab.Root.Kind != layout.KindApp || tab.Root.Name != "editor" {
		t.Fatalf("expected editor leaf, got %+v", tab.Root)
	}
	if _, ok := m.supervisor.Focused(); !ok {
		t.Fatalf("first launch must take focus")
	}
}

func TestSplitLaunchAddsPane(t *testing.T) {
	m := testModel(t, config.DefaultShellConfig())
	if err := m.launchApp("editor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}

	dir := layout.Vertical
	m.pendingSplit = &dir
	if err := m.launchApp("files", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}

	tab := m.activeTab()
	root := tab.Root
	if root.Kind != layout.KindSplit || root.Direction != layout.Vertical {
		t.Fatalf("expected vertical split, got %+v", root)
	}
	if len(root.Children) != 2 || tab.FocusedName() != "files" {
		t.Fatalf("new pane must take focus, got %q", tab.FocusedName())
	}
}

func TestCloseFocusedPaneCollapsesAndKills(t *testing.T) {
	m := testModel(t, config.DefaultShellConfig())
	if err := m.launchApp("editor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := m.launchApp("files", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}

	m.closeFocusedPane()
	tab := m.activeTab()
	if tab.Root.Kind != layout.KindApp || tab.Root.Name != "editor" {
		t.Fatalf("expected collapse to editor, got %+v", tab.Root)
	}
	if m.supervisor.Count() != 1 {
		t.Fatalf("closed pane's app must be killed, %d handles left", m.supervisor.Count())
	}
	if _, ok := m.appByName("files"); ok {
		t.Fatalf("files should be gone")
	}
}

func TestCloseLastPaneLeavesEmptyWorkspace(t *testing.T) {
	m := testModel(t, config.DefaultShellConfig())
	if err := m.launchApp("editor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}

	m.closeFocusedPane()
	tab := m.activeTab()
	if !tab.Root.IsEmpty() {
		t.Fatalf("expected empty workspace, got %+v", tab.Root)
	}
	if m.supervisor.Count() != 0 {
		t.Fatalf("no apps should survive, got %d", m.supervisor.Count())
	}
}

func TestPollClosesDroppedChannel(t *testing.T) {
	m := testModel(t, config.DefaultShellConfig())
	if err := m.launchApp("editor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}
	h, ok := m.appByName("editor")
	if !ok {
		t.Fatalf("editor missing")
	}
	ln := m.listeners[h.ID]
	if ln == nil {
		t.Fatalf("socket not bound")
	}

	accepted := make(chan *ipc.Channel, 1)
	go func() {
		ch, err := ln.Accept(2 * time.Second)
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- ch
	}()
	app, err := ipc.Dial(ipc.SocketPath(uint64(h.ID)))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	shellSide := <-accepted
	if shellSide == nil {
		t.Fatalf("accept failed")
	}
	if err := m.supervisor.AttachChannel(h.ID, shellSide); err != nil {
		t.Fatalf("attach: %v", err)
	}

	app.Close()
	m.pollChannels()

	if h.Channel != nil {
		t.Fatalf("dead channel must be dropped")
	}
	// The shell-side conn was closed by the drop, so a second close fails.
	if err := shellSide.Close(); err == nil {
		t.Fatalf("dropping the channel must close the shell-side conn")
	}
}

func TestWorkspaceSwitchSeedsConfiguredApps(t *testing.T) {
	cfg := config.DefaultShellConfig()
	cfg.Workspaces = map[string][]string{"dev": {"editor"}}
	m := testModel(t, cfg)

	id := m.workspaces.Create("dev")
	if !m.workspaces.SwitchTo(id) {
		t.Fatalf("switch failed")
	}
	m.afterWorkspaceSwitch()

	if !m.appRunning("editor") {
		t.Fatalf("configured app must launch on first visit")
	}
	count := m.supervisor.Count()
	m.afterWorkspaceSwitch()
	if m.supervisor.Count() != count {
		t.Fatalf("revisiting must not respawn apps")
	}
}

func TestSingletonLaunchSurfacesError(t *testing.T) {
	m := testModel(t, config.DefaultShellConfig())
	if err := m.launchApp("monitor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := m.launchApp("monitor", nil); err == nil {
		t.Fatalf("second singleton launch must fail")
	}
	tab := m.activeTab()
	if tab.Root.Kind != layout.KindApp {
		t.Fatalf("failed launch must not split the tree: %+v", tab.Root)
	}
}

func TestFailedLaunchLeavesNoListener(t *testing.T) {
	m := testModel(t, config.DefaultShellConfig())
	m.supervisor.Register(supervisor.Manifest{
		Name: "broken", Command: "tui-no-such-binary-anywhere"})

	if err := m.launchApp("broken", nil); err == nil {
		t.Fatalf("launch of a missing binary must fail")
	}
	if len(m.listeners) != 0 {
		t.Fatalf("failed launch must release its socket, %d listeners left", len(m.listeners))
	}
}

func TestBuildAndApplySessionRoundTrip(t *testing.T) {
	m := testModel(t, config.DefaultShellConfig())
	if err := m.launchApp("editor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}
	dir := layout.Horizontal
	m.pendingSplit = &dir
	if err := m.launchApp("files", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}
	m.appStates["editor"] = []byte(`{"cursor":12}`)

	snapshot := m.buildSession()
	if len(snapshot.Apps) != 2 || len(snapshot.Workspaces) == 0 {
		t.Fatalf("incomplete snapshot: %+v", snapshot)
	}
	if snapshot.Focused == nil {
		t.Fatalf("focus must be captured")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("snapshot must serialize: %v", err)
	}

	restored := testModel(t, config.DefaultShellConfig())
	restored.applySession(snapshot)
	tab := restored.activeTab()
	if tab == nil || !tab.Root.ContainsApp("editor") || !tab.Root.ContainsApp("files") {
		t.Fatalf("layout not restored: %s", data)
	}
	if restored.supervisor.Count() != 2 {
		t.Fatalf("apps not relaunched, got %d", restored.supervisor.Count())
	}
	if string(restored.restoreStates["editor"]) != `{"cursor":12}` {
		t.Fatalf("editor state not stashed for restore")
	}
}

func TestPrefixChordOpensLauncher(t *testing.T) {
	cfg := config.DefaultShellConfig()
	cfg.PrefixKey = "ctrl+b"
	m := testModel(t, cfg)

	m.handleKey(tea.KeyPressMsg{Code: 'b', Mod: tea.ModCtrl})
	if !m.prefix.Armed() {
		t.Fatalf("prefix should be armed")
	}
	m.handleKey(keyPress('a'))
	if !m.palette.IsOpen() {
		t.Fatalf("launcher palette should open")
	}
	if m.pendingSplit != nil {
		t.Fatalf("plain launch must not set a split direction")
	}
}

func TestSplitChordSetsPendingDirection(t *testing.T) {
	cfg := config.DefaultShellConfig()
	cfg.PrefixKey = "ctrl+b"
	m := testModel(t, cfg)
	if err := m.launchApp("editor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}

	m.handleKey(tea.KeyPressMsg{Code: 'b', Mod: tea.ModCtrl})
	m.handleKey(keyPress('v'))
	if !m.palette.IsOpen() {
		t.Fatalf("split chord should open the palette")
	}
	if m.pendingSplit == nil || *m.pendingSplit != layout.Vertical {
		t.Fatalf("expected pending vertical split, got %v", m.pendingSplit)
	}
}

func TestResizeChordAdjustsRatios(t *testing.T) {
	m := testModel(t, config.DefaultShellConfig())
	if err := m.launchApp("editor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := m.launchApp("files", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}

	m.resizeFocused(resizeStep)
	root := m.activeTab().Root
	if root.Ratios[0] <= 0.5 {
		t.Fatalf("grow should shift the ratio, got %v", root.Ratios)
	}
	if root.Ratios[0]+root.Ratios[1] < 0.999 {
		t.Fatalf("ratios must stay complementary: %v", root.Ratios)
	}
}

func TestViewRendersAllSections(t *testing.T) {
	m := testModel(t, config.DefaultShellConfig())
	if err := m.launchApp("editor", nil); err != nil {
		t.Fatalf("launch: %v", err)
	}
	m.width, m.height = 80, 24

	view := m.render()
	if view == "" {
		t.Fatalf("view must render")
	}
	// Workspace bar names the default workspace; the pane carries the
	// app's display title.
	for _, want := range []string{"default", "Editor"} {
		if !containsPlain(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

// Package shell is the compositor: one bubbletea program that owns the
// terminal, the workspace/pane state, the app supervisor, and the session
// bookkeeping. All state mutation happens on the program's update loop.
package shell

import (
	"sort"
	"time"

	tea "charm.land/bubbletea/v2"

	"tuishell/internal/config"
	"tuishell/internal/ipc"
	"tuishell/internal/launcher"
	"tuishell/internal/layout"
	"tuishell/internal/logging"
	"tuishell/internal/notify"
	"tuishell/internal/session"
	"tuishell/internal/store"
	"tuishell/internal/supervisor"
	"tuishell/internal/workspace"
)

const (
	tickInterval     = 100 * time.Millisecond
	acceptTimeout    = 5 * time.Second
	saveReplyTimeout = time.Second
	maxMsgsPerTick   = 16
	resizeStep       = 0.05
)

type tickMsg time.Time

type appConnectedMsg struct {
	id  layout.AppID
	ch  *ipc.Channel
	err error
}

// Deps carries everything the model needs; nothing is looked up from
// globals.
type Deps struct {
	Config     config.ShellConfig
	Logger     logging.Logger
	Supervisor *supervisor.Manager
	Workspaces *workspace.Manager
	Sessions   *session.Manager
	Catalog    *launcher.Launcher

	// States optionally caches each app's last reported state in the
	// on-disk store, surviving sessions that were never saved to the
	// session file.
	States store.AppStateStore
}

// pendingSave tracks one in-flight session capture: the apps still owing
// a state reply and the deadline after which the save goes ahead without
// them.
type pendingSave struct {
	waiting  map[layout.AppID]struct{}
	deadline time.Time
	manual   bool
}

type Model struct {
	cfg        config.ShellConfig
	logger     logging.Logger
	supervisor *supervisor.Manager
	workspaces *workspace.Manager
	sessions   *session.Manager
	catalog    *launcher.Launcher
	states     store.AppStateStore

	notifications *notify.Queue
	prefix        *PrefixHandler
	palette       *LauncherPalette
	crashDialog   *CrashDialog

	tabs      map[layout.WorkspaceID]*layout.Tab
	nextTabID layout.TabID

	listeners map[layout.AppID]*ipc.Listener

	// appStates holds the latest state each app reported; restoreStates
	// holds state loaded from disk, keyed by app name, delivered on the
	// app's next connect.
	appStates     map[string][]byte
	restoreStates map[string][]byte

	lastSizes map[layout.AppID]PaneSize
	save      *pendingSave
	deferred  []tea.Cmd

	// pendingSplit holds the split direction while the launcher palette
	// picks the app for the new pane.
	pendingSplit *layout.Direction

	// seeded marks workspaces whose configured app list was already
	// launched, so switching back does not respawn them.
	seeded map[layout.WorkspaceID]bool

	width    int
	height   int
	status   string
	showHelp bool

	now func() time.Time
}

func NewModel(deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	m := &Model{
		cfg:           deps.Config,
		logger:        logger,
		supervisor:    deps.Supervisor,
		workspaces:    deps.Workspaces,
		sessions:      deps.Sessions,
		catalog:       deps.Catalog,
		states:        deps.States,
		notifications: notify.NewQueue(deps.Config.Notifications),
		prefix:        NewPrefixHandler(deps.Config.ResolvedPrefixKey(), deps.Config.PrefixTimeoutDuration()),
		palette:       NewLauncherPalette(40, 14),
		crashDialog:   NewCrashDialog(),
		tabs:          map[layout.WorkspaceID]*layout.Tab{},
		nextTabID:     1,
		listeners:     map[layout.AppID]*ipc.Listener{},
		appStates:     map[string][]byte{},
		restoreStates: map[string][]byte{},
		lastSizes:     map[layout.AppID]PaneSize{},
		seeded:        map[layout.WorkspaceID]bool{},
		width:         80,
		height:        24,
		now:           time.Now,
	}
	m.supervisor.BeforeSpawn = m.bindAppSocket
	m.supervisor.SpawnFailed = m.releaseAppSocket
	return m
}

// Run boots the model and blocks until the program exits.
func Run(deps Deps) error {
	model := NewModel(deps)
	model.Bootstrap()
	p := tea.NewProgram(model)
	_, err := p.Run()
	model.shutdown()
	return err
}

// Bootstrap restores the previous session (when configured), creates the
// configured workspaces, and launches the startup apps.
func (m *Model) Bootstrap() {
	if m.cfg.Session.Enabled && m.cfg.Session.RestoreOnStart {
		if err := m.sessions.Load(); err != nil {
			m.notifyError("session", "restore failed: "+err.Error())
		} else {
			m.applySession(m.sessions.Session())
		}
	}

	names := m.cfg.WorkspaceNames()
	sort.Strings(names)
	for _, name := range names {
		if _, ok := m.workspaces.GetByName(name); !ok {
			m.workspaces.Create(name)
		}
	}

	if ws, ok := m.workspaces.GetByName(m.cfg.Startup.Workspace); ok {
		m.workspaces.SwitchTo(ws.ID)
	}
	m.seedWorkspace(m.workspaces.Active())
	for _, name := range m.cfg.StartupApps() {
		if m.appRunning(name) {
			continue
		}
		if err := m.launchApp(name, nil); err != nil {
			m.notifyError("startup", err.Error())
		}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(append(m.drainDeferred(), tickCmd())...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetSize(min(60, max(20, m.width-8)), max(6, m.height-8))
		m.propagateSizes()
		return m, nil
	case appConnectedMsg:
		m.handleAppConnected(msg)
		return m, nil
	case tickMsg:
		cmds := m.handleTick(time.Time(msg))
		cmds = append(cmds, tickCmd())
		return m, tea.Batch(cmds...)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	if m.palette.IsOpen() {
		cmd, entry, _ := m.palette.Update(msg)
		if entry != nil {
			return m, tea.Batch(cmd, m.completeLaunch(*entry))
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) notifyError(source, message string) {
	m.notifications.Push(notify.Error(source, message))
	m.logger.Error(message, logging.F("source", source))
}

func (m *Model) notifyInfo(source, message string) {
	m.notifications.Push(notify.Info(source, message))
}

func (m *Model) setStatus(status string) {
	m.status = status
}

// activeTab returns the pane tree of the displayed workspace, creating
// one around the workspace's stored tree on first touch.
func (m *Model) activeTab() *layout.Tab {
	ws := m.workspaces.Active()
	if ws == nil {
		return nil
	}
	tab, ok := m.tabs[ws.ID]
	if !ok {
		tab = layout.RestoreTab(m.takeTabID(), ws.Root)
		m.tabs[ws.ID] = tab
	}
	return tab
}

func (m *Model) takeTabID() layout.TabID {
	id := m.nextTabID
	m.nextTabID++
	return id
}

func (m *Model) appRunning(name string) bool {
	_, ok := m.appByName(name)
	return ok
}

func (m *Model) appByName(name string) (*supervisor.Handle, bool) {
	for _, h := range m.supervisor.Apps() {
		if h.Manifest.Name == name && h.State != supervisor.StateStopped {
			return h, true
		}
	}
	return nil, false
}

func (m *Model) markDirty() {
	if m.cfg.Session.Enabled {
		m.syncLayout()
		m.sessions.MarkDirty()
	}
}

// syncLayout mirrors each tab's tree into its workspace record so
// serialization sees the current layout.
func (m *Model) syncLayout() {
	for wsID, tab := range m.tabs {
		if ws, ok := m.workspaces.Get(wsID); ok {
			ws.Root = tab.Root
		}
	}
}

func (m *Model) shutdown() {
	if m.cfg.Session.Enabled {
		m.captureStatesBlocking()
		if err := m.finishSave(); err != nil {
			m.logger.Error("final session save failed", logging.F("err", err.Error()))
		}
	}
	m.supervisor.Shutdown()
	for id, ln := range m.listeners {
		_ = ln.Close()
		delete(m.listeners, id)
	}
	m.logger.Info("shell stopped")
}

// bindAppSocket is the supervisor's BeforeSpawn hook: bind the app's
// socket before the process exists so the app can dial during startup.
func (m *Model) bindAppSocket(h *supervisor.Handle) error {
	if old, ok := m.listeners[h.ID]; ok {
		_ = old.Close()
		delete(m.listeners, h.ID)
	}
	ln, err := ipc.Listen(ipc.SocketPath(uint64(h.ID)))
	if err != nil {
		return err
	}
	m.listeners[h.ID] = ln
	return nil
}

// releaseAppSocket undoes bindAppSocket when the process never started.
func (m *Model) releaseAppSocket(h *supervisor.Handle) {
	if ln, ok := m.listeners[h.ID]; ok {
		_ = ln.Close()
		delete(m.listeners, h.ID)
	}
}

// launchApp starts a registered app, places it in the active workspace's
// pane tree, and records launcher history. The pending split direction,
// when set, decides where the new pane goes.
func (m *Model) launchApp(name string, args []string) error {
	dir := m.pendingSplit
	m.pendingSplit = nil

	id, err := m.supervisor.Launch(name, args)
	if err != nil {
		return err
	}
	if err := m.catalog.RecordLaunch(name); err != nil {
		m.logger.Warn("recent not recorded", logging.F("app", name), logging.F("err", err.Error()))
	}

	title := name
	if entry, ok := m.catalog.Get(name); ok && entry.Manifest.DisplayName != "" {
		title = entry.Manifest.DisplayName
	}

	if ws := m.workspaces.Active(); ws != nil {
		m.workspaces.AddApp(ws.ID, id)
		m.supervisor.AddToWorkspace(id, ws.ID)

		tab := m.activeTab()
		switch {
		case tab.Root.IsEmpty():
			m.tabs[ws.ID] = layout.NewTab(m.takeTabID(), name, title)
		case dir != nil:
			tab.Split(*dir, name, title)
		default:
			tab.Split(layout.Horizontal, name, title)
		}
	}
	m.supervisor.Focus(id)
	m.markDirty()
	m.propagateSizes()
	m.deferCmd(m.acceptCmd(id))
	return nil
}

// deferCmd collects follow-up commands raised while handling a message;
// the caller drains them into one batch.
func (m *Model) deferCmd(cmd tea.Cmd) {
	if cmd != nil {
		m.deferred = append(m.deferred, cmd)
	}
}

func (m *Model) drainDeferred() []tea.Cmd {
	out := m.deferred
	m.deferred = nil
	return out
}

func (m *Model) acceptCmd(id layout.AppID) tea.Cmd {
	ln, ok := m.listeners[id]
	if !ok {
		return nil
	}
	return func() tea.Msg {
		ch, err := ln.Accept(acceptTimeout)
		return appConnectedMsg{id: id, ch: ch, err: err}
	}
}

// completeLaunch finishes a palette selection and hands back the batched
// follow-up commands.
func (m *Model) completeLaunch(entry launcher.Entry) tea.Cmd {
	if err := m.launchApp(entry.Manifest.Name, nil); err != nil {
		m.notifyError("launcher", err.Error())
		return nil
	}
	m.setStatus("launched " + displayTitle(entry))
	return tea.Batch(m.drainDeferred()...)
}

func displayTitle(entry launcher.Entry) string {
	if entry.Manifest.DisplayName != "" {
		return entry.Manifest.DisplayName
	}
	return entry.Manifest.Name
}

func (m *Model) handleAppConnected(msg appConnectedMsg) {
	h, ok := m.supervisor.Get(msg.id)
	if !ok {
		if msg.ch != nil {
			_ = msg.ch.Close()
		}
		return
	}
	if msg.err != nil {
		m.logger.Warn("app never connected",
			logging.F("app", h.Manifest.Name), logging.F("err", msg.err.Error()))
		return
	}
	m.supervisor.AttachChannel(msg.id, msg.ch)

	if size, ok := m.lastSizes[msg.id]; ok {
		msg.ch.Queue(ipc.Resize(size.Width, size.Height))
	}
	if state, ok := m.restoreStates[h.Manifest.Name]; ok {
		msg.ch.Queue(ipc.SessionRestore(state))
		delete(m.restoreStates, h.Manifest.Name)
	}
	if focused, ok := m.supervisor.Focused(); ok && focused == msg.id {
		msg.ch.Queue(ipc.Focus())
	}
	if err := msg.ch.Flush(); err != nil {
		m.logger.Warn("greeting flush failed",
			logging.F("app", h.Manifest.Name), logging.F("err", err.Error()))
	}
}

// propagateSizes recomputes pane sizes for the active workspace and sends
// Resize to every app whose pane changed.
func (m *Model) propagateSizes() {
	tab := m.activeTab()
	if tab == nil {
		return
	}
	sizes := map[string]PaneSize{}
	paneSizes(tab.Root, m.width, m.contentHeight(), sizes)
	for name, size := range sizes {
		h, ok := m.appByName(name)
		if !ok || h.Channel == nil {
			continue
		}
		if prev, ok := m.lastSizes[h.ID]; ok && prev == size {
			continue
		}
		m.lastSizes[h.ID] = size
		if err := h.Channel.Send(ipc.Resize(size.Width, size.Height)); err != nil {
			m.logger.Warn("resize not delivered",
				logging.F("app", name), logging.F("err", err.Error()))
		}
	}
}

// contentHeight is the pane area: total height minus the workspace bar,
// the notification marquee, and the status line.
func (m *Model) contentHeight() int {
	return max(4, m.height-3)
}

// focusApp moves input focus, telling the old app Blur and the new one
// Focus.
func (m *Model) focusApp(id layout.AppID) {
	prev, hadPrev := m.supervisor.Focused()
	if hadPrev && prev == id {
		return
	}
	if hadPrev {
		if h, ok := m.supervisor.Get(prev); ok && h.Channel != nil {
			_ = h.Channel.Send(ipc.Blur())
		}
	}
	if err := m.supervisor.Focus(id); err != nil {
		return
	}
	if h, ok := m.supervisor.Get(id); ok && h.Channel != nil {
		_ = h.Channel.Send(ipc.Focus())
	}
	m.markDirty()
}

// seedWorkspace launches the configured app list for a workspace the
// first time it is shown.
func (m *Model) seedWorkspace(ws *layout.Workspace) {
	if ws == nil || m.seeded[ws.ID] {
		return
	}
	m.seeded[ws.ID] = true
	if !ws.IsEmpty() {
		return
	}
	for _, name := range m.cfg.WorkspaceApps(ws.Name) {
		if m.appRunning(name) {
			continue
		}
		if err := m.launchApp(name, nil); err != nil {
			m.notifyError("workspace", err.Error())
		}
	}
}

package shell

import (
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"tuishell/internal/ipc"
	"tuishell/internal/layout"
	"tuishell/internal/logging"
	"tuishell/internal/notify"
	"tuishell/internal/supervisor"
)

// handleKey routes one keypress through the overlay stack: crash dialog,
// launcher palette, help, then the prefix machine.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	if m.crashDialog.IsOpen() {
		handled, choice := m.crashDialog.HandleKey(msg)
		if handled {
			m.resolveCrashDialog(choice)
			return tea.Batch(m.drainDeferred()...)
		}
		return nil
	}

	if m.palette.IsOpen() {
		cmd, entry, _ := m.palette.Update(msg)
		if entry != nil {
			return tea.Batch(cmd, m.completeLaunch(*entry))
		}
		if !m.palette.IsOpen() {
			m.pendingSplit = nil
		}
		return cmd
	}

	if m.showHelp {
		switch key {
		case "esc", "q", "?":
			m.showHelp = false
		}
		return nil
	}

	if m.notifications.IsExpanded() {
		switch key {
		case "esc":
			m.notifications.TogglePanel()
			return nil
		case "y":
			if latest, ok := m.notifications.Latest(); ok {
				if err := copyTextToClipboard(latest.Message); err != nil {
					m.setStatus("copy failed")
				} else {
					m.setStatus("notification copied")
				}
			}
			return nil
		case "d":
			m.notifications.DismissAll()
			return nil
		}
	}

	action, handled := m.prefix.HandleKey(key, m.now())
	if !handled {
		// Not a shell chord: the focused app owns its own terminal input.
		return nil
	}
	if m.prefix.Armed() {
		m.setStatus("prefix armed")
		return nil
	}
	m.setStatus("")
	return m.dispatch(action)
}

func (m *Model) dispatch(action Action) tea.Cmd {
	tab := m.activeTab()
	switch action {
	case ActionNone, ActionPassPrefix:
		// Double-tapped prefix belongs to the app; nothing for the shell
		// to do with it here.
	case ActionSplitHorizontal:
		m.openSplitPalette(layout.Horizontal)
	case ActionSplitVertical:
		m.openSplitPalette(layout.Vertical)
	case ActionClosePane:
		m.closeFocusedPane()
	case ActionFocusLeft, ActionFocusRight:
		if tab != nil {
			tab.FocusPane(layout.Horizontal)
			m.focusPaneApp(tab)
		}
	case ActionFocusUp, ActionFocusDown:
		if tab != nil {
			tab.FocusPane(layout.Vertical)
			m.focusPaneApp(tab)
		}
	case ActionResizeGrow:
		m.resizeFocused(resizeStep)
	case ActionResizeShrink:
		m.resizeFocused(-resizeStep)
	case ActionNextWorkspace:
		if _, ok := m.workspaces.SwitchNext(); ok {
			m.afterWorkspaceSwitch()
		}
	case ActionPrevWorkspace:
		if _, ok := m.workspaces.SwitchPrev(); ok {
			m.afterWorkspaceSwitch()
		}
	case ActionNextApp:
		m.cycleApp(1)
	case ActionPrevApp:
		m.cycleApp(-1)
	case ActionOpenLauncher:
		m.pendingSplit = nil
		m.palette.Open(m.catalog)
	case ActionKillApp:
		m.killFocusedApp()
	case ActionSaveSession:
		m.requestSave(true)
	case ActionToggleNotifications:
		m.notifications.TogglePanel()
	case ActionShowHelp:
		m.showHelp = true
	case ActionQuit:
		return tea.Quit
	default:
		if idx := WorkspaceIndex(action); idx >= 0 {
			list := m.workspaces.List()
			if idx < len(list) && m.workspaces.SwitchTo(list[idx].ID) {
				m.afterWorkspaceSwitch()
			}
		}
	}
	return tea.Batch(m.drainDeferred()...)
}

func (m *Model) openSplitPalette(dir layout.Direction) {
	d := dir
	m.pendingSplit = &d
	m.palette.Open(m.catalog)
}

func (m *Model) resizeFocused(delta float64) {
	tab := m.activeTab()
	if tab == nil {
		return
	}
	tab.ResizeSplit(delta)
	m.markDirty()
	m.propagateSizes()
}

// cycleApp moves focus through the active workspace's apps in membership
// order.
func (m *Model) cycleApp(step int) {
	ws := m.workspaces.Active()
	if ws == nil || len(ws.Apps) == 0 {
		return
	}
	idx := 0
	if focused, ok := m.supervisor.Focused(); ok {
		for i, id := range ws.Apps {
			if id == focused {
				idx = i
				break
			}
		}
	}
	next := ws.Apps[(idx+step+len(ws.Apps))%len(ws.Apps)]
	m.focusApp(next)
}

// focusPaneApp syncs app focus to whatever pane the tab now focuses.
func (m *Model) focusPaneApp(tab *layout.Tab) {
	name := tab.FocusedName()
	if name == "" {
		return
	}
	if h, ok := m.appByName(name); ok {
		m.focusApp(h.ID)
	}
}

func (m *Model) afterWorkspaceSwitch() {
	ws := m.workspaces.Active()
	m.seedWorkspace(ws)
	if tab := m.activeTab(); tab != nil {
		m.focusPaneApp(tab)
	}
	if ws != nil {
		m.setStatus("workspace: " + ws.Name)
	}
	m.markDirty()
	m.propagateSizes()
}

// closeFocusedPane kills the focused pane's app and collapses the split.
func (m *Model) closeFocusedPane() {
	tab := m.activeTab()
	if tab == nil {
		return
	}
	name := tab.FocusedName()
	if name == "" {
		return
	}
	if h, ok := m.appByName(name); ok {
		m.removeApp(h)
	}
	if !tab.CloseFocusedPane() {
		// Last pane in the workspace: leave an empty tree behind.
		if ws := m.workspaces.Active(); ws != nil {
			m.tabs[ws.ID] = layout.RestoreTab(m.takeTabID(), nil)
		}
	}
	m.afterPaneRemoval()
}

// killFocusedApp terminates the focused app and prunes its panes from
// every workspace.
func (m *Model) killFocusedApp() {
	h := m.supervisor.FocusedHandle()
	if h == nil {
		return
	}
	name := h.Manifest.Name
	m.removeApp(h)
	for wsID, tab := range m.tabs {
		root := tab.Root.RemoveApp(name)
		if root == nil {
			m.tabs[wsID] = layout.RestoreTab(m.takeTabID(), nil)
		} else {
			m.tabs[wsID] = layout.RestoreTab(m.takeTabID(), root)
		}
	}
	m.afterPaneRemoval()
	m.setStatus("killed " + name)
}

// removeApp drops one app from the supervisor, the workspaces, and the
// socket bookkeeping.
func (m *Model) removeApp(h *supervisor.Handle) {
	id := h.ID
	m.workspaces.RemoveAppEverywhere(id)
	_ = m.supervisor.Kill(id)
	if ln, ok := m.listeners[id]; ok {
		_ = ln.Close()
		delete(m.listeners, id)
	}
	delete(m.lastSizes, id)
	if m.save != nil {
		delete(m.save.waiting, id)
	}
}

func (m *Model) afterPaneRemoval() {
	if focused, ok := m.supervisor.Focused(); ok {
		m.focusApp(focused)
	}
	m.markDirty()
	m.propagateSizes()
}

// handleTick is the control loop: expire the prefix, age notifications,
// reconcile process exits, restart what is due, drain app messages, and
// advance any pending session save.
func (m *Model) handleTick(now time.Time) []tea.Cmd {
	if m.prefix.Expire(now) {
		m.setStatus("")
	}
	m.notifications.ProcessAutoDismiss()

	for _, id := range m.supervisor.Reconcile() {
		m.handleCrash(id)
	}
	m.maybeOpenCrashDialog()

	for _, id := range m.supervisor.DueRestarts() {
		if err := m.supervisor.Relaunch(id); err != nil {
			m.logger.Warn("relaunch failed",
				logging.F("app_id", id), logging.F("err", err.Error()))
			continue
		}
		if h, ok := m.supervisor.Get(id); ok {
			m.notifyInfo("shell", "restarted "+h.Manifest.Name)
		}
		m.deferCmd(m.acceptCmd(id))
	}

	m.pollChannels()
	m.progressSave(now)

	if m.cfg.Session.Enabled && m.cfg.Session.AutoSave &&
		m.save == nil && m.sessions.NeedsSave() {
		m.requestSave(false)
	}
	return m.drainDeferred()
}

func (m *Model) handleCrash(id layout.AppID) {
	h, ok := m.supervisor.Get(id)
	if !ok {
		return
	}
	delete(m.lastSizes, id)
	if m.save != nil {
		delete(m.save.waiting, id)
	}
	name := h.Manifest.Name
	if h.AwaitingDecision {
		m.notifications.Push(notify.Warning("shell", name+" crashed"))
		return
	}
	delay := h.NextAllowedRestart.Sub(m.now())
	m.notifications.Push(notify.Warning("shell",
		fmt.Sprintf("%s crashed, restarting in %s", name, fmtBackoff(delay))))
}

func (m *Model) maybeOpenCrashDialog() {
	if m.crashDialog.IsOpen() {
		return
	}
	pending := m.supervisor.PendingCrashes()
	if len(pending) == 0 {
		return
	}
	h := pending[0]
	name := h.Manifest.DisplayName
	if name == "" {
		name = h.Manifest.Name
	}
	m.crashDialog.Open(h.ID, name, h.ConsecutiveFailures)
}

func (m *Model) resolveCrashDialog(choice crashChoice) {
	if choice == crashChoiceNone {
		return
	}
	id := m.crashDialog.AppID()
	m.crashDialog.Close()

	switch choice {
	case crashChoiceRestart:
		if err := m.supervisor.ConfirmRestart(id, true); err != nil {
			m.logger.Warn("restart confirmation failed",
				logging.F("app_id", id), logging.F("err", err.Error()))
		}
	case crashChoiceDismiss:
		if err := m.supervisor.ConfirmRestart(id, false); err != nil {
			m.logger.Warn("dismiss failed",
				logging.F("app_id", id), logging.F("err", err.Error()))
			return
		}
		if h, ok := m.supervisor.Get(id); ok {
			name := h.Manifest.Name
			m.removeApp(h)
			for wsID, tab := range m.tabs {
				if root := tab.Root.RemoveApp(name); root == nil {
					m.tabs[wsID] = layout.RestoreTab(m.takeTabID(), nil)
				} else {
					m.tabs[wsID] = layout.RestoreTab(m.takeTabID(), root)
				}
			}
			m.afterPaneRemoval()
		}
	}
	m.maybeOpenCrashDialog()
}

// pollChannels drains a bounded number of messages from every connected
// app.
func (m *Model) pollChannels() {
	for _, h := range m.supervisor.Apps() {
		ch := h.Channel
		if ch == nil {
			continue
		}
		for i := 0; i < maxMsgsPerTick; i++ {
			msg, err := ch.Recv()
			if err != nil {
				if errors.Is(err, ipc.ErrConnectionClosed) {
					// The wait goroutine reports the exit; close our end
					// here because Reconcile only closes channels still
					// attached to the handle.
					_ = ch.Close()
					h.Channel = nil
				} else {
					m.logger.Warn("ipc receive failed",
						logging.F("app", h.Manifest.Name), logging.F("err", err.Error()))
				}
				break
			}
			if msg == nil {
				break
			}
			m.handleAppMessage(h, msg)
		}
	}
}

func (m *Model) handleAppMessage(h *supervisor.Handle, msg *ipc.Message) {
	switch msg.Type {
	case ipc.TypeNotification:
		if msg.Notification == nil {
			return
		}
		n := *msg.Notification
		if n.Source == "" {
			n.Source = h.Manifest.Name
		}
		if n.Timestamp.IsZero() {
			n.Timestamp = m.now().UTC()
		}
		m.notifications.Push(n)
	case ipc.TypeRequestFocus:
		m.focusApp(h.ID)
		m.setStatus(h.Manifest.Name + " requested focus")
	case ipc.TypeData:
		m.broadcastData(h, msg)
	case ipc.TypeCommand:
		m.runAppCommand(h, msg)
	case ipc.TypeSessionSave:
		m.appStates[h.Manifest.Name] = append([]byte(nil), msg.State...)
		if m.save != nil {
			delete(m.save.waiting, h.ID)
		}
	case ipc.TypePing:
		if h.Channel != nil {
			_ = h.Channel.Send(ipc.Pong())
		}
	case ipc.TypeError:
		m.notifications.Push(notify.Warning(h.Manifest.Name, msg.ErrMessage))
	case ipc.TypePong, ipc.TypeOk:
	default:
		m.logger.Debug("ignoring message",
			logging.F("app", h.Manifest.Name), logging.F("type", string(msg.Type)))
	}
}

// broadcastData relays a data message to every other connected app.
func (m *Model) broadcastData(from *supervisor.Handle, msg *ipc.Message) {
	for _, h := range m.supervisor.Apps() {
		if h.ID == from.ID || h.Channel == nil {
			continue
		}
		if err := h.Channel.Send(ipc.Data(msg.Key, msg.Value)); err != nil {
			m.logger.Warn("data relay failed",
				logging.F("app", h.Manifest.Name), logging.F("err", err.Error()))
		}
	}
}

// runAppCommand executes a command an app sent over its channel.
func (m *Model) runAppCommand(h *supervisor.Handle, msg *ipc.Message) {
	reply := ipc.Ok()
	switch msg.Name {
	case "launch":
		if len(msg.Args) == 0 {
			reply = ipc.Errorf("launch: app name required")
			break
		}
		if err := m.launchApp(msg.Args[0], msg.Args[1:]); err != nil {
			reply = ipc.Errorf("launch %s: %s", msg.Args[0], err.Error())
		}
	case "focus":
		if len(msg.Args) == 0 {
			reply = ipc.Errorf("focus: app name required")
			break
		}
		target, ok := m.appByName(msg.Args[0])
		if !ok {
			reply = ipc.Errorf("focus: %s is not running", msg.Args[0])
			break
		}
		m.focusApp(target.ID)
	case "notify":
		if len(msg.Args) < 2 {
			reply = ipc.Errorf("notify: level and message required")
			break
		}
		m.notifications.Push(notify.New(h.Manifest.Name, notify.Level(msg.Args[0]), msg.Args[1]))
	default:
		reply = ipc.Errorf("unknown command: %s", msg.Name)
	}
	if h.Channel != nil {
		_ = h.Channel.Send(reply)
	}
}

func fmtBackoff(d time.Duration) string {
	if d < time.Second {
		return d.Round(100 * time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

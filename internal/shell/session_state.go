package shell

import (
	"time"

	"tuishell/internal/ipc"
	"tuishell/internal/layout"
	"tuishell/internal/logging"
	"tuishell/internal/session"
	"tuishell/internal/supervisor"
	"tuishell/internal/workspace"
)

// requestSave begins a session capture: every session-capable app is
// asked for its state, and the save completes when all replies are in or
// the deadline passes.
func (m *Model) requestSave(manual bool) {
	if !m.cfg.Session.Enabled {
		return
	}
	waiting := map[layout.AppID]struct{}{}
	for _, h := range m.supervisor.Apps() {
		if !h.Manifest.SupportsSession || h.Channel == nil || h.State != supervisor.StateRunning {
			continue
		}
		if err := h.Channel.Send(ipc.SessionSave()); err != nil {
			m.logger.Warn("save request failed",
				logging.F("app", h.Manifest.Name), logging.F("err", err.Error()))
			continue
		}
		waiting[h.ID] = struct{}{}
	}
	m.save = &pendingSave{
		waiting:  waiting,
		deadline: m.now().Add(saveReplyTimeout),
		manual:   manual,
	}
	if len(waiting) == 0 {
		m.progressSave(m.now())
	}
}

// progressSave finishes a pending capture once every reply arrived or the
// deadline passed. Missing apps keep their previously reported state.
func (m *Model) progressSave(now time.Time) {
	if m.save == nil {
		return
	}
	if len(m.save.waiting) > 0 && now.Before(m.save.deadline) {
		return
	}
	manual := m.save.manual
	if err := m.finishSave(); err != nil {
		m.notifyError("session", "save failed: "+err.Error())
		return
	}
	if manual {
		m.notifyInfo("session", "session saved")
	}
}

func (m *Model) finishSave() error {
	m.save = nil
	m.sessions.SetSession(m.buildSession())
	if m.states != nil {
		for name, state := range m.appStates {
			if err := m.states.Put(name, state); err != nil {
				m.logger.Warn("state cache write failed",
					logging.F("app", name), logging.F("err", err.Error()))
				break
			}
		}
	}
	return m.sessions.Save()
}

// buildSession assembles the snapshot from live shell state.
func (m *Model) buildSession() *session.Session {
	m.syncLayout()

	s := session.NewSession()
	for _, ws := range m.workspaces.List() {
		s.Workspaces = append(s.Workspaces, *ws)
	}
	if ws := m.workspaces.Active(); ws != nil {
		s.Layout = ws.Root
	}
	for _, h := range m.supervisor.Apps() {
		if h.State == supervisor.StateStopped {
			continue
		}
		s.Apps = append(s.Apps, session.AppSession{
			AppName:    h.Manifest.Name,
			LaunchArgs: h.Args,
			State:      m.appStates[h.Manifest.Name],
			Workspaces: m.workspaces.WorkspacesForApp(h.ID),
		})
	}
	if focused, ok := m.supervisor.Focused(); ok {
		id := focused
		s.Focused = &id
	}
	return s
}

// applySession rebuilds workspaces and relaunches the snapshot's apps.
// App state is stashed and delivered as a restore message when each app
// connects.
func (m *Model) applySession(s *session.Session) {
	if s == nil || (len(s.Workspaces) == 0 && len(s.Apps) == 0) {
		return
	}

	list := make([]*layout.Workspace, 0, len(s.Workspaces))
	for i := range s.Workspaces {
		ws := s.Workspaces[i]
		ws.Apps = nil // memberships are rebuilt as apps relaunch
		list = append(list, &ws)
	}
	if len(list) > 0 {
		m.workspaces = workspace.FromWorkspaces(list)
		m.tabs = map[layout.WorkspaceID]*layout.Tab{}
		for _, ws := range list {
			m.tabs[ws.ID] = layout.RestoreTab(m.takeTabID(), ws.Root)
			m.seeded[ws.ID] = true
		}
	}

	for _, app := range s.Apps {
		state := app.State
		if len(state) == 0 && m.states != nil {
			// Fall back to the on-disk state cache for apps the last
			// session save missed.
			if cached, err := m.states.Get(app.AppName); err == nil {
				state = cached
			}
		}
		if len(state) > 0 {
			m.restoreStates[app.AppName] = append([]byte(nil), state...)
			m.appStates[app.AppName] = append([]byte(nil), state...)
		}
		id, err := m.supervisor.Launch(app.AppName, app.LaunchArgs)
		if err != nil {
			m.notifyError("session", "could not restore "+app.AppName+": "+err.Error())
			delete(m.restoreStates, app.AppName)
			continue
		}
		for _, wsID := range app.Workspaces {
			m.workspaces.AddApp(wsID, id)
			m.supervisor.AddToWorkspace(id, wsID)
		}
		m.deferCmd(m.acceptCmd(id))
	}

	// Ids changed across the restart, so resolve focus through the active
	// pane's app name.
	if tab := m.activeTab(); tab != nil {
		m.focusPaneApp(tab)
	}
	m.logger.Info("session restored",
		logging.F("workspaces", m.workspaces.Count()),
		logging.F("apps", len(s.Apps)))
}

// captureStatesBlocking collects final state replies synchronously; used
// on shutdown when the tick loop is no longer running.
func (m *Model) captureStatesBlocking() {
	for _, h := range m.supervisor.Apps() {
		if !h.Manifest.SupportsSession || h.Channel == nil || h.State != supervisor.StateRunning {
			continue
		}
		if err := h.Channel.Send(ipc.SessionSave()); err != nil {
			continue
		}
		if err := h.Channel.SetReadTimeout(saveReplyTimeout); err != nil {
			continue
		}
		for {
			msg, err := h.Channel.RecvBlocking()
			if err != nil || msg == nil {
				break
			}
			if msg.Type == ipc.TypeSessionSave {
				m.appStates[h.Manifest.Name] = append([]byte(nil), msg.State...)
				break
			}
		}
	}
}

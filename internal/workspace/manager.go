// Package workspace tracks the named workspaces a shell session is split
// into and which one is currently displayed.
package workspace

import (
	"tuishell/internal/layout"
)

// Manager owns all workspaces, their display order and the active pointer.
// It is only ever touched from the shell's control loop.
type Manager struct {
	workspaces map[layout.WorkspaceID]*layout.Workspace
	order      []layout.WorkspaceID
	active     layout.WorkspaceID
	hasActive  bool
	nextID     layout.WorkspaceID
}

// New creates a manager holding a single "default" workspace.
func New() *Manager {
	m := &Manager{
		workspaces: make(map[layout.WorkspaceID]*layout.Workspace),
		nextID:     1,
	}
	m.Create("default")
	return m
}

// FromWorkspaces rebuilds a manager from a serialized workspace list,
// preserving order and the persisted active flag.
func FromWorkspaces(list []*layout.Workspace) *Manager {
	m := &Manager{
		workspaces: make(map[layout.WorkspaceID]*layout.Workspace),
		nextID:     1,
	}
	for _, ws := range list {
		if ws == nil {
			continue
		}
		if ws.ID >= m.nextID {
			m.nextID = ws.ID + 1
		}
		if ws.Active {
			m.active = ws.ID
			m.hasActive = true
		}
		m.order = append(m.order, ws.ID)
		m.workspaces[ws.ID] = ws
	}
	if !m.hasActive && len(m.order) > 0 {
		m.active = m.order[0]
		m.hasActive = true
	}
	return m
}

// Create adds a new empty workspace. The first workspace created becomes
// active.
func (m *Manager) Create(name string) layout.WorkspaceID {
	id := m.nextID
	m.nextID++

	m.workspaces[id] = layout.NewWorkspace(id, name)
	m.order = append(m.order, id)

	if !m.hasActive {
		m.active = id
		m.hasActive = true
		m.workspaces[id].Active = true
	}
	return id
}

// Delete removes a workspace. When the active workspace is deleted the
// first remaining one takes over.
func (m *Manager) Delete(id layout.WorkspaceID) (*layout.Workspace, bool) {
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, false
	}
	delete(m.workspaces, id)
	kept := m.order[:0]
	for _, o := range m.order {
		if o != id {
			kept = append(kept, o)
		}
	}
	m.order = kept

	if m.hasActive && m.active == id {
		m.hasActive = false
		if len(m.order) > 0 {
			m.SwitchTo(m.order[0])
		}
	}
	return ws, true
}

func (m *Manager) Get(id layout.WorkspaceID) (*layout.Workspace, bool) {
	ws, ok := m.workspaces[id]
	return ws, ok
}

func (m *Manager) GetByName(name string) (*layout.Workspace, bool) {
	for _, id := range m.order {
		if ws := m.workspaces[id]; ws != nil && ws.Name == name {
			return ws, true
		}
	}
	return nil, false
}

// Active returns the displayed workspace, or nil when none exist.
func (m *Manager) Active() *layout.Workspace {
	if !m.hasActive {
		return nil
	}
	return m.workspaces[m.active]
}

func (m *Manager) ActiveID() (layout.WorkspaceID, bool) {
	return m.active, m.hasActive
}

// SwitchTo makes the given workspace the displayed one. Returns false for
// unknown ids.
func (m *Manager) SwitchTo(id layout.WorkspaceID) bool {
	ws, ok := m.workspaces[id]
	if !ok {
		return false
	}
	if m.hasActive {
		if old, ok := m.workspaces[m.active]; ok {
			old.Active = false
		}
	}
	ws.Active = true
	m.active = id
	m.hasActive = true
	return true
}

// SwitchNext cycles forward through the workspace order, wrapping around.
func (m *Manager) SwitchNext() (layout.WorkspaceID, bool) {
	if len(m.order) == 0 {
		return 0, false
	}
	next := m.order[(m.activeIndex()+1)%len(m.order)]
	m.SwitchTo(next)
	return next, true
}

// SwitchPrev cycles backward through the workspace order, wrapping around.
func (m *Manager) SwitchPrev() (layout.WorkspaceID, bool) {
	if len(m.order) == 0 {
		return 0, false
	}
	idx := m.activeIndex()
	if idx == 0 {
		idx = len(m.order)
	}
	prev := m.order[idx-1]
	m.SwitchTo(prev)
	return prev, true
}

func (m *Manager) activeIndex() int {
	if m.hasActive {
		for i, id := range m.order {
			if id == m.active {
				return i
			}
		}
	}
	return 0
}

func (m *Manager) Rename(id layout.WorkspaceID, name string) bool {
	ws, ok := m.workspaces[id]
	if !ok {
		return false
	}
	ws.Name = name
	return true
}

func (m *Manager) Count() int {
	return len(m.workspaces)
}

// List returns workspaces in display order.
func (m *Manager) List() []*layout.Workspace {
	out := make([]*layout.Workspace, 0, len(m.order))
	for _, id := range m.order {
		if ws, ok := m.workspaces[id]; ok {
			out = append(out, ws)
		}
	}
	return out
}

func (m *Manager) AddApp(wsID layout.WorkspaceID, appID layout.AppID) {
	if ws, ok := m.workspaces[wsID]; ok {
		ws.AddApp(appID)
	}
}

func (m *Manager) RemoveApp(wsID layout.WorkspaceID, appID layout.AppID) {
	if ws, ok := m.workspaces[wsID]; ok {
		ws.RemoveApp(appID)
	}
}

// RemoveAppEverywhere drops the app from every workspace, used when a
// process exits for good.
func (m *Manager) RemoveAppEverywhere(appID layout.AppID) {
	for _, ws := range m.workspaces {
		ws.RemoveApp(appID)
	}
}

// WorkspacesForApp lists the workspaces an app is a member of, in display
// order.
func (m *Manager) WorkspacesForApp(appID layout.AppID) []layout.WorkspaceID {
	var out []layout.WorkspaceID
	for _, id := range m.order {
		if ws, ok := m.workspaces[id]; ok && ws.Contains(appID) {
			out = append(out, id)
		}
	}
	return out
}

// ToSlice returns deep-enough copies for session serialization, in display
// order.
func (m *Manager) ToSlice() []*layout.Workspace {
	return m.List()
}

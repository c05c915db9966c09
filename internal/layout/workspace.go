package layout

// WorkspaceID identifies one named workspace.
type WorkspaceID uint64

// AppID identifies one running hosted application process.
type AppID uint64

// Workspace owns one container tree plus the ordered list of app
// memberships shown in it. Active marks the workspace the shell displays.
type Workspace struct {
	ID     WorkspaceID `json:"id"`
	Name   string      `json:"name"`
	Root   *Container  `json:"root"`
	Apps   []AppID     `json:"apps,omitempty"`
	Active bool        `json:"active,omitempty"`
}

func NewWorkspace(id WorkspaceID, name string) *Workspace {
	return &Workspace{
		ID:   id,
		Name: name,
		Root: NewEmpty(0),
	}
}

func (w *Workspace) IsEmpty() bool {
	return w == nil || w.Root.IsEmpty()
}

func (w *Workspace) AddApp(id AppID) {
	if w == nil || w.Contains(id) {
		return
	}
	w.Apps = append(w.Apps, id)
}

func (w *Workspace) RemoveApp(id AppID) {
	if w == nil {
		return
	}
	kept := w.Apps[:0]
	for _, a := range w.Apps {
		if a != id {
			kept = append(kept, a)
		}
	}
	w.Apps = kept
}

func (w *Workspace) Contains(id AppID) bool {
	if w == nil {
		return false
	}
	for _, a := range w.Apps {
		if a == id {
			return true
		}
	}
	return false
}

func (w *Workspace) AppCount() int {
	if w == nil {
		return 0
	}
	return len(w.Apps)
}

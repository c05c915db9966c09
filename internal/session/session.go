// Package session snapshots shell state (layout, workspaces, focus, and
// each app's self-reported state) to a file and restores it at startup.
package session

import (
	"encoding/json"

	"tuishell/internal/layout"
)

// AppSession is one app's entry in the snapshot. State is opaque to the
// shell: whatever the app answered to a save request, carried back to it
// verbatim on restore.
type AppSession struct {
	AppName    string               `json:"app_name"`
	LaunchArgs []string             `json:"launch_args,omitempty"`
	State      json.RawMessage      `json:"state,omitempty"`
	Workspaces []layout.WorkspaceID `json:"workspace_memberships"`
}

// Session is the full persisted snapshot. It round-trips exactly: restore
// replaces the in-memory state wholesale.
type Session struct {
	Layout     *layout.Container  `json:"layout,omitempty"`
	Apps       []AppSession       `json:"apps"`
	Focused    *layout.AppID      `json:"focused,omitempty"`
	Workspaces []layout.Workspace `json:"workspaces"`
}

// NewSession returns the empty first-run snapshot.
func NewSession() *Session {
	return &Session{}
}

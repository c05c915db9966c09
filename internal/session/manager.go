package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tuishell/internal/logging"
)

// Manager owns the current Session and the auto-save bookkeeping. It is
// used only from the control loop; save and load failures are surfaced to
// the caller and leave the in-memory state untouched.
type Manager struct {
	path     string
	interval time.Duration
	session  *Session

	dirty    bool
	lastSave time.Time
	saved    bool

	logger logging.Logger
	now    func() time.Time
}

// NewManager builds a manager with an empty session. interval is the
// minimum spacing between auto-saves; the first save is always eligible.
func NewManager(path string, interval time.Duration, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		path:     path,
		interval: interval,
		session:  NewSession(),
		logger:   logger,
		now:      time.Now,
	}
}

func (m *Manager) Path() string {
	return m.path
}

// Session exposes the live snapshot for the control loop to mutate. Call
// MarkDirty after changing it.
func (m *Manager) Session() *Session {
	return m.session
}

// SetSession replaces the snapshot wholesale, e.g. after rebuilding it
// from live shell state.
func (m *Manager) SetSession(s *Session) {
	if s == nil {
		s = NewSession()
	}
	m.session = s
}

// Load reads the session file if present. A missing file is not an
// error: the default empty session stays in place.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: read %s: %w", m.path, err)
	}
	var restored Session
	if err := json.Unmarshal(data, &restored); err != nil {
		return fmt.Errorf("session: decode %s: %w", m.path, err)
	}
	m.session = &restored
	m.logger.Info("session loaded",
		logging.F("path", m.path), logging.F("apps", len(restored.Apps)))
	return nil
}

// Save writes the full session, creating parent directories as needed,
// then clears the dirty flag and records the save time.
func (m *Manager) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("session: session dir: %w", err)
	}
	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("session: write %s: %w", m.path, err)
	}
	m.dirty = false
	m.lastSave = m.now()
	m.saved = true
	m.logger.Debug("session saved", logging.F("path", m.path))
	return nil
}

// MarkDirty records that layout, focus, or workspace state changed.
func (m *Manager) MarkDirty() {
	m.dirty = true
}

// NeedsSave is true iff the session is dirty and either nothing has been
// saved yet or the save interval has elapsed.
func (m *Manager) NeedsSave() bool {
	if !m.dirty {
		return false
	}
	if !m.saved {
		return true
	}
	return m.now().Sub(m.lastSave) >= m.interval
}

// TryAutoSave saves iff NeedsSave, reporting whether a save happened.
func (m *Manager) TryAutoSave() (bool, error) {
	if !m.NeedsSave() {
		return false, nil
	}
	if err := m.Save(); err != nil {
		return false, err
	}
	return true, nil
}

// Package supervisor owns the mapping from app ids to child processes and
// drives the crash/restart state machine.
package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"tuishell/internal/ipc"
	"tuishell/internal/layout"
	"tuishell/internal/logging"
)

var (
	ErrUnknownApp        = errors.New("supervisor: unknown app")
	ErrAppNotFound       = errors.New("supervisor: app not found")
	ErrAppAlreadyRunning = errors.New("supervisor: app already running")
	ErrLaunchFailed      = errors.New("supervisor: launch failed")
	ErrNotRestartable    = errors.New("supervisor: app not eligible for restart")
)

// State is an app's lifecycle phase. Stopped is terminal: a cleanly
// stopped app is never restarted automatically.
type State string

const (
	StateLaunching State = "launching"
	StateRunning   State = "running"
	StateCrashed   State = "crashed"
	StateBackoff   State = "backoff"
	StateStopped   State = "stopped"
)

// Manifest describes a launchable app.
type Manifest struct {
	Name            string   `toml:"name" json:"name"`
	DisplayName     string   `toml:"display_name" json:"display_name"`
	Description     string   `toml:"description" json:"description,omitempty"`
	Category        string   `toml:"category" json:"category,omitempty"`
	Keywords        []string `toml:"keywords" json:"keywords,omitempty"`
	Command         string   `toml:"command" json:"command"`
	Args            []string `toml:"args" json:"args,omitempty"`
	SupportsSession bool     `toml:"supports_session" json:"supports_session"`
	AutoRestart     bool     `toml:"auto_restart" json:"auto_restart"`
	Singleton       bool     `toml:"singleton" json:"singleton"`
}

// CrashPolicy parameterizes crash handling; values come from the crash
// section of the shell config.
type CrashPolicy struct {
	ShowDialog         bool
	AutoRestartDefault bool
	BackoffInitial     time.Duration
	BackoffMax         time.Duration
}

func DefaultCrashPolicy() CrashPolicy {
	return CrashPolicy{
		ShowDialog:     true,
		BackoffInitial: time.Second,
		BackoffMax:     30 * time.Second,
	}
}

// BackoffDelay computes the restart delay after the given number of
// consecutive failures, doubling from the initial delay up to the cap.
func (p CrashPolicy) BackoffDelay(failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	delay := p.BackoffInitial
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	if delay > p.BackoffMax {
		return p.BackoffMax
	}
	return delay
}

// StabilityWindow is how long an app must stay running before its failure
// count resets. Reuses the backoff cap so one long-lived run forgives past
// crashes.
func (p CrashPolicy) StabilityWindow() time.Duration {
	return p.BackoffMax
}

// Handle is the supervisor's record of one running (or restarting) app.
type Handle struct {
	ID       layout.AppID
	Manifest Manifest
	Args     []string
	State    State
	PID      int

	// Channel carries the app's protocol connection once the app dials in.
	Channel *ipc.Channel

	Workspaces map[layout.WorkspaceID]struct{}
	Sticky     bool

	ConsecutiveFailures int
	NextAllowedRestart  time.Time
	AwaitingDecision    bool
	RestartApproved     bool
	runningSince        time.Time

	proc *os.Process
}

type exitEvent struct {
	id   layout.AppID
	code int
	err  error
}

type startedProcess struct {
	pid  int
	proc *os.Process
	wait func() error
}

// Manager supervises app processes. All state transitions are applied
// from the shell's control loop; only the Wait goroutines run elsewhere,
// and they communicate exclusively through the exit channel.
type Manager struct {
	registry map[string]Manifest
	apps     map[layout.AppID]*Handle
	history  []layout.AppID
	focused  layout.AppID
	hasFocus bool
	nextID   layout.AppID
	policy   CrashPolicy
	logger   logging.Logger
	exits    chan exitEvent

	now   func() time.Time
	start func(h *Handle, args []string) (*startedProcess, error)

	// BeforeSpawn runs after an id is assigned and before the process
	// starts, on both launch and relaunch. The shell uses it to bind the
	// app's socket so the app can connect during startup.
	BeforeSpawn func(h *Handle) error

	// SpawnFailed runs when starting the process fails after BeforeSpawn
	// succeeded, so resources bound for it can be released.
	SpawnFailed func(h *Handle)
}

func NewManager(policy CrashPolicy, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		registry: make(map[string]Manifest),
		apps:     make(map[layout.AppID]*Handle),
		nextID:   1,
		policy:   policy,
		logger:   logger,
		exits:    make(chan exitEvent, 64),
		now:      time.Now,
		start:    startProcess,
	}
}

func (m *Manager) Register(manifest Manifest) {
	m.registry[manifest.Name] = manifest
}

func (m *Manager) Manifests() []Manifest {
	out := make([]Manifest, 0, len(m.registry))
	for _, manifest := range m.registry {
		out = append(out, manifest)
	}
	return out
}

func (m *Manager) Manifest(name string) (Manifest, bool) {
	manifest, ok := m.registry[name]
	return manifest, ok
}

// Launch starts a registered app. Configuration problems (unknown app,
// singleton conflict, missing binary) are reported and never retried.
func (m *Manager) Launch(name string, args []string) (layout.AppID, error) {
	manifest, ok := m.registry[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownApp, name)
	}
	if manifest.Singleton {
		for _, h := range m.apps {
			if h.Manifest.Name == name && h.State != StateStopped {
				return 0, fmt.Errorf("%w: %s", ErrAppAlreadyRunning, name)
			}
		}
	}

	id := m.nextID
	m.nextID++

	handle := &Handle{
		ID:         id,
		Manifest:   manifest,
		Args:       args,
		State:      StateLaunching,
		Workspaces: make(map[layout.WorkspaceID]struct{}),
	}
	m.apps[id] = handle

	if err := m.spawn(handle); err != nil {
		delete(m.apps, id)
		return 0, err
	}

	m.history = append(m.history, id)
	if !m.hasFocus {
		m.focused = id
		m.hasFocus = true
	}
	m.logger.Info("app launched",
		logging.F("app", name), logging.F("app_id", id), logging.F("pid", handle.PID))
	return id, nil
}

func (m *Manager) spawn(h *Handle) error {
	if m.BeforeSpawn != nil {
		if err := m.BeforeSpawn(h); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrLaunchFailed, h.Manifest.Name, err)
		}
	}
	launchArgs := h.Args
	if len(launchArgs) == 0 {
		launchArgs = h.Manifest.Args
	}
	started, err := m.start(h, launchArgs)
	if err != nil {
		if m.SpawnFailed != nil {
			m.SpawnFailed(h)
		}
		return fmt.Errorf("%w: %s: %v", ErrLaunchFailed, h.Manifest.Name, err)
	}
	h.PID = started.pid
	h.proc = started.proc
	h.State = StateRunning
	h.runningSince = m.now()

	id := h.ID
	go func() {
		err := started.wait()
		m.exits <- exitEvent{id: id, code: exitCode(err), err: err}
	}()
	return nil
}

func startProcess(h *Handle, args []string) (*startedProcess, error) {
	if _, err := exec.LookPath(h.Manifest.Command); err != nil {
		return nil, err
	}
	cmd := exec.Command(h.Manifest.Command, args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("TUI_SHELL_APP_ID=%d", h.ID),
		"TUI_SHELL_SOCKET="+ipc.SocketPath(uint64(h.ID)))
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &startedProcess{pid: cmd.Process.Pid, proc: cmd.Process, wait: cmd.Wait}, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Reconcile applies queued process exits and stability resets. Called
// once per control-loop tick. Returns the ids that transitioned to
// Crashed during this call.
func (m *Manager) Reconcile() []layout.AppID {
	var crashed []layout.AppID
	for {
		select {
		case ev := <-m.exits:
			if id, ok := m.applyExit(ev); ok {
				crashed = append(crashed, id)
			}
			continue
		default:
		}
		break
	}

	now := m.now()
	for _, h := range m.apps {
		if h.State == StateRunning && h.ConsecutiveFailures > 0 &&
			now.Sub(h.runningSince) >= m.policy.StabilityWindow() {
			h.ConsecutiveFailures = 0
			m.logger.Debug("stability reset", logging.F("app_id", h.ID))
		}
	}
	return crashed
}

func (m *Manager) applyExit(ev exitEvent) (layout.AppID, bool) {
	h, ok := m.apps[ev.id]
	if !ok || h.State == StateStopped {
		// User-initiated shutdown already handled.
		return 0, false
	}

	if ev.code == 0 {
		h.State = StateStopped
		m.logger.Info("app exited", logging.F("app_id", h.ID))
		return 0, false
	}

	h.ConsecutiveFailures++
	delay := m.policy.BackoffDelay(h.ConsecutiveFailures)
	h.State = StateCrashed
	h.NextAllowedRestart = m.now().Add(delay)
	h.AwaitingDecision = m.policy.ShowDialog && !m.policy.AutoRestartDefault
	if h.Channel != nil {
		_ = h.Channel.Close()
		h.Channel = nil
	}
	m.logger.Warn("app crashed",
		logging.F("app", h.Manifest.Name),
		logging.F("app_id", h.ID),
		logging.F("exit_code", ev.code),
		logging.F("failures", h.ConsecutiveFailures),
		logging.F("retry_in", delay))
	return h.ID, true
}

// PendingCrashes lists crashed apps waiting on the user's restart
// decision.
func (m *Manager) PendingCrashes() []*Handle {
	var out []*Handle
	for _, h := range m.apps {
		if h.State == StateCrashed && h.AwaitingDecision {
			out = append(out, h)
		}
	}
	return out
}

// ConfirmRestart resolves the crash dialog. Declining stops the app for
// good.
func (m *Manager) ConfirmRestart(id layout.AppID, restart bool) error {
	h, ok := m.apps[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrAppNotFound, id)
	}
	if !h.AwaitingDecision {
		return fmt.Errorf("%w: %d", ErrNotRestartable, id)
	}
	h.AwaitingDecision = false
	if restart {
		h.RestartApproved = true
	} else {
		h.State = StateStopped
	}
	return nil
}

// DueRestarts lists crashed apps whose backoff delay has elapsed and that
// are allowed to restart unattended.
func (m *Manager) DueRestarts() []layout.AppID {
	now := m.now()
	var due []layout.AppID
	for _, h := range m.apps {
		if h.State != StateCrashed || h.AwaitingDecision {
			continue
		}
		if !h.RestartApproved && !h.Manifest.AutoRestart && !m.policy.AutoRestartDefault {
			continue
		}
		if !now.Before(h.NextAllowedRestart) {
			due = append(due, h.ID)
		}
	}
	return due
}

// Relaunch restarts a crashed app, keeping its id, memberships and
// failure history.
func (m *Manager) Relaunch(id layout.AppID) error {
	h, ok := m.apps[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrAppNotFound, id)
	}
	if h.State != StateCrashed {
		return fmt.Errorf("%w: %d is %s", ErrNotRestartable, id, h.State)
	}
	if m.now().Before(h.NextAllowedRestart) {
		return fmt.Errorf("%w: %d still in backoff", ErrNotRestartable, id)
	}
	h.State = StateLaunching
	if err := m.spawn(h); err != nil {
		h.State = StateCrashed
		return err
	}
	h.RestartApproved = false
	m.logger.Info("app relaunched", logging.F("app_id", id), logging.F("pid", h.PID))
	return nil
}

// Kill performs a user-initiated shutdown: terminal, no restarts.
func (m *Manager) Kill(id layout.AppID) error {
	h, ok := m.apps[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrAppNotFound, id)
	}
	h.State = StateStopped
	if h.Channel != nil {
		_ = h.Channel.Close()
		h.Channel = nil
	}
	if h.proc != nil {
		_ = h.proc.Kill()
	}
	delete(m.apps, id)

	kept := m.history[:0]
	for _, hid := range m.history {
		if hid != id {
			kept = append(kept, hid)
		}
	}
	m.history = kept
	if m.hasFocus && m.focused == id {
		m.hasFocus = false
		if len(m.history) > 0 {
			m.focused = m.history[len(m.history)-1]
			m.hasFocus = true
		}
	}
	return nil
}

// Shutdown kills every app; used on shell exit.
func (m *Manager) Shutdown() {
	for id := range m.apps {
		_ = m.Kill(id)
	}
}

func (m *Manager) Focus(id layout.AppID) error {
	if _, ok := m.apps[id]; !ok {
		return fmt.Errorf("%w: %d", ErrAppNotFound, id)
	}
	m.focused = id
	m.hasFocus = true

	kept := m.history[:0]
	for _, hid := range m.history {
		if hid != id {
			kept = append(kept, hid)
		}
	}
	m.history = append(kept, id)
	return nil
}

func (m *Manager) Focused() (layout.AppID, bool) {
	return m.focused, m.hasFocus
}

func (m *Manager) FocusedHandle() *Handle {
	if !m.hasFocus {
		return nil
	}
	return m.apps[m.focused]
}

// FocusHistory returns app ids, most recently focused last.
func (m *Manager) FocusHistory() []layout.AppID {
	return append([]layout.AppID(nil), m.history...)
}

func (m *Manager) Get(id layout.AppID) (*Handle, bool) {
	h, ok := m.apps[id]
	return h, ok
}

func (m *Manager) Count() int {
	return len(m.apps)
}

// Apps returns handles in launch order (by id).
func (m *Manager) Apps() []*Handle {
	out := make([]*Handle, 0, len(m.apps))
	for id := layout.AppID(1); id < m.nextID; id++ {
		if h, ok := m.apps[id]; ok {
			out = append(out, h)
		}
	}
	return out
}

func (m *Manager) AddToWorkspace(id layout.AppID, ws layout.WorkspaceID) {
	if h, ok := m.apps[id]; ok {
		h.Workspaces[ws] = struct{}{}
	}
}

func (m *Manager) RemoveFromWorkspace(id layout.AppID, ws layout.WorkspaceID) {
	if h, ok := m.apps[id]; ok {
		delete(h.Workspaces, ws)
	}
}

func (m *Manager) SetSticky(id layout.AppID, sticky bool) {
	if h, ok := m.apps[id]; ok {
		h.Sticky = sticky
	}
}

// AttachChannel hands the app's accepted protocol connection to its
// handle.
func (m *Manager) AttachChannel(id layout.AppID, ch *ipc.Channel) error {
	h, ok := m.apps[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrAppNotFound, id)
	}
	h.Channel = ch
	return nil
}

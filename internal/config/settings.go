package config

import (
	"errors"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"tuishell/internal/notify"
	"tuishell/internal/supervisor"
)

const (
	defaultPrefixKey       = "ctrl+space"
	defaultPrefixTimeoutMS = 500
	defaultSaveIntervalSec = 300
	defaultBackoffInitial  = 1000
	defaultBackoffMax      = 30000
)

type ShellConfig struct {
	Variant       string                `toml:"variant"`
	PrefixKey     string                `toml:"prefix_key"`
	PrefixTimeout int64                 `toml:"prefix_timeout_ms"`
	Logging       LoggingConfig         `toml:"logging"`
	Session       SessionConfig         `toml:"session"`
	Notifications notify.Config         `toml:"notifications"`
	Crash         CrashConfig           `toml:"crash"`
	Startup       StartupConfig         `toml:"startup"`
	Workspaces    map[string][]string   `toml:"workspaces"`
	Apps          []supervisor.Manifest `toml:"apps"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type SessionConfig struct {
	Enabled          bool  `toml:"enabled"`
	AutoSave         bool  `toml:"auto_save"`
	SaveIntervalSecs int64 `toml:"save_interval_secs"`
	RestoreOnStart   bool  `toml:"restore_on_start"`
}

type CrashConfig struct {
	ShowDialog         bool  `toml:"show_dialog"`
	AutoRestartDefault bool  `toml:"auto_restart_default"`
	BackoffInitialMS   int64 `toml:"backoff_initial_ms"`
	BackoffMaxMS       int64 `toml:"backoff_max_ms"`
}

type StartupConfig struct {
	Apps      []string `toml:"apps"`
	Workspace string   `toml:"workspace"`
}

func DefaultShellConfig() ShellConfig {
	return ShellConfig{
		Variant:       "tiled",
		PrefixKey:     defaultPrefixKey,
		PrefixTimeout: defaultPrefixTimeoutMS,
		Logging:       LoggingConfig{Level: "info"},
		Session: SessionConfig{
			Enabled:          true,
			AutoSave:         true,
			SaveIntervalSecs: defaultSaveIntervalSec,
			RestoreOnStart:   true,
		},
		Notifications: notify.DefaultConfig(),
		Crash: CrashConfig{
			ShowDialog:       true,
			BackoffInitialMS: defaultBackoffInitial,
			BackoffMaxMS:     defaultBackoffMax,
		},
	}
}

// LoadShellConfig reads the config file, layering it over the defaults. A
// missing file yields the defaults.
func LoadShellConfig() (ShellConfig, error) {
	path, err := ShellConfigPath()
	if err != nil {
		return ShellConfig{}, err
	}
	return LoadShellConfigFromPath(path)
}

func LoadShellConfigFromPath(path string) (ShellConfig, error) {
	cfg := DefaultShellConfig()
	if err := readTOML(path, &cfg); err != nil {
		return ShellConfig{}, err
	}
	return cfg, nil
}

func (c ShellConfig) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

// ResolvedPrefixKey normalizes the prefix binding, falling back to the
// default on an empty value.
func (c ShellConfig) ResolvedPrefixKey() string {
	key := strings.ToLower(strings.TrimSpace(c.PrefixKey))
	if key == "" {
		return defaultPrefixKey
	}
	return key
}

func (c ShellConfig) PrefixTimeoutDuration() time.Duration {
	if c.PrefixTimeout <= 0 {
		return defaultPrefixTimeoutMS * time.Millisecond
	}
	return time.Duration(c.PrefixTimeout) * time.Millisecond
}

func (c ShellConfig) SaveInterval() time.Duration {
	secs := c.Session.SaveIntervalSecs
	if secs <= 0 {
		secs = defaultSaveIntervalSec
	}
	return time.Duration(secs) * time.Second
}

// CrashPolicy converts the crash knobs into the supervisor's policy,
// applying defaults for unset delays.
func (c ShellConfig) CrashPolicy() supervisor.CrashPolicy {
	initial := c.Crash.BackoffInitialMS
	if initial <= 0 {
		initial = defaultBackoffInitial
	}
	maxMS := c.Crash.BackoffMaxMS
	if maxMS <= 0 {
		maxMS = defaultBackoffMax
	}
	if maxMS < initial {
		maxMS = initial
	}
	return supervisor.CrashPolicy{
		ShowDialog:         c.Crash.ShowDialog,
		AutoRestartDefault: c.Crash.AutoRestartDefault,
		BackoffInitial:     time.Duration(initial) * time.Millisecond,
		BackoffMax:         time.Duration(maxMS) * time.Millisecond,
	}
}

// WorkspaceApps returns the static app list configured for a workspace.
func (c ShellConfig) WorkspaceApps(name string) []string {
	return normalizedList(c.Workspaces[name])
}

func (c ShellConfig) WorkspaceNames() []string {
	names := make([]string, 0, len(c.Workspaces))
	for name := range c.Workspaces {
		names = append(names, name)
	}
	return names
}

func (c ShellConfig) StartupApps() []string {
	return normalizedList(c.Startup.Apps)
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func normalizedList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
)

const appDirName = ".tui-shell"

// DataDir returns the base data directory for the shell.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// ShellConfigPath returns the path to the shell configuration file.
func ShellConfigPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "config.toml"), nil
}

// SessionPath returns the path to the persisted session snapshot.
func SessionPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "session.json"), nil
}

// StorePath returns the path to the launcher history database.
func StorePath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "shell.db"), nil
}

// LogPath returns the path to the shell log file.
func LogPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "logs", "shell.log"), nil
}

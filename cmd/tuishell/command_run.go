package main

import (
	"fmt"
	"io"

	"tuishell/internal/config"
	"tuishell/internal/launcher"
	"tuishell/internal/logging"
	"tuishell/internal/session"
	"tuishell/internal/shell"
	"tuishell/internal/store"
	"tuishell/internal/supervisor"
	"tuishell/internal/workspace"
)

// RunCommand wires the shell together and runs it until exit.
type RunCommand struct {
	stdout io.Writer
	stderr io.Writer
}

func (c *RunCommand) Run(args []string) error {
	fs := newFlagSet("run", c.stderr)
	configPath := configPathFlag(fs)
	if err := fs.Parse(args); err != nil {
		return flagParseError(err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logPath, err := config.LogPath()
	if err != nil {
		return err
	}
	logger, logCloser, err := logging.Open(logPath, logging.ParseLevel(cfg.LogLevel()))
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	storePath, err := config.StorePath()
	if err != nil {
		return err
	}
	repo, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer repo.Close()

	sessionPath, err := config.SessionPath()
	if err != nil {
		return err
	}

	manager := supervisor.NewManager(cfg.CrashPolicy(), logger)
	catalog := launcher.New(repo.Recents())
	for _, manifest := range cfg.Apps {
		manager.Register(manifest)
		catalog.Register(launcher.Entry{Manifest: manifest, Category: manifest.Category})
	}

	logger.Info("shell starting",
		logging.F("apps", len(cfg.Apps)), logging.F("variant", cfg.Variant))

	return shell.Run(shell.Deps{
		Config:     cfg,
		Logger:     logger,
		Supervisor: manager,
		Workspaces: workspace.New(),
		Sessions:   session.NewManager(sessionPath, cfg.SaveInterval(), logger),
		Catalog:    catalog,
		States:     repo.AppStates(),
	})
}

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"tuishell/internal/config"
)

type commandRunner interface {
	Run(args []string) error
}

func buildCommands(stdout, stderr io.Writer) map[string]commandRunner {
	return map[string]commandRunner{
		"run":    &RunCommand{stdout: stdout, stderr: stderr},
		"config": &ConfigCommand{stdout: stdout, stderr: stderr},
		"apps":   &AppsCommand{stdout: stdout, stderr: stderr},
	}
}

// loadConfig resolves the config file: the --config override when given,
// otherwise the default location.
func loadConfig(path string) (config.ShellConfig, error) {
	path = strings.TrimSpace(path)
	if path != "" {
		return config.LoadShellConfigFromPath(path)
	}
	return config.LoadShellConfig()
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func configPathFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "path to the shell config file")
}

func flagParseError(err error) error {
	if err == flag.ErrHelp {
		return nil
	}
	return fmt.Errorf("parse flags: %w", err)
}

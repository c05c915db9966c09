package main

import (
	"fmt"
	"io"

	toml "github.com/pelletier/go-toml/v2"

	"tuishell/internal/config"
)

// ConfigCommand prints the effective configuration after defaults and the
// config file are merged.
type ConfigCommand struct {
	stdout io.Writer
	stderr io.Writer
}

func (c *ConfigCommand) Run(args []string) error {
	fs := newFlagSet("config", c.stderr)
	configPath := configPathFlag(fs)
	if err := fs.Parse(args); err != nil {
		return flagParseError(err)
	}

	path := *configPath
	if path == "" {
		resolved, err := config.ShellConfigPath()
		if err != nil {
			return err
		}
		path = resolved
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprintf(c.stdout, "# %s\n", path)
	_, err = c.stdout.Write(out)
	return err
}

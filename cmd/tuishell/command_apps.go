package main

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// AppsCommand lists the applications registered in the config.
type AppsCommand struct {
	stdout io.Writer
	stderr io.Writer
}

func (c *AppsCommand) Run(args []string) error {
	fs := newFlagSet("apps", c.stderr)
	configPath := configPathFlag(fs)
	if err := fs.Parse(args); err != nil {
		return flagParseError(err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(cfg.Apps) == 0 {
		fmt.Fprintln(c.stdout, "no apps configured")
		return nil
	}

	writer := tabwriter.NewWriter(c.stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "NAME\tDISPLAY\tCOMMAND\tSESSION\tAUTO-RESTART\tSINGLETON")
	for _, app := range cfg.Apps {
		display := app.DisplayName
		if display == "" {
			display = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%v\t%v\t%v\n",
			app.Name, display, app.Command, app.SupportsSession, app.AutoRestart, app.Singleton)
	}
	return writer.Flush()
}

package main

import (
	"fmt"
	"os"
)

const usageText = `tui-shell hosts terminal applications in a tiled workspace shell.

Usage:
  tuishell <command> [flags]

Commands:
  run      start the shell (default)
  config   print the effective configuration
  apps     list the registered applications
  help     show help

Flags:
  -h, --help   show help

Run flags:
  --config <path>   use an alternate config file

Examples:
  tuishell run
  tuishell run --config ./shell.toml
  tuishell config
  tuishell apps
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"run"}
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	commands := buildCommands(os.Stdout, os.Stderr)
	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	if err := runner.Run(args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s error: %v\n", args[0], err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// errProblems signals a lint run that should fail without printing another
// error message.
var errProblems = errors.New("lint problems found")

func newApp() *cli.App {
	return &cli.App{
		Name:    "jsflow",
		Usage:   "Control flow aware linter for JavaScript and TypeScript",
		Version: version,
		Description: `jsflow builds the code path graph of every function in JavaScript and
TypeScript sources and runs lint rules driven by it, such as
no-unreachable, no-fallthrough and consistent-return.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"JSFLOW_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Usage:   "Disable colored output",
				EnvVars: []string{"NO_COLOR"},
			},
		},
		Commands: []*cli.Command{
			lintCmd(),
			pathsCmd(),
			rulesCmd(),
			configCmd(),
			mcpCmd(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err == nil {
		return
	}
	if !errors.Is(err, errProblems) {
		color.Red("Error: %v", err)
	}
	os.Exit(1)
}

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("invalid usage: "+format, args...)
}

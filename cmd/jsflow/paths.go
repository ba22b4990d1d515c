package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/jsflow/internal/progress"
	"github.com/panbanda/jsflow/internal/service/analysis"
	"github.com/panbanda/jsflow/pkg/codepath"
)

func pathsCmd() *cli.Command {
	flags := append(formatFlags(), gitFlags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:  "dot",
			Usage: "Print each code path as a Graphviz digraph instead of statistics",
		},
	)

	return &cli.Command{
		Name:      "paths",
		Aliases:   []string{"cfg"},
		Usage:     "Show the code paths of JavaScript and TypeScript files",
		ArgsUsage: "[path...]",
		Description: `Builds the code path graph of the program body, every function, class
field initializer and static block, and reports segment counts,
cyclomatic complexity, loops and unreachable segments.

Examples:
  jsflow paths src/app.js                  # Statistics per code path
  jsflow paths --format json src           # Machine readable
  jsflow paths --dot src/app.js | dot -Tsvg > app.svg`,
		Flags:  flags,
		Action: runPathsCmd,
	}
}

func runPathsCmd(c *cli.Context) error {
	svc, cfg, err := newService(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	files, err := svc.ScanPaths(c.Context, getPaths(c), analysis.ScanOptions{
		Changed: c.Bool("changed"),
		Since:   c.String("since"),
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		formatter.Warning("No JavaScript or TypeScript files found")
		return nil
	}

	tracker := progress.New("Analyzing", len(files), c.App.ErrWriter, humanFormat(formatter) && !c.Bool("dot") && len(files) > 1)
	report, analyses, errs := svc.CodePaths(c.Context, files, analysis.RunOptions{OnProgress: tracker.Tick})
	tracker.Finish()
	if errs != nil {
		if err := c.Context.Err(); err != nil {
			return err
		}
		logErrors(newLogger(c, cfg), errs)
	}

	if !c.Bool("dot") {
		return formatter.Output(report)
	}

	w := formatter.Writer()
	for _, a := range analyses {
		for _, cp := range a.CodePaths {
			fmt.Fprintf(w, "// %s %s (%s)\n", a.Path, cp.ID(), cp.Origin())
			fmt.Fprintln(w, codepath.MakeDot(cp))
		}
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/jsflow/internal/fileproc"
	"github.com/panbanda/jsflow/internal/logging"
	"github.com/panbanda/jsflow/internal/output"
	"github.com/panbanda/jsflow/internal/progress"
	"github.com/panbanda/jsflow/internal/service/analysis"
	"github.com/panbanda/jsflow/internal/watch"
)

func lintCmd() *cli.Command {
	flags := append(formatFlags(), gitFlags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Disable the result cache",
		},
		&cli.IntFlag{
			Name:  "max-warnings",
			Value: -1,
			Usage: "Fail when there are more warnings than this (-1 disables)",
		},
		&cli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "Re-lint files as they change",
		},
		&cli.DurationFlag{
			Name:  "debounce",
			Value: watch.DefaultDebounce,
			Usage: "Quiet period before a changed file is re-linted",
		},
	)

	return &cli.Command{
		Name:      "lint",
		Usage:     "Run the configured rules over JavaScript and TypeScript files",
		ArgsUsage: "[path...]",
		Description: `Lints files and directories. Directories are searched recursively,
skipping excluded directories and .gitignore entries.

Exits with status 1 when any error-level problem is reported, or when
--max-warnings is exceeded.

Examples:
  jsflow lint                     # Lint the current directory
  jsflow lint src --format json   # JSON report for src
  jsflow lint --changed           # Only files with uncommitted changes
  jsflow lint --since main        # Only files changed since main
  jsflow lint --watch src         # Re-lint on save`,
		Flags:  flags,
		Action: runLintCmd,
	}
}

func runLintCmd(c *cli.Context) error {
	if c.Bool("changed") && c.String("since") != "" {
		return usageError("--changed and --since are mutually exclusive")
	}

	svc, cfg, err := newService(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	paths := getPaths(c)
	files, err := svc.ScanPaths(c.Context, paths, analysis.ScanOptions{
		Changed: c.Bool("changed"),
		Since:   c.String("since"),
	})
	if err != nil {
		return err
	}

	logger := newLogger(c, cfg)
	failed := false
	if len(files) == 0 {
		formatter.Warning("No JavaScript or TypeScript files found")
	} else {
		report, err := lintOnce(c.Context, c, svc, formatter, logger, files)
		if err != nil {
			return err
		}
		failed = exceeds(report, c.Int("max-warnings"))
	}

	if c.Bool("watch") {
		return watchAndLint(c, svc, formatter, paths[0], logging.Component(logger, "watch"))
	}
	if failed {
		return errProblems
	}
	return nil
}

// lintOnce lints files and writes the report. Files that could not be read
// are logged and left out of the report.
func lintOnce(ctx context.Context, c *cli.Context, svc *analysis.Service, formatter *output.Formatter, logger zerolog.Logger, files []string) (*output.LintReport, error) {
	tracker := progress.New("Linting", len(files), c.App.ErrWriter, humanFormat(formatter) && len(files) > 1)
	report, errs := svc.Lint(ctx, files, analysis.RunOptions{OnProgress: tracker.Tick})
	tracker.Finish()

	if errs != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logErrors(logger, errs)
	}
	if err := formatter.Output(report); err != nil {
		return nil, err
	}
	return report, nil
}

func logErrors(logger zerolog.Logger, errs *fileproc.ProcessingErrors) {
	for _, e := range errs.Errors {
		if errors.Is(e.Err, fileproc.ErrFileTooLarge) {
			logger.Debug().Str("path", e.Path).Msg("skipped large file")
			continue
		}
		logger.Warn().Err(e.Err).Str("path", e.Path).Msg("cannot lint file")
	}
}

// exceeds reports whether the run should exit non-zero.
func exceeds(r *output.LintReport, maxWarnings int) bool {
	if r.Errors > 0 {
		return true
	}
	return maxWarnings >= 0 && r.Warnings > maxWarnings
}

func watchAndLint(c *cli.Context, svc *analysis.Service, formatter *output.Formatter, root string, logger zerolog.Logger) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if info, err := os.Stat(absRoot); err == nil && !info.IsDir() {
		absRoot = filepath.Dir(absRoot)
	}

	w, err := watch.New(absRoot, svc.Config(), func(ctx context.Context, paths []string) {
		for _, p := range paths {
			if err := svc.Cache().Invalidate(p); err != nil {
				logger.Debug().Err(err).Str("path", p).Msg("cache invalidation failed")
			}
		}
		if _, err := lintOnce(ctx, c, svc, formatter, logger, paths); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("lint failed")
		}
	}, watch.WithDebounce(c.Duration("debounce")), watch.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	err = w.Start(c.Context)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

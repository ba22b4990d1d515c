package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/jsflow/internal/logging"
	"github.com/panbanda/jsflow/internal/output"
	"github.com/panbanda/jsflow/internal/service/analysis"
	"github.com/panbanda/jsflow/pkg/config"
)

// loadConfig loads --config, or searches the working directory.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

func colored(c *cli.Context, cfg *config.Config) bool {
	return cfg.Output.Color && !c.Bool("no-color") && !color.NoColor
}

func newLogger(c *cli.Context, cfg *config.Config) zerolog.Logger {
	return logging.New(c.App.ErrWriter, c.Bool("verbose"), colored(c, cfg))
}

// newFormatter writes to --output when set and to the app writer otherwise.
// An empty --format falls back to the configured format.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	name := c.String("format")
	if name == "" {
		name = cfg.Output.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	if path := c.String("output"); path != "" {
		return output.NewFormatter(format, path, false)
	}
	return output.New(format, c.App.Writer, colored(c, cfg)), nil
}

// humanFormat reports whether progress bars make sense for the output.
func humanFormat(f *output.Formatter) bool {
	if f.Format() != output.FormatText && f.Format() != output.FormatTable {
		return false
	}
	return f.Writer() == os.Stdout && f.Colored()
}

// newService loads the configuration and builds the analysis service.
func newService(c *cli.Context) (*analysis.Service, *config.Config, error) {
	result, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	cfg := result.Config

	logger := newLogger(c, cfg)
	if result.Source != "" {
		logger.Debug().Str("path", result.Source).Msg("loaded config")
	}

	opts := []analysis.Option{
		analysis.WithConfig(cfg),
		analysis.WithLogger(logger),
	}
	if c.Bool("no-cache") {
		opts = append(opts, analysis.WithoutCache())
	}
	svc, err := analysis.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, table, json, yaml, toon (default from config)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
	}
}

func gitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "changed",
			Usage: "Only include files with uncommitted changes",
		},
		&cli.StringFlag{
			Name:  "since",
			Usage: "Only include files changed since a git revision",
		},
	}
}

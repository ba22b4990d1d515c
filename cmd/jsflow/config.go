package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/jsflow/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a jsflow configuration file against the schema and checks
every rule entry.

Examples:
  jsflow config validate                     # Validates default config locations
  jsflow -c jsflow.yaml config validate      # Validates specific file`,
				Action: runConfigValidate,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  jsflow config show
  jsflow -c .jsflow/jsflow.toml config show`,
				Action: runConfigShow,
			},
			{
				Name:  "init",
				Usage: "Write a default configuration file",
				Description: `Creates a jsflow.toml with the recommended rules and default
exclusions.

Examples:
  jsflow config init                        # Creates jsflow.toml
  jsflow config init -o .jsflow/jsflow.toml
  jsflow config init --force                # Overwrite existing file`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Value:   "jsflow.toml",
						Usage:   "Output file path",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite existing config file",
					},
				},
				Action: runConfigInit,
			},
		},
	}
}

func runConfigValidate(c *cli.Context) error {
	w := c.App.Writer
	result, err := loadConfig(c)
	if err != nil {
		color.New(color.FgRed).Fprintln(w, "Configuration validation failed:")
		fmt.Fprintf(w, "  - %s\n", err)
		return err
	}

	if result.Source != "" {
		color.New(color.FgGreen).Fprintf(w, "Configuration valid: %s\n", result.Source)
	} else {
		color.New(color.FgYellow).Fprintln(w, "No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	result, err := loadConfig(c)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if result.Source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}

	content, err := config.Marshal(result.Config)
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.New(color.FgGreen).Fprintf(c.App.Writer, "Created %s\n", outputPath)
	return nil
}

func generateDefaultConfig() (string, error) {
	content, err := config.Marshal(config.DefaultConfig())
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	buf.WriteString("# jsflow configuration\n")
	buf.WriteString("# Rule values are \"off\", \"warn\", \"error\" or [severity, options...].\n\n")
	buf.Write(content)
	return buf.String(), nil
}

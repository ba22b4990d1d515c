package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/jsflow/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the linter and
the code path analysis as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "jsflow": {
        "command": "jsflow",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - lint          Lint files and directories
  - lint_source   Lint an inline snippet
  - code_paths    Code path statistics and DOT graphs
  - list_rules    Built-in rules and their severity`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:  "manifest",
				Usage: "Print the server.json registry manifest",
				Action: func(c *cli.Context) error {
					data, err := mcpserver.GenerateManifest(version)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, string(data))
					return err
				},
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	result, err := loadConfig(c)
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(version, result.Config)
	return server.Run(c.Context)
}

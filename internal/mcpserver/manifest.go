package mcpserver

import (
	"encoding/json"
	"strings"
)

const (
	registryName   = "io.github.panbanda/jsflow"
	repositoryURL  = "https://github.com/panbanda/jsflow"
	imageName      = "ghcr.io/panbanda/jsflow"
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
)

// Manifest is the server.json document published to the MCP registry.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	WebsiteURL  string      `json:"websiteUrl,omitempty"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package runs the jsflow image with the mcp subcommand over stdio.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	Transport            Transport     `json:"transport"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []Environment `json:"environmentVariables,omitempty"`
}

type Argument struct {
	Type        string `json:"type"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// Environment is a variable the jsflow CLI reads at startup.
type Environment struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired"`
}

type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest renders the registry manifest for version. The tool names
// are listed in the description so registry search finds them.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	tools := []string{"lint", "lint_source", "code_paths", "list_rules"}
	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Title:       "jsflow",
		Description: "Code path analysis and flow-aware linting for JS/TS (" + strings.Join(tools, ", ") + ")",
		Version:     version,
		WebsiteURL:  repositoryURL,
		Repository:  &Repository{URL: repositoryURL, Source: "github"},
		Packages: []Package{{
			RegistryType: "oci",
			Identifier:   imageName + ":" + version,
			Transport:    Transport{Type: "stdio"},
			PackageArguments: []Argument{
				{Type: "positional", Value: "mcp", Description: "Serve the linter and code path tools"},
			},
			EnvironmentVariables: []Environment{
				{Name: "JSFLOW_CONFIG", Description: "Config file (toml, yaml or json) with rules and exclusions"},
				{Name: "NO_COLOR", Description: "Disable colored log output"},
			},
		}},
	}

	return json.MarshalIndent(manifest, "", "  ")
}

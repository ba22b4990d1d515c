package mcpserver

import (
	"bytes"
	"cmp"
	"context"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/jsflow/internal/output"
	"github.com/panbanda/jsflow/internal/service/analysis"
	"github.com/panbanda/jsflow/pkg/codepath"
	"github.com/panbanda/jsflow/pkg/linter"
	"github.com/panbanda/jsflow/pkg/pathgraph"
	"github.com/panbanda/jsflow/pkg/rules"
)

// AnalyzeInput is the base input for the file based tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Files or directories to analyze. Defaults to current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or yaml."`
}

// LintInput adds lint options.
type LintInput struct {
	AnalyzeInput
	Changed bool   `json:"changed,omitempty" jsonschema:"Only lint files with uncommitted changes."`
	Since   string `json:"since,omitempty" jsonschema:"Only lint files changed since this git revision."`
}

// LintSourceInput is the input of lint_source.
type LintSourceInput struct {
	Source   string `json:"source" jsonschema:"The JavaScript or TypeScript source to lint."`
	Filename string `json:"filename,omitempty" jsonschema:"File name used to pick the grammar. Default input.js."`
	Format   string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or yaml."`
}

// CodePathsInput adds code path options.
type CodePathsInput struct {
	AnalyzeInput
	Dot bool `json:"dot,omitempty" jsonschema:"Include Graphviz DOT source for each code path."`
}

// ListRulesInput is the input of list_rules.
type ListRulesInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or yaml."`
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(format string) output.Format {
	switch format {
	case "json":
		return output.FormatJSON
	case "yaml", "yml":
		return output.FormatYAML
	default:
		return output.FormatTOON
	}
}

func formatOutput(r output.Renderable, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.New(format, &buf, false).Output(r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toolResult(r output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(r, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

const msgNoFiles = "no JavaScript or TypeScript files found"

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) service() (*analysis.Service, error) {
	return analysis.New(analysis.WithConfig(s.config))
}

func (s *Server) handleLint(ctx context.Context, req *mcp.CallToolRequest, input LintInput) (*mcp.CallToolResult, any, error) {
	svc, err := s.service()
	if err != nil {
		return toolError(err.Error())
	}

	files, err := svc.ScanPaths(ctx, getPaths(input.AnalyzeInput), analysis.ScanOptions{
		Changed: input.Changed,
		Since:   input.Since,
	})
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError(msgNoFiles)
	}

	report, errs := svc.Lint(ctx, files, analysis.RunOptions{})
	if errs != nil && report.Scanned == 0 {
		return toolError(errs.Error())
	}
	return toolResult(report, getFormat(input.Format))
}

func (s *Server) handleLintSource(ctx context.Context, req *mcp.CallToolRequest, input LintSourceInput) (*mcp.CallToolResult, any, error) {
	if input.Source == "" {
		return toolError("source is required")
	}
	filename := input.Filename
	if filename == "" {
		filename = "input.js"
	}

	svc, err := s.service()
	if err != nil {
		return toolError(err.Error())
	}
	problems, err := svc.LintSource(ctx, filename, []byte(input.Source))
	if err != nil {
		return toolError(err.Error())
	}
	if problems == nil {
		problems = []linter.Problem{}
	}

	out := struct {
		Problems []linter.Problem `json:"problems" yaml:"problems" toon:"problems"`
	}{problems}
	return toolResult(output.Data{Value: out}, getFormat(input.Format))
}

// pathsWithDot is a paths report plus the DOT source of each path, keyed by
// "<file>#<path id>".
type pathsWithDot struct {
	Files   []output.FilePaths `json:"files" yaml:"files" toon:"files"`
	Summary pathgraph.Summary  `json:"summary" yaml:"summary" toon:"summary"`
	Dot     map[string]string  `json:"dot" yaml:"dot" toon:"dot"`
}

func (s *Server) handleCodePaths(ctx context.Context, req *mcp.CallToolRequest, input CodePathsInput) (*mcp.CallToolResult, any, error) {
	svc, err := s.service()
	if err != nil {
		return toolError(err.Error())
	}

	files, err := svc.ScanPaths(ctx, getPaths(input.AnalyzeInput), analysis.ScanOptions{})
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError(msgNoFiles)
	}

	report, analyses, errs := svc.CodePaths(ctx, files, analysis.RunOptions{})
	if errs != nil && len(analyses) == 0 {
		return toolError(errs.Error())
	}

	format := getFormat(input.Format)
	if !input.Dot {
		return toolResult(report, format)
	}

	dot := make(map[string]string)
	for _, a := range analyses {
		for _, cp := range a.CodePaths {
			dot[a.Path+"#"+cp.ID()] = codepath.MakeDot(cp)
		}
	}
	return toolResult(output.Data{Value: pathsWithDot{report.Files, report.Summary, dot}}, format)
}

// RuleInfo describes a rule and its effective configuration.
type RuleInfo struct {
	ID          string `json:"id" yaml:"id" toon:"id"`
	Type        string `json:"type" yaml:"type" toon:"type"`
	Description string `json:"description" yaml:"description" toon:"description"`
	Severity    string `json:"severity" yaml:"severity" toon:"severity"`
	Options     []any  `json:"options,omitempty" yaml:"options,omitempty" toon:"options,omitempty"`
}

// ruleInfos lists every built-in rule with the severity it has under cfgs.
func ruleInfos(cfgs map[string]linter.RuleConfig) []RuleInfo {
	var out []RuleInfo
	for _, r := range rules.All() {
		meta := r.Meta()
		rc := cfgs[meta.Name]
		out = append(out, RuleInfo{
			ID:          meta.Name,
			Type:        meta.Type,
			Description: meta.Description,
			Severity:    rc.Severity.String(),
			Options:     rc.Options,
		})
	}
	slices.SortFunc(out, func(a, b RuleInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Server) handleListRules(ctx context.Context, req *mcp.CallToolRequest, input ListRulesInput) (*mcp.CallToolResult, any, error) {
	cfgs, err := s.config.RuleConfigs()
	if err != nil {
		return toolError(err.Error())
	}
	out := struct {
		Rules []RuleInfo `json:"rules" yaml:"rules" toon:"rules"`
	}{ruleInfos(cfgs)}
	return toolResult(output.Data{Value: out}, getFormat(input.Format))
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/jsflow/pkg/linter"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.Rules["no-unreachable"] != "error" {
		t.Errorf("Rules[no-unreachable] = %v, want error", cfg.Rules["no-unreachable"])
	}
	if cfg.Rules["no-fallthrough"] != "error" {
		t.Errorf("Rules[no-fallthrough] = %v, want error", cfg.Rules["no-fallthrough"])
	}
	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if len(cfg.Exclude.Dirs) == 0 {
		t.Error("Exclude.Dirs should have default values")
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be true by default")
	}
	if cfg.Cache.TTL != 24 {
		t.Errorf("Cache.TTL = %d, want 24", cfg.Cache.TTL)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if cfg.Analysis.MaxFileSize != 1<<20 {
		t.Errorf("Analysis.MaxFileSize = %d, want %d", cfg.Analysis.MaxFileSize, 1<<20)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "jsflow.toml", `
[rules]
no-unreachable = "warn"
complexity = ["error", 10]
no-restricted-syntax = ["error", "WithStatement", "DebuggerStatement"]

[exclude]
dirs = ["vendor", "custom_exclude"]

[output]
format = "json"

[analysis]
workers = 4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s, want json", cfg.Output.Format)
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("Analysis.Workers = %d, want 4", cfg.Analysis.Workers)
	}
	if len(cfg.Exclude.Dirs) != 2 || cfg.Exclude.Dirs[1] != "custom_exclude" {
		t.Errorf("Exclude.Dirs = %v", cfg.Exclude.Dirs)
	}

	rcs, err := cfg.RuleConfigs()
	if err != nil {
		t.Fatalf("RuleConfigs() error = %v", err)
	}
	if rcs["no-unreachable"].Severity != linter.SeverityWarn {
		t.Errorf("no-unreachable severity = %v, want warn", rcs["no-unreachable"].Severity)
	}
	// Recommended rules not mentioned in the file stay enabled.
	if rcs["no-fallthrough"].Severity != linter.SeverityError {
		t.Errorf("no-fallthrough severity = %v, want error", rcs["no-fallthrough"].Severity)
	}
	if got := rcs["complexity"]; got.Severity != linter.SeverityError || len(got.Options) != 1 {
		t.Errorf("complexity = %+v", got)
	}
	restricted := rcs["no-restricted-syntax"]
	if len(restricted.Options) != 2 {
		t.Fatalf("no-restricted-syntax options = %v", restricted.Options)
	}
	if restricted.Options[1] != "DebuggerStatement" {
		t.Errorf("no-restricted-syntax options[1] = %#v", restricted.Options[1])
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "jsflow.yaml", `
rules:
  consistent-return: [warn, {treatUndefinedAsUnspecified: true}]
  no-fallthrough: off
cache:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false")
	}

	rcs, err := cfg.RuleConfigs()
	if err != nil {
		t.Fatalf("RuleConfigs() error = %v", err)
	}
	if rcs["no-fallthrough"].Severity != linter.SeverityOff {
		t.Errorf("no-fallthrough severity = %v, want off", rcs["no-fallthrough"].Severity)
	}
	cr := rcs["consistent-return"]
	if cr.Severity != linter.SeverityWarn || len(cr.Options) != 1 {
		t.Fatalf("consistent-return = %+v", cr)
	}
	if m, ok := cr.Options[0].(map[string]any); !ok || m["treatUndefinedAsUnspecified"] != true {
		t.Errorf("consistent-return options[0] = %#v", cr.Options[0])
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "jsflow.json", `{"rules": {"complexity": [2, {"max": 5}]}, "output": {"color": false}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output.Color {
		t.Error("Output.Color should be false")
	}
	rcs, err := cfg.RuleConfigs()
	if err != nil {
		t.Fatalf("RuleConfigs() error = %v", err)
	}
	if rcs["complexity"].Severity != linter.SeverityError {
		t.Errorf("complexity severity = %v, want error", rcs["complexity"].Severity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestRuleConfigsErrors(t *testing.T) {
	tests := []struct {
		name  string
		rules map[string]any
	}{
		{"bad severity", map[string]any{"no-unreachable": "loud"}},
		{"empty list", map[string]any{"complexity": []any{}}},
		{"bad list severity", map[string]any{"complexity": []any{7, 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Rules: tt.rules}
			if _, err := cfg.RuleConfigs(); err == nil {
				t.Error("RuleConfigs() should fail")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	valid := writeFile(t, dir, "valid.toml", `
[rules]
no-unreachable = "error"
complexity = ["warn", 10]

[output]
format = "yaml"
`)
	if err := Validate(valid); err != nil {
		t.Errorf("Validate(valid) error = %v", err)
	}

	tests := []struct {
		name    string
		content string
	}{
		{"unknown section", "[nope]\nx = 1\n"},
		{"bad severity", "[rules]\nno-unreachable = \"loud\"\n"},
		{"bad format", "[output]\nformat = \"xml\"\n"},
		{"negative ttl", "[cache]\nttl = -1\n"},
		{"bad list head", "[rules]\ncomplexity = [5, 10]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".toml", tt.content)
			if err := Validate(path); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	result, err := LoadConfig(WithDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if result.Source != "" {
		t.Errorf("Source = %q, want empty", result.Source)
	}

	path := writeFile(t, dir, ".jsflow/jsflow.yml", "output:\n  format: toon\n")
	result, err = LoadConfig(WithDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if result.Source != path {
		t.Errorf("Source = %q, want %q", result.Source, path)
	}
	if result.Config.Output.Format != "toon" {
		t.Errorf("Output.Format = %s, want toon", result.Config.Output.Format)
	}

	bad := writeFile(t, dir, "bad.toml", "[output]\nformat = \"xml\"\n")
	if _, err := LoadConfig(WithPath(bad)); err == nil {
		t.Error("LoadConfig() should fail for an invalid file")
	}
}

func TestFindPrefersRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".jsflow/jsflow.toml", "")
	root := writeFile(t, dir, "jsflow.json", "{}")

	got, ok := Find(dir)
	if !ok || got != root {
		t.Errorf("Find() = %q, %v; want %q", got, ok, root)
	}
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(out)
	for _, want := range []string{"[rules]", "no-unreachable", "[exclude]", "node_modules", "[cache]"} {
		if !strings.Contains(s, want) {
			t.Errorf("Marshal() output missing %q:\n%s", want, s)
		}
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		path string
		want bool
	}{
		{"src/index.js", false},
		{"node_modules/lib/index.js", true},
		{"packages/a/node_modules/b.js", true},
		{"dist/app.js", true},
		{"src/app.min.js", true},
		{"types/index.d.ts", true},
		{"src/builder.ts", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := cfg.ShouldExclude(filepath.FromSlash(tt.path)); got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if cfg := LoadOrDefault(); cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}

	writeFile(t, dir, ".jsflow.yaml", "output:\n  format: table\n")
	if cfg := LoadOrDefault(); cfg.Output.Format != "table" {
		t.Errorf("Output.Format = %s, want table", cfg.Output.Format)
	}
}

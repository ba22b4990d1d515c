package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/jsflow/internal/output"
)

// run executes the CLI in dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"jsflow", "--no-color"}, args...))
	return stdout.String(), err
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestGetPaths(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"no args defaults to current dir", []string{}, []string{"."}},
		{"single path", []string{"/foo/bar"}, []string{"/foo/bar"}},
		{"multiple paths", []string{"/foo", "/bar"}, []string{"/foo", "/bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			app := &cli.App{
				Action: func(c *cli.Context) error {
					got = getPaths(c)
					return nil
				},
			}
			if err := app.Run(append([]string{"test"}, tt.args...)); err != nil {
				t.Fatal(err)
			}
			if strings.Join(got, ",") != strings.Join(tt.expected, ",") {
				t.Errorf("getPaths() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLintClean(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/a.js": "function f() { return 1; }\n",
	})
	out, err := run(t, dir, "lint")
	if err != nil {
		t.Fatalf("lint error = %v", err)
	}
	if out != "" {
		t.Errorf("clean lint printed %q", out)
	}
}

func TestLintProblemsFail(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/a.js": "function f() {\n  return 1;\n  g();\n}\n",
	})
	out, err := run(t, dir, "lint", "--no-cache", "src")
	if !errors.Is(err, errProblems) {
		t.Fatalf("lint error = %v, want errProblems", err)
	}
	for _, want := range []string{"src/a.js", "3:3", "Unreachable code.", "no-unreachable", "1 problem (1 error, 0 warnings)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLintJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js": "switch (x) {\n  case 1: f();\n  case 2: g();\n}\n",
	})
	out, err := run(t, dir, "lint", "--format", "json", ".")
	if !errors.Is(err, errProblems) {
		t.Fatalf("lint error = %v", err)
	}

	var report output.LintReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if report.Errors != 1 || report.Files[0].Problems[0].RuleID != "no-fallthrough" {
		t.Errorf("report = %+v", report)
	}
}

func TestLintMaxWarnings(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"jsflow.yaml": "rules:\n  no-unreachable: warn\n",
		"a.js":        "function f() {\n  return 1;\n  g();\n}\n",
	})

	if _, err := run(t, dir, "lint", "a.js"); err != nil {
		t.Errorf("warnings alone should pass, got %v", err)
	}
	if _, err := run(t, dir, "lint", "--max-warnings", "0", "a.js"); !errors.Is(err, errProblems) {
		t.Errorf("--max-warnings 0 error = %v, want errProblems", err)
	}
}

func TestLintChangedAndSinceExclusive(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.js": "a();\n"})
	if _, err := run(t, dir, "lint", "--changed", "--since", "HEAD"); err == nil {
		t.Error("expected a usage error")
	}
}

func TestLintOutputFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js": "function f() {\n  throw e;\n  g();\n}\n",
	})
	target := filepath.Join(dir, "report.yaml")
	if _, err := run(t, dir, "lint", "-f", "yaml", "-o", target, "a.js"); !errors.Is(err, errProblems) {
		t.Fatalf("lint error = %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ruleId: no-unreachable") {
		t.Errorf("report file:\n%s", data)
	}
}

func TestPaths(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js": "function f(a) {\n  if (a) { return 1; }\n  return 2;\n}\n",
	})
	out, err := run(t, dir, "paths", "--format", "json", "a.js")
	if err != nil {
		t.Fatalf("paths error = %v", err)
	}

	var report output.PathsReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if report.Summary.Paths != 2 || report.Summary.MaxCyclomatic != 2 {
		t.Errorf("summary = %+v", report.Summary)
	}
}

func TestPathsDot(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js": "while (x) { y(); }\n",
	})
	out, err := run(t, dir, "paths", "--dot", "a.js")
	if err != nil {
		t.Fatalf("paths error = %v", err)
	}
	if !strings.Contains(out, "// a.js s1 (program)") || !strings.Contains(out, "digraph {") {
		t.Errorf("dot output:\n%s", out)
	}
}

func TestRules(t *testing.T) {
	out, err := run(t, t.TempDir(), "rules", "--format", "json")
	if err != nil {
		t.Fatalf("rules error = %v", err)
	}
	var rows []ruleRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(rows) != 5 || rows[0].ID != "complexity" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "config", "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, "Created jsflow.toml") {
		t.Errorf("init output = %q", out)
	}
	if _, err := run(t, dir, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}

	out, err = run(t, dir, "config", "validate")
	if err != nil {
		t.Fatalf("config validate error = %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Errorf("validate output = %q", out)
	}

	out, err = run(t, dir, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "# Configuration from: jsflow.toml") || !strings.Contains(out, "no-unreachable") {
		t.Errorf("show output:\n%s", out)
	}
}

func TestConfigValidateInvalid(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"jsflow.toml": "[rules]\nno-unreachable = \"loud\"\n",
	})
	if _, err := run(t, dir, "config", "validate"); err == nil {
		t.Error("validate should fail for an invalid severity")
	}
	if _, err := run(t, dir, "lint"); err == nil {
		t.Error("lint should refuse an invalid config")
	}
}

func TestMCPManifest(t *testing.T) {
	out, err := run(t, t.TempDir(), "mcp", "manifest")
	if err != nil {
		t.Fatalf("mcp manifest error = %v", err)
	}
	if !strings.Contains(out, `"name": "io.github.panbanda/jsflow"`) {
		t.Errorf("manifest:\n%s", out)
	}
}

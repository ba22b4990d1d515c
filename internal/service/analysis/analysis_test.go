package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/panbanda/jsflow/pkg/config"
	"github.com/panbanda/jsflow/pkg/linter"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	return cfg
}

func createTestFile(t *testing.T, dir, name, content string) string {
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

func TestNew(t *testing.T) {
	svc, err := New(WithConfig(testConfig(t)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if svc.Linter() == nil {
		t.Fatal("Linter() should not be nil")
	}
	if !svc.Cache().Enabled() {
		t.Error("cache should be enabled by default")
	}

	svc, err = New(WithConfig(testConfig(t)), WithoutCache())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if svc.Cache().Enabled() {
		t.Error("WithoutCache should disable the cache")
	}
}

func TestNewWithConfig(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	if svc.Config() != cfg {
		t.Error("WithConfig did not set config")
	}
}

func TestNewInvalidRules(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rules["no-unreachable"] = "loud"
	if _, err := New(WithConfig(cfg)); err == nil {
		t.Error("New() should fail for an invalid rule severity")
	}
}

func TestLint(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		createTestFile(t, dir, "ok.js", "function f() { return 1; }\n"),
		createTestFile(t, dir, "bad.js", "function f() {\n  return 1;\n  g();\n}\n"),
	}

	svc, err := New(WithConfig(testConfig(t)))
	if err != nil {
		t.Fatal(err)
	}

	var ticks atomic.Int32
	report, errs := svc.Lint(context.Background(), files, RunOptions{OnProgress: func() { ticks.Add(1) }})
	if errs != nil {
		t.Fatalf("Lint() errors = %v", errs)
	}
	if report.Scanned != 2 || len(report.Files) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Errors != 1 || report.Files[0].Path != files[1] {
		t.Errorf("report = %+v", report)
	}
	if n := ticks.Load(); n != 2 {
		t.Errorf("progress ticks = %d, want 2", n)
	}
}

func TestLintSource(t *testing.T) {
	svc, err := New(WithConfig(testConfig(t)), WithoutCache())
	if err != nil {
		t.Fatal(err)
	}

	problems, err := svc.LintSource(context.Background(), "input.js", []byte("switch (a) {\n  case 1: f();\n  case 2: g();\n}\n"))
	if err != nil {
		t.Fatalf("LintSource() error = %v", err)
	}
	if len(problems) != 1 || problems[0].RuleID != "no-fallthrough" {
		t.Fatalf("problems = %v", problems)
	}
	if problems[0].Severity != linter.SeverityError || problems[0].Line != 3 {
		t.Errorf("problem = %+v", problems[0])
	}
}

func TestCodePaths(t *testing.T) {
	dir := t.TempDir()
	file := createTestFile(t, dir, "paths.js", "function f(a) {\n  if (a) { return 1; }\n  return 2;\n}\nconst g = () => 1;\n")

	svc, err := New(WithConfig(testConfig(t)))
	if err != nil {
		t.Fatal(err)
	}

	report, analyses, errs := svc.CodePaths(context.Background(), []string{file}, RunOptions{})
	if errs != nil {
		t.Fatalf("CodePaths() errors = %v", errs)
	}
	if len(analyses) != 1 || len(analyses[0].CodePaths) != 3 {
		t.Fatalf("analyses = %+v", analyses)
	}
	if len(report.Files) != 1 || len(report.Files[0].Paths) != 3 {
		t.Fatalf("report = %+v", report)
	}

	var fn bool
	for _, s := range report.Files[0].Paths {
		if s.Node == "FunctionDeclaration" {
			fn = true
			if s.Cyclomatic != 2 {
				t.Errorf("f cyclomatic = %d, want 2", s.Cyclomatic)
			}
		}
	}
	if !fn {
		t.Error("no code path for the function declaration")
	}
}

func TestScanPaths(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "src/a.js", "a();\n")
	createTestFile(t, dir, "src/b.ts", "b();\n")
	createTestFile(t, dir, "node_modules/x/index.js", "x();\n")

	svc, err := New(WithConfig(testConfig(t)))
	if err != nil {
		t.Fatal(err)
	}

	files, err := svc.ScanPaths(context.Background(), []string{dir}, ScanOptions{})
	if err != nil {
		t.Fatalf("ScanPaths() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("ScanPaths() = %v, want 2 files", files)
	}

	_, err = svc.ScanPaths(context.Background(), []string{filepath.Join(dir, "missing")}, ScanOptions{})
	var scanErr *ScanError
	if !errors.As(err, &scanErr) {
		t.Errorf("ScanPaths(missing) error = %v, want *ScanError", err)
	}
}

func TestScanPathsChanged(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.js", "a();\n")
	createTestFile(t, dir, "b.js", "b();\n")

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddGlob("."); err != nil {
		t.Fatal(err)
	}
	_, err = w.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}

	createTestFile(t, dir, "b.js", "b(); b();\n")

	svc, err := New(WithConfig(testConfig(t)))
	if err != nil {
		t.Fatal(err)
	}
	files, err := svc.ScanPaths(context.Background(), []string{dir}, ScanOptions{Changed: true})
	if err != nil {
		t.Fatalf("ScanPaths() error = %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "b.js" {
		t.Errorf("ScanPaths(changed) = %v, want [b.js]", files)
	}
}

func TestScanPathsNotRepository(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.js", "a();\n")

	svc, err := New(WithConfig(testConfig(t)))
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.ScanPaths(context.Background(), []string{dir}, ScanOptions{Changed: true})
	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		t.Errorf("ScanPaths() error = %v, want *GitError", err)
	}
}

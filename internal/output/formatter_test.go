package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/panbanda/jsflow/internal/fileproc"
	"github.com/panbanda/jsflow/pkg/linter"
	"github.com/panbanda/jsflow/pkg/pathgraph"
)

func sampleResults() []fileproc.FileResult {
	return []fileproc.FileResult{
		{Path: "src/clean.js"},
		{
			Path: "src/a.js",
			Problems: []linter.Problem{
				{RuleID: "no-unreachable", Severity: linter.SeverityError, Message: "Unreachable code.", Line: 3, Column: 5},
				{RuleID: "complexity", Severity: linter.SeverityWarn, Message: "Function 'f' has a complexity of 4. Maximum allowed is 2.", Line: 10, Column: 1},
			},
			Errors:   1,
			Warnings: 1,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"stylish", FormatText},
		{"TABLE", FormatTable},
		{"json", FormatJSON},
		{"yml", FormatYAML},
		{"yaml", FormatYAML},
		{"toon", FormatTOON},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if err != nil {
				t.Fatalf("ParseFormat(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("file output should not be colored")
	}
	if err := f.Output(NewLintReport(sampleResults())); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"errorCount": 1`) {
		t.Errorf("file content = %s", data)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	if _, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "no", "such", "dir", "out"), false); err == nil {
		t.Error("NewFormatter() should fail for an invalid path")
	}
}

func TestLintReportText(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatText, &buf, false).Output(NewLintReport(sampleResults())); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"src/a.js\n",
		"3:5   error  Unreachable code.",
		"no-unreachable",
		"10:1  warn ",
		"✖ 2 problems (1 error, 1 warning)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "clean.js") {
		t.Errorf("files without problems should be omitted:\n%s", out)
	}
}

func TestLintReportTextClean(t *testing.T) {
	var buf bytes.Buffer
	report := NewLintReport([]fileproc.FileResult{{Path: "a.js"}})
	if err := New(FormatText, &buf, false).Output(report); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("clean run should print nothing, got %q", buf.String())
	}
	if report.Scanned != 1 {
		t.Errorf("Scanned = %d, want 1", report.Scanned)
	}
}

func TestLintReportTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatTable, &buf, false).Output(NewLintReport(sampleResults())); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"FILE", "SEVERITY", "src/a.js", "no-unreachable", "complexity"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestLintReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatJSON, &buf, false).Output(NewLintReport(sampleResults())); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var decoded struct {
		Files []struct {
			Path     string `json:"path"`
			Problems []struct {
				RuleID   string `json:"ruleId"`
				Severity string `json:"severity"`
				Line     int    `json:"line"`
			} `json:"problems"`
		} `json:"files"`
		Errors   int `json:"errorCount"`
		Warnings int `json:"warningCount"`
		Scanned  int `json:"filesScanned"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Errors != 1 || decoded.Warnings != 1 || decoded.Scanned != 2 {
		t.Errorf("totals = %+v", decoded)
	}
	if len(decoded.Files) != 1 || decoded.Files[0].Problems[0].Severity != "error" {
		t.Errorf("files = %+v", decoded.Files)
	}
}

func TestLintReportYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatYAML, &buf, false).Output(NewLintReport(sampleResults())); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if decoded["errorCount"] != 1 {
		t.Errorf("errorCount = %v", decoded["errorCount"])
	}
	if !strings.Contains(buf.String(), "severity: warn") {
		t.Errorf("severity should render by name:\n%s", buf.String())
	}
}

func TestLintReportTOON(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatTOON, &buf, false).Output(NewLintReport(sampleResults())); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"errorCount", "src/a.js", "Unreachable code."} {
		if !strings.Contains(out, want) {
			t.Errorf("toon output missing %q:\n%s", want, out)
		}
	}
}

func samplePaths() *PathsReport {
	return NewPathsReport([]FilePaths{{
		Path: "src/a.js",
		Paths: []pathgraph.Stats{
			{ID: "s1", Origin: "program", Node: "Program", Line: 1, Segments: 1, Cyclomatic: 1},
			{ID: "s2", Origin: "function", Node: "FunctionDeclaration", Line: 2, Segments: 4, Cyclomatic: 3, Loops: 1, MinDepth: 2, MaxDepth: 3},
		},
	}})
}

func TestPathsReportText(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatText, &buf, false).Output(samplePaths()); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"src/a.js",
		"FunctionDeclaration:2",
		"cyclomatic=3 loops=1",
		"2 code paths, mean cyclomatic 2.00",
		"1 loop,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestPathsReportTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatTable, &buf, false).Output(samplePaths()); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if !strings.Contains(buf.String(), "2-3") {
		t.Errorf("table output missing depth range:\n%s", buf.String())
	}
}

func TestPathsReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatJSON, &buf, false).Output(samplePaths()); err != nil {
		t.Fatal(err)
	}
	var decoded PathsReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Summary.Paths != 2 || decoded.Summary.MaxCyclomatic != 3 {
		t.Errorf("summary = %+v", decoded.Summary)
	}
}

func TestTableRenderData(t *testing.T) {
	tbl := &Table{Headers: []string{"a", "b"}, Rows: [][]string{{"1", "2"}, {"3"}}}
	data, ok := tbl.RenderData().([]map[string]string)
	if !ok || len(data) != 2 {
		t.Fatalf("RenderData() = %#v", tbl.RenderData())
	}
	if data[0]["b"] != "2" || data[1]["a"] != "3" {
		t.Errorf("RenderData() = %v", data)
	}
	if _, ok := data[1]["b"]; ok {
		t.Error("missing cells should be omitted")
	}

	tbl.Data = "raw"
	if tbl.RenderData() != "raw" {
		t.Error("Data should take precedence")
	}
}

func TestFormatterMessages(t *testing.T) {
	var buf bytes.Buffer
	f := New(FormatText, &buf, false)
	f.Success("wrote %s", "jsflow.toml")
	f.Warning("skipped %d files", 2)

	out := buf.String()
	if !strings.Contains(out, "wrote jsflow.toml\n") || !strings.Contains(out, "WARNING: skipped 2 files\n") {
		t.Errorf("messages = %q", out)
	}
}

func TestSeverityColor(t *testing.T) {
	if got := SeverityColor(linter.SeverityOff, "x"); got != "x" {
		t.Errorf("SeverityColor(off) = %q", got)
	}
}

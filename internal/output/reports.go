package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/panbanda/jsflow/internal/fileproc"
	"github.com/panbanda/jsflow/pkg/linter"
	"github.com/panbanda/jsflow/pkg/pathgraph"
)

// LintReport is the result of a lint run.
type LintReport struct {
	Files    []fileproc.FileResult `json:"files" yaml:"files" toon:"files"`
	Errors   int                   `json:"errorCount" yaml:"errorCount" toon:"errorCount"`
	Warnings int                   `json:"warningCount" yaml:"warningCount" toon:"warningCount"`
	Scanned  int                   `json:"filesScanned" yaml:"filesScanned" toon:"filesScanned"`
}

// NewLintReport totals results. Only files with problems are kept.
func NewLintReport(results []fileproc.FileResult) *LintReport {
	r := &LintReport{Scanned: len(results), Files: []fileproc.FileResult{}}
	for _, res := range results {
		if len(res.Problems) == 0 {
			continue
		}
		r.Files = append(r.Files, res)
		r.Errors += res.Errors
		r.Warnings += res.Warnings
	}
	return r
}

func (r *LintReport) RenderData() any {
	return r
}

// RenderText writes the stylish layout: problems grouped under their file
// and a summary line.
func (r *LintReport) RenderText(w io.Writer, colored bool) error {
	if len(r.Files) == 0 {
		return nil
	}

	for _, f := range r.Files {
		if colored {
			color.New(color.Underline).Fprintln(w, f.Path)
		} else {
			fmt.Fprintln(w, f.Path)
		}

		posWidth, msgWidth := 0, 0
		for _, p := range f.Problems {
			posWidth = max(posWidth, len(position(p)))
			msgWidth = max(msgWidth, len(p.Message))
		}
		for _, p := range f.Problems {
			sev := fmt.Sprintf("%-5s", p.Severity)
			if colored {
				sev = SeverityColor(p.Severity, sev)
			}
			rule := p.RuleID
			if colored {
				rule = color.HiBlackString(rule)
			}
			fmt.Fprintf(w, "  %-*s  %s  %-*s  %s\n", posWidth, position(p), sev, msgWidth, p.Message, rule)
		}
		fmt.Fprintln(w)
	}

	summary := r.summary()
	if colored {
		sev := linter.SeverityWarn
		if r.Errors > 0 {
			sev = linter.SeverityError
		}
		summary = color.New(color.Bold).Sprint(SeverityColor(sev, summary))
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func position(p linter.Problem) string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func (r *LintReport) summary() string {
	return fmt.Sprintf("✖ %s (%s, %s)",
		plural(r.Errors+r.Warnings, "problem"),
		plural(r.Errors, "error"),
		plural(r.Warnings, "warning"))
}

// RenderTable writes one row per problem.
func (r *LintReport) RenderTable(w io.Writer, colored bool) error {
	t := &Table{
		Headers: []string{"File", "Line", "Column", "Severity", "Rule", "Message"},
		Footer:  []string{"", "", "", "", "", r.summary()},
	}
	for _, f := range r.Files {
		for _, p := range f.Problems {
			sev := p.Severity.String()
			if colored {
				sev = SeverityColor(p.Severity, sev)
			}
			t.Rows = append(t.Rows, []string{
				f.Path,
				strconv.Itoa(p.Line),
				strconv.Itoa(p.Column),
				sev,
				p.RuleID,
				p.Message,
			})
		}
	}
	return t.RenderTable(w, colored)
}

// FilePaths holds the code path stats of one file.
type FilePaths struct {
	Path  string            `json:"path" yaml:"path" toon:"path"`
	Paths []pathgraph.Stats `json:"paths" yaml:"paths" toon:"paths"`
}

// PathsReport is the result of a code path analysis run.
type PathsReport struct {
	Files   []FilePaths       `json:"files" yaml:"files" toon:"files"`
	Summary pathgraph.Summary `json:"summary" yaml:"summary" toon:"summary"`
}

// NewPathsReport builds the report and its summary over all paths.
func NewPathsReport(files []FilePaths) *PathsReport {
	var all []pathgraph.Stats
	for _, f := range files {
		all = append(all, f.Paths...)
	}
	return &PathsReport{Files: files, Summary: pathgraph.Summarize(all)}
}

func (r *PathsReport) RenderData() any {
	return r
}

// RenderText lists every path under its file.
func (r *PathsReport) RenderText(w io.Writer, colored bool) error {
	for _, f := range r.Files {
		if colored {
			color.New(color.Underline).Fprintln(w, f.Path)
		} else {
			fmt.Fprintln(w, f.Path)
		}
		for _, s := range f.Paths {
			fmt.Fprintf(w, "  %-5s %-26s %s:%d  segments=%d cyclomatic=%d loops=%d unreachable=%d\n",
				s.ID, s.Origin, s.Node, s.Line, s.Segments, s.Cyclomatic, s.Loops, s.Unreachable)
		}
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintln(w, r.summaryLine())
	return err
}

func (r *PathsReport) summaryLine() string {
	s := r.Summary
	return fmt.Sprintf("%s, mean cyclomatic %.2f (sd %.2f, max %d), %s, %s",
		plural(s.Paths, "code path"), s.MeanCyclomatic, s.StdCyclomatic, s.MaxCyclomatic,
		plural(s.Loops, "loop"), plural(s.Unreachable, "unreachable segment"))
}

// RenderTable writes one row per code path.
func (r *PathsReport) RenderTable(w io.Writer, colored bool) error {
	t := &Table{
		Headers: []string{"File", "Path", "Origin", "Node", "Line", "Segments", "Cyclomatic", "Loops", "Unreachable", "Depth"},
		Footer:  []string{"", "", "", "", "", "", "", "", "", r.summaryLine()},
	}
	for _, f := range r.Files {
		for _, s := range f.Paths {
			t.Rows = append(t.Rows, []string{
				f.Path,
				s.ID,
				s.Origin,
				s.Node,
				strconv.Itoa(s.Line),
				strconv.Itoa(s.Segments),
				strconv.Itoa(s.Cyclomatic),
				strconv.Itoa(s.Loops),
				strconv.Itoa(s.Unreachable),
				fmt.Sprintf("%d-%d", s.MinDepth, s.MaxDepth),
			})
		}
	}
	return t.RenderTable(w, colored)
}

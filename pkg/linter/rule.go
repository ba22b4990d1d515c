package linter

import (
	"fmt"
	"strings"

	"github.com/panbanda/jsflow/pkg/emitter"
	"github.com/panbanda/jsflow/pkg/estree"
)

// Severity of a configured rule.
type Severity int

const (
	SeverityOff Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	}
	return "off"
}

// MarshalText renders the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity accepts "off", "warn", "error" or the numbers 0, 1 and 2, in
// any of the shapes a decoded config file produces.
func ParseSeverity(v any) (Severity, error) {
	switch v := v.(type) {
	case Severity:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "off", "0":
			return SeverityOff, nil
		case "warn", "warning", "1":
			return SeverityWarn, nil
		case "error", "2":
			return SeverityError, nil
		}
	case int:
		return severityFromInt(int64(v))
	case int64:
		return severityFromInt(v)
	case float64:
		if v == float64(int64(v)) {
			return severityFromInt(int64(v))
		}
	}
	return SeverityOff, fmt.Errorf("invalid severity %v", v)
}

func severityFromInt(n int64) (Severity, error) {
	if n < 0 || n > 2 {
		return SeverityOff, fmt.Errorf("invalid severity %d", n)
	}
	return Severity(n), nil
}

// Meta describes a rule.
type Meta struct {
	Name        string
	Description string
	// Type is "problem" or "suggestion".
	Type string
}

// Listeners maps event names (node types, "<Type>:exit", selectors and code
// path event names) to handlers.
type Listeners map[string]emitter.Handler

// Rule is a lint rule. Create is called once per file.
type Rule interface {
	Meta() Meta
	Create(ctx *Context) Listeners
}

// RuleConfig enables a rule and carries its options.
type RuleConfig struct {
	Severity Severity
	Options  []any
}

// Descriptor is a single report from a rule. Loc overrides the location of
// Node when set.
type Descriptor struct {
	Node    *estree.Node
	Loc     *estree.SourceLocation
	Message string
}

// Context is the per-file view a rule gets.
type Context struct {
	ruleID   string
	severity Severity
	options  []any
	filename string
	source   []byte
	report   func(Problem)
}

// ID returns the configured rule id.
func (c *Context) ID() string { return c.ruleID }

// Options returns the rule options from the configuration.
func (c *Context) Options() []any { return c.options }

// Filename returns the path of the file being linted.
func (c *Context) Filename() string { return c.filename }

// Source returns the full text of the file being linted.
func (c *Context) Source() string { return string(c.source) }

// Text returns the source text of node.
func (c *Context) Text(node *estree.Node) string {
	if node == nil || node.Range[1] > len(c.source) || node.Range[0] > node.Range[1] {
		return ""
	}
	return string(c.source[node.Range[0]:node.Range[1]])
}

// Report records a problem.
func (c *Context) Report(d Descriptor) {
	p := Problem{
		RuleID:   c.ruleID,
		Severity: c.severity,
		Message:  d.Message,
	}

	loc := d.Loc
	if loc == nil && d.Node != nil {
		loc = &d.Node.Loc
	}
	if loc != nil {
		p.Line = loc.Start.Line
		p.Column = loc.Start.Column + 1
		p.EndLine = loc.End.Line
		p.EndColumn = loc.End.Column + 1
	}
	if d.Node != nil {
		p.NodeType = d.Node.Type
	}
	c.report(p)
}

// Reportf reports a formatted message at node.
func (c *Context) Reportf(node *estree.Node, format string, args ...any) {
	c.Report(Descriptor{Node: node, Message: fmt.Sprintf(format, args...)})
}

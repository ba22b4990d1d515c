package linter

import (
	"cmp"
	"fmt"
	"slices"
)

// Problem is a single lint finding. Lines and columns are 1-based.
type Problem struct {
	RuleID    string   `json:"ruleId,omitempty" yaml:"ruleId,omitempty" toon:"ruleId"`
	Severity  Severity `json:"severity" yaml:"severity" toon:"severity"`
	Message   string   `json:"message" yaml:"message" toon:"message"`
	Line      int      `json:"line" yaml:"line" toon:"line"`
	Column    int      `json:"column" yaml:"column" toon:"column"`
	EndLine   int      `json:"endLine,omitempty" yaml:"endLine,omitempty" toon:"endLine"`
	EndColumn int      `json:"endColumn,omitempty" yaml:"endColumn,omitempty" toon:"endColumn"`
	NodeType  string   `json:"nodeType,omitempty" yaml:"nodeType,omitempty" toon:"nodeType"`
	Fatal     bool     `json:"fatal,omitempty" yaml:"fatal,omitempty" toon:"fatal"`
}

func (p Problem) String() string {
	if p.RuleID == "" {
		return fmt.Sprintf("%d:%d %s %s", p.Line, p.Column, p.Severity, p.Message)
	}
	return fmt.Sprintf("%d:%d %s %s (%s)", p.Line, p.Column, p.Severity, p.Message, p.RuleID)
}

// SortProblems orders problems by position, then rule id.
func SortProblems(problems []Problem) {
	slices.SortStableFunc(problems, func(a, b Problem) int {
		return cmp.Or(
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
			cmp.Compare(a.RuleID, b.RuleID),
		)
	})
}

// Counts returns the number of errors and warnings in problems.
func Counts(problems []Problem) (errors, warnings int) {
	for _, p := range problems {
		switch p.Severity {
		case SeverityError:
			errors++
		case SeverityWarn:
			warnings++
		}
	}
	return errors, warnings
}

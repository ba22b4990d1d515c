package linter_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/jsflow/pkg/codepath"
	"github.com/panbanda/jsflow/pkg/emitter"
	"github.com/panbanda/jsflow/pkg/linter"
	"github.com/panbanda/jsflow/pkg/parser"
)

// funcRule adapts a function to linter.Rule.
type funcRule struct {
	name   string
	create func(*linter.Context) linter.Listeners
}

func (r funcRule) Meta() linter.Meta                           { return linter.Meta{Name: r.name, Type: "problem"} }
func (r funcRule) Create(ctx *linter.Context) linter.Listeners { return r.create(ctx) }

func identifierRule() linter.Rule {
	return funcRule{name: "no-identifier", create: func(ctx *linter.Context) linter.Listeners {
		return linter.Listeners{
			"Identifier": func(ev emitter.Event) {
				ctx.Reportf(ev.Node, "Identifier %s.", ctx.Text(ev.Node))
			},
		}
	}}
}

func newLinter(cfg map[string]linter.RuleConfig, rules ...linter.Rule) *linter.Linter {
	return linter.New(linter.WithRules(rules...), linter.WithConfig(cfg))
}

func TestVerifyReports(t *testing.T) {
	l := newLinter(map[string]linter.RuleConfig{
		"no-identifier": {Severity: linter.SeverityWarn},
	}, identifierRule())

	problems, err := l.Verify(context.Background(), "a.js", []byte("b;\na;"))
	require.NoError(t, err)
	require.Len(t, problems, 2)

	assert.Equal(t, linter.Problem{
		RuleID:    "no-identifier",
		Severity:  linter.SeverityWarn,
		Message:   "Identifier b.",
		Line:      1,
		Column:    1,
		EndLine:   1,
		EndColumn: 2,
		NodeType:  "Identifier",
	}, problems[0])
	assert.Equal(t, 2, problems[1].Line)
	assert.Equal(t, "Identifier a.", problems[1].Message)
}

func TestVerifyDisabledRule(t *testing.T) {
	l := newLinter(map[string]linter.RuleConfig{
		"no-identifier": {Severity: linter.SeverityOff},
		"missing":       {Severity: linter.SeverityOff},
	}, identifierRule())

	problems, err := l.Verify(context.Background(), "a.js", []byte("a;"))
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestVerifyUnknownRule(t *testing.T) {
	l := newLinter(map[string]linter.RuleConfig{"missing": {Severity: linter.SeverityError}})

	_, err := l.Verify(context.Background(), "a.js", []byte("a;"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, linter.ErrUnknownRule))
}

func TestVerifySyntaxError(t *testing.T) {
	l := newLinter(map[string]linter.RuleConfig{
		"no-identifier": {Severity: linter.SeverityError},
	}, identifierRule())

	problems, err := l.Verify(context.Background(), "a.js", []byte("function ("))
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.True(t, problems[0].Fatal)
	assert.Equal(t, linter.SeverityError, problems[0].Severity)
	assert.Contains(t, problems[0].Message, "Parsing error")
}

func TestVerifyInvalidSelector(t *testing.T) {
	rule := funcRule{name: "bad", create: func(*linter.Context) linter.Listeners {
		return linter.Listeners{"Identifier >": func(emitter.Event) {}}
	}}
	l := newLinter(map[string]linter.RuleConfig{"bad": {Severity: linter.SeverityError}}, rule)

	_, err := l.Verify(context.Background(), "a.js", []byte("a;"))
	var ae *linter.AnalysisError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "a.js", ae.Path)
	assert.Contains(t, err.Error(), "invalid selector")
}

func TestVerifyRecoversPanic(t *testing.T) {
	rule := funcRule{name: "boom", create: func(*linter.Context) linter.Listeners {
		return linter.Listeners{"Literal": func(emitter.Event) { panic("boom") }}
	}}
	l := newLinter(map[string]linter.RuleConfig{"boom": {Severity: linter.SeverityError}}, rule)

	_, err := l.Verify(context.Background(), "a.js", []byte("1;"))
	var ae *linter.AnalysisError
	require.True(t, errors.As(err, &ae))
	assert.EqualError(t, err, "analyzing a.js: boom")
}

func TestVerifyCodePathEvents(t *testing.T) {
	var origins []codepath.Origin
	rule := funcRule{name: "paths", create: func(*linter.Context) linter.Listeners {
		return linter.Listeners{
			emitter.CodePathStart: func(ev emitter.Event) {
				origins = append(origins, ev.CodePath.Origin())
			},
		}
	}}
	l := newLinter(map[string]linter.RuleConfig{"paths": {Severity: linter.SeverityError}}, rule)

	_, err := l.Verify(context.Background(), "a.js", []byte("function f() {} class A { x = 1; static {} }"))
	require.NoError(t, err)
	assert.Equal(t, []codepath.Origin{
		codepath.OriginProgram,
		codepath.OriginFunction,
		codepath.OriginClassFieldInitializer,
		codepath.OriginClassStaticBlock,
	}, origins)
}

func TestVerifyOptions(t *testing.T) {
	var got []any
	rule := funcRule{name: "opts", create: func(ctx *linter.Context) linter.Listeners {
		got = ctx.Options()
		assert.Equal(t, "opts", ctx.ID())
		assert.Equal(t, "src/a.ts", ctx.Filename())
		assert.Equal(t, "let a: number = 1;", ctx.Source())
		return nil
	}}
	l := newLinter(map[string]linter.RuleConfig{
		"opts": {Severity: linter.SeverityWarn, Options: []any{"x", 2.0}},
	}, rule)

	_, err := l.Verify(context.Background(), "src/a.ts", []byte("let a: number = 1;"))
	require.NoError(t, err)
	assert.Equal(t, []any{"x", 2.0}, got)
}

func TestVerifyCancelled(t *testing.T) {
	l := newLinter(map[string]linter.RuleConfig{
		"no-identifier": {Severity: linter.SeverityError},
	}, identifierRule())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Verify(ctx, "a.js", []byte("a;"))
	require.Error(t, err)
}

func TestVerifyConcurrent(t *testing.T) {
	l := newLinter(map[string]linter.RuleConfig{
		"no-identifier": {Severity: linter.SeverityError},
	}, identifierRule())

	var wg sync.WaitGroup
	errs := make([]error, 8)
	counts := make([]int, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src := fmt.Sprintf("a%d; b%d; if (c) { d(); }", i, i)
			problems, err := l.Verify(context.Background(), "a.js", []byte(src))
			errs[i] = err
			counts[i] = len(problems)
		}()
	}
	wg.Wait()

	for i := range 8 {
		require.NoError(t, errs[i])
		assert.Equal(t, 4, counts[i])
	}
}

func TestAnalyze(t *testing.T) {
	l := linter.New()
	psr := parser.New()
	defer psr.Close()

	a, err := l.Analyze(context.Background(), psr, "a.js", []byte("function f() { return 1; }"))
	require.NoError(t, err)
	require.Len(t, a.CodePaths, 2)
	assert.Equal(t, "s2", a.CodePaths[0].ID())
	assert.Equal(t, "s1", a.CodePaths[1].ID())
	assert.Equal(t, "Program", a.Program.Type)

	a, err = l.Analyze(context.Background(), psr, "b.js", []byte("}"))
	require.NoError(t, err)
	assert.Nil(t, a.CodePaths)
	require.Len(t, a.Problems, 1)
}

func TestRules(t *testing.T) {
	l := linter.New(linter.WithRules(identifierRule(), funcRule{name: "a-rule"}))
	assert.Equal(t, []string{"a-rule", "no-identifier"}, l.Rules())

	_, ok := l.Rule("no-identifier")
	assert.True(t, ok)
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   any
		want linter.Severity
		err  bool
	}{
		{"off", linter.SeverityOff, false},
		{"warn", linter.SeverityWarn, false},
		{"ERROR", linter.SeverityError, false},
		{"2", linter.SeverityError, false},
		{0, linter.SeverityOff, false},
		{int64(1), linter.SeverityWarn, false},
		{2.0, linter.SeverityError, false},
		{1.5, linter.SeverityOff, true},
		{3, linter.SeverityOff, true},
		{"loud", linter.SeverityOff, true},
		{true, linter.SeverityOff, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			got, err := linter.ParseSeverity(tt.in)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortAndCount(t *testing.T) {
	problems := []linter.Problem{
		{RuleID: "b", Line: 2, Column: 1, Severity: linter.SeverityWarn},
		{RuleID: "b", Line: 1, Column: 5, Severity: linter.SeverityError},
		{RuleID: "a", Line: 1, Column: 5, Severity: linter.SeverityError},
	}
	linter.SortProblems(problems)
	assert.Equal(t, "a", problems[0].RuleID)
	assert.Equal(t, "b", problems[1].RuleID)
	assert.Equal(t, 2, problems[2].Line)

	errs, warns := linter.Counts(problems)
	assert.Equal(t, 2, errs)
	assert.Equal(t, 1, warns)
	assert.Equal(t, "1:5 error  (a)", problems[0].String())
}

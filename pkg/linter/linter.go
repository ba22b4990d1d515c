// Package linter runs rules over JavaScript and TypeScript files.
//
// For every file the linter parses the source, lets each enabled rule
// subscribe to events, then walks the tree once. The walk drives the code
// path analyzer, which forwards every node to the node event generator;
// both report into one emitter that dispatches to the rule listeners.
package linter

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog"

	"github.com/panbanda/jsflow/pkg/codepath"
	"github.com/panbanda/jsflow/pkg/emitter"
	"github.com/panbanda/jsflow/pkg/estree"
	"github.com/panbanda/jsflow/pkg/eventgen"
	"github.com/panbanda/jsflow/pkg/parser"
)

// Option configures a Linter.
type Option func(*Linter)

// WithLogger sets the logger. The analyzer inherits it.
func WithLogger(l zerolog.Logger) Option {
	return func(lt *Linter) {
		lt.logger = l
	}
}

// WithRules defines rules under their Meta().Name.
func WithRules(rules ...Rule) Option {
	return func(lt *Linter) {
		for _, r := range rules {
			lt.rules[r.Meta().Name] = r
		}
	}
}

// WithConfig sets the rule configuration keyed by rule id.
func WithConfig(cfg map[string]RuleConfig) Option {
	return func(lt *Linter) {
		lt.config = cfg
	}
}

// WithNodeTrace records node traces on segments for DOT output.
func WithNodeTrace(enabled bool) Option {
	return func(lt *Linter) {
		lt.trace = enabled
	}
}

// Linter holds defined rules and their configuration. It is safe for
// concurrent use; every call builds its own per-file state.
type Linter struct {
	rules  map[string]Rule
	config map[string]RuleConfig
	logger zerolog.Logger
	trace  bool
}

// New creates a linter.
func New(opts ...Option) *Linter {
	l := &Linter{
		rules:  make(map[string]Rule),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Rules returns the defined rule ids in sorted order.
func (l *Linter) Rules() []string {
	return slices.Sorted(maps.Keys(l.rules))
}

// Rule returns the rule defined under id.
func (l *Linter) Rule(id string) (Rule, bool) {
	r, ok := l.rules[id]
	return r, ok
}

// Verify lints source. A syntax error is reported as a single fatal problem.
// Other failures, including internal analyzer errors, are returned as an
// *AnalysisError.
func (l *Linter) Verify(ctx context.Context, file string, source []byte) ([]Problem, error) {
	psr := parser.New()
	defer psr.Close()
	return l.VerifyWith(ctx, psr, file, source)
}

// VerifyWith is Verify with a caller-owned parser.
func (l *Linter) VerifyWith(ctx context.Context, psr *parser.Parser, file string, source []byte) ([]Problem, error) {
	res, problems, err := l.parse(ctx, psr, file, source)
	if err != nil || res == nil {
		return problems, err
	}
	return l.VerifyParsed(ctx, res)
}

// VerifyParsed lints an already parsed file.
func (l *Linter) VerifyParsed(ctx context.Context, res *parser.ParseResult) (problems []Problem, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	em := emitter.New()
	report := func(p Problem) { problems = append(problems, p) }

	for _, id := range slices.Sorted(maps.Keys(l.config)) {
		rc := l.config[id]
		if rc.Severity == SeverityOff {
			continue
		}
		rule, ok := l.rules[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRule, id)
		}

		rctx := &Context{
			ruleID:   id,
			severity: rc.Severity,
			options:  rc.Options,
			filename: res.Path,
			source:   res.Source,
			report:   report,
		}
		listeners := rule.Create(rctx)
		for _, name := range slices.Sorted(maps.Keys(listeners)) {
			em.On(name, listeners[name])
		}
	}

	gen, err := eventgen.New(em, em.EventNames())
	if err != nil {
		return nil, &AnalysisError{Path: res.Path, Err: err}
	}
	analyzer := codepath.NewAnalyzer(gen, em,
		codepath.WithLogger(l.logger.With().Str("file", res.Path).Logger()),
		codepath.WithNodeTrace(l.trace),
	)

	if err := walk(res, analyzer); err != nil {
		return nil, err
	}

	SortProblems(problems)
	l.logger.Debug().Str("file", res.Path).Int("problems", len(problems)).Msg("verified")
	return problems, nil
}

// Analysis is the outcome of building the code paths of one file.
type Analysis struct {
	Path      string
	Program   *estree.Node
	CodePaths []*codepath.CodePath
	// Problems holds the fatal parse problem, if any.
	Problems []Problem
}

// Analyze builds the code paths of source without running rules. Paths are
// listed in the order they ended.
func (l *Linter) Analyze(ctx context.Context, psr *parser.Parser, file string, source []byte) (*Analysis, error) {
	res, problems, err := l.parse(ctx, psr, file, source)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &Analysis{Path: file, Problems: problems}, nil
	}

	analyzer := codepath.NewAnalyzer(nil, emitter.New(),
		codepath.WithLogger(l.logger.With().Str("file", file).Logger()),
		codepath.WithNodeTrace(l.trace),
	)
	if err := walk(res, analyzer); err != nil {
		return nil, err
	}
	return &Analysis{Path: file, Program: res.Program, CodePaths: analyzer.CodePaths()}, nil
}

// parse returns either a parse result or a fatal problem for a syntax error.
func (l *Linter) parse(ctx context.Context, psr *parser.Parser, file string, source []byte) (*parser.ParseResult, []Problem, error) {
	lang := parser.DetectLanguage(file)
	if lang == parser.LangUnknown {
		lang = parser.LangJavaScript
	}

	res, err := psr.ParseCtx(ctx, source, lang, file)
	if err != nil {
		var se *parser.SyntaxError
		if errors.As(err, &se) {
			l.logger.Debug().Err(err).Msg("parse failed")
			msg := "Parsing error: unexpected token"
			if se.Near != "" {
				msg += fmt.Sprintf(" %q", se.Near)
			}
			return nil, []Problem{{
				Severity: SeverityError,
				Message:  msg,
				Line:     se.Line,
				Column:   se.Column + 1,
				Fatal:    true,
			}}, nil
		}
		return nil, nil, fmt.Errorf("parsing %s: %w", file, err)
	}
	return res, nil, nil
}

// walk traverses the program, turning panics raised by the analyzer or by
// rule handlers into an *AnalysisError.
func walk(res *parser.ParseResult, v estree.Visitor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(res.Path, r)
		}
	}()
	estree.Traverse(res.Program, v)
	return nil
}

package fileproc

import (
	"context"

	"github.com/panbanda/jsflow/internal/cache"
	"github.com/panbanda/jsflow/pkg/linter"
	"github.com/panbanda/jsflow/pkg/parser"
)

// FileResult is the outcome of linting one file.
type FileResult struct {
	Path     string           `json:"path" yaml:"path" toon:"path"`
	Problems []linter.Problem `json:"problems" yaml:"problems" toon:"problems"`
	Errors   int              `json:"errorCount" yaml:"errorCount" toon:"errorCount"`
	Warnings int              `json:"warningCount" yaml:"warningCount" toon:"warningCount"`
	Cached   bool             `json:"-" yaml:"-" toon:"-"`
}

func newFileResult(path string, problems []linter.Problem, cached bool) FileResult {
	errs, warns := linter.Counts(problems)
	return FileResult{Path: path, Problems: problems, Errors: errs, Warnings: warns, Cached: cached}
}

// LintFiles verifies files with l. When c is non-nil, results are read from
// and written to it, keyed by path and content hash.
func LintFiles(ctx context.Context, l *linter.Linter, c *cache.Cache, files []string, opts Options) ([]FileResult, *ProcessingErrors) {
	return MapFiles(ctx, files, opts, func(ctx context.Context, psr *parser.Parser, path string, content []byte) (FileResult, error) {
		var hash string
		if c != nil && c.Enabled() {
			hash = cache.HashBytes(content)
			if problems, ok := c.Get(path, hash); ok {
				return newFileResult(path, problems, true), nil
			}
		}

		problems, err := l.VerifyWith(ctx, psr, path, content)
		if err != nil {
			return FileResult{}, err
		}
		if hash != "" {
			// A failed write only costs a re-lint next run.
			_ = c.Set(path, hash, problems)
		}
		return newFileResult(path, problems, false), nil
	})
}

// AnalyzeFiles builds the code paths of every file.
func AnalyzeFiles(ctx context.Context, l *linter.Linter, files []string, opts Options) ([]*linter.Analysis, *ProcessingErrors) {
	return MapFiles(ctx, files, opts, func(ctx context.Context, psr *parser.Parser, path string, content []byte) (*linter.Analysis, error) {
		return l.Analyze(ctx, psr, path, content)
	})
}

// Totals sums errors and warnings over results.
func Totals(results []FileResult) (errors, warnings int) {
	for _, r := range results {
		errors += r.Errors
		warnings += r.Warnings
	}
	return errors, warnings
}

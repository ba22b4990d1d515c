// Package fileproc runs per-file work on a bounded pool of goroutines, each
// holding its own tree-sitter parser.
package fileproc

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"runtime"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/panbanda/jsflow/pkg/parser"
)

// ProcessingError is a failure on one file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects file failures from concurrent workers.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors reports whether any error was collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap returns nil; inspect Errors for the individual failures.
func (e *ProcessingErrors) Unwrap() error {
	return nil
}

// sort orders the collected errors by path so output is stable.
func (e *ProcessingErrors) sort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	slices.SortFunc(e.Errors, func(a, b ProcessingError) int {
		return cmp.Compare(a.Path, b.Path)
	})
}

// DefaultWorkerMultiplier is applied to NumCPU when no worker count is set.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called once per file, whatever the outcome.
type ProgressFunc func()

// Func processes one file with a parser owned by the calling worker.
type Func[T any] func(ctx context.Context, psr *parser.Parser, path string, content []byte) (T, error)

// Options tune a MapFiles run.
type Options struct {
	// Workers bounds concurrency; zero means DefaultWorkerMultiplier x NumCPU.
	Workers int
	// MaxFileSize skips larger files; zero disables the limit.
	MaxFileSize int64
	// OnProgress is called after each file.
	OnProgress ProgressFunc
}

// ErrFileTooLarge is recorded for files over Options.MaxFileSize.
var ErrFileTooLarge = fmt.Errorf("file exceeds size limit")

func (o Options) workers(n int) int {
	w := o.Workers
	if w <= 0 {
		w = runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return max(1, min(w, n))
}

// MapFiles reads and processes files in parallel. Results of the files that
// succeeded are returned in input order. Failures, including cancellation,
// are collected into the returned ProcessingErrors, which is nil when every
// file succeeded.
func MapFiles[T any](ctx context.Context, files []string, opts Options, fn Func[T]) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	workers := opts.workers(len(files))
	parsers := make(chan *parser.Parser, workers)
	for range workers {
		parsers <- parser.New()
	}
	defer func() {
		close(parsers)
		for p := range parsers {
			p.Close()
		}
	}()

	slots := make([]T, len(files))
	done := make([]bool, len(files))
	errs := &ProcessingErrors{}

	progress := func() {
		if opts.OnProgress != nil {
			opts.OnProgress()
		}
	}

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			defer progress()

			if err := ctx.Err(); err != nil {
				errs.Add(path, err)
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				errs.Add(path, err)
				return nil
			}
			if opts.MaxFileSize > 0 && int64(len(content)) > opts.MaxFileSize {
				errs.Add(path, ErrFileTooLarge)
				return nil
			}

			psr := <-parsers
			defer func() { parsers <- psr }()

			result, err := fn(ctx, psr, path, content)
			if err != nil {
				errs.Add(path, err)
				return nil
			}
			slots[i] = result
			done[i] = true
			return nil
		})
	}
	_ = p.Wait()

	results := make([]T, 0, len(files))
	for i, ok := range done {
		if ok {
			results = append(results, slots[i])
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	errs.sort()
	return results, errs
}

// Package analysis wires configuration, file discovery, caching and the
// linter into the operations the CLI and the MCP server expose.
package analysis

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/panbanda/jsflow/internal/cache"
	"github.com/panbanda/jsflow/internal/fileproc"
	"github.com/panbanda/jsflow/internal/output"
	"github.com/panbanda/jsflow/internal/scanner"
	"github.com/panbanda/jsflow/internal/vcs"
	"github.com/panbanda/jsflow/pkg/config"
	"github.com/panbanda/jsflow/pkg/linter"
	"github.com/panbanda/jsflow/pkg/pathgraph"
	"github.com/panbanda/jsflow/pkg/rules"
)

// Service orchestrates lint and code path runs.
type Service struct {
	config   *config.Config
	logger   zerolog.Logger
	noCache  bool
	linter   *linter.Linter
	cache    *cache.Cache
	ruleCfgs map[string]linter.RuleConfig
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration. The default is config.DefaultConfig().
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the logger handed to the linter.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithoutCache disables the result cache regardless of configuration.
func WithoutCache() Option {
	return func(s *Service) {
		s.noCache = true
	}
}

// New builds the linter from the configured rules and opens the cache.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		config: config.DefaultConfig(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	ruleCfgs, err := s.config.RuleConfigs()
	if err != nil {
		return nil, err
	}
	s.ruleCfgs = ruleCfgs

	s.linter = linter.New(
		linter.WithLogger(s.logger),
		linter.WithRules(rules.All()...),
		linter.WithConfig(ruleCfgs),
		linter.WithNodeTrace(s.config.Analysis.Trace),
	)

	c := s.config.Cache
	s.cache, err = cache.New(c.Dir, c.TTL, c.Enabled && !s.noCache, cache.Fingerprint(ruleCfgs))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// Linter returns the configured linter.
func (s *Service) Linter() *linter.Linter {
	return s.linter
}

// Cache returns the result cache.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// ScanOptions narrows a scan to files touched in git.
type ScanOptions struct {
	// Changed keeps only files that differ from HEAD in the worktree.
	Changed bool
	// Since keeps only files changed between the revision and HEAD.
	Since string
}

// ScanPaths expands paths into the lintable files, applying exclusions and
// the optional git filter.
func (s *Service) ScanPaths(ctx context.Context, paths []string, opts ScanOptions) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	files, err := scanner.New(s.config).Scan(paths)
	if err != nil {
		return nil, &ScanError{Err: err}
	}

	if !opts.Changed && opts.Since == "" {
		return files, nil
	}

	repo, err := vcs.Open(paths[0])
	if err != nil {
		return nil, &GitError{Err: err}
	}

	var changed []string
	if opts.Since != "" {
		changed, err = repo.ChangedSince(ctx, opts.Since)
	} else {
		changed, err = repo.Changed(ctx)
	}
	if err != nil {
		return nil, &GitError{Err: err}
	}

	keep := make(map[string]bool, len(changed))
	for _, p := range changed {
		keep[p] = true
	}

	var out []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		if keep[abs] {
			out = append(out, f)
		}
	}
	return out, nil
}

// RunOptions tune a file batch.
type RunOptions struct {
	OnProgress fileproc.ProgressFunc
}

func (s *Service) fileOptions(opts RunOptions) fileproc.Options {
	return fileproc.Options{
		Workers:     s.config.Analysis.Workers,
		MaxFileSize: s.config.Analysis.MaxFileSize,
		OnProgress:  opts.OnProgress,
	}
}

// Lint runs the configured rules over files.
func (s *Service) Lint(ctx context.Context, files []string, opts RunOptions) (*output.LintReport, *fileproc.ProcessingErrors) {
	results, errs := fileproc.LintFiles(ctx, s.linter, s.cache, files, s.fileOptions(opts))
	s.logger.Debug().Int("files", len(files)).Int("results", len(results)).Msg("lint finished")
	return output.NewLintReport(results), errs
}

// LintSource lints an in-memory source. filename selects the grammar.
func (s *Service) LintSource(ctx context.Context, filename string, src []byte) ([]linter.Problem, error) {
	return s.linter.Verify(ctx, filename, src)
}

// CodePaths builds the code paths of files and their graph statistics.
// The analyses are returned alongside the report for DOT rendering.
func (s *Service) CodePaths(ctx context.Context, files []string, opts RunOptions) (*output.PathsReport, []*linter.Analysis, *fileproc.ProcessingErrors) {
	analyses, errs := fileproc.AnalyzeFiles(ctx, s.linter, files, s.fileOptions(opts))

	paths := make([]output.FilePaths, 0, len(analyses))
	for _, a := range analyses {
		fp := output.FilePaths{Path: a.Path, Paths: []pathgraph.Stats{}}
		for _, cp := range a.CodePaths {
			fp.Paths = append(fp.Paths, pathgraph.Build(cp).Stats())
		}
		paths = append(paths, fp)
	}
	return output.NewPathsReport(paths), analyses, errs
}

// ScanError indicates a failure expanding the input paths.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanning: %v", e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// GitError indicates a failure in the git filter.
type GitError struct {
	Err error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git: %v", e.Err)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

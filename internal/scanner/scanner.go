// Package scanner discovers JavaScript and TypeScript sources under a root,
// honoring configured exclusions and .gitignore files.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/jsflow/pkg/config"
	"github.com/panbanda/jsflow/pkg/parser"
)

// Scanner finds lintable files.
type Scanner struct {
	config  *config.Config
	matcher gitignore.Matcher
}

// New creates a scanner. A nil config uses the defaults.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot walks up from start to the directory holding .git.
func findGitRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// patterns builds the exclusion matcher for root. Config patterns and
// directories use gitignore syntax; .gitignore files are read from the
// enclosing repository when enabled.
func (s *Scanner) patterns(root string) gitignore.Matcher {
	var ps []gitignore.Pattern
	for _, dir := range s.config.Exclude.Dirs {
		ps = append(ps, gitignore.ParsePattern(strings.TrimSuffix(dir, "/")+"/", nil))
	}
	for _, p := range s.config.Exclude.Patterns {
		ps = append(ps, gitignore.ParsePattern(p, nil))
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil {
				ps = append(ps, gitPatterns...)
			}
		}
	}
	return gitignore.NewMatcher(ps)
}

func (s *Scanner) excluded(rel string, isDir bool) bool {
	if s.matcher == nil || rel == "." {
		return false
	}
	return s.matcher.Match(strings.Split(filepath.ToSlash(rel), "/"), isDir)
}

// ScanDir returns the sources under root in walk order. Symlinks that
// resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.matcher = s.patterns(root)

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if s.excluded(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.excluded(rel, false) {
			return nil
		}
		if parser.DetectLanguage(path) != parser.LangUnknown {
			files = append(files, path)
		}
		return nil
	})
	return files, walkErr
}

// Scan expands a mix of files and directories. Files named explicitly are
// kept when their language is known, even if an exclusion would match.
func (s *Scanner) Scan(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if parser.DetectLanguage(p) != parser.LangUnknown {
				out = append(out, p)
			}
			continue
		}
		files, err := s.ScanDir(p)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile reports whether a single file would be linted.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	if s.matcher == nil {
		s.matcher = s.patterns(filepath.Dir(path))
	}
	if s.excluded(filepath.Base(path), false) {
		return false, nil
	}
	return parser.DetectLanguage(path) != parser.LangUnknown, nil
}

// GroupByLanguage groups files by detected language.
func GroupByLanguage(files []string) map[parser.Language][]string {
	groups := make(map[parser.Language][]string)
	for _, f := range files {
		if lang := parser.DetectLanguage(f); lang != parser.LangUnknown {
			groups[lang] = append(groups[lang], f)
		}
	}
	return groups
}

// FilterBySize drops files larger than maxSize and returns how many were
// skipped. A maxSize of zero keeps everything.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered, skipped
}

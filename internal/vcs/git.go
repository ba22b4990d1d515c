// Package vcs finds the JavaScript and TypeScript files a git change touches.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when no repository encloses the path.
var ErrNotRepository = errors.New("not a git repository")

// Repository wraps a go-git repository opened with .git detection.
type Repository struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotRepository)
		}
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	return &Repository{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the worktree root.
func (r *Repository) Root() string {
	return r.root
}

// Head returns the HEAD commit hash.
func (r *Repository) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}

// Changed returns the absolute paths of files that are staged, modified or
// untracked in the worktree. Deleted files are omitted.
func (r *Repository) Changed(ctx context.Context) ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, err
	}

	var out []string
	for name, s := range status {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Worktree == git.Deleted || (s.Staging == git.Deleted && s.Worktree == git.Unmodified) {
			continue
		}
		if s.Staging == git.Unmodified && s.Worktree == git.Unmodified {
			continue
		}
		out = append(out, filepath.Join(r.root, filepath.FromSlash(name)))
	}
	slices.Sort(out)
	return out, nil
}

// ChangedSince returns the absolute paths of files added or modified
// between rev and HEAD.
func (r *Repository) ChangedSince(ctx context.Context, rev string) ([]string, error) {
	from, err := r.tree(rev)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", rev, err)
	}
	to, err := r.tree("HEAD")
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	changes, err := from.DiffContext(ctx, to)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, c := range changes {
		if c.To.Name == "" {
			continue
		}
		out = append(out, filepath.Join(r.root, filepath.FromSlash(c.To.Name)))
	}
	slices.Sort(out)
	return out, nil
}

func (r *Repository) tree(rev string) (*object.Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, err
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

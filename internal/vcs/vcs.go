// Package vcs stamps builds with the revision of the project checkout.
package vcs

import (
	"errors"
	"fmt"

	ggit "github.com/go-git/go-git/v5"
)

// Revision describes the checked-out commit.
type Revision struct {
	Hash   string
	Branch string
	Dirty  bool
}

// Short returns the abbreviated hash, or "" when unknown.
func (r Revision) Short() string {
	if len(r.Hash) < 8 {
		return r.Hash
	}
	return r.Hash[:8]
}

// String renders the revision for reports.
func (r Revision) String() string {
	if r.Hash == "" {
		return "unknown"
	}
	s := r.Short()
	if r.Branch != "" {
		s = r.Branch + "@" + s
	}
	if r.Dirty {
		s += "+dirty"
	}
	return s
}

// Current opens the repository containing root and reads HEAD. A project
// that is not under version control returns a zero Revision and no error.
func Current(root string) (Revision, error) {
	repo, err := ggit.PlainOpenWithOptions(root, &ggit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, ggit.ErrRepositoryNotExists) {
		return Revision{}, nil
	}
	if err != nil {
		return Revision{}, fmt.Errorf("open repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		// a fresh repository without commits has no HEAD yet
		return Revision{}, nil
	}
	rev := Revision{Hash: ref.Hash().String()}
	if ref.Name().IsBranch() {
		rev.Branch = ref.Name().Short()
	}
	if wt, err := repo.Worktree(); err == nil {
		if st, err := wt.Status(); err == nil {
			rev.Dirty = !st.IsClean()
		}
	}
	return rev, nil
}

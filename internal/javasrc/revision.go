package javasrc

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/rs/zerolog/log"
)

// Revision identifies the commit a program was compiled from
type Revision struct {
	CommitSHA string
	Branch    string
	Dirty     bool
}

// String renders the revision as sha[+dirty]
func (r Revision) String() string {
	if r.Dirty {
		return r.CommitSHA + "+dirty"
	}
	return r.CommitSHA
}

// ReadRevision looks up HEAD of the git repository containing dir. It returns
// nil without error when dir is not inside a repository.
func ReadRevision(dir string) (*Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		log.Debug().Str("dir", dir).Msg("source tree is not a git repository")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	rev := &Revision{
		CommitSHA: head.Hash().String(),
		Branch:    head.Name().Short(),
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return rev, nil
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	rev.Dirty = !status.IsClean()

	return rev, nil
}

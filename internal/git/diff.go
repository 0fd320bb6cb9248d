package git

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	apperr "github.com/kurobon/gitlanes/internal/errors"
)

// FileChange is one path touched by a commit.
type FileChange struct {
	Status string `json:"status"` // "A", "D", "M" or "R"
	Path   string `json:"path"`
	From   string `json:"from,omitempty"` // previous path of a rename
}

// Diff is a commit's change set against its first parent.
type Diff struct {
	ID     string       `json:"id"`
	Parent string       `json:"parent,omitempty"`
	Files  []FileChange `json:"files"`
	Patch  string       `json:"patch"`
}

// FetchDiff diffs the commit named by rev against its first parent. A root
// commit is diffed against the empty tree.
func (r *Repository) FetchDiff(ctx context.Context, rev string) (*Diff, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeNotFound, err, "unknown revision %q", rev)
	}
	commit, err := r.repo.CommitObject(*h)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeNotFound, err, "commit %s", h)
	}

	currentTree, err := commit.Tree()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeRepository, err, "tree of %s", h)
	}

	diff := &Diff{ID: commit.Hash.String(), Files: []FileChange{}}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeRepository, err, "first parent of %s", h)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeRepository, err, "tree of %s", parent.Hash)
		}
		diff.Parent = parent.Hash.String()
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, currentTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, wrapDiffErr(ctx, err, h)
	}
	for _, change := range changes {
		fc, ok := fileChange(change)
		if ok {
			diff.Files = append(diff.Files, fc)
		}
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, wrapDiffErr(ctx, err, h)
	}
	diff.Patch = patch.String()
	return diff, nil
}

func fileChange(change *object.Change) (FileChange, bool) {
	action, err := change.Action()
	if err != nil {
		return FileChange{}, false
	}

	switch action {
	case merkletrie.Insert:
		return FileChange{Status: "A", Path: change.To.Name}, true
	case merkletrie.Delete:
		return FileChange{Status: "D", Path: change.From.Name}, true
	default:
		if change.From.Name != change.To.Name {
			return FileChange{Status: "R", Path: change.To.Name, From: change.From.Name}, true
		}
		return FileChange{Status: "M", Path: change.To.Name}, true
	}
}

func wrapDiffErr(ctx context.Context, err error, h *plumbing.Hash) error {
	if ctx.Err() != nil {
		return apperr.Wrap(apperr.ErrCodeTimeout, err, "diff %s interrupted", h)
	}
	return apperr.Wrap(apperr.ErrCodeRepository, err, "diff %s", h)
}

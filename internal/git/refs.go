package git

import (
	"errors"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"

	apperr "github.com/kurobon/gitlanes/internal/errors"
)

// Head describes what HEAD points at.
type Head struct {
	Type string `json:"type"` // "branch", "commit" or "none"
	Ref  string `json:"ref,omitempty"`
	ID   string `json:"id,omitempty"`
}

// RefSet holds every named ref in the repository, by short name.
type RefSet struct {
	HEAD           Head              `json:"HEAD"`
	Branches       map[string]string `json:"branches"`
	RemoteBranches map[string]string `json:"remoteBranches"`
	Tags           map[string]string `json:"tags"`
}

// Refs collects HEAD, local branches, remote branches and tags.
// Annotated tags are peeled to the commit they point at.
func (r *Repository) Refs() (*RefSet, error) {
	set := &RefSet{
		Branches:       make(map[string]string),
		RemoteBranches: make(map[string]string),
		Tags:           make(map[string]string),
	}

	// 1. HEAD
	ref, err := r.repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Unborn branch in a fresh repository
		set.HEAD = Head{Type: "none"}
		if sym, err := r.repo.Reference(plumbing.HEAD, false); err == nil && sym.Type() == plumbing.SymbolicReference {
			set.HEAD = Head{Type: "branch", Ref: sym.Target().Short()}
		}
	case err != nil:
		return nil, apperr.Wrap(apperr.ErrCodeRepository, err, "read HEAD")
	case ref.Name().IsBranch():
		set.HEAD = Head{Type: "branch", Ref: ref.Name().Short(), ID: ref.Hash().String()}
	default:
		set.HEAD = Head{Type: "commit", ID: ref.Hash().String()}
	}

	// 2. Branches, remotes and tags in a single pass
	refs, err := r.repo.References()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeRepository, err, "list references")
	}
	defer refs.Close()

	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsBranch():
			set.Branches[name.Short()] = ref.Hash().String()
		case name.IsRemote():
			set.RemoteBranches[name.Short()] = ref.Hash().String()
		case name.IsTag():
			if target, ok := r.peel(ref.Hash()); ok {
				set.Tags[name.Short()] = target.String()
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeRepository, err, "walk references")
	}
	return set, nil
}

// peel resolves an annotated tag to its commit. Lightweight tags are returned
// unchanged. Tags of trees or blobs are reported as not ok.
func (r *Repository) peel(h plumbing.Hash) (plumbing.Hash, bool) {
	for depth := 0; depth < 8; depth++ {
		tag, err := r.repo.TagObject(h)
		if err != nil {
			return h, true
		}
		if tag.TargetType != plumbing.CommitObject && tag.TargetType != plumbing.TagObject {
			return plumbing.ZeroHash, false
		}
		h = tag.Target
	}
	return plumbing.ZeroHash, false
}

// Tips returns the commits every ref points at, without duplicates, in a
// stable order: HEAD first, then ref names sorted.
func (s *RefSet) Tips() []string {
	seen := make(map[string]bool)
	var tips []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			tips = append(tips, id)
		}
	}

	add(s.HEAD.ID)
	for _, m := range []map[string]string{s.Branches, s.RemoteBranches, s.Tags} {
		for _, name := range sortedKeys(m) {
			add(m[name])
		}
	}
	return tips
}

// ByCommit inverts the set: commit ID -> names pointing at it. HEAD is listed
// as "HEAD", tags as "tag: <name>". Each list is sorted.
func (s *RefSet) ByCommit() map[string][]string {
	out := make(map[string][]string)
	if s.HEAD.ID != "" {
		out[s.HEAD.ID] = append(out[s.HEAD.ID], "HEAD")
	}
	for name, id := range s.Branches {
		out[id] = append(out[id], name)
	}
	for name, id := range s.RemoteBranches {
		out[id] = append(out[id], name)
	}
	for name, id := range s.Tags {
		out[id] = append(out[id], "tag: "+name)
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

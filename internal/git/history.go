package git

import (
	"container/heap"
	"context"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	apperr "github.com/kurobon/gitlanes/internal/errors"
)

// DefaultHistoryLimit caps a history walk when the caller gives no limit.
const DefaultHistoryLimit = 500

// Commit is the metadata of one commit as shown in the graph view.
type Commit struct {
	ID          string   `json:"id"`
	ShortID     string   `json:"shortId"`
	Subject     string   `json:"subject"`
	Author      string   `json:"author"`
	AuthorEmail string   `json:"authorEmail"`
	Timestamp   string   `json:"timestamp"`
	ParentIDs   []string `json:"parentIds"`
	Refs        []string `json:"refs"`
}

// HistoryOptions selects where a history walk starts and how far it goes.
type HistoryOptions struct {
	// Ref starts the walk at one revision (branch, tag, hash, HEAD~2...).
	Ref string
	// All starts the walk at HEAD and every branch, remote branch and tag.
	// Ignored when Ref is set. With neither, the walk starts at HEAD.
	All bool
	// Limit caps the number of commits; <= 0 means DefaultHistoryLimit.
	Limit int
	// Refs seeds the walk and decorates commits. Nil reads the repository's
	// refs; callers that also report refs pass their own set so both agree.
	Refs *RefSet
}

// FetchHistory walks history newest first by committer time. A commit enters
// the frontier only once a child has been emitted or a ref names it, so
// parents follow their children unless clocks are skewed. Independent
// branches interleave by committer time.
//
// Parents whose objects are missing (shallow clones) are skipped; callers see
// them as parent IDs that never appear in the list.
func (r *Repository) FetchHistory(ctx context.Context, opts HistoryOptions) ([]Commit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	refs := opts.Refs
	if refs == nil {
		var err error
		if refs, err = r.Refs(); err != nil {
			return nil, err
		}
	}

	seeds, err := r.seeds(refs, opts)
	if err != nil {
		return nil, err
	}

	w := &walker{repo: r, seen: make(map[plumbing.Hash]bool)}
	for _, h := range seeds {
		w.push(h)
	}

	names := refs.ByCommit()
	commits := make([]Commit, 0, min(limit, 64))
	for w.queue.Len() > 0 && len(commits) < limit {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeTimeout, err, "history walk interrupted")
		}
		c := heap.Pop(&w.queue).(*object.Commit)
		commits = append(commits, toCommit(c, names[c.Hash.String()]))
		for _, p := range c.ParentHashes {
			w.push(p)
		}
	}
	return commits, nil
}

func (r *Repository) seeds(refs *RefSet, opts HistoryOptions) ([]plumbing.Hash, error) {
	if opts.Ref != "" {
		h, err := r.repo.ResolveRevision(plumbing.Revision(opts.Ref))
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeNotFound, err, "unknown revision %q", opts.Ref)
		}
		return []plumbing.Hash{*h}, nil
	}

	var ids []string
	if opts.All {
		ids = refs.Tips()
	} else if refs.HEAD.ID != "" {
		ids = []string{refs.HEAD.ID}
	}

	seeds := make([]plumbing.Hash, 0, len(ids))
	for _, id := range ids {
		seeds = append(seeds, plumbing.NewHash(id))
	}
	return seeds, nil
}

type walker struct {
	repo  *Repository
	seen  map[plumbing.Hash]bool
	queue commitHeap
}

func (w *walker) push(h plumbing.Hash) {
	if w.seen[h] {
		return
	}
	w.seen[h] = true

	c, err := w.repo.repo.CommitObject(h)
	if err != nil {
		return
	}
	heap.Push(&w.queue, c)
}

func toCommit(c *object.Commit, refs []string) Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	if refs == nil {
		refs = []string{}
	}
	id := c.Hash.String()
	return Commit{
		ID:          id,
		ShortID:     id[:7],
		Subject:     subject(c.Message),
		Author:      c.Author.Name,
		AuthorEmail: c.Author.Email,
		Timestamp:   c.Author.When.Format(time.RFC3339),
		ParentIDs:   parents,
		Refs:        refs,
	}
}

func subject(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(line)
}

// commitHeap orders commits newest committer time first, ties broken by hash.
type commitHeap []*object.Commit

func (h commitHeap) Len() int { return len(h) }
func (h commitHeap) Less(i, j int) bool {
	if h[i].Committer.When.Equal(h[j].Committer.When) {
		return h[i].Hash.String() > h[j].Hash.String()
	}
	return h[i].Committer.When.After(h[j].Committer.When)
}
func (h commitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *commitHeap) Push(x any) {
	*h = append(*h, x.(*object.Commit))
}
func (h *commitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

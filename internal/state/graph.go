package state

import (
	"context"

	apperr "github.com/kurobon/gitlanes/internal/errors"
	"github.com/kurobon/gitlanes/internal/git"
	"github.com/kurobon/gitlanes/internal/graph"
)

// BuildGraphState walks the history selected by q, applies the search filter
// and lays out the remaining rows. Each call runs a fresh layout, so callers
// may build states concurrently from the same repository.
func BuildGraphState(ctx context.Context, repo *git.Repository, q Query, engine *graph.Engine) (*GraphState, error) {
	if engine == nil {
		engine = graph.NewEngine(graph.DefaultPaletteSize)
	}

	// 1. Refs
	refs, err := repo.Refs()
	if err != nil {
		return nil, err
	}

	// 2. History, newest first, from the same refs the state reports
	history, err := repo.FetchHistory(ctx, git.HistoryOptions{Ref: q.Ref, All: q.All, Limit: q.Limit, Refs: refs})
	if err != nil {
		return nil, err
	}

	// 3. Search narrows the rows; parents filtered out are treated as absent
	history = git.Filter(history, q.Search)

	// 4. Layout
	nodes, maxLane, err := engine.LayoutContext(ctx, git.Records(history))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeTimeout, err, "layout interrupted")
	}

	state := &GraphState{
		Repo:           repo.Name(),
		HEAD:           refs.HEAD,
		Branches:       refs.Branches,
		RemoteBranches: refs.RemoteBranches,
		Tags:           refs.Tags,
		Commits:        make([]Commit, len(history)),
		MaxLane:        maxLane,
		Query:          q,
	}
	for i, c := range history {
		state.Commits[i] = Commit{Commit: c, Graph: nodes[i]}
	}
	return state, nil
}

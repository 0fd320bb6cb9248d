package state

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/gitlanes/internal/git"
)

// fixture builds history in an in-memory repository. Each commit is one
// minute younger than the previous one.
type fixture struct {
	t     *testing.T
	repo  *gogit.Repository
	wt    *gogit.Worktree
	clock time.Time
	n     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := memfs.New()
	repo, err := gogit.Init(memory.NewStorage(), fs)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &fixture{t: t, repo: repo, wt: wt, clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

// commit writes a unique file and commits it on the checked out branch.
func (f *fixture) commit(msg string) plumbing.Hash {
	f.t.Helper()
	f.n++
	f.clock = f.clock.Add(time.Minute)

	name := msg + ".txt"
	require.NoError(f.t, util.WriteFile(f.wt.Filesystem, name, []byte(msg+"\n"), 0644))
	_, err := f.wt.Add(name)
	require.NoError(f.t, err)

	sig := &object.Signature{Name: "Test", Email: "test@test.com", When: f.clock}
	h, err := f.wt.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig})
	require.NoError(f.t, err)
	return h
}

// merge records a merge of other into the checked out branch.
func (f *fixture) merge(msg string, other plumbing.Hash) plumbing.Hash {
	f.t.Helper()
	head, err := f.repo.Head()
	require.NoError(f.t, err)

	f.clock = f.clock.Add(time.Minute)
	sig := &object.Signature{Name: "Test", Email: "test@test.com", When: f.clock}
	h, err := f.wt.Commit(msg, &gogit.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           []plumbing.Hash{head.Hash(), other},
		AllowEmptyCommits: true,
	})
	require.NoError(f.t, err)
	return h
}

func (f *fixture) checkout(branch string, create bool) {
	f.t.Helper()
	require.NoError(f.t, f.wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
	}))
}

func (f *fixture) repository() *git.Repository {
	return git.New(f.repo, "fixture")
}

// forkAndMerge builds:
//
//	M  merge feature
//	|\
//	| F  feature
//	B |  main
//	|/
//	A    base
func forkAndMerge(t *testing.T) (*fixture, map[string]plumbing.Hash) {
	f := newFixture(t)
	hashes := make(map[string]plumbing.Hash)
	hashes["A"] = f.commit("base")
	f.checkout("feature", true)
	hashes["F"] = f.commit("feature")
	f.checkout("master", false)
	hashes["B"] = f.commit("main")
	hashes["M"] = f.merge("merge feature", hashes["F"])
	return f, hashes
}

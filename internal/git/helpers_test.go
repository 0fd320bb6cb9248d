package git

import (
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

// testRepo writes commits straight into an in-memory object store, with a
// clock that advances one minute per commit so walk order is predictable.
type testRepo struct {
	t     *testing.T
	repo  *gogit.Repository
	tree  plumbing.Hash
	clock time.Time
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	repo, err := gogit.Init(memory.NewStorage(), nil)
	require.NoError(t, err)

	r := &testRepo{t: t, repo: repo, clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	r.tree = r.store(&object.Tree{})
	return r
}

func (r *testRepo) store(o interface {
	Encode(plumbing.EncodedObject) error
}) plumbing.Hash {
	r.t.Helper()
	obj := r.repo.Storer.NewEncodedObject()
	require.NoError(r.t, o.Encode(obj))
	h, err := r.repo.Storer.SetEncodedObject(obj)
	require.NoError(r.t, err)
	return h
}

func (r *testRepo) commit(msg string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	r.clock = r.clock.Add(time.Minute)
	sig := object.Signature{Name: "Test", Email: "test@test.com", When: r.clock}
	return r.store(&object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      msg + "\n",
		TreeHash:     r.tree,
		ParentHashes: parents,
	})
}

func (r *testRepo) branch(name string, h plumbing.Hash) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), h)
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

func (r *testRepo) tag(name string, h plumbing.Hash) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), h)
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

func (r *testRepo) annotatedTag(name string, h plumbing.Hash) {
	r.t.Helper()
	tagHash := r.store(&object.Tag{
		Name:       name,
		Tagger:     object.Signature{Name: "Test", Email: "test@test.com", When: r.clock},
		Message:    "release " + name + "\n",
		TargetType: plumbing.CommitObject,
		Target:     h,
	})
	r.tag(name, tagHash)
}

func (r *testRepo) wrap() *Repository {
	return New(r.repo, "test")
}

func ids(commits []Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.ID
	}
	return out
}

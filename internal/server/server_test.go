package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/gitlanes/internal/git"
	"github.com/kurobon/gitlanes/internal/state"
)

// newTestServer serves an in-memory repository with two commits on master.
func newTestServer(t *testing.T) (*Server, *httptest.Server, []plumbing.Hash) {
	t.Helper()
	fs := memfs.New()
	repo, err := gogit.Init(memory.NewStorage(), fs)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	var hashes []plumbing.Hash
	when := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second"} {
		require.NoError(t, util.WriteFile(fs, name+".txt", []byte(name+"\n"), 0644))
		_, err := wt.Add(name + ".txt")
		require.NoError(t, err)
		sig := &object.Signature{Name: "Test", Email: "test@test.com", When: when.Add(time.Duration(i) * time.Minute)}
		h, err := wt.Commit(name, &gogit.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
		hashes = append(hashes, h)
	}

	logger := log.New(io.Discard)
	m := state.NewManagerFromRepo(git.New(repo, "test"), nil, logger)
	srv := NewServer(m, logger)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts, hashes
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestServerEndpoints(t *testing.T) {
	_, ts, hashes := newTestServer(t)

	t.Run("Ping", func(t *testing.T) {
		var res map[string]string
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/ping", &res))
		assert.Equal(t, "pong", res["message"])
	})

	t.Run("Graph", func(t *testing.T) {
		var res state.GraphState
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/graph", &res))
		require.Len(t, res.Commits, 2)
		assert.Equal(t, hashes[1].String(), res.Commits[0].ID)
		assert.True(t, res.Commits[0].Graph.IsFirstInLane)
		assert.Equal(t, "master", res.HEAD.Ref)
		assert.Equal(t, 0, res.MaxLane)
	})

	t.Run("Graph query", func(t *testing.T) {
		var res state.GraphState
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/graph?limit=1&all=true&search=sec", &res))
		require.Len(t, res.Commits, 1)
		assert.Equal(t, "second", res.Commits[0].Subject)
		assert.Equal(t, state.Query{Limit: 1, Search: "sec", All: true}, res.Query)
	})

	t.Run("Graph bad limit", func(t *testing.T) {
		var res ErrorResponse
		assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/graph?limit=abc", &res))
		assert.Equal(t, "INVALID_INPUT", res.Code)
		assert.Contains(t, res.Error, "limit")
	})

	t.Run("Graph bad all", func(t *testing.T) {
		var res ErrorResponse
		assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/graph?all=maybe", &res))
	})

	t.Run("Graph unknown ref", func(t *testing.T) {
		var res ErrorResponse
		assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/graph?ref=nope", &res))
		assert.Equal(t, "NOT_FOUND", res.Code)
	})

	t.Run("Refs", func(t *testing.T) {
		var res git.RefSet
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/refs", &res))
		assert.Equal(t, hashes[1].String(), res.Branches["master"])
		assert.Equal(t, "branch", res.HEAD.Type)
	})

	t.Run("Diff", func(t *testing.T) {
		var res git.Diff
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/commits/"+hashes[1].String()+"/diff", &res))
		assert.Equal(t, hashes[0].String(), res.Parent)
		assert.Equal(t, []git.FileChange{{Status: "A", Path: "second.txt"}}, res.Files)
		assert.True(t, strings.Contains(res.Patch, "+second"))
	})

	t.Run("Diff unknown commit", func(t *testing.T) {
		var res ErrorResponse
		assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/commits/0123456789abcdef/diff", &res))
	})

	t.Run("Method not allowed", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/graph", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestWebSocketGraphChanged(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, MessageHello, hello.Type)
	assert.Len(t, hello.Data["clientId"], 36)
	assert.Equal(t, 1, srv.Hub().Count())

	srv.RepositoryChanged()

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageGraphChanged, msg.Type)

	conn.Close()
	assert.Eventually(t, func() bool { return srv.Hub().Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

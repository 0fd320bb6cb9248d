package state

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kurobon/gitlanes/internal/config"
	apperr "github.com/kurobon/gitlanes/internal/errors"
	"github.com/kurobon/gitlanes/internal/git"
	"github.com/kurobon/gitlanes/internal/graph"
)

// Manager owns the repository being served and handles concurrent access
// to it. Reload swaps the repository under a write lock; every other
// operation reads under a read lock and runs its own layout.
type Manager struct {
	path   string
	cfg    *config.Config
	engine *graph.Engine
	cache  *GraphCache
	logger *log.Logger

	repo *git.Repository
	// generation counts reloads. A graph built from an older generation is
	// never cached.
	generation uint64
	mu         sync.RWMutex
}

// NewManager opens the repository at path.
func NewManager(path string, cfg *config.Config, logger *log.Logger) (*Manager, error) {
	repo, err := git.Open(path)
	if err != nil {
		return nil, err
	}
	m := NewManagerFromRepo(repo, cfg, logger)
	m.path = path
	return m, nil
}

// NewManagerFromRepo serves an already opened repository. Reload is a no-op
// apart from dropping cached graphs.
func NewManagerFromRepo(repo *git.Repository, cfg *config.Config, logger *log.Logger) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		cfg:    cfg,
		engine: graph.NewEngine(cfg.PaletteSize),
		cache:  NewGraphCache(),
		logger: logger,
		repo:   repo,
	}
}

// Repository returns the repository currently served.
func (m *Manager) Repository() *git.Repository {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.repo
}

// snapshot returns the repository together with its generation.
func (m *Manager) snapshot() (*git.Repository, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.repo, m.generation
}

// Reload re-opens the repository after it changed on disk and drops every
// cached graph.
func (m *Manager) Reload() error {
	var repo *git.Repository
	if m.path != "" {
		var err error
		if repo, err = git.Open(m.path); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if repo != nil {
		m.repo = repo
	}
	m.generation++
	m.cache.Invalidate()

	m.logger.Debug("repository reloaded", "path", m.path, "generation", m.generation)
	return nil
}

// GetGraphState returns the laid out history selected by q.
func (m *Manager) GetGraphState(ctx context.Context, q Query) (*GraphState, error) {
	q, err := m.normalize(q)
	if err != nil {
		return nil, err
	}
	if cached := m.cache.Get(q); cached != nil {
		return cached, nil
	}

	start := time.Now()
	repo, gen := m.snapshot()
	state, err := BuildGraphState(ctx, repo, q, m.engine)
	if err != nil {
		return nil, err
	}
	m.store(q, state, gen)

	m.logger.Debug("graph built",
		"commits", len(state.Commits),
		"maxLane", state.MaxLane,
		"elapsed", time.Since(start))
	return state, nil
}

// store caches state unless a reload happened since gen was read. The check
// and the write share the read lock Reload must wait for.
func (m *Manager) store(q Query, state *GraphState, gen uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if gen != m.generation {
		return false
	}
	m.cache.Set(q, state)
	return true
}

// GetDiff returns the change set of one commit.
func (m *Manager) GetDiff(ctx context.Context, id string) (*git.Diff, error) {
	if id == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "commit id is required")
	}
	return m.Repository().FetchDiff(ctx, id)
}

// GetRefs returns HEAD, branches, remote branches and tags.
func (m *Manager) GetRefs() (*git.RefSet, error) {
	return m.Repository().Refs()
}

// normalize applies the configured history limit as default and ceiling.
func (m *Manager) normalize(q Query) (Query, error) {
	if q.Limit < 0 {
		return q, apperr.New(apperr.ErrCodeInvalidInput, "limit must not be negative, got %d", q.Limit)
	}
	if q.Limit == 0 || q.Limit > m.cfg.HistoryLimit {
		q.Limit = m.cfg.HistoryLimit
	}
	return q, nil
}

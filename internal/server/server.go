package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kurobon/gitlanes/internal/state"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the graph of one repository over HTTP and pushes change
// notifications to websocket clients.
type Server struct {
	Manager *state.Manager
	Router  chi.Router

	hub    *Hub
	logger *log.Logger
}

// NewServer wires the routes for m.
func NewServer(m *state.Manager, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		Manager: m,
		Router:  chi.NewRouter(),
		hub:     NewHub(logger),
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(s.logRequests)

	s.Router.Get("/ping", s.handlePing)
	s.Router.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGetGraph)
		r.Get("/refs", s.handleGetRefs)
		r.Get("/commits/{id}/diff", s.handleGetDiff)
		r.Get("/ws", s.hub.ServeWS)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// Hub returns the websocket hub change notifications go through.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe serves on addr and watches the repository for changes
// until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	var w *Watcher
	if gitDir := s.Manager.Repository().GitDir(); gitDir != "" {
		w = NewWatcher(gitDir, s.RepositoryChanged, s.logger)
		if err := w.Start(watchCtx); err != nil {
			s.logger.Warn("file watching disabled", "err", err)
		}
	}
	// No change notification may reach the hub once it is closed.
	stopWatch := func() {
		cancelWatch()
		if w != nil {
			w.Wait()
		}
	}
	defer stopWatch()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "repo", s.Manager.Repository().Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopWatch()
	s.hub.Close()
	return srv.Shutdown(shutdownCtx)
}

// RepositoryChanged reloads the repository and tells every client to
// refetch.
func (s *Server) RepositoryChanged() {
	if err := s.Manager.Reload(); err != nil {
		s.logger.Error("reload failed", "err", err)
		return
	}
	s.hub.Broadcast(Message{Type: MessageGraphChanged})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start))
	})
}

// Package api serves a read-only JSON view of a loaded program
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/jjsast/internal/config"
	"github.com/QTest-hq/jjsast/internal/persist"
	"github.com/QTest-hq/jjsast/pkg/ast"
)

// ErrNoProgram is reported by readiness until a program is loaded
var ErrNoProgram = errors.New("no program loaded")

// Check reports whether a dependency is usable
type Check func(ctx context.Context) error

// Option configures a Server
type Option func(*Server)

// WithCheck adds a named readiness check
func WithCheck(name string, check Check) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// Server represents the API server
type Server struct {
	cfg    *config.Config
	router *chi.Mux
	checks map[string]Check

	mu   sync.RWMutex
	view *view
}

// NewServer creates a new API server. It answers 503 on program routes until
// Load or SetProgram is called.
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api: nil config")
	}
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		checks: make(map[string]Check),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(corsMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)
	s.router.Get("/ready", s.readyCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", s.getSnapshot)
		r.Get("/totals", s.getTotals)

		r.Route("/types", func(r chi.Router) {
			r.Get("/", s.listTypes)
			r.Get("/{typeName}", s.getType)
			r.Get("/{typeName}/methods", s.listTypeMethods)
		})

		r.Route("/methods", func(r chi.Router) {
			r.Get("/", s.listMethods)
			r.Get("/{methodID}", s.getMethod)
		})
	})
}

// Load decodes snap and starts serving it
func (s *Server) Load(snap *persist.Snapshot) error {
	p, err := persist.Decode(snap)
	if err != nil {
		return err
	}
	s.SetProgram(p, SnapshotInfo{
		ID:             snap.ID,
		Name:           snap.Name,
		SourceRevision: snap.SourceRevision,
		CreatedAt:      snap.CreatedAt,
	})
	return nil
}

// SetProgram replaces the served program. Every summary is computed here so
// requests never touch the program itself.
func (s *Server) SetProgram(p *ast.Program, info SnapshotInfo) {
	v := newView(p, info)
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()

	log.Info().
		Str("snapshot_id", info.ID).
		Str("name", info.Name).
		Int("types", v.totals.Types).
		Int("methods", v.totals.Methods).
		Msg("program loaded")
}

// current returns the served view, nil before the first load
func (s *Server) current() *view {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyCheck(w http.ResponseWriter, r *http.Request) {
	failed := make(map[string]string)
	if s.current() == nil {
		failed["program"] = ErrNoProgram.Error()
	}
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not ready",
			"checks": failed,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

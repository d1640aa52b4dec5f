// Package server provides the HTTP API for Hansard.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/config"
	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/session"
	"github.com/civiclens/hansard/internal/vector"
)

// Asker answers questions. *inquiry.Service satisfies it.
type Asker interface {
	Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error)
}

// AnswerGetter retrieves shared answers by short id. *cache.AnswerCache
// satisfies it.
type AnswerGetter interface {
	Get(ctx context.Context, shortID string) (*models.AskResponse, error)
}

// Server is the HTTP server for the Hansard API.
type Server struct {
	asker    Asker
	answers  AnswerGetter
	vector   vector.Index
	sessions *session.Store
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. answers may be nil
// when the share cache is disabled.
func NewServer(
	asker Asker,
	answers AnswerGetter,
	vec vector.Index,
	sessions *session.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		asker:    asker,
		answers:  answers,
		vector:   vec,
		sessions: sessions,
		config:   cfg,
		logger:   logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/ask", s.handleAsk)
	r.Get("/api/v1/answers/{id}", s.handleGetAnswer)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

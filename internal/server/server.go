package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nguyentantai21042004/scribeflow/internal/config"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/orchestrator"
	"github.com/nguyentantai21042004/scribeflow/internal/poller"
	"github.com/nguyentantai21042004/scribeflow/internal/store"
)

const gracefulShutdownTimeout = 5 * time.Second

// Server exposes the dashboard API over HTTP.
type Server struct {
	cfg    *config.Config
	store  store.Store
	orch   orchestrator.Orchestrator
	poller poller.Poller
	logger logger.Logger
}

// New creates a new Server instance.
func New(cfg *config.Config, st store.Store, orch orchestrator.Orchestrator, p poller.Poller, log logger.Logger) *Server {
	return &Server{
		cfg:    cfg,
		store:  st,
		orch:   orch,
		poller: p,
		logger: log,
	}
}

// Handler builds the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)
	s.routes(router)
	return router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := http.Server{Addr: s.cfg.Server.Address, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Shutdown signal received: %v", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
	}()

	s.logger.Info(ctx, "Dashboard API listening on %s", s.cfg.Server.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes(router chi.Router) {
	router.Get("/healthz", s.handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Post("/jobs/{id}/process", s.handleProcess)
		r.Post("/jobs/{id}/reprocess", s.handleReprocess)
		r.Delete("/jobs/{id}/artifacts", s.handleDeleteArtifacts)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handlePurgeHistory)
		r.Get("/source/status", s.handleSourceStatus)
	})
}

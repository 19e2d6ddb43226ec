package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/orchestrator"
	"github.com/nguyentantai21042004/scribeflow/internal/store"
)

type errResponse struct {
	Error string `json:"error"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errResponse{Error: msg})
}

// renderOrchestratorError maps the orchestrator's sentinel errors onto HTTP
// statuses.
func renderOrchestratorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		renderError(w, r, http.StatusNotFound, "recording not found")
	case errors.Is(err, job.ErrBusy):
		renderError(w, r, http.StatusConflict, "recording is already being processed")
	case errors.Is(err, job.ErrNotReprocessable):
		renderError(w, r, http.StatusConflict, "only completed or failed recordings can be reprocessed")
	default:
		renderError(w, r, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.Jobs().List(r.Context())
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	render.JSON(w, r, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.store.Jobs().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderOrchestratorError(w, r, err)
		return
	}
	render.JSON(w, r, j)
}

// handleProcess kicks the pipeline for a pending job. The run continues in
// the background; the response only acknowledges the kick.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	j, err := s.store.Jobs().Get(r.Context(), id)
	if err != nil {
		renderOrchestratorError(w, r, err)
		return
	}
	if j.Status.InProgress() {
		renderOrchestratorError(w, r, job.ErrBusy)
		return
	}
	if j.Terminal() {
		renderError(w, r, http.StatusConflict, "recording is in a terminal state; use reprocess")
		return
	}

	s.runPipeline(id)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, j)
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	j, err := s.orch.Reprocess(r.Context(), id)
	if err != nil {
		renderOrchestratorError(w, r, err)
		return
	}

	s.runPipeline(id)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, j)
}

// runPipeline drives one job to a terminal status on a background context;
// the HTTP request that kicked it does not bound the run.
func (s *Server) runPipeline(id string) {
	go func() {
		ctx := context.Background()
		if _, err := s.orch.Enqueue(ctx, id); err != nil && !errors.Is(err, job.ErrBusy) {
			s.logger.Error(ctx, "Pipeline run for %s failed: %v", id, err)
		}
	}()
}

func (s *Server) handleDeleteArtifacts(w http.ResponseWriter, r *http.Request) {
	kind := orchestrator.ArtifactKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = orchestrator.ArtifactAll
	}
	switch kind {
	case orchestrator.ArtifactAudio, orchestrator.ArtifactDocuments, orchestrator.ArtifactAll:
	default:
		renderError(w, r, http.StatusBadRequest, "kind must be audio, documents or all")
		return
	}

	j, err := s.orch.DeleteArtifacts(r.Context(), chi.URLParam(r, "id"), kind)
	if err != nil {
		renderOrchestratorError(w, r, err)
		return
	}
	render.JSON(w, r, j)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.History().List(r.Context(), 0)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	render.JSON(w, r, entries)
}

func (s *Server) handlePurgeHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.History().Purge(r.Context()); err != nil {
		renderError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	render.NoContent(w, r)
}

func (s *Server) handleSourceStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.poller.SourceStatus())
}

package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/usecase"
)

// Server exposes pipeline and batch orchestration over REST.
type Server struct {
	pipelines usecase.PipelineUseCase
	batches   usecase.BatchUseCase
	auth      *AuthManager
	log       *zerolog.Logger
}

func NewServer(pipelines usecase.PipelineUseCase, batches usecase.BatchUseCase, auth *AuthManager, log *zerolog.Logger) *Server {
	return &Server{pipelines: pipelines, batches: batches, auth: auth, log: log}
}

// RegisterAPIV1 attaches all v1 routes plus the unauthenticated health and
// metrics endpoints to the router.
func RegisterAPIV1(r chi.Router, srv *Server) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(srv.auth.RequireAuth)

		v1.Post("/pipelines", srv.createPipeline)
		v1.Get("/pipelines/{id}", srv.getPipeline)
		v1.Post("/pipelines/{id}/cancel", srv.cancelPipeline)

		v1.Post("/batches", srv.createBatch)
		v1.Get("/batches/{id}", srv.getBatch)
	})
}

type createPipelineRequest struct {
	VideoID   string   `json:"video_id"`
	Steps     []string `json:"steps"`
	ChannelID string   `json:"channel_id,omitempty"`
}

func (s *Server) createPipeline(w http.ResponseWriter, r *http.Request) {
	var req createPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	steps := make([]model.AIOperationKind, 0, len(req.Steps))
	for _, st := range req.Steps {
		steps = append(steps, model.AIOperationKind(st))
	}
	p, err := s.pipelines.Start(r.Context(), UserIDFrom(r.Context()), req.VideoID, steps, req.ChannelID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getPipeline(w http.ResponseWriter, r *http.Request) {
	p, err := s.pipelines.Status(r.Context(), UserIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) cancelPipeline(w http.ResponseWriter, r *http.Request) {
	p, err := s.pipelines.Cancel(r.Context(), UserIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type createBatchRequest struct {
	VideoIDs  []string `json:"video_ids"`
	Operation string   `json:"operation"`
	Platforms []string `json:"platforms,omitempty"`
}

func (s *Server) createBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := s.batches.Start(r.Context(), UserIDFrom(r.Context()), req.VideoIDs, req.Operation, req.Platforms)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.batches.Status(r.Context(), UserIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrPipelineFinished):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSONError(w, status, "internal error")
		return
	}
	writeJSONError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

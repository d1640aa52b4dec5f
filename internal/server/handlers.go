package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/models"
)

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("ask request",
		zap.String("scope", req.ScopeID),
		zap.Int("question_len", len(req.Question)))

	resp, err := s.asker.Ask(r.Context(), req)
	if err != nil {
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, askStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// askStatus maps pipeline failures to HTTP statuses. Everything the pipeline
// can degrade through never reaches here; what does is model-level failure.
func askStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrModelTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrModelUnavailable), errors.Is(err, models.ErrSynthesisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleGetAnswer(w http.ResponseWriter, r *http.Request) {
	if s.answers == nil {
		s.respondError(w, http.StatusNotImplemented, "answer sharing not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	resp, err := s.answers.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrAnswerNotFound) {
			s.respondError(w, http.StatusNotFound, "answer not found")
			return
		}
		s.logger.Error("answer lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"live_sessions": s.sessions.Len(),
	}
	if s.vector != nil {
		resp["vector_index_size"] = s.vector.Size()
	}
	resp["config"] = map[string]interface{}{
		"generation_model":     s.config.AI.GenerationModel,
		"embedding_model":      s.config.AI.EmbeddingModel,
		"embedding_dimensions": s.config.AI.EmbeddingDimensions,
		"rerank_enabled":       s.config.Rerank.EnabledOrDefault(),
		"cache_enabled":        s.config.Cache.EnabledOrDefault(),
		"default_limit":        s.config.Search.DefaultLimit,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

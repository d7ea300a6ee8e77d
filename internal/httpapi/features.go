package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/contactcenter/internal/orchestrator"
	"github.com/ent0n29/contactcenter/internal/session"
	"github.com/ent0n29/contactcenter/internal/tools"
)

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	sess, err := s.orchestrator.Session(id)
	if errors.Is(err, session.ErrNotFound) {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "session_lookup_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.RecommendationRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	resp, err := s.orchestrator.Recommend(req)
	if err != nil {
		respondFeatureError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBookService(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.ServiceBookingRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Vehicle == nil && strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "missing_vehicle", "vehicle or sessionId is required")
		return
	}
	resp, err := s.orchestrator.BookService(req)
	if err != nil {
		respondFeatureError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleServiceDetails(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orchestrator.ServiceDetails(chi.URLParam(r, "id"))
	if err != nil {
		respondFeatureError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondFeatureError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrFeatureUnavailable):
		respondError(w, http.StatusNotImplemented, "unavailable", err.Error())
	case errors.Is(err, tools.ErrUnknownService):
		respondError(w, http.StatusNotFound, "service_not_found", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "feature_failed", err.Error())
	}
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ent0n29/contactcenter/internal/config"
	"github.com/ent0n29/contactcenter/internal/observability"
	"github.com/ent0n29/contactcenter/internal/orchestrator"
	"github.com/ent0n29/contactcenter/internal/session"
)

// Orchestrator is the part of the supervisor the transport needs.
type Orchestrator interface {
	ProcessMessage(ctx context.Context, sessionID, message string) orchestrator.Response
	Status(ctx context.Context) orchestrator.Status
	Session(id string) (*session.Session, error)
	Recommend(req orchestrator.RecommendationRequest) (orchestrator.RecommendationResponse, error)
	BookService(req orchestrator.ServiceBookingRequest) (orchestrator.ServiceBookingResponse, error)
	ServiceDetails(serviceID string) (orchestrator.ServiceDetailsResponse, error)
}

type Server struct {
	cfg          config.Config
	orchestrator Orchestrator
	metrics      *observability.Metrics
	logger       *zap.Logger
	upgrader     websocket.Upgrader
	now          func() time.Time
}

func New(cfg config.Config, orch Orchestrator, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:          cfg,
		orchestrator: orch,
		metrics:      metrics,
		logger:       logger.Named("httpapi"),
		now:          time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may open a socket unless configured otherwise.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Get("/v1/perf/stages", s.handlePerfStages)

	r.Post("/chat", s.handleChat)
	r.Post("/api/chat", s.handleChat)
	r.Get("/ws", s.handleWS)

	r.Get("/api/sessions/{id}", s.handleGetSession)
	r.Post("/api/recommendations", s.handleRecommendations)
	r.Post("/api/service/book", s.handleBookService)
	r.Get("/api/service/{id}", s.handleServiceDetails)

	return r
}

type healthResponse struct {
	Status        string              `json:"status"`
	Timestamp     time.Time           `json:"timestamp"`
	Orchestration orchestrator.Status `json:"orchestration"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:        "healthy",
		Timestamp:     s.now().UTC(),
		Orchestration: s.orchestrator.Status(r.Context()),
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "sessionId is required")
		return
	}

	respondJSON(w, http.StatusOK, s.orchestrator.ProcessMessage(r.Context(), req.SessionID, req.Message))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/config"
	"github.com/felixgeelhaar/pmdrill/internal/domain"
	"github.com/felixgeelhaar/pmdrill/internal/session"
	"github.com/felixgeelhaar/pmdrill/internal/stats"
	"github.com/felixgeelhaar/fortify/ratelimit"
)

// Version is reported by the status endpoint
const Version = "0.1.0"

// QuestionCatalog is the read side of the question bank
type QuestionCatalog interface {
	Get(id string) (*domain.Question, error)
	List(category domain.Category) []*domain.Question
}

// Server represents the pmdrill daemon HTTP server
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	limiter ratelimit.RateLimiter

	// Services
	sessions  session.SessionService
	stats     stats.StatsService
	questions QuestionCatalog
	evaluator string
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config        *config.LocalConfig
	Sessions      session.SessionService
	Stats         stats.StatsService
	Questions     QuestionCatalog // Optional: serves /v1/questions
	EvaluatorName string          // Reported by /v1/status
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Sessions == nil || cfg.Stats == nil {
		return nil, fmt.Errorf("session and stats services are required")
	}

	s := &Server{
		cfg:       cfg.Config,
		router:    http.NewServeMux(),
		sessions:  cfg.Sessions,
		stats:     cfg.Stats,
		questions: cfg.Questions,
		evaluator: cfg.EvaluatorName,
	}

	if rl := cfg.Config.RateLimit; rl.Enabled {
		rate := rl.RequestsPerSecond
		if rate <= 0 {
			rate = 20
		}
		burst := rl.Burst
		if burst <= 0 {
			burst = rate * 2
		}
		s.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    burst,
			Interval: time.Second,
		})
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // End waits on the evaluator
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if s.limiter != nil {
		h = rateLimitMiddleware(s.limiter)(h)
	}
	return recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(h)))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Question bank
	if s.questions != nil {
		s.router.HandleFunc("GET /v1/questions", s.handleListQuestions)
		s.router.HandleFunc("GET /v1/questions/{id}", s.handleGetQuestion)
	}

	// Interview sessions
	s.router.HandleFunc("POST /v1/sessions", s.handleStartSession)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("POST /v1/sessions/{id}/messages", s.handleAppendMessage)
	s.router.HandleFunc("POST /v1/sessions/{id}/end", s.handleEndSession)

	// Users
	s.router.HandleFunc("GET /v1/users/{user}/sessions", s.handleListUserSessions)
	s.router.HandleFunc("GET /v1/users/{user}/stats", s.handleGetStats)
	s.router.HandleFunc("POST /v1/users/{user}/stats/recalculate", s.handleRecalculateStats)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting pmdrill daemon",
		"addr", s.server.Addr,
		"storage", s.cfg.Storage.Driver,
		"queue", s.cfg.Queue.Enabled,
		"evaluator", s.evaluator,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	if s.limiter != nil {
		if err := s.limiter.Close(); err != nil {
			slog.Warn("failed to close rate limiter", "error", err)
		}
	}

	return s.server.Shutdown(ctx)
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "running",
		"version":   Version,
		"storage":   s.cfg.Storage.Driver,
		"queue":     s.cfg.Queue.Enabled,
		"evaluator": s.evaluator,
		"timezone":  s.cfg.Stats.Timezone,
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req session.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sess, err := s.sessions.Start(r.Context(), req)
	if err != nil {
		s.domainError(w, "failed to start session", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, sess)
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if raw := r.URL.Query().Get("category"); !domain.IsRandomCategory(raw) {
		c, err := domain.ParseCategory(raw)
		if err != nil {
			s.domainError(w, "invalid category", err)
			return
		}
		category = c
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"questions": s.questions.List(category),
	})
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.questions.Get(r.PathValue("id"))
	if err != nil {
		s.domainError(w, "failed to get question", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, q)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.domainError(w, "failed to get session", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role    domain.Role `json:"role"`
		Content string      `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleUser
	}

	sess, err := s.sessions.AppendMessage(r.Context(), r.PathValue("id"), req.Role, req.Content)
	if err != nil {
		s.domainError(w, "failed to append message", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.End(r.Context(), r.PathValue("id"))
	if err != nil && sess == nil {
		s.domainError(w, "failed to end session", err)
		return
	}

	resp := map[string]any{"session": sess}
	if err != nil {
		// Completed, but the stats refresh did not go through.
		resp["stats_error"] = err.Error()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleListUserSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListByUser(r.Context(), r.PathValue("user"))
	if err != nil {
		s.domainError(w, "failed to list sessions", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"sessions": sessions,
	})
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Get(r.Context(), r.PathValue("user"))
	if err != nil {
		s.domainError(w, "failed to get stats", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

func (s *Server) handleRecalculateStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Recompute(r.Context(), r.PathValue("user"))
	if err != nil {
		s.domainError(w, "failed to recalculate stats", err)
		return
	}
	if st == nil {
		// No completed sessions yet; nothing was written.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

// Helper methods

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

// domainError maps service errors onto HTTP status codes
func (s *Server) domainError(w http.ResponseWriter, message string, err error) {
	s.jsonError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrStatsNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, domain.ErrNoUserInput):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEvaluationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

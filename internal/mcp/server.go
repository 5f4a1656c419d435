package mcp

import (
	"context"
	"errors"
	"fmt"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/felixgeelhaar/pmdrill/internal/domain"
	"github.com/felixgeelhaar/pmdrill/internal/stats"
)

// SessionLister is the part of the session service the MCP tools need
type SessionLister interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.InterviewSession, error)
}

// Server wraps the MCP server with pmdrill functionality
type Server struct {
	mcpServer *server.Server
	stats     stats.StatsService
	sessions  SessionLister
}

// Config contains configuration for the MCP server
type Config struct {
	Stats    stats.StatsService
	Sessions SessionLister
}

// NewServer creates a new MCP server for pmdrill
func NewServer(cfg Config) *Server {
	s := &Server{
		stats:    cfg.Stats,
		sessions: cfg.Sessions,
	}

	s.mcpServer = server.New(server.Info{
		Name:    "pmdrill",
		Version: "0.1.0",
	}, server.WithInstructions(`
pmdrill tracks product-management interview practice.
Each completed interview counts toward a daily streak and per-category averages
(design, improvement, rca, guesstimate).

Available tools:
- pmdrill_stats: Show a user's streaks, totals and category averages
- pmdrill_recalculate_stats: Rebuild a user's stats from their completed sessions
- pmdrill_sessions: List a user's interview sessions
`))

	s.registerTools()

	return s
}

// registerTools registers all pmdrill MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("pmdrill_stats").
		Description("Show a user's practice streaks, total solved and average scores per category.").
		Handler(s.handleStats)

	s.mcpServer.Tool("pmdrill_recalculate_stats").
		Description("Recompute a user's stats from all completed interview sessions.").
		Handler(s.handleRecalculate)

	s.mcpServer.Tool("pmdrill_sessions").
		Description("List a user's interview sessions, newest first.").
		Handler(s.handleSessions)
}

// Input/Output types for tools

type UserInput struct {
	UserID string `json:"user_id" jsonschema:"description=User whose stats to use"`
}

type StatsOutput struct {
	UserID           string             `json:"user_id"`
	CurrentStreak    int                `json:"current_streak"`
	LongestStreak    int                `json:"longest_streak"`
	TotalSolved      int                `json:"total_solved"`
	LastActivityDate string             `json:"last_activity_date,omitempty"`
	AvgScores        map[string]float64 `json:"avg_scores"`
	Message          string             `json:"message,omitempty"`
}

type SessionSummary struct {
	ID              string   `json:"id"`
	Category        string   `json:"category"`
	Status          string   `json:"status"`
	Date            string   `json:"date,omitempty"`
	CompositeScore  *float64 `json:"composite_score,omitempty"`
	DurationMinutes int      `json:"duration_minutes"`
}

type SessionsOutput struct {
	Sessions []SessionSummary `json:"sessions"`
}

// Tool handlers

func (s *Server) handleStats(ctx context.Context, input UserInput) (StatsOutput, error) {
	st, err := s.stats.Get(ctx, input.UserID)
	if errors.Is(err, domain.ErrStatsNotFound) {
		return StatsOutput{
			UserID:    input.UserID,
			AvgScores: toAvgScores(domain.NewUserStats(input.UserID)),
			Message:   "No completed interviews yet.",
		}, nil
	}
	if err != nil {
		return StatsOutput{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return toStatsOutput(st), nil
}

func (s *Server) handleRecalculate(ctx context.Context, input UserInput) (StatsOutput, error) {
	st, err := s.stats.Recompute(ctx, input.UserID)
	if err != nil {
		return StatsOutput{}, fmt.Errorf("failed to recalculate stats: %w", err)
	}
	if st == nil {
		return StatsOutput{
			UserID:    input.UserID,
			AvgScores: toAvgScores(domain.NewUserStats(input.UserID)),
			Message:   "No completed interviews; nothing to recalculate.",
		}, nil
	}

	out := toStatsOutput(st)
	out.Message = fmt.Sprintf("Recalculated from %d completed interviews.", st.TotalSolved)
	return out, nil
}

func (s *Server) handleSessions(ctx context.Context, input UserInput) (SessionsOutput, error) {
	if s.sessions == nil {
		return SessionsOutput{}, fmt.Errorf("session listing is not available")
	}

	list, err := s.sessions.ListByUser(ctx, input.UserID)
	if err != nil {
		return SessionsOutput{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := SessionsOutput{Sessions: make([]SessionSummary, 0, len(list))}
	for _, sess := range list {
		out.Sessions = append(out.Sessions, SessionSummary{
			ID:              sess.ID,
			Category:        sess.Category.Label(),
			Status:          string(sess.Status),
			Date:            sess.ActivityDate(),
			CompositeScore:  sess.CompositeScore,
			DurationMinutes: sess.DurationMinutes,
		})
	}
	return out, nil
}

func toStatsOutput(st *domain.UserStats) StatsOutput {
	return StatsOutput{
		UserID:           st.UserID,
		CurrentStreak:    st.CurrentStreak,
		LongestStreak:    st.LongestStreak,
		TotalSolved:      st.TotalSolved,
		LastActivityDate: st.LastActivityDate,
		AvgScores:        toAvgScores(st),
	}
}

func toAvgScores(st *domain.UserStats) map[string]float64 {
	out := make(map[string]float64, len(domain.Categories()))
	for _, c := range domain.Categories() {
		out[string(c)] = st.AvgScore(c)
	}
	return out
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/pmdrill/internal/config"
	"github.com/felixgeelhaar/pmdrill/internal/mcp"
	"github.com/felixgeelhaar/pmdrill/internal/stats"
	"github.com/felixgeelhaar/pmdrill/internal/storage"
)

// cmdMCP serves the MCP tools on stdio, reading storage directly
func cmdMCP() error {
	// stdout carries the protocol; keep logs on stderr
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("setup pmdrill directory: %w", err)
	}
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	backend, err := storage.Open(ctx, cfg.Storage, cfg.SQLitePath(dir))
	if err != nil {
		return err
	}
	defer backend.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	statsService := stats.NewService(backend.Sessions(), backend.Stats, stats.Config{Location: loc})

	server := mcp.NewServer(mcp.Config{
		Stats:    statsService,
		Sessions: backend.Interviews,
	})
	return server.ServeStdio(ctx)
}

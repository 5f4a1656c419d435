package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/config"
	"github.com/felixgeelhaar/pmdrill/internal/daemon"
	"github.com/felixgeelhaar/pmdrill/internal/evaluator"
	"github.com/felixgeelhaar/pmdrill/internal/queue"
	"github.com/felixgeelhaar/pmdrill/internal/question"
	"github.com/felixgeelhaar/pmdrill/internal/session"
	"github.com/felixgeelhaar/pmdrill/internal/stats"
	"github.com/felixgeelhaar/pmdrill/internal/storage"
)

const (
	pidFileName = "pmdrilld.pid"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("ensure pmdrill dir: %w", err)
	}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logFile, err := setupLogging(dir, parseLogLevel(cfg.Daemon.LogLevel))
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logFile.Close()

	pidPath := filepath.Join(dir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := storage.Open(ctx, cfg.Storage, cfg.SQLitePath(dir))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	questions, err := question.Open(cfg.Interview.QuestionsDir)
	if err != nil {
		return err
	}
	slog.Info("question bank loaded", "counts", questions.Counts())

	statsSvc := stats.NewService(backend.Sessions(), backend.Stats, stats.Config{Location: loc})
	ev := evaluator.FromConfig(cfg.Evaluator)
	sessionSvc := session.NewService(backend.Interviews, ev, statsSvc, session.Config{
		Duration:  cfg.InterviewDuration(),
		Location:  loc,
		Questions: questions,
	})

	stopQueue := setupQueue(ctx, cfg.Queue, sessionSvc, statsSvc)
	defer stopQueue()

	go sweepOverdue(ctx, sessionSvc, cfg.SweepInterval())

	server, err := daemon.NewServer(daemon.ServerConfig{
		Config:        cfg,
		Sessions:      sessionSvc,
		Stats:         statsSvc,
		Questions:     questions,
		EvaluatorName: ev.Name(),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

// setupQueue moves stats recomputes onto RabbitMQ workers when enabled.
// If the broker is unreachable the daemon keeps recomputing inline.
func setupQueue(ctx context.Context, cfg config.QueueConfig, sessions *session.Service, statsSvc *stats.Service) func() {
	if !cfg.Enabled {
		return func() {}
	}

	conn, err := queue.NewConnection(cfg.URL)
	if err != nil {
		slog.Warn("queue unavailable, recomputing stats inline", "error", err)
		return func() {}
	}

	sessions.SetPublisher(queue.NewProducer(conn))

	consumerCfg := queue.DefaultConsumerConfig()
	consumerCfg.Workers = cfg.Workers
	consumer := queue.NewConsumer(conn, func(ctx context.Context, job *queue.StatsJob) error {
		_, err := statsSvc.Recompute(ctx, job.UserID)
		return err
	}, consumerCfg)

	if err := consumer.Start(ctx); err != nil {
		slog.Warn("failed to start stats consumer, recomputing stats inline", "error", err)
		sessions.SetPublisher(nil)
		conn.Close()
		return func() {}
	}

	return func() {
		consumer.Stop()
		if err := conn.Close(); err != nil {
			slog.Warn("failed to close queue connection", "error", err)
		}
	}
}

// sweepOverdue ends interviews whose countdown ran out while nobody called End
func sweepOverdue(ctx context.Context, sessions session.SessionService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.ExpireOverdue(ctx)
			if err != nil {
				slog.Warn("overdue sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired overdue sessions", "count", n)
			}
		}
	}
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher sends a message body to a named queue.
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, data any) error
}

// Producer publishes stats jobs to the queue
type Producer struct {
	pub Publisher
}

// NewProducer creates a new queue producer
func NewProducer(pub Publisher) *Producer {
	return &Producer{pub: pub}
}

// Publish sends a stats job, filling in its id and timestamp when missing
func (p *Producer) Publish(ctx context.Context, job *StatsJob) error {
	if job.UserID == "" {
		return errors.New("stats job requires a user id")
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.pub.PublishJSON(ctx, StatsQueueName, job); err != nil {
		return fmt.Errorf("failed to publish stats job: %w", err)
	}

	slog.Info("published stats job",
		"job_id", job.ID,
		"user_id", job.UserID,
		"session_id", job.SessionID,
		"reason", job.Reason,
	)
	return nil
}

// PublishStatsJob queues a recompute after a session completes
func (p *Producer) PublishStatsJob(ctx context.Context, userID, sessionID string) error {
	return p.Publish(ctx, NewStatsJob(userID, sessionID, ReasonSessionCompleted))
}

// NewStatsJob creates a new stats job with the given parameters
func NewStatsJob(userID, sessionID, reason string) *StatsJob {
	return &StatsJob{
		ID:        uuid.New(),
		UserID:    userID,
		SessionID: sessionID,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
}

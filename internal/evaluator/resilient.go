package evaluator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// Resilient wraps an evaluator with resilience patterns from fortify
type Resilient struct {
	evaluator      Evaluator
	circuitBreaker circuitbreaker.CircuitBreaker[*Result]
	retrier        retry.Retry[*Result]
	bulkhead       bulkhead.Bulkhead[*Result]
	logger         *slog.Logger
}

// ResilientConfig holds configuration for the resilient wrapper
type ResilientConfig struct {
	EnableCircuitBreaker bool
	EnableRetry          bool
	EnableBulkhead       bool

	// MaxAttempts for retry (default: 3)
	MaxAttempts int

	// InitialDelay before the first retry (default: 2s)
	InitialDelay time.Duration

	// MaxConcurrent evaluations in flight (default: 5)
	MaxConcurrent int

	Logger *slog.Logger
}

// DefaultResilientConfig returns the defaults used by the daemon
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableCircuitBreaker: true,
		EnableRetry:          true,
		EnableBulkhead:       true,
		MaxAttempts:          3,
		InitialDelay:         2 * time.Second,
		MaxConcurrent:        5,
	}
}

// NewResilient wraps ev with circuit breaker, retry and bulkhead
func NewResilient(ev Evaluator, cfg ResilientConfig) *Resilient {
	r := &Resilient{
		evaluator: ev,
		logger:    cfg.Logger,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	if cfg.EnableCircuitBreaker {
		r.circuitBreaker = circuitbreaker.New[*Result](circuitbreaker.Config{
			MaxRequests: 2,
			Interval:    10 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				r.logger.Warn("circuit breaker state change",
					"evaluator", ev.Name(),
					"from", from.String(),
					"to", to.String())
			},
		})
	}

	if cfg.EnableRetry {
		attempts := cfg.MaxAttempts
		if attempts <= 0 {
			attempts = 3
		}
		delay := cfg.InitialDelay
		if delay <= 0 {
			delay = 2 * time.Second
		}
		r.retrier = retry.New[*Result](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  delay,
			MaxDelay:      30 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		})
	}

	if cfg.EnableBulkhead {
		maxConcurrent := cfg.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 5
		}
		r.bulkhead = bulkhead.New[*Result](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 2,
			QueueTimeout:  30 * time.Second,
		})
	}

	return r
}

func (r *Resilient) Name() string {
	return r.evaluator.Name()
}

func (r *Resilient) Evaluate(ctx context.Context, req *Request) (*Result, error) {
	operation := func(ctx context.Context) (*Result, error) {
		return r.evaluator.Evaluate(ctx, req)
	}

	if r.bulkhead != nil {
		operation = func(ctx context.Context) (*Result, error) {
			return r.bulkhead.Execute(ctx, func(ctx context.Context) (*Result, error) {
				return r.evaluator.Evaluate(ctx, req)
			})
		}
	}

	if r.circuitBreaker != nil && r.retrier != nil {
		return r.circuitBreaker.Execute(ctx, func(ctx context.Context) (*Result, error) {
			return r.retrier.Do(ctx, operation)
		})
	}
	if r.circuitBreaker != nil {
		return r.circuitBreaker.Execute(ctx, operation)
	}
	if r.retrier != nil {
		return r.retrier.Do(ctx, operation)
	}
	return operation(ctx)
}

// isRetryable reports whether the endpoint answered with a transient status.
func isRetryable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

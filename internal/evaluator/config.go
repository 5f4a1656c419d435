package evaluator

import (
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/config"
)

// FromConfig builds the evaluator the daemon uses: the static evaluator
// in offline mode, otherwise the HTTP client behind the resilience wrapper.
func FromConfig(cfg config.EvaluatorConfig) Evaluator {
	if cfg.Static {
		return NewStatic(cfg.StaticScore)
	}

	client := NewClient(ClientConfig{
		BaseURL: cfg.URL,
		APIKey:  cfg.APIKey,
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	return NewResilient(client, DefaultResilientConfig())
}

package config

import (
	"os"
	"strconv"
)

// Environment variables that override the YAML configuration
const (
	EnvDatabaseURL     = "PMDRILL_DATABASE_URL"
	EnvRabbitMQURL     = "PMDRILL_RABBITMQ_URL"
	EnvEvaluatorURL    = "PMDRILL_EVALUATOR_URL"
	EnvEvaluatorAPIKey = "PMDRILL_EVALUATOR_API_KEY"
	EnvPort            = "PMDRILL_PORT"
	EnvQueueEnabled    = "PMDRILL_QUEUE_ENABLED"
)

// ApplyEnv overrides file settings with environment variables.
// A database URL switches storage to postgres; a RabbitMQ URL enables the queue.
func ApplyEnv(cfg *LocalConfig) {
	cfg.Daemon.Port = getEnvInt(EnvPort, cfg.Daemon.Port)

	if url := getEnv(EnvDatabaseURL, ""); url != "" {
		cfg.Storage.Driver = DriverPostgres
		cfg.Storage.DatabaseURL = url
	}

	if url := getEnv(EnvRabbitMQURL, ""); url != "" {
		cfg.Queue.URL = url
		cfg.Queue.Enabled = true
	}
	cfg.Queue.Enabled = getEnvBool(EnvQueueEnabled, cfg.Queue.Enabled)

	cfg.Evaluator.URL = getEnv(EnvEvaluatorURL, cfg.Evaluator.URL)
	cfg.Evaluator.APIKey = getEnv(EnvEvaluatorAPIKey, cfg.Evaluator.APIKey)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

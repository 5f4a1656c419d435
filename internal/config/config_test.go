package config

import (
	"os"
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{"returns default when not set", "PMDRILL_TEST_KEY_UNSET", "default", "", "default"},
		{"returns env value when set", "PMDRILL_TEST_KEY_SET", "default", "custom", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{"returns default when not set", "PMDRILL_TEST_INT_UNSET", 100, "", 100},
		{"parses valid int", "PMDRILL_TEST_INT_VALID", 100, "42", 42},
		{"returns default on invalid int", "PMDRILL_TEST_INT_INVALID", 100, "not-a-number", 100},
		{"parses zero", "PMDRILL_TEST_INT_ZERO", 100, "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt(%q, %d) = %d, want %d", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"default when unset", "", true, true},
		{"parses true", "true", false, true},
		{"parses 0", "0", true, false},
		{"default on garbage", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PMDRILL_TEST_BOOL", tt.envValue)
			if got := getEnvBool("PMDRILL_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://pmdrill@db:5432/pmdrill")
	t.Setenv(EnvRabbitMQURL, "amqp://guest:guest@mq:5672/")
	t.Setenv(EnvEvaluatorURL, "https://eval.example.com/api")
	t.Setenv(EnvEvaluatorAPIKey, "sk-test")
	t.Setenv(EnvPort, "9000")
	t.Setenv(EnvQueueEnabled, "")

	cfg := DefaultLocalConfig()
	ApplyEnv(cfg)

	if cfg.Storage.Driver != DriverPostgres || cfg.Storage.DatabaseURL != "postgres://pmdrill@db:5432/pmdrill" {
		t.Errorf("Storage = %+v, want postgres with env URL", cfg.Storage)
	}
	if !cfg.Queue.Enabled || cfg.Queue.URL != "amqp://guest:guest@mq:5672/" {
		t.Errorf("Queue = %+v, want enabled with env URL", cfg.Queue)
	}
	if cfg.Evaluator.URL != "https://eval.example.com/api" || cfg.Evaluator.APIKey != "sk-test" {
		t.Errorf("Evaluator = %+v", cfg.Evaluator)
	}
	if cfg.Daemon.Port != 9000 {
		t.Errorf("Daemon.Port = %d, want 9000", cfg.Daemon.Port)
	}
}

func TestApplyEnv_QueueDisabledExplicitly(t *testing.T) {
	t.Setenv(EnvRabbitMQURL, "amqp://guest:guest@mq:5672/")
	t.Setenv(EnvQueueEnabled, "false")

	cfg := DefaultLocalConfig()
	ApplyEnv(cfg)

	if cfg.Queue.Enabled {
		t.Error("Queue.Enabled = true, want false when disabled explicitly")
	}
}

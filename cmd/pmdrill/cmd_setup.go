package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/pmdrill/internal/config"
	"gopkg.in/yaml.v3"
)

// cmdInit creates the data directory and a default config
func cmdInit() error {
	fmt.Print("Creating ~/.pmdrill directory structure... ")
	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. pmdrill set-key <key>  # Evaluator API key (or set evaluator.static)")
	fmt.Println("  2. pmdrill start          # Start the daemon")
	return nil
}

// cmdConfig prints the effective configuration without secrets
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Print(string(data))

	if cfg.Evaluator.APIKey != "" {
		fmt.Println("# evaluator api key: configured")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("# warning: %v\n", err)
	}
	return nil
}

// cmdSetKey stores the evaluator API key in secrets.yaml
func cmdSetKey(args []string) error {
	if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("usage: pmdrill set-key <api-key>")
	}
	if err := config.SaveSecrets(strings.TrimSpace(args[0])); err != nil {
		return err
	}
	fmt.Println("✓ Evaluator API key saved")
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

// cmdQuestions lists the daemon's question bank, optionally for one category
func cmdQuestions(args []string) error {
	addr := daemonAddr()
	if !isRunning(addr) {
		return fmt.Errorf("daemon is not running (start with 'pmdrill start')")
	}

	endpoint := addr + "/v1/questions"
	if len(args) > 0 {
		endpoint += "?category=" + url.QueryEscape(args[0])
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Questions []domain.Question `json:"questions"`
		Error     string            `json:"error"`
		Details   string            `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("parse questions: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon: %s: %s", body.Error, body.Details)
	}

	var current domain.Category
	for _, q := range body.Questions {
		if q.Category != current {
			if current != "" {
				fmt.Println()
			}
			current = q.Category
			fmt.Printf("%s:\n", q.Category.Label())
		}
		fmt.Printf("  %-32s %s\n", q.ID, q.Text)
	}
	if len(body.Questions) == 0 {
		fmt.Println("No questions.")
	}
	return nil
}

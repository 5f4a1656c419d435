package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

// cmdStats shows or recalculates a user's stats through the daemon
func cmdStats(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: pmdrill stats [recalc] <user>")
	}

	addr := daemonAddr()
	if !isRunning(addr) {
		return fmt.Errorf("daemon is not running (start with 'pmdrill start')")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	if args[0] == "recalc" {
		if len(args) < 2 {
			return fmt.Errorf("usage: pmdrill stats recalc <user>")
		}
		return recalcStats(client, addr, args[1])
	}
	return showStats(client, addr, args[0])
}

func showStats(client *http.Client, addr, user string) error {
	resp, err := client.Get(statsURL(addr, user))
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		fmt.Printf("No stats recorded for %s yet.\n", user)
		return nil
	}
	st, err := decodeStats(resp)
	if err != nil {
		return err
	}
	printStats(st)
	return nil
}

func recalcStats(client *http.Client, addr, user string) error {
	resp, err := client.Post(statsURL(addr, user)+"/recalculate", "application/json", nil)
	if err != nil {
		return fmt.Errorf("recalculate stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		fmt.Printf("%s has no completed sessions; nothing to recalculate.\n", user)
		return nil
	}
	st, err := decodeStats(resp)
	if err != nil {
		return err
	}
	fmt.Println("✓ Stats recalculated")
	fmt.Println()
	printStats(st)
	return nil
}

func statsURL(addr, user string) string {
	return addr + "/v1/users/" + url.PathEscape(user) + "/stats"
}

func decodeStats(resp *http.Response) (*domain.UserStats, error) {
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("daemon returned %s", resp.Status)
	}

	var st domain.UserStats
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("parse stats: %w", err)
	}
	return &st, nil
}

func printStats(st *domain.UserStats) {
	fmt.Printf("User:            %s\n", st.UserID)
	fmt.Printf("Current streak:  %d\n", st.CurrentStreak)
	fmt.Printf("Longest streak:  %d\n", st.LongestStreak)
	fmt.Printf("Total solved:    %d\n", st.TotalSolved)
	if st.LastActivityDate != "" {
		fmt.Printf("Last activity:   %s\n", st.LastActivityDate)
	}
	fmt.Println()
	fmt.Println("Category averages:")
	for _, c := range domain.Categories() {
		score := st.AvgScore(c)
		fmt.Printf("  %-12s %s %5.1f\n", c.Label(), renderBar(score, 20), score)
	}
}

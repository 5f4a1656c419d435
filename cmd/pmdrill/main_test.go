package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/pmdrill/internal/config"
)

func TestAddrFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DaemonConfig
		want string
	}{
		{"loopback", config.DaemonConfig{Bind: "127.0.0.1", Port: 7433}, "http://127.0.0.1:7433"},
		{"all interfaces", config.DaemonConfig{Bind: "0.0.0.0", Port: 8080}, "http://127.0.0.1:8080"},
		{"empty bind", config.DaemonConfig{Port: 9000}, "http://127.0.0.1:9000"},
		{"hostname", config.DaemonConfig{Bind: "localhost", Port: 7433}, "http://localhost:7433"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := addrFor(tt.cfg); got != tt.want {
				t.Errorf("addrFor() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		score      float64
		wantFilled int
	}{
		{0, 0},
		{50, 5},
		{100, 10},
		{150, 10},
		{-5, 0},
	}
	for _, tt := range tests {
		bar := renderBar(tt.score, 10)
		if n := strings.Count(bar, "█"); n != tt.wantFilled {
			t.Errorf("renderBar(%v) filled = %d; want %d", tt.score, n, tt.wantFilled)
		}
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 10 {
			t.Errorf("renderBar(%v) width = %d; want 10", tt.score, n)
		}
	}
}

func TestStatsURL(t *testing.T) {
	got := statsURL("http://127.0.0.1:7433", "a b/c")
	want := "http://127.0.0.1:7433/v1/users/a%20b%2Fc/stats"
	if got != want {
		t.Errorf("statsURL() = %q; want %q", got, want)
	}
}

func TestReadPID(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.pid")
	if err := os.WriteFile(good, []byte("4242\n"), 0644); err != nil {
		t.Fatal(err)
	}
	pid, err := readPID(good)
	if err != nil {
		t.Fatalf("readPID() error = %v", err)
	}
	if pid != 4242 {
		t.Errorf("readPID() = %d; want 4242", pid)
	}

	bad := filepath.Join(dir, "bad.pid")
	if err := os.WriteFile(bad, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := readPID(bad); err == nil {
		t.Error("readPID() with garbage should fail")
	}

	if _, err := readPID(filepath.Join(dir, "missing.pid")); err == nil {
		t.Error("readPID() on a missing file should fail")
	}
}

func TestCmdSetKey_Usage(t *testing.T) {
	if err := cmdSetKey(nil); err == nil {
		t.Error("cmdSetKey(nil) should fail")
	}
	if err := cmdSetKey([]string{"   "}); err == nil {
		t.Error("cmdSetKey(blank) should fail")
	}
}

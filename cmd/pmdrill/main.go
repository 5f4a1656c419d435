package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/pmdrill/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	pidFile = "pmdrilld.pid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "config":
		err = cmdConfig()
	case "set-key":
		err = cmdSetKey(os.Args[2:])
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "stats":
		err = cmdStats(os.Args[2:])
	case "questions":
		err = cmdQuestions(os.Args[2:])
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("pmdrill %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pmdrill - PM interview practice tracker

Usage:
  pmdrill <command> [arguments]

Setup Commands:
  init                    Create ~/.pmdrill with a default config
  config                  Show current configuration
  set-key <key>           Store the evaluator API key

Daemon Commands:
  start                   Start the pmdrill daemon
  stop                    Stop the pmdrill daemon
  status                  Show daemon status
  logs                    View daemon logs

Stats Commands:
  stats <user>            Show streaks and category averages
  stats recalc <user>     Recompute stats from completed sessions
  questions [category]    List the question bank

Integration Commands:
  mcp                     Start MCP server on stdio

Other:
  help                    Show this help message
  version                 Show version information

Examples:
  pmdrill start
  pmdrill stats alice
  pmdrill stats recalc alice`)
}

// daemonAddr derives the daemon URL from the local config
func daemonAddr() string {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		cfg = config.DefaultLocalConfig()
	}
	return addrFor(cfg.Daemon)
}

func addrFor(d config.DaemonConfig) string {
	host := d.Bind
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, d.Port)
}

// renderBar draws a 0-100 score as a fixed-width bar
func renderBar(score float64, width int) string {
	filled := int(score / 100 * float64(width))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

package sqlite

import (
	"github.com/felixgeelhaar/pmdrill/internal/session"
	"github.com/felixgeelhaar/pmdrill/internal/stats"
)

// Ensure SQLite stores implement the storage interfaces.
var (
	_ session.InterviewStore = (*InterviewStore)(nil)
	_ stats.SessionSource    = (*InterviewStore)(nil)
	_ stats.StatsStore       = (*StatsStore)(nil)
)

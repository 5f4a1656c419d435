// Package storage opens the configured persistence backend.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/pmdrill/internal/config"
	"github.com/felixgeelhaar/pmdrill/internal/session"
	"github.com/felixgeelhaar/pmdrill/internal/stats"
	"github.com/felixgeelhaar/pmdrill/internal/storage/postgres"
	"github.com/felixgeelhaar/pmdrill/internal/storage/sqlite"
)

// Backend bundles the stores of one database
type Backend struct {
	Driver     string
	Interviews session.InterviewStore
	Stats      stats.StatsStore
	close      func() error
}

// Sessions returns the interview store as a stats session source
func (b *Backend) Sessions() stats.SessionSource {
	return b.Interviews
}

// Close releases the database connection
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to the configured driver and applies pending migrations.
// sqlitePath is only used by the sqlite driver.
func Open(ctx context.Context, cfg config.StorageConfig, sqlitePath string) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		db, err := sqlite.Open(sqlitePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		slog.Info("storage ready", "driver", config.DriverSQLite, "path", sqlitePath)
		return &Backend{
			Driver:     config.DriverSQLite,
			Interviews: sqlite.NewInterviewStore(db),
			Stats:      sqlite.NewStatsStore(db),
			close:      db.Close,
		}, nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		slog.Info("storage ready", "driver", config.DriverPostgres)
		return &Backend{
			Driver:     config.DriverPostgres,
			Interviews: postgres.NewInterviewStore(db),
			Stats:      postgres.NewStatsStore(db),
			close: func() error {
				db.Close()
				return nil
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

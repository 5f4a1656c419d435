package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/storage/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

// DB holds the pgx pool used by the stores.
type DB struct {
	Pool *pgxpool.Pool
	dsn  string
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &DB{Pool: pool, dsn: dsn}, nil
}

// Migrate applies pending migrations over a short-lived database/sql connection.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB, err := sql.Open("postgres", db.dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	_, err = migrations.Apply(ctx, sqlDB, migrations.PostgresFS(), migrations.Postgres)
	return err
}

// Version returns the current schema version.
func (db *DB) Version(ctx context.Context) (int, error) {
	var version int
	err := db.Pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// Close releases the pool.
func (db *DB) Close() {
	db.Pool.Close()
}

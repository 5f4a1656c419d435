package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/pmdrill/internal/config"
	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pmdrill.db")

	b, err := Open(ctx, config.StorageConfig{Driver: config.DriverSQLite}, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()

	if b.Driver != config.DriverSQLite {
		t.Errorf("Driver = %q, want sqlite", b.Driver)
	}
	if _, err := b.Stats.FindByUser(ctx, "u1"); !errors.Is(err, domain.ErrStatsNotFound) {
		t.Errorf("FindByUser() error = %v, want ErrStatsNotFound on a fresh schema", err)
	}
	list, err := b.Sessions().ListCompleted(ctx, "u1")
	if err != nil || len(list) != 0 {
		t.Errorf("ListCompleted() = %v, %v; want empty", list, err)
	}
}

func TestOpen_EmptyDriverDefaultsToSQLite(t *testing.T) {
	b, err := Open(context.Background(), config.StorageConfig{}, filepath.Join(t.TempDir(), "x.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()
	if b.Driver != config.DriverSQLite {
		t.Errorf("Driver = %q, want sqlite", b.Driver)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.StorageConfig{Driver: "mongo"}, ""); err == nil {
		t.Error("Open() expected error for unknown driver")
	}
}

func TestOpen_PostgresBadDSN(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Driver: config.DriverPostgres, DatabaseURL: "://bad"}, "")
	if err == nil {
		t.Error("Open() expected error for an invalid postgres DSN")
	}
}

func TestBackend_CloseWithoutConnection(t *testing.T) {
	if err := (&Backend{}).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// Package store tests for database migration management.
package store

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestMigrator_Up verifies the embedded migrations apply once.
func TestMigrator_Up(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	m := NewMigrator(db, Migrations())

	if err := m.Up(ctx); err != nil {
		t.Fatalf("Up() failed: %v", err)
	}
	if err := m.Up(ctx); err != nil {
		t.Fatalf("second Up() failed: %v", err)
	}

	version, err := m.CurrentVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentVersion() failed: %v", err)
	}
	if version != 1 {
		t.Errorf("CurrentVersion() = %d, want 1", version)
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("GetAppliedMigrations() failed: %v", err)
	}
	if len(applied) != 1 || applied[0].Description != "kv_slots" || len(applied[0].Checksum) != 64 {
		t.Errorf("applied = %+v", applied)
	}
}

// TestMigrator_order verifies files apply in version order, skipping others.
func TestMigrator_order(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	fsys := fstest.MapFS{
		"V2__add_b.up.sql":      {Data: []byte("ALTER TABLE t ADD COLUMN b TEXT;")},
		"V1__create_t.up.sql":   {Data: []byte("CREATE TABLE t (a TEXT);")},
		"V1__create_t.down.sql": {Data: []byte("DROP TABLE t;")},
		"README.md":             {Data: []byte("notes")},
	}

	if err := NewMigrator(db, fsys).Up(ctx); err != nil {
		t.Fatalf("Up() failed: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO t (a, b) VALUES ('x', 'y')"); err != nil {
		t.Errorf("migrated table missing columns: %v", err)
	}
}

// TestMigrator_checksumMismatch verifies edited migrations are refused.
func TestMigrator_checksumMismatch(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	original := fstest.MapFS{"V1__create_t.up.sql": {Data: []byte("CREATE TABLE t (a TEXT);")}}
	if err := NewMigrator(db, original).Up(ctx); err != nil {
		t.Fatalf("Up() failed: %v", err)
	}

	edited := fstest.MapFS{"V1__create_t.up.sql": {Data: []byte("CREATE TABLE t (a INTEGER);")}}
	err := NewMigrator(db, edited).Up(ctx)
	if !apperrors.Is(err, apperrors.ErrMigration) {
		t.Errorf("Up() error = %v, want MIGRATION_FAILED", err)
	}
}

// TestMigrator_badSQL verifies a failing migration is not recorded.
func TestMigrator_badSQL(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	m := NewMigrator(db, fstest.MapFS{"V1__broken.up.sql": {Data: []byte("CREATE TABLE (")}})

	if err := m.Up(ctx); !apperrors.Is(err, apperrors.ErrMigration) {
		t.Fatalf("Up() error = %v, want MIGRATION_FAILED", err)
	}
	version, _ := m.CurrentVersion(ctx)
	if version != 0 {
		t.Errorf("CurrentVersion() = %d after failed migration", version)
	}
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "squishy.db"

// OpenDB opens the SQLite database in dataDir and applies schema migrations.
// The database is opened with:
// - WAL mode so readers never block the single writer
// - a busy timeout instead of immediate SQLITE_BUSY failures
func OpenDB(ctx context.Context, dataDir string) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return openDB(ctx, filepath.Join(dataDir, DatabaseFile), true)
}

func openDB(ctx context.Context, dsn string, wal bool) (*sql.DB, error) {
	// modernc.org/sqlite is pure Go, no CGO
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if wal {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := NewMigrator(db, Migrations()).Up(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

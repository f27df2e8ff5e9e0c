package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

// SQLiteSlot stores the document as one row of the kv_slots table.
type SQLiteSlot struct {
	db    *sql.DB
	key   string
	quota int64
	owned bool
}

// OpenSQLiteSlot opens the database in dataDir and returns the slot for key.
// Closing the slot closes the database.
func OpenSQLiteSlot(ctx context.Context, dataDir, key string, quota int64) (*SQLiteSlot, error) {
	db, err := OpenDB(ctx, dataDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "open database", err)
	}
	slot := NewSQLiteSlot(db, key, quota)
	slot.owned = true
	return slot, nil
}

// NewSQLiteSlot wraps an already-migrated database. The caller keeps
// ownership of db.
func NewSQLiteSlot(db *sql.DB, key string, quota int64) *SQLiteSlot {
	if key == "" {
		key = DefaultSlotName
	}
	return &SQLiteSlot{db: db, key: key, quota: quota}
}

// Read implements Slot.
func (s *SQLiteSlot) Read(ctx context.Context) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_slots WHERE key = ?", s.key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperrors.Wrap(apperrors.ErrStorage, "read slot", err)
	}
	return []byte(value), true, nil
}

// Write implements Slot.
func (s *SQLiteSlot) Write(ctx context.Context, data []byte) error {
	if err := checkQuota(len(data), s.quota); err != nil {
		return err
	}

	query := `
	INSERT INTO kv_slots (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.key, string(data), time.Now().UnixMilli()); err != nil {
		if isSQLiteFull(err) {
			return apperrors.Wrap(apperrors.ErrStoreCapacity, "database is full", err)
		}
		return apperrors.Wrap(apperrors.ErrStorage, "write slot", err)
	}
	return nil
}

// Close implements Slot.
func (s *SQLiteSlot) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

// isSQLiteFull reports SQLITE_FULL, including its extended codes.
func isSQLiteFull(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_FULL
	}
	return isDiskFull(err)
}

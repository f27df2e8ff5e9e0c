package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/logging"
	"github.com/kimhsiao/squishylog/internal/models"
	"github.com/kimhsiao/squishylog/internal/uuid"
)

// Store owns the authoritative record collection and persists it as one
// JSON document in a Slot. Every mutation funnels through ReplaceAll.
type Store struct {
	mu      sync.RWMutex
	slot    Slot
	records []models.Record
	newID   uuid.Generator
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the generator used for repaired ids.
func WithIDGenerator(gen uuid.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// WithClock sets the clock used for defaulted dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store over slot. Call Load before reading records.
func New(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot:    slot,
		records: []models.Record{},
		newID:   uuid.New,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and repairs the persisted collection, writing it back when
// repair changed anything. An absent document yields an empty collection. A document that is not a JSON array yields an
// empty collection and a CORRUPT_STORE error; the slot is left untouched.
func (s *Store) Load(ctx context.Context) ([]models.Record, error) {
	data, ok, err := s.slot.Read(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		s.records = []models.Record{}
		return []models.Record{}, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		s.records = []models.Record{}
		if err == nil {
			err = apperrors.New(apperrors.ErrCorruptStore, "stored document is not a list of records")
		} else {
			err = apperrors.Wrap(apperrors.ErrCorruptStore, "stored document is not valid JSON", err)
		}
		logging.Warn("Starting with an empty collection", map[string]interface{}{
			"reason": err.Error(),
			"bytes":  len(data),
		})
		return []models.Record{}, err
	}

	records, report := RepairAll(entries, models.Today(s.now()), s.newID)
	s.records = records
	if report.Changed() {
		logging.Info("Repaired stored records", map[string]interface{}{
			"entries":         report.Entries,
			"ids_assigned":    report.IDsAssigned,
			"non_objects":     report.NonObjects,
			"dates_defaulted": report.DatesDefaulted,
		})
		if err := s.persistRepaired(ctx, records); err != nil {
			return nil, err
		}
	}

	return models.CloneAll(records), nil
}

// persistRepaired writes the repaired collection back so assigned ids and
// defaulted dates stay stable across loads. A full slot is logged and the
// repaired collection stays in memory until the next successful write.
func (s *Store) persistRepaired(ctx context.Context, records []models.Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	if err := s.slot.Write(ctx, data); err != nil {
		if apperrors.Is(err, apperrors.ErrStoreCapacity) {
			logging.Warn("Repaired records not persisted; storage is full", map[string]interface{}{
				"records": len(records),
				"bytes":   len(data),
			})
			return nil
		}
		return err
	}
	return nil
}

// ReplaceAll makes records the collection and persists it whole. If the
// write fails the in-memory collection keeps the new records. A cancelled
// ctx leaves the collection unchanged.
func (s *Store) ReplaceAll(ctx context.Context, records []models.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := models.CloneAll(records)

	s.mu.Lock()
	s.records = next
	data, err := Encode(next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.slot.Write(ctx, data); err != nil {
		if apperrors.Is(err, apperrors.ErrStoreCapacity) {
			logging.Warn("Storage is full; export a backup and remove old records", map[string]interface{}{
				"records": len(next),
				"bytes":   len(data),
			})
		}
		return err
	}

	logging.Debug("Collection persisted", map[string]interface{}{
		"records": len(next),
		"bytes":   len(data),
	})
	return nil
}

// Records returns a copy of the in-memory collection.
func (s *Store) Records() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneAll(s.records)
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return models.Record{}, false
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close closes the underlying slot.
func (s *Store) Close() error {
	return s.slot.Close()
}

// Encode serializes a collection in the persisted document format.
func Encode(records []models.Record) ([]byte, error) {
	out := make([]models.Record, len(records))
	for i, r := range records {
		r.Normalize()
		out[i] = r
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, "encode records", err)
	}
	return data, nil
}

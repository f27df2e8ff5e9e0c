package records

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/logging"
	"github.com/kimhsiao/squishylog/internal/models"
	"github.com/kimhsiao/squishylog/internal/uuid"
)

// Service applies validated mutations to a Collection. Mutations are
// serialized; each one ends in exactly one ReplaceAll of the whole
// collection.
type Service struct {
	mu     sync.Mutex
	coll   Collection
	editor Editor
	newID  uuid.Generator
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator sets the id generator for new records.
func WithIDGenerator(gen uuid.Generator) Option {
	return func(s *Service) { s.newID = gen }
}

// WithClock sets the clock used for createdAt and default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. editor may be nil if EditImage is unused.
func NewService(coll Collection, editor Editor, opts ...Option) *Service {
	s := &Service{
		coll:   coll,
		editor: editor,
		newID:  uuid.New,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates draft and prepends the new record. Empty dates default to
// today. If persisting fails the record is still returned with the error;
// the in-memory collection already holds it.
func (s *Service) Create(ctx context.Context, draft models.Draft) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	today := models.Today(now)

	var rec models.Record
	draft.ApplyTo(&rec)
	rec.ShopName = strings.TrimSpace(rec.ShopName)
	if rec.SquishDate == "" {
		rec.SquishDate = today
	}
	if rec.RecordDate == "" {
		rec.RecordDate = today
	}
	if err := Validate(rec); err != nil {
		return models.Record{}, err
	}

	existing := s.coll.Records()
	taken := make(map[string]bool, len(existing))
	for _, r := range existing {
		taken[r.ID] = true
	}
	rec.ID = uuid.NewUnique(s.newID, func(id string) bool { return taken[id] })
	rec.CreatedAt = now.UnixMilli()

	next := make([]models.Record, 0, len(existing)+1)
	next = append(next, rec)
	next = append(next, existing...)

	if err := s.commit(ctx, "create", rec.ID, next); err != nil {
		return rec.Clone(), err
	}
	return rec.Clone(), nil
}

// Update merges draft over the record with id and re-validates the result.
// id and createdAt never change.
func (s *Service) Update(ctx context.Context, id string, draft models.Draft) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.modify(ctx, "update", id, func(r *models.Record) error {
		draft.ApplyTo(r)
		r.ShopName = strings.TrimSpace(r.ShopName)
		return nil
	})
}

// Delete removes the record with id. Unknown or empty ids are a no-op and
// nothing is written.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		return nil
	}
	existing := s.coll.Records()
	next := make([]models.Record, 0, len(existing))
	for _, r := range existing {
		if r.ID != id {
			next = append(next, r)
		}
	}
	if len(next) == len(existing) {
		logging.Debug("Delete of unknown record ignored", map[string]interface{}{"id": id})
		return nil
	}
	return s.commit(ctx, "delete", id, next)
}

// Duplicate returns an unsaved draft copying every field of r except the
// images, which start empty.
func (s *Service) Duplicate(r models.Record) models.Draft {
	d := models.DraftFrom(r)
	d.ImagesBefore = models.Strings()
	d.ImagesDuring = models.Strings()
	d.ImagesAfter = models.Strings()
	return d
}

// Get returns the record with id or NOT_FOUND.
func (s *Service) Get(id string) (models.Record, error) {
	r, ok := s.coll.Get(id)
	if !ok {
		return models.Record{}, notFound(id)
	}
	return r, nil
}

// List returns the collection in stored order (newest first).
func (s *Service) List() []models.Record {
	return s.coll.Records()
}

// AppendImages adds images to the end of a stage in one commit.
func (s *Service) AppendImages(ctx context.Context, id string, stage models.Stage, images []string) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.modify(ctx, "append images", id, func(r *models.Record) error {
		list := append(append([]string{}, r.Images(stage)...), images...)
		r.SetImages(stage, list)
		return nil
	})
}

// RemoveImage removes the image at index from a stage. Removing the last
// before image fails validation.
func (s *Service) RemoveImage(ctx context.Context, id string, stage models.Stage, index int) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.modify(ctx, "remove image", id, func(r *models.Record) error {
		list := r.Images(stage)
		if err := checkIndex(stage, index, len(list)); err != nil {
			return err
		}
		next := make([]string, 0, len(list)-1)
		next = append(next, list[:index]...)
		next = append(next, list[index+1:]...)
		r.SetImages(stage, next)
		return nil
	})
}

// EditImage replaces the image at index with its re-rendering under filter
// and text. A rendering failure leaves the record untouched.
func (s *Service) EditImage(ctx context.Context, id string, stage models.Stage, index int, filter, text string) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editor == nil {
		return models.Record{}, apperrors.New(apperrors.ErrInternal, "image editing is not configured")
	}
	return s.modify(ctx, "edit image", id, func(r *models.Record) error {
		list := r.Images(stage)
		if err := checkIndex(stage, index, len(list)); err != nil {
			return err
		}
		edited, err := s.editor.ApplyEdit(list[index], filter, text)
		if err != nil {
			return err
		}
		next := append([]string{}, list...)
		next[index] = edited
		r.SetImages(stage, next)
		return nil
	})
}

// modify applies change to a copy of the record with id, validates the
// result and commits it in place. Callers hold s.mu.
func (s *Service) modify(ctx context.Context, op, id string, change func(*models.Record) error) (models.Record, error) {
	existing := s.coll.Records()
	idx := -1
	for i, r := range existing {
		if r.ID == id {
			idx = i
			break
		}
	}
	if id == "" || idx < 0 {
		return models.Record{}, notFound(id)
	}

	merged := existing[idx].Clone()
	if err := change(&merged); err != nil {
		return models.Record{}, err
	}
	merged.ID = existing[idx].ID
	merged.CreatedAt = existing[idx].CreatedAt
	if err := Validate(merged); err != nil {
		return models.Record{}, err
	}

	existing[idx] = merged
	if err := s.commit(ctx, op, id, existing); err != nil {
		return merged.Clone(), err
	}
	return merged.Clone(), nil
}

// commit persists next as the whole collection.
func (s *Service) commit(ctx context.Context, op, id string, next []models.Record) error {
	if err := s.coll.ReplaceAll(ctx, next); err != nil {
		logging.Error("Failed to persist collection", err, map[string]interface{}{
			"op":      op,
			"id":      id,
			"records": len(next),
		})
		return err
	}
	logging.Info("Record "+op, map[string]interface{}{
		"id":      id,
		"records": len(next),
	})
	return nil
}

func checkIndex(stage models.Stage, index, n int) error {
	if index < 0 || index >= n {
		return apperrors.Newf(apperrors.ErrValidation,
			"%s image %d does not exist (stage has %d)", stage, index, n)
	}
	return nil
}

func notFound(id string) error {
	return apperrors.Newf(apperrors.ErrNotFound, "record %q not found", id)
}

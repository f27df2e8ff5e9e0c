// Package records provides the mutation API over the record collection.
package records

import (
	"context"

	"github.com/kimhsiao/squishylog/internal/media"
	"github.com/kimhsiao/squishylog/internal/models"
	"github.com/kimhsiao/squishylog/internal/store"
)

// Collection is the persisted collection the service commits to.
type Collection interface {
	// Records returns a copy of the current collection.
	Records() []models.Record

	// Get returns a copy of one record.
	Get(id string) (models.Record, bool)

	// ReplaceAll makes records the collection and persists it.
	ReplaceAll(ctx context.Context, records []models.Record) error
}

// Editor re-renders an image with a filter and overlay text.
type Editor interface {
	ApplyEdit(source, filter, text string) (string, error)
}

// API defines the record operations exposed to the CLI and desktop server.
type API interface {
	// Create validates draft and prepends it as a new record.
	Create(ctx context.Context, draft models.Draft) (models.Record, error)

	// Update merges draft over the record with id.
	Update(ctx context.Context, id string, draft models.Draft) (models.Record, error)

	// Delete removes the record with id. Unknown ids are ignored.
	Delete(ctx context.Context, id string) error

	// Duplicate returns an unsaved draft copying r without images.
	Duplicate(r models.Record) models.Draft

	// Get returns one record.
	Get(id string) (models.Record, error)

	// List returns the collection, newest first.
	List() []models.Record

	// AppendImages adds images to the end of a stage.
	AppendImages(ctx context.Context, id string, stage models.Stage, images []string) (models.Record, error)

	// RemoveImage removes one image from a stage.
	RemoveImage(ctx context.Context, id string, stage models.Stage, index int) (models.Record, error)

	// EditImage replaces one image with its filtered, captioned rendering.
	EditImage(ctx context.Context, id string, stage models.Stage, index int, filter, text string) (models.Record, error)
}

// Ensure implementations satisfy the interfaces at compile time.
var (
	_ Collection = (*store.Store)(nil)
	_ Editor     = (*media.Compositor)(nil)
	_ API        = (*Service)(nil)
)

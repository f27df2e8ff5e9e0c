// Package app wires configuration, storage, the image pipeline and the
// record service into one handle shared by the CLI and the desktop server.
package app

import (
	"context"
	"os"

	"github.com/kimhsiao/squishylog/internal/config"
	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/export"
	"github.com/kimhsiao/squishylog/internal/export/scheduler"
	"github.com/kimhsiao/squishylog/internal/logging"
	"github.com/kimhsiao/squishylog/internal/media"
	"github.com/kimhsiao/squishylog/internal/records"
	"github.com/kimhsiao/squishylog/internal/store"
)

// App holds the opened collection and the services built on it.
type App struct {
	Config     *config.Config
	Store      *store.Store
	Records    *records.Service
	Codec      *media.Codec
	Compositor *media.Compositor
	Batch      *media.Batch
	Export     *export.ExportService

	// LoadErr is the CORRUPT_STORE error from the initial load, if any.
	// The collection starts empty and the slot is not overwritten until
	// the first mutation.
	LoadErr error
}

// ConfigureLogging installs the global logger described by cfg.
func ConfigureLogging(cfg *config.Config) {
	logging.SetGlobal(logging.New(
		os.Stderr,
		logging.ParseLevel(cfg.Logging.Level),
		logging.Format(cfg.Logging.Format),
	))
}

// OpenSlot opens the storage slot selected by cfg.Storage.Backend.
func OpenSlot(ctx context.Context, cfg *config.Config) (store.Slot, error) {
	s := cfg.Storage
	switch s.Backend {
	case config.BackendSQLite:
		return store.OpenSQLiteSlot(ctx, s.DataDir, s.Slot, s.QuotaBytes)
	case config.BackendFile, "":
		return store.OpenFileSlot(s.DataDir, s.Slot, s.QuotaBytes)
	}
	return nil, apperrors.Newf(apperrors.ErrConfig, "unknown storage backend %q", s.Backend)
}

// Open opens the configured slot and loads the collection.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	slot, err := OpenSlot(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, slot)
}

// New builds an App over an already opened slot. The slot is closed on
// failure and by Close.
func New(ctx context.Context, cfg *config.Config, slot store.Slot) (*App, error) {
	st := store.New(slot)

	var loadErr error
	if _, err := st.Load(ctx); err != nil {
		if !apperrors.Is(err, apperrors.ErrCorruptStore) {
			slot.Close()
			return nil, err
		}
		loadErr = err
	}

	codec := media.NewCodec(cfg.Images.MaxDimension, cfg.Images.Quality)
	compositor := media.NewCompositor(cfg.Images.Quality)

	a := &App{
		Config:     cfg,
		Store:      st,
		Records:    records.NewService(st, compositor),
		Codec:      codec,
		Compositor: compositor,
		Batch:      media.NewBatch(codec, cfg.Images.Concurrency),
		Export:     export.NewExportService(st, cfg.Export.Dir),
		LoadErr:    loadErr,
	}

	logging.Debug("Collection opened", map[string]interface{}{
		"backend": cfg.Storage.Backend,
		"records": st.Len(),
	})
	return a, nil
}

// Scheduler returns a backup scheduler for the configured interval.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	interval, err := scheduler.ParseInterval(a.Config.Export.BackupInterval)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfig, "export.backup_interval", err)
	}
	return scheduler.NewScheduler(a.Export, &scheduler.SchedulerConfig{
		Interval:       interval,
		RetentionCount: a.Config.Export.RetentionCount,
		ExportDir:      a.Config.Export.Dir,
	}), nil
}

// Close releases the storage slot.
func (a *App) Close() error {
	return a.Store.Close()
}

package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimhsiao/squishylog/internal/config"
	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/export/scheduler"
	"github.com/kimhsiao/squishylog/internal/models"
	"github.com/kimhsiao/squishylog/internal/store"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Backend = backend
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Export.Dir = filepath.Join(t.TempDir(), "exports")
	return &cfg
}

func TestOpen_fileBackend(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)

	a, err := Open(t.Context(), cfg)
	require.NoError(t, err)
	assert.NoError(t, a.LoadErr)

	_, err = a.Records.Create(t.Context(), models.Draft{ShopName: models.String("Shop")})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	reopened, err := Open(t.Context(), cfg)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 1, reopened.Store.Len())
}

func TestOpen_sqliteBackend(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)

	a, err := Open(t.Context(), cfg)
	require.NoError(t, err)

	_, err = a.Records.Create(t.Context(), models.Draft{ShopName: models.String("Shop")})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	reopened, err := Open(t.Context(), cfg)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 1, reopened.Store.Len())
}

func TestOpen_unknownBackend(t *testing.T) {
	cfg := testConfig(t, "cloud")
	_, err := Open(t.Context(), cfg)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfig))
}

func TestNew_corruptStore(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	slot := store.NewMemorySlotWith(`{"not":"a list"}`)

	a, err := New(t.Context(), cfg, slot)
	require.NoError(t, err)
	assert.True(t, apperrors.Is(a.LoadErr, apperrors.ErrCorruptStore))
	assert.Equal(t, 0, a.Store.Len())
	assert.Equal(t, 0, slot.Writes())
}

func TestScheduler(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	cfg.Export.BackupInterval = "weekly"
	cfg.Export.RetentionCount = 3

	a, err := New(t.Context(), cfg, store.NewMemorySlot(0))
	require.NoError(t, err)

	s, err := a.Scheduler()
	require.NoError(t, err)
	got := s.GetConfig()
	assert.Equal(t, scheduler.IntervalWeekly, got.Interval)
	assert.Equal(t, 3, got.RetentionCount)
	assert.Equal(t, cfg.Export.Dir, got.ExportDir)

	a.Config.Export.BackupInterval = "hourly"
	_, err = a.Scheduler()
	assert.True(t, apperrors.Is(err, apperrors.ErrConfig))
}

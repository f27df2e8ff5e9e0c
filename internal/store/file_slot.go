package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

// FileSlot stores the document in <dir>/<name>.json.
// Writes go to a temp file in the same directory that is renamed over the
// target, so a failed write never leaves a truncated document behind.
// An advisory lock file keeps a second process from writing concurrently.
type FileSlot struct {
	path  string
	quota int64
	lock  *flock.Flock
}

// OpenFileSlot opens (creating the directory if needed) a file-backed slot
// and acquires its writer lock.
func OpenFileSlot(dir, name string, quota int64) (*FileSlot, error) {
	if name == "" {
		name = DefaultSlotName
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "create data directory", err)
	}

	path := filepath.Join(dir, name+".json")
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "acquire slot lock", err)
	}
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrStorage,
			"another squishy process is using %s", path)
	}

	return &FileSlot{path: path, quota: quota, lock: lock}, nil
}

// Path returns the document path.
func (s *FileSlot) Path() string {
	return s.path
}

// Read implements Slot.
func (s *FileSlot) Read(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, apperrors.Wrap(apperrors.ErrStorage, "read slot", err)
	}
	return data, true, nil
}

// Write implements Slot.
func (s *FileSlot) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkQuota(len(data), s.quota); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return s.writeError("create temp file", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return s.writeError("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return s.writeError("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return s.writeError("close temp file", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		cleanup()
		return s.writeError("replace slot file", err)
	}
	return nil
}

func (s *FileSlot) writeError(step string, err error) error {
	if isDiskFull(err) {
		return apperrors.Wrap(apperrors.ErrStoreCapacity, "device is out of space", err)
	}
	return apperrors.Wrap(apperrors.ErrStorage, step, err)
}

// Close releases the writer lock.
func (s *FileSlot) Close() error {
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}

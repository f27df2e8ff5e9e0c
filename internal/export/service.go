// Package export writes the record collection to a standalone JSON backup.
package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/logging"
	"github.com/kimhsiao/squishylog/internal/models"
)

const (
	// FilePrefix starts every backup file name.
	FilePrefix = "squishy_backup_"

	// FileExt ends every backup file name.
	FileExt = ".json"
)

// Source supplies the collection to export.
type Source interface {
	Records() []models.Record
}

// ExportService provides backup export.
type ExportService struct {
	source Source
	dir    string
	now    func() time.Time
}

// NewExportService creates a new ExportService writing into dir.
func NewExportService(source Source, dir string) *ExportService {
	if dir == "" {
		dir = "."
	}
	return &ExportService{source: source, dir: dir, now: time.Now}
}

// ExportConfig holds export configuration.
type ExportConfig struct {
	// OutputPath overrides the dated file name in the export directory.
	OutputPath string
}

// ExportResult represents the result of an export operation.
type ExportResult struct {
	FilePath  string        `json:"filePath"`
	SizeBytes int64         `json:"sizeBytes"`
	ItemCount int           `json:"itemCount"`
	Checksum  string        `json:"checksum"`
	Duration  time.Duration `json:"duration"`
}

// FileName returns the backup file name for the UTC day of t, matching
// the dates stored on records.
func FileName(t time.Time) string {
	return FilePrefix + t.UTC().Format(models.DateLayout) + FileExt
}

// IsBackupName reports whether name looks like a backup file.
func IsBackupName(name string) bool {
	date, ok := strings.CutPrefix(name, FilePrefix)
	if !ok {
		return false
	}
	date, ok = strings.CutSuffix(date, FileExt)
	return ok && models.ValidDate(date)
}

// Document serializes records as the backup document: a two-space indented
// JSON array with a trailing newline.
func Document(records []models.Record) ([]byte, error) {
	out := make([]models.Record, len(records))
	for i, r := range records {
		r.Normalize()
		out[i] = r
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export writes the current collection to a backup file.
func (s *ExportService) Export(ctx context.Context, config *ExportConfig) (*ExportResult, error) {
	startTime := s.now()
	if config == nil {
		config = &ExportConfig{}
	}

	records := s.source.Records()
	data, err := Document(records)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExportFailed, "serialize records", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outputPath := config.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(s.dir, FileName(startTime))
	}
	if err := writeFile(outputPath, data); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExportFailed, "write backup", err)
	}

	result := &ExportResult{
		FilePath:  outputPath,
		SizeBytes: int64(len(data)),
		ItemCount: len(records),
		Checksum:  fmt.Sprintf("%x", sha256.Sum256(data)),
		Duration:  time.Since(startTime),
	}
	logging.Info("Backup exported", map[string]interface{}{
		"path":    result.FilePath,
		"records": result.ItemCount,
		"bytes":   result.SizeBytes,
	})
	return result, nil
}

// WriteTo streams the backup document to w.
func (s *ExportService) WriteTo(w io.Writer) (int64, error) {
	data, err := Document(s.source.Records())
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrExportFailed, "serialize records", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

// SuggestedName returns today's backup file name.
func (s *ExportService) SuggestedName() string {
	return FileName(s.now())
}

// writeFile writes data next to path and renames it into place.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create exports directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}

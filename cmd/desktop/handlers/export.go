package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/kimhsiao/squishylog/internal/export"
	"github.com/kimhsiao/squishylog/internal/export/scheduler"
	"github.com/kimhsiao/squishylog/internal/logging"
)

// ExportHandler handles backup export.
type ExportHandler struct {
	export *export.ExportService
	dir    string
	notify Notifier
}

// NewExportHandler creates a new ExportHandler. notify may be nil.
func NewExportHandler(service *export.ExportService, dir string, notify Notifier) *ExportHandler {
	return &ExportHandler{export: service, dir: dir, notify: notifierOrNop(notify)}
}

// ExportRequest represents the export request body.
type ExportRequest struct {
	OutputPath string `json:"outputPath"` // Optional custom output path
}

// Export handles GET and POST /api/export
// GET downloads the backup document. POST writes it to the export
// directory and returns the ExportResult.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.download(w)
	case http.MethodPost:
		h.write(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *ExportHandler) download(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.export.SuggestedName()+`"`)
	if _, err := h.export.WriteTo(w); err != nil {
		logging.Error("Backup download failed", err)
	}
}

func (h *ExportHandler) write(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "Invalid request body")
		return
	}

	result, err := h.export.Export(r.Context(), &export.ExportConfig{OutputPath: req.OutputPath})
	if err != nil {
		writeError(w, err)
		return
	}
	h.notify.Broadcast(EventExportDone, map[string]interface{}{
		"file_path":  result.FilePath,
		"item_count": result.ItemCount,
	})
	writeJSON(w, http.StatusOK, result)
}

// Backups handles GET /api/backups
// Returns the backups in the export directory, newest first.
func (h *ExportHandler) Backups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	backups, err := scheduler.ListBackups(h.dir)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]map[string]interface{}, 0, len(backups))
	for i := len(backups) - 1; i >= 0; i-- {
		b := backups[i]
		items = append(items, map[string]interface{}{
			"name":       filepath.Base(b.Path),
			"size_bytes": b.SizeBytes,
			"modified":   b.ModTime.Unix(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dir":     h.dir,
		"backups": items,
	})
}

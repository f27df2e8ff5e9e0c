package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/media"
	"github.com/kimhsiao/squishylog/internal/models"
	"github.com/kimhsiao/squishylog/internal/records"
)

// maxUploadBytes bounds one multipart upload.
const maxUploadBytes = 256 << 20

// ImageHandler handles photo uploads, edits and previews.
type ImageHandler struct {
	api    records.API
	batch  *media.Batch
	editor records.Editor
	notify Notifier

	mu    sync.Mutex
	gates map[string]*media.Gate
}

// NewImageHandler creates a new ImageHandler. notify may be nil.
func NewImageHandler(api records.API, batch *media.Batch, editor records.Editor, notify Notifier) *ImageHandler {
	return &ImageHandler{
		api:    api,
		batch:  batch,
		editor: editor,
		notify: notifierOrNop(notify),
		gates:  make(map[string]*media.Gate),
	}
}

// EditRequest is the body of an image edit or preview.
type EditRequest struct {
	Image  string `json:"image,omitempty"`
	Filter string `json:"filter"`
	Text   string `json:"text"`
}

// gate returns the gate for a form slot, creating it on first use.
func (h *ImageHandler) gate(key string) *media.Gate {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.gates[key]
	if !ok {
		g = &media.Gate{}
		h.gates[key] = g
	}
	return g
}

// Compress handles POST /api/images/compress?slot=<key>
// Multipart "files" are compressed and returned as data URIs in selection
// order. A newer upload for the same slot supersedes one still running,
// which then answers 409.
func (h *ImageHandler) Compress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	inputs, closeAll, err := uploadedFiles(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer closeAll()

	slot := r.URL.Query().Get("slot")
	if slot == "" {
		slot = "default"
	}
	gate := h.gate(slot)
	gate.Supersede()
	ticket := gate.Issue()

	var images []string
	err = h.batch.Run(r.Context(), ticket, inputs, func(results []string) error {
		images = results
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"images": images})
}

// StageImages handles POST /api/records/{id}/images/{stage}
// Multipart "files" are compressed and appended to the stage.
func (h *ImageHandler) StageImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	stage, err := models.ParseStage(r.PathValue("stage"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	inputs, closeAll, err := uploadedFiles(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer closeAll()

	images, err := h.batch.CompressAll(r.Context(), inputs)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.api.AppendImages(r.Context(), r.PathValue("id"), stage, images)
	if err != nil {
		writeError(w, err)
		return
	}
	h.notify.Broadcast(EventRecordUpdated, map[string]interface{}{"id": rec.ID})
	writeJSON(w, http.StatusOK, rec)
}

// Image handles GET, POST and DELETE /api/records/{id}/images/{stage}/{index}
// GET returns the JPEG, POST applies an EditRequest and DELETE removes it.
func (h *ImageHandler) Image(w http.ResponseWriter, r *http.Request) {
	stage, err := models.ParseStage(r.PathValue("stage"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		badRequest(w, "index must be a number")
		return
	}
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		h.serveImage(w, id, stage, index)
	case http.MethodPost:
		var req EditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "Invalid request body")
			return
		}
		rec, err := h.api.EditImage(r.Context(), id, stage, index, req.Filter, req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		h.notify.Broadcast(EventRecordUpdated, map[string]interface{}{"id": rec.ID})
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		rec, err := h.api.RemoveImage(r.Context(), id, stage, index)
		if err != nil {
			writeError(w, err)
			return
		}
		h.notify.Broadcast(EventRecordUpdated, map[string]interface{}{"id": rec.ID})
		writeJSON(w, http.StatusOK, rec)
	default:
		methodNotAllowed(w)
	}
}

func (h *ImageHandler) serveImage(w http.ResponseWriter, id string, stage models.Stage, index int) {
	rec, err := h.api.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	images := rec.Images(stage)
	if index < 0 || index >= len(images) {
		writeError(w, apperrors.Newf(apperrors.ErrNotFound, "no %s image at position %d", stage, index))
		return
	}
	mime, data, err := media.DecodeDataURI(images[index])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// Preview handles POST /api/images/preview
// The edited image is returned without touching any record.
func (h *ImageHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	out, err := h.editor.ApplyEdit(req.Image, req.Filter, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"image": out})
}

// Filters handles GET /api/filters
func (h *ImageHandler) Filters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"filters": media.FilterNames()})
}

// uploadedFiles opens the multipart "files" parts in order.
func uploadedFiles(w http.ResponseWriter, r *http.Request) ([]io.Reader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, func() {}, apperrors.Wrap(apperrors.ErrValidation, "invalid multipart upload", err)
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, func() {}, apperrors.New(apperrors.ErrValidation, "no files uploaded")
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
		r.MultipartForm.RemoveAll()
	}
	inputs := make([]io.Reader, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, apperrors.Wrap(apperrors.ErrValidation, "open uploaded file", err)
		}
		opened = append(opened, f)
		inputs = append(inputs, f)
	}
	return inputs, closeAll, nil
}

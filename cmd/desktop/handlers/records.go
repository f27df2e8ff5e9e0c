package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kimhsiao/squishylog/internal/models"
	"github.com/kimhsiao/squishylog/internal/query"
	"github.com/kimhsiao/squishylog/internal/records"
)

// RecordHandler handles record operations.
type RecordHandler struct {
	api    records.API
	notify Notifier
}

// NewRecordHandler creates a new RecordHandler. notify may be nil.
func NewRecordHandler(api records.API, notify Notifier) *RecordHandler {
	return &RecordHandler{api: api, notify: notifierOrNop(notify)}
}

// Records handles GET and POST /api/records
func (h *RecordHandler) Records(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListRecords(w, r)
	case http.MethodPost:
		h.CreateRecord(w, r)
	default:
		methodNotAllowed(w)
	}
}

// Record handles GET, PATCH and DELETE /api/records/{id}
func (h *RecordHandler) Record(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.GetRecord(w, r)
	case http.MethodPatch, http.MethodPut:
		h.UpdateRecord(w, r)
	case http.MethodDelete:
		h.DeleteRecord(w, r)
	default:
		methodNotAllowed(w)
	}
}

// ListRecords handles GET /api/records
// Query parameters: search, from, to and group=shop.
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := query.Filter{
		Search: q.Get("search"),
		From:   q.Get("from"),
		To:     q.Get("to"),
	}
	if err := filter.Validate(); err != nil {
		badRequest(w, err.Error())
		return
	}

	matched := filter.Apply(h.api.List())
	if q.Get("group") == "shop" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"groups": query.GroupByShop(matched),
			"total":  len(matched),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": matched,
		"total": len(matched),
	})
}

// CreateRecord handles POST /api/records
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var draft models.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	rec, err := h.api.Create(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	h.notify.Broadcast(EventRecordCreated, map[string]interface{}{"id": rec.ID})
	writeJSON(w, http.StatusCreated, rec)
}

// GetRecord handles GET /api/records/{id}
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.api.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// UpdateRecord handles PATCH /api/records/{id}
// Fields missing from the body keep their stored values.
func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var draft models.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	rec, err := h.api.Update(r.Context(), r.PathValue("id"), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	h.notify.Broadcast(EventRecordUpdated, map[string]interface{}{"id": rec.ID})
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord handles DELETE /api/records/{id}
// Unknown ids succeed without change.
func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.api.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.notify.Broadcast(EventRecordDeleted, map[string]interface{}{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateRecord handles POST /api/records/{id}/duplicate
// The response is an unsaved draft for the client to complete and create.
func (h *RecordHandler) DuplicateRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	src, err := h.api.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.api.Duplicate(src))
}

// Stats handles GET /api/stats
func (h *RecordHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, query.Summarize(h.api.List()))
}

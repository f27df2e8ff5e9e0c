// Package handlers provides REST API handlers for the desktop server.
package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/logging"
)

// Notifier receives change events for connected clients.
type Notifier interface {
	Broadcast(messageType string, data map[string]interface{})
}

// Change event types.
const (
	EventRecordCreated = "record.created"
	EventRecordUpdated = "record.updated"
	EventRecordDeleted = "record.deleted"
	EventExportDone    = "export.completed"
)

type nopNotifier struct{}

func (nopNotifier) Broadcast(string, map[string]interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// statusOf maps error codes to HTTP status codes.
func statusOf(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrValidation, apperrors.ErrCodec, apperrors.ErrCompositor:
		return http.StatusBadRequest
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrBatchSuperseded:
		return http.StatusConflict
	case apperrors.ErrStoreCapacity:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write response", map[string]interface{}{"error": err.Error()})
	}
}

// writeError writes err as an ErrorBody.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := statusOf(code)
	if status == http.StatusInternalServerError {
		logging.Error("Request failed", err)
	}
	writeJSON(w, status, ErrorBody{Code: code, Message: apperrors.MessageOf(err)})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorBody{Code: apperrors.ErrValidation, Message: message})
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

package web

// errors.go provides unified error response handling for the web layer.
//
// Handlers call respondError with the technical error; it is logged
// server-side with the request ID for correlation, mapped to a
// user-friendly message with a support code, and returned as JSON.

import (
	"errors"
	"net/http"

	"github.com/growmetrics/sheetimport/internal/importer"
	"github.com/growmetrics/sheetimport/internal/logging"
	"github.com/growmetrics/sheetimport/internal/mapping"
	"github.com/growmetrics/sheetimport/internal/source"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and writes the mapped user
// message with a status derived from the error class.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := importer.MapError(err)
	status := statusForError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSON(w, status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusForError picks the HTTP status for a pipeline error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, source.ErrSourceUnreachable):
		return http.StatusBadGateway
	case errors.Is(err, source.ErrSourceEmpty), errors.Is(err, source.ErrSourceTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, importer.ErrImportInProgress):
		return http.StatusConflict
	case errors.Is(err, mapping.ErrInvalidOverride):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

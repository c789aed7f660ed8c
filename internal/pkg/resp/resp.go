/*
Package resp provides helpers for sending standardized HTTP JSON responses.

HTTP endpoints (health, presigned uploads, PoW) share the same envelope shape as the
connection replies: an ok flag, and on failure the error reason, kind and code.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"vcturbo/internal/pkg/errs"
	"vcturbo/internal/pkg/logx"
)

// JSONResponse defines the standardized JSON response structure returned to HTTP clients.
type JSONResponse struct {
	OK      bool      `json:"ok"`
	Error   string    `json:"error,omitempty"`
	Kind    errs.Kind `json:"kind,omitempty"`
	Code    int       `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
}

// RespondJSON sets the Content-Type and writes payload with the given status.
func RespondJSON(w http.ResponseWriter, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	if _, err := w.Write(response); err != nil {
		logx.Warn("failed to write JSON response", "error", err.Error())
	}
}

// RespondSuccess sends an HTTP 200 response carrying data.
func RespondSuccess(w http.ResponseWriter, data any) {
	RespondJSON(w, http.StatusOK, JSONResponse{OK: true, Data: data})
}

// RespondError sends the error envelope for customErr.
func RespondError(w http.ResponseWriter, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	status := customErr.Status
	if status == http.StatusOK {
		status = http.StatusBadRequest
	}

	RespondJSON(w, status, JSONResponse{
		OK:      false,
		Error:   customErr.Reason,
		Kind:    customErr.Kind,
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}

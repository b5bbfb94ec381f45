// Package handler contains the HTTP handlers of the API.
//
// Handlers parse the request (query params, JSON body, the caller placed in
// the context by auth.RequireCaller), call one service method and write the
// JSON response. They hold no business logic.
package handler

// RESPONSE HELPERS:
// Every handler writes JSON through writeJSON and every failure through
// writeError, so error responses always have the same shape:
//
//	{"error": "not_found", "message": "post not found with id abc123"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/auth"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Offending input field, when known
}

// StatusResponse is the body of successful deletes.
type StatusResponse struct {
	Status bool `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorKind maps a domain error to its HTTP status and machine-readable type.
// The first matching sentinel in the chain wins.
func errorKind(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized), errors.Is(err, auth.ErrMissingBearer):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrInvalidReference):
		return http.StatusUnprocessableEntity, "invalid_reference"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a domain error to a status code and sends it. Unknown
// errors become a generic 500: their text may contain SQL or file paths and
// is only logged.
func writeError(w http.ResponseWriter, err error) {
	status, kind := errorKind(err)

	if status == http.StatusInternalServerError {
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, status, ErrorResponse{
			Error:   kind,
			Message: "An internal error occurred",
		})
		return
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	resp := ErrorResponse{Error: kind, Message: err.Error()}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Field = appErr.Field
	} else if errors.Is(err, auth.ErrMissingBearer) {
		resp.Message = "not authenticated"
	}
	writeJSON(w, status, resp)
}

// WriteError is writeError for other packages, e.g. as the onError callback
// of auth.RequireCaller.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err)
}

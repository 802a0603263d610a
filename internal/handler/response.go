package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors:
//
//	writeJSON(w, http.StatusOK, data)
//	writeError(w, r, logger, err)
//
// CONSISTENT ERROR FORMAT:
// Every error response has the same shape:
//
//	{"error": "not_found", "message": "For the id 42, no event could be found."}
//
// plus an optional "errors" object with per-key details, which the auth
// endpoints use for {"credentials": "..."}.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/apperror"
)

// maxBodyBytes caps request bodies. Events carry a handful of short strings,
// so 1 MiB is generous.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`            // machine-readable kind, e.g. "not_found"
	Message string            `json:"message"`          // human-readable description
	Errors  map[string]string `json:"errors,omitempty"` // optional details
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written; once Encode
// writes, later header changes are silently ignored.
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

// errorStatus maps an error kind to its HTTP status and machine-readable
// name. Every kind is listed; anything else is a 500.
func errorStatus(err error) (int, string) {
	switch apperror.Kind(err) {
	case apperror.ErrValidation:
		return http.StatusBadRequest, "validation_error"
	case apperror.ErrNotFound:
		return http.StatusNotFound, "not_found"
	case apperror.ErrConflict:
		return http.StatusConflict, "conflict"
	case apperror.ErrInvalidCredentials:
		return http.StatusUnprocessableEntity, "invalid_credentials"
	case apperror.ErrUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case apperror.ErrStorageUnavailable:
		return http.StatusInternalServerError, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps a domain error to its HTTP status and sends it.
//
// This is the ONLY place status codes are derived from errors. Services
// return apperror kinds and never think about HTTP.
//
// Server-side failures are logged here with the request id, including the
// underlying I/O cause; the client only ever sees the AppError message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, kind := errorStatus(err)
	writeErrorStatus(w, r, logger, err, status, kind)
}

// writeAuthError is writeError for /auth/signup and /auth/login. Those
// endpoints answer every client-side failure (bad input, taken email,
// wrong credentials) with 422, which is what the frontend expects.
func writeAuthError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, kind := errorStatus(err)
	switch apperror.Kind(err) {
	case apperror.ErrValidation, apperror.ErrConflict, apperror.ErrInvalidCredentials:
		status = http.StatusUnprocessableEntity
	}
	writeErrorStatus(w, r, logger, err, status, kind)
}

func writeErrorStatus(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, status int, kind string) {
	resp := ErrorResponse{Error: kind}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && apperror.Kind(err) != nil {
		resp.Message = appErr.Message
		resp.Errors = appErr.Errors
	} else {
		// NEVER expose internal error details to the client: the raw error
		// may contain file paths or other internals.
		resp.Message = "An internal error occurred"
	}

	if status >= http.StatusInternalServerError {
		attrs := []any{
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		}
		if cause := apperror.Cause(err); cause != nil {
			attrs = append(attrs, slog.String("cause", cause.Error()))
		}
		logger.Error("request failed", attrs...)
	}

	writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON value from the request body into dst.
// A malformed, oversized or empty body is an InvalidInput error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "Request body is required.")
		}
		return apperror.ValidationFailed("body", "Invalid JSON body.")
	}
	return nil
}

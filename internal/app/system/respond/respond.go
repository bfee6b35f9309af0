// Package respond writes the JSON bodies every feature handler returns.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/limits"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"go.uber.org/zap"
)

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// Status maps an error kind to its HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, errs.ErrDenied), errors.Is(err, errs.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errs.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error writes {"error": msg} with the status for err's kind. Server-side
// failures are logged with their cause.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	JSON(w, status, map[string]string{"error": errs.Message(err)})
}

// BadRequest writes a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// Decode reads a JSON body into v, rejecting unknown fields. A failure has
// already been written to w.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		BadRequest(w, "The request body is not valid JSON.")
		return false
	}
	return true
}

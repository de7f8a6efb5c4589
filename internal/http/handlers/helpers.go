// Package handlers exposes the scheduling engine over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dragonxt022/Express-Services-sub000/internal/bookingflow"
	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/internal/tenancy"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	// Retryable tells clients whether re-submitting the same request
	// can succeed (conflicts after a re-query, transient failures after
	// backoff).
	Retryable bool `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the scheduling error taxonomy onto HTTP statuses:
// validation 422, conflict 409, transient 503, fatal 400, unknown
// entities 404. Anything unclassified is a 500.
func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	var (
		validation *schedule.ValidationError
		fatal      *schedule.FatalError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: validation.Reason, Field: validation.Field, Retryable: true})
	case schedule.IsConflict(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Retryable: true})
	case schedule.IsTransient(err):
		logger.Warn("transient failure", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "temporarily unavailable, retry shortly", Retryable: true})
	case errors.As(err, &fatal):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fatal.Reason})
	case errors.Is(err, schedule.ErrNotFound), errors.Is(err, bookingflow.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		logger.Error("unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// resolveBusinessID reconciles the body's business id with the tenancy
// header: an empty body id inherits the header's, and a mismatch is
// rejected so one tenant cannot write into another's calendar.
func resolveBusinessID(ctx context.Context, bodyID string) (string, error) {
	headerID, ok := tenancy.BusinessIDFromContext(ctx)
	if !ok {
		return bodyID, nil
	}
	if bodyID == "" {
		return headerID, nil
	}
	if bodyID != headerID {
		return "", &schedule.ValidationError{Field: "business_id", Reason: "does not match X-Business-Id header"}
	}
	return bodyID, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/clients"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/enrollments"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/trips"
)

// retryAfterSeconds is advertised on 503 responses.
const retryAfterSeconds = 1

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

// retryable is implemented by application errors that may clear on retry.
type retryable interface {
	Retryable() bool
}

// writeAppError maps application errors to their HTTP form. Anything unrecognised
// is logged and reported as a 500 without leaking its text.
func writeAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var rt retryable
	if errors.As(err, &rt) && rt.Retryable() {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	if ee := (*enrollments.Error)(nil); errors.As(err, &ee) {
		writeError(w, r, ee.Status, ee.Code, ee.Message, ee.Details)
		return
	}
	if ce := (*clients.Error)(nil); errors.As(err, &ce) {
		writeError(w, r, ce.Status, ce.Code, ce.Message, ce.Details)
		return
	}
	if te := (*trips.Error)(nil); errors.As(err, &te) {
		writeError(w, r, te.Status, te.Code, te.Message, te.Details)
		return
	}

	logger.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

// writeStoreUnavailable reports a failed store call as a retryable 503.
func writeStoreUnavailable(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.WarnContext(r.Context(), "store unavailable",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	writeError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", enrollments.MessageFor(enrollments.KindStoreUnavailable), nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "response encoding failed", http.StatusInternalServerError)
		return
	}
	writeRawJSON(w, status, b)
}

func writeRawJSON(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

package idempotency

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a request uniquely for idempotency purposes:
// key + subject + method + route template + request hash.
// Route is the path template, e.g. "/api/clients/{clientId}/trips/{tripId}".
type Fingerprint struct {
	Key      Key
	Subject  domain.SubjectID
	Method   string
	Route    string
	BodyHash string
}

// Record is the stored response replayed for a duplicate request.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records for replaying safe responses on retries.
type Store interface {
	// Get returns the record for fp; ok is false when none exists.
	Get(ctx context.Context, fp Fingerprint) (rec Record, ok bool, err error)
	// Put writes rec for fp, replacing any previous record.
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}

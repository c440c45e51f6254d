package httpapi

import (
	"context"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
)

type subjectKey struct{}

// WithSubject records the authenticated caller. Idempotency records are scoped to it.
func WithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectKey{}, domain.SubjectID(subjectID))
}

func SubjectFromContext(ctx context.Context) (domain.SubjectID, bool) {
	v, ok := ctx.Value(subjectKey{}).(domain.SubjectID)
	return v, ok && v != ""
}

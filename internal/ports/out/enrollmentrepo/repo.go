package enrollmentrepo

//go:generate mockgen -source=repo.go -destination=mocks/mocks.go -package=mocks Ledger,Store

import (
	"context"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clientrepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

// Enrollment is the persistence shape of a (client, trip) enrollment record.
type Enrollment struct {
	ClientID domain.ClientID
	TripID   domain.TripID

	RegisteredAt domain.DayStamp
	// PaymentDate is nil when no payment has been recorded.
	PaymentDate *domain.DayStamp
}

// Ledger owns enrollment records. It holds no business policy.
type Ledger interface {
	// Exists reports whether an enrollment exists for (client, trip).
	Exists(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) (bool, error)

	// CountByTrip counts enrollments for the trip.
	CountByTrip(ctx context.Context, tripID domain.TripID) (int, error)

	// Insert stores e. If (client, trip) is already present, ErrDuplicateKey is returned.
	Insert(ctx context.Context, e Enrollment) error

	// Delete removes the enrollment for (client, trip). If it does not exist, ErrNotFound is returned.
	Delete(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) error

	// ListByClient returns the client's enrollments ordered by TripID ascending.
	ListByClient(ctx context.Context, clientID domain.ClientID) ([]Enrollment, error)
}

// Scope is the view of the store available inside WithinTrip.
// Reads and writes made through it belong to the same atomic unit.
type Scope struct {
	Trips   triprepo.Reader
	Clients clientrepo.Reader
	Ledger  Ledger
}

// Store runs read-check-write sequences atomically per trip.
type Store interface {
	// Ledger returns the ledger outside of any per-trip scope.
	Ledger() Ledger

	// WithinTrip runs fn so that concurrent WithinTrip calls for the same tripID
	// observe each other as if executed one after another. Calls for different trips
	// may run in parallel. If fn returns an error, none of its writes are kept.
	WithinTrip(ctx context.Context, tripID domain.TripID, fn func(ctx context.Context, s Scope) error) error
}

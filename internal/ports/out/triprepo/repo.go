package triprepo

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
)

// Trip is the persistence shape used by the trip repository.
// It is not an HTTP DTO.
type Trip struct {
	ID domain.TripID

	Name        string
	Description string

	DateFrom time.Time
	DateTo   time.Time

	MaxPeople int
}

// Reader is the read side the enrollment core consumes. Trips are read-only here.
type Reader interface {
	GetByID(ctx context.Context, id domain.TripID) (Trip, error)
}

// Repository provides access to persisted trips.
//
// Result ordering expectations:
// - List returns trips ordered by DateFrom descending, then ID ascending.
type Repository interface {
	Reader

	List(ctx context.Context) ([]Trip, error)
}

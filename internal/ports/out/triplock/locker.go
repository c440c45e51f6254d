package triplock

//go:generate mockgen -source=locker.go -destination=mocks/mocks.go -package=mocks Locker

import (
	"context"
	"errors"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
)

// ErrNotHeld is returned by a release func when the lock expired or was taken over.
var ErrNotHeld = errors.New("trip lock not held")

// Locker provides mutual exclusion per trip across processes.
type Locker interface {
	// Acquire blocks until the lock for tripID is held or ctx is done.
	// The returned release func must be called once the protected work is finished.
	Acquire(ctx context.Context, tripID domain.TripID) (release func(ctx context.Context) error, err error)
}

package trips

import (
	"context"
	"errors"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/enrollments"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

// Service is the read side for trips. Trips are created and edited upstream.
type Service struct {
	trips  triprepo.Repository
	ledger enrollmentrepo.Ledger
}

func NewService(tripsRepo triprepo.Repository, ledger enrollmentrepo.Ledger) *Service {
	return &Service{trips: tripsRepo, ledger: ledger}
}

// ListTrips returns every trip ordered by DateFrom descending, then ID, with live counts.
// Counts are read outside any per-trip scope and may lag concurrent registrations.
func (s *Service) ListTrips(ctx context.Context) ([]domain.TripSummary, error) {
	ts, err := s.trips.List(ctx)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	out := make([]domain.TripSummary, 0, len(ts))
	for _, t := range ts {
		sum, err := s.summarize(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *Service) GetTrip(ctx context.Context, tripID domain.TripID) (domain.TripSummary, error) {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return domain.TripSummary{}, tripNotFound(int64(tripID))
		}
		return domain.TripSummary{}, storeUnavailable(err)
	}
	return s.summarize(ctx, t)
}

func (s *Service) summarize(ctx context.Context, t triprepo.Trip) (domain.TripSummary, error) {
	n, err := s.ledger.CountByTrip(ctx, t.ID)
	if err != nil {
		return domain.TripSummary{}, storeUnavailable(err)
	}
	return domain.TripSummary{
		Trip:          toDomain(t),
		EnrolledCount: n,
		FreeSlots:     enrollments.FreeSlots(t.MaxPeople, n),
	}, nil
}

func toDomain(t triprepo.Trip) domain.Trip {
	return domain.Trip{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		DateFrom:    t.DateFrom,
		DateTo:      t.DateTo,
		MaxPeople:   t.MaxPeople,
	}
}

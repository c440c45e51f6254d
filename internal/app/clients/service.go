package clients

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clientrepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

type Service struct {
	clients clientrepo.Repository
	trips   triprepo.Reader
	ledger  enrollmentrepo.Ledger
}

func NewService(clients clientrepo.Repository, trips triprepo.Reader, ledger enrollmentrepo.Ledger) *Service {
	return &Service{clients: clients, trips: trips, ledger: ledger}
}

// CreateClient validates and stores a new client. All fields are required.
func (s *Service) CreateClient(ctx context.Context, in CreateClientInput) (domain.Client, error) {
	c := clientrepo.Client{
		FirstName:  domain.NormalizeHumanName(in.FirstName),
		LastName:   domain.NormalizeHumanName(in.LastName),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		NationalID: domain.NormalizeNationalID(in.NationalID),
	}

	details := map[string]any{}
	if c.FirstName == "" {
		details["firstName"] = "must be non-empty"
	}
	if c.LastName == "" {
		details["lastName"] = "must be non-empty"
	}
	if err := validateEmail(c.Email); err != nil {
		details["email"] = err.Error()
	}
	if c.Phone == "" {
		details["phone"] = "must be non-empty"
	}
	if n := utf8.RuneCountInString(c.NationalID); n != domain.NationalIDLength {
		details["nationalId"] = fmt.Sprintf("must be exactly %d characters", domain.NationalIDLength)
	}
	if len(details) > 0 {
		return domain.Client{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid client",
			Details: details,
		}
	}

	id, err := s.clients.Create(ctx, c)
	if err != nil {
		return domain.Client{}, storeUnavailable(err)
	}
	c.ID = id
	return toDomain(c), nil
}

// ListClientTrips returns the trips clientID is enrolled in, ordered by trip ID.
// An existing client without enrollments gets an empty list.
func (s *Service) ListClientTrips(ctx context.Context, clientID domain.ClientID) ([]domain.ClientTrip, error) {
	ok, err := s.clients.Exists(ctx, clientID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	if !ok {
		return nil, clientNotFound(int64(clientID))
	}

	es, err := s.ledger.ListByClient(ctx, clientID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	out := make([]domain.ClientTrip, 0, len(es))
	for _, e := range es {
		t, err := s.trips.GetByID(ctx, e.TripID)
		if err != nil {
			// Trips are never deleted here; a dangling enrollment is a store inconsistency.
			if errors.Is(err, triprepo.ErrNotFound) {
				continue
			}
			return nil, storeUnavailable(err)
		}
		ct := domain.ClientTrip{
			Trip: domain.Trip{
				ID:          t.ID,
				Name:        t.Name,
				Description: t.Description,
				DateFrom:    t.DateFrom,
				DateTo:      t.DateTo,
				MaxPeople:   t.MaxPeople,
			},
			RegisteredAt: e.RegisteredAt,
		}
		if e.PaymentDate != nil {
			d := *e.PaymentDate
			ct.PaymentDate = &d
		}
		out = append(out, ct)
	}
	return out, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("must be a valid email address")
	}
	// Ensure no "Name <email@x>" format sneaks in.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}

func toDomain(c clientrepo.Client) domain.Client {
	return domain.Client{
		ID:         c.ID,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      c.Email,
		Phone:      c.Phone,
		NationalID: c.NationalID,
	}
}

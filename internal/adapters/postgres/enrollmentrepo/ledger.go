package enrollmentrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
)

// Ledger is a Postgres implementation of enrollmentrepo.Ledger over client_trips.
type Ledger struct {
	q postgres.Querier
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	if pool == nil {
		return &Ledger{}
	}
	return &Ledger{q: pool}
}

func newTxLedger(q postgres.Querier) *Ledger {
	return &Ledger{q: q}
}

func (l *Ledger) Exists(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) (bool, error) {
	if l.q == nil {
		return false, postgres.ErrNilPool
	}
	var ok bool
	err := l.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM client_trips WHERE client_id = $1 AND trip_id = $2)
	`, int64(clientID), int64(tripID)).Scan(&ok)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (l *Ledger) CountByTrip(ctx context.Context, tripID domain.TripID) (int, error) {
	if l.q == nil {
		return 0, postgres.ErrNilPool
	}
	var n int64
	if err := l.q.QueryRow(ctx, `SELECT count(*) FROM client_trips WHERE trip_id = $1`, int64(tripID)).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (l *Ledger) Insert(ctx context.Context, e enrollmentrepo.Enrollment) error {
	if l.q == nil {
		return postgres.ErrNilPool
	}
	var payment *int32
	if e.PaymentDate != nil {
		v := int32(*e.PaymentDate)
		payment = &v
	}
	_, err := l.q.Exec(ctx, `
		INSERT INTO client_trips (client_id, trip_id, registered_at, payment_date)
		VALUES ($1, $2, $3, $4)
	`, int64(e.ClientID), int64(e.TripID), int32(e.RegisteredAt), payment)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return enrollmentrepo.ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (l *Ledger) Delete(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) error {
	if l.q == nil {
		return postgres.ErrNilPool
	}
	tag, err := l.q.Exec(ctx, `
		DELETE FROM client_trips WHERE client_id = $1 AND trip_id = $2
	`, int64(clientID), int64(tripID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return enrollmentrepo.ErrNotFound
	}
	return nil
}

func (l *Ledger) ListByClient(ctx context.Context, clientID domain.ClientID) ([]enrollmentrepo.Enrollment, error) {
	if l.q == nil {
		return nil, postgres.ErrNilPool
	}
	rows, err := l.q.Query(ctx, `
		SELECT trip_id, registered_at, payment_date
		FROM client_trips
		WHERE client_id = $1
		ORDER BY trip_id ASC
	`, int64(clientID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]enrollmentrepo.Enrollment, 0)
	for rows.Next() {
		var (
			tripID       int64
			registeredAt int32
			payment      *int32
		)
		if err := rows.Scan(&tripID, &registeredAt, &payment); err != nil {
			return nil, err
		}
		e := enrollmentrepo.Enrollment{
			ClientID:     clientID,
			TripID:       domain.TripID(tripID),
			RegisteredAt: domain.DayStamp(registeredAt),
		}
		if payment != nil {
			d := domain.DayStamp(*payment)
			e.PaymentDate = &d
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

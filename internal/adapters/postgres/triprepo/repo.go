package triprepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

// Repo is a Postgres implementation of triprepo.Repository.
type Repo struct {
	q postgres.Querier
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	if pool == nil {
		return &Repo{}
	}
	return &Repo{q: pool}
}

// NewReader returns a reader bound to q, typically a transaction.
func NewReader(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

// Create stores t with its ID. Trips are owned upstream; this exists for fixtures.
func (r *Repo) Create(ctx context.Context, t triprepo.Trip) error {
	if r.q == nil {
		return postgres.ErrNilPool
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO trips (id, name, description, date_from, date_to, max_people)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		int64(t.ID),
		t.Name,
		t.Description,
		t.DateFrom.UTC(),
		t.DateTo.UTC(),
		t.MaxPeople,
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "trips_pkey" {
			return triprepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (triprepo.Trip, error) {
	if r.q == nil {
		return triprepo.Trip{}, postgres.ErrNilPool
	}
	row := r.q.QueryRow(ctx, `
		SELECT id, name, description, date_from, date_to, max_people
		FROM trips
		WHERE id = $1
	`, int64(id))
	t, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return triprepo.Trip{}, triprepo.ErrNotFound
		}
		return triprepo.Trip{}, err
	}
	return t, nil
}

func (r *Repo) List(ctx context.Context) ([]triprepo.Trip, error) {
	if r.q == nil {
		return nil, postgres.ErrNilPool
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, name, description, date_from, date_to, max_people
		FROM trips
		ORDER BY date_from DESC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]triprepo.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTrip(row pgx.Row) (triprepo.Trip, error) {
	var (
		id int64
		t  triprepo.Trip
	)
	if err := row.Scan(&id, &t.Name, &t.Description, &t.DateFrom, &t.DateTo, &t.MaxPeople); err != nil {
		return triprepo.Trip{}, err
	}
	t.ID = domain.TripID(id)
	t.DateFrom = t.DateFrom.UTC()
	t.DateTo = t.DateTo.UTC()
	return t, nil
}

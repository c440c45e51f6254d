package clientrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clientrepo"
)

// Repo is a Postgres implementation of clientrepo.Repository.
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

func (r *Repo) Create(ctx context.Context, c clientrepo.Client) (domain.ClientID, error) {
	if r.q == nil {
		return 0, postgres.ErrNilPool
	}
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO clients (first_name, last_name, email, phone, national_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.FirstName, c.LastName, c.Email, c.Phone, c.NationalID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return domain.ClientID(id), nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ClientID) (clientrepo.Client, error) {
	if r.q == nil {
		return clientrepo.Client{}, postgres.ErrNilPool
	}
	c := clientrepo.Client{ID: id}
	err := r.q.QueryRow(ctx, `
		SELECT first_name, last_name, email, phone, national_id
		FROM clients
		WHERE id = $1
	`, int64(id)).Scan(&c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.NationalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return clientrepo.Client{}, clientrepo.ErrNotFound
		}
		return clientrepo.Client{}, err
	}
	return c, nil
}

func (r *Repo) Exists(ctx context.Context, id domain.ClientID) (bool, error) {
	if r.q == nil {
		return false, postgres.ErrNilPool
	}
	var ok bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, int64(id)).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

package enrollmentrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/clientrepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/triprepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
)

// Store is a Postgres implementation of enrollmentrepo.Store.
//
// WithinTrip runs the callback in one transaction that first takes a row lock on the
// trip. Concurrent scopes for the same trip queue on that lock until the holder commits
// or rolls back. The client_trips primary key rejects duplicates independently.
type Store struct {
	pool   *pgxpool.Pool
	ledger *Ledger
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, ledger: NewLedger(pool)}
}

func (s *Store) Ledger() enrollmentrepo.Ledger { return s.ledger }

func (s *Store) WithinTrip(ctx context.Context, tripID domain.TripID, fn func(ctx context.Context, sc enrollmentrepo.Scope) error) error {
	if s.pool == nil {
		return postgres.ErrNilPool
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// A missing trip has no row to lock; the callback reports it.
		if _, err := tx.Exec(ctx, `SELECT id FROM trips WHERE id = $1 FOR UPDATE`, int64(tripID)); err != nil {
			return err
		}
		return fn(ctx, enrollmentrepo.Scope{
			Trips:   triprepo.NewReader(tx),
			Clients: clientrepo.NewReader(tx),
			Ledger:  newTxLedger(tx),
		})
	})
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return postgres.ErrNilPool
	}
	return s.pool.Ping(ctx)
}

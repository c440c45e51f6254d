package enrollmentrepo

import (
	"context"
	"sort"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/keyedmutex"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clientrepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

// Store is an in-memory implementation of enrollmentrepo.Store.
//
// WithinTrip holds a mutex keyed by trip ID for the whole callback, so operations on
// one trip are linearized while different trips proceed in parallel. Writes made in
// the callback are staged and applied only when it returns nil.
type Store struct {
	trips   triprepo.Reader
	clients clientrepo.Reader
	ledger  *Repo

	locks *keyedmutex.Mutex[domain.TripID]
}

func NewStore(trips triprepo.Reader, clients clientrepo.Reader, ledger *Repo) *Store {
	return &Store{
		trips:   trips,
		clients: clients,
		ledger:  ledger,
		locks:   keyedmutex.New[domain.TripID](),
	}
}

func (s *Store) Ledger() enrollmentrepo.Ledger { return s.ledger }

func (s *Store) WithinTrip(ctx context.Context, tripID domain.TripID, fn func(ctx context.Context, sc enrollmentrepo.Scope) error) error {
	unlock, err := s.locks.Lock(ctx, tripID)
	if err != nil {
		return err
	}
	defer unlock()

	staged := &stagedLedger{base: s.ledger, writes: make(map[key]*enrollmentrepo.Enrollment)}
	if err := fn(ctx, enrollmentrepo.Scope{Trips: s.trips, Clients: s.clients, Ledger: staged}); err != nil {
		return err
	}
	// An abandoned request must not commit.
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(staged.writes) == 0 {
		return nil
	}
	return s.ledger.apply(staged.writes)
}

// stagedLedger overlays uncommitted writes on top of the shared ledger.
type stagedLedger struct {
	base   *Repo
	writes map[key]*enrollmentrepo.Enrollment
}

func (l *stagedLedger) Exists(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) (bool, error) {
	k := key{clientID: clientID, tripID: tripID}
	if v, ok := l.writes[k]; ok {
		return v != nil, nil
	}
	return l.base.Exists(ctx, clientID, tripID)
}

func (l *stagedLedger) CountByTrip(ctx context.Context, tripID domain.TripID) (int, error) {
	n, err := l.base.CountByTrip(ctx, tripID)
	if err != nil {
		return 0, err
	}
	for k, v := range l.writes {
		if k.tripID != tripID {
			continue
		}
		inBase, err := l.base.Exists(ctx, k.clientID, k.tripID)
		if err != nil {
			return 0, err
		}
		switch {
		case v != nil && !inBase:
			n++
		case v == nil && inBase:
			n--
		}
	}
	return n, nil
}

func (l *stagedLedger) Insert(ctx context.Context, e enrollmentrepo.Enrollment) error {
	ok, err := l.Exists(ctx, e.ClientID, e.TripID)
	if err != nil {
		return err
	}
	if ok {
		return enrollmentrepo.ErrDuplicateKey
	}
	v := cloneEnrollment(e)
	l.writes[key{clientID: e.ClientID, tripID: e.TripID}] = &v
	return nil
}

func (l *stagedLedger) Delete(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) error {
	ok, err := l.Exists(ctx, clientID, tripID)
	if err != nil {
		return err
	}
	if !ok {
		return enrollmentrepo.ErrNotFound
	}
	l.writes[key{clientID: clientID, tripID: tripID}] = nil
	return nil
}

func (l *stagedLedger) ListByClient(ctx context.Context, clientID domain.ClientID) ([]enrollmentrepo.Enrollment, error) {
	base, err := l.base.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	byTrip := make(map[domain.TripID]enrollmentrepo.Enrollment, len(base))
	for _, e := range base {
		byTrip[e.TripID] = e
	}
	for k, v := range l.writes {
		if k.clientID != clientID {
			continue
		}
		if v == nil {
			delete(byTrip, k.tripID)
			continue
		}
		byTrip[k.tripID] = cloneEnrollment(*v)
	}
	out := make([]enrollmentrepo.Enrollment, 0, len(byTrip))
	for _, e := range byTrip {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TripID < out[j].TripID })
	return out, nil
}

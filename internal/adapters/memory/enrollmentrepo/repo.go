package enrollmentrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
)

type key struct {
	clientID domain.ClientID
	tripID   domain.TripID
}

// Repo is an in-memory implementation of enrollmentrepo.Ledger.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex
	m  map[key]enrollmentrepo.Enrollment
}

func NewRepo() *Repo {
	return &Repo{m: make(map[key]enrollmentrepo.Enrollment)}
}

func (r *Repo) Exists(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.m[key{clientID: clientID, tripID: tripID}]
	return ok, nil
}

func (r *Repo) CountByTrip(ctx context.Context, tripID domain.TripID) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countLocked(tripID), nil
}

func (r *Repo) Insert(ctx context.Context, e enrollmentrepo.Enrollment) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{clientID: e.ClientID, tripID: e.TripID}
	if _, ok := r.m[k]; ok {
		return enrollmentrepo.ErrDuplicateKey
	}
	r.m[k] = cloneEnrollment(e)
	return nil
}

func (r *Repo) Delete(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{clientID: clientID, tripID: tripID}
	if _, ok := r.m[k]; !ok {
		return enrollmentrepo.ErrNotFound
	}
	delete(r.m, k)
	return nil
}

func (r *Repo) ListByClient(ctx context.Context, clientID domain.ClientID) ([]enrollmentrepo.Enrollment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]enrollmentrepo.Enrollment, 0)
	for k, v := range r.m {
		if k.clientID == clientID {
			out = append(out, cloneEnrollment(v))
		}
	}
	sortByTrip(out)
	return out, nil
}

func (r *Repo) countLocked(tripID domain.TripID) int {
	n := 0
	for k := range r.m {
		if k.tripID == tripID {
			n++
		}
	}
	return n
}

// apply commits staged writes all-or-nothing. A nil value stages a delete.
func (r *Repo) apply(staged map[key]*enrollmentrepo.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range staged {
		_, present := r.m[k]
		if v != nil && present {
			return enrollmentrepo.ErrDuplicateKey
		}
		if v == nil && !present {
			return enrollmentrepo.ErrNotFound
		}
	}
	for k, v := range staged {
		if v == nil {
			delete(r.m, k)
			continue
		}
		r.m[k] = cloneEnrollment(*v)
	}
	return nil
}

func cloneEnrollment(e enrollmentrepo.Enrollment) enrollmentrepo.Enrollment {
	out := e
	if e.PaymentDate != nil {
		v := *e.PaymentDate
		out.PaymentDate = &v
	}
	return out
}

func sortByTrip(es []enrollmentrepo.Enrollment) {
	sort.Slice(es, func(i, j int) bool { return es[i].TripID < es[j].TripID })
}

package triprepo

import (
	"context"
	"sort"
	"sync"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

// Repo is an in-memory implementation of triprepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex
	m  map[domain.TripID]triprepo.Trip
}

func NewRepo() *Repo {
	return &Repo{m: make(map[domain.TripID]triprepo.Trip)}
}

// Create stores t. Trips are owned by another system; this exists for seeding and tests.
func (r *Repo) Create(ctx context.Context, t triprepo.Trip) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[t.ID]; ok {
		return triprepo.ErrAlreadyExists
	}
	r.m[t.ID] = t
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (triprepo.Trip, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.m[id]
	if !ok {
		return triprepo.Trip{}, triprepo.ErrNotFound
	}
	return t, nil
}

func (r *Repo) List(ctx context.Context) ([]triprepo.Trip, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]triprepo.Trip, 0, len(r.m))
	for _, t := range r.m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateFrom.Equal(out[j].DateFrom) {
			return out[i].ID < out[j].ID
		}
		return out[i].DateFrom.After(out[j].DateFrom)
	})
	return out, nil
}

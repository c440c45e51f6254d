package clientrepo

import (
	"context"
	"sync"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clientrepo"
)

// Repo is an in-memory implementation of clientrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID   map[domain.ClientID]clientrepo.Client
	nextID domain.ClientID
}

func NewRepo() *Repo {
	return &Repo{
		byID:   make(map[domain.ClientID]clientrepo.Client),
		nextID: 1,
	}
}

func (r *Repo) Create(ctx context.Context, c clientrepo.Client) (domain.ClientID, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	c.ID = id
	r.byID[id] = c
	return id, nil
}

// Put stores c under c.ID. It is used for seeding fixtures with known IDs.
func (r *Repo) Put(ctx context.Context, c clientrepo.Client) error {
	_ = ctx
	if c.ID <= 0 {
		return clientrepo.ErrAlreadyExists // treat non-positive ID as invalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[c.ID]; ok {
		return clientrepo.ErrAlreadyExists
	}
	r.byID[c.ID] = c
	if c.ID >= r.nextID {
		r.nextID = c.ID + 1
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ClientID) (clientrepo.Client, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return clientrepo.Client{}, clientrepo.ErrNotFound
	}
	return c, nil
}

func (r *Repo) Exists(ctx context.Context, id domain.ClientID) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok, nil
}

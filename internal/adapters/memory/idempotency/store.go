package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clock"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/idempotency"
)

// Store is an in-memory implementation of idempotency.Store.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	m  map[idempotency.Fingerprint]idempotency.Record

	ttl   time.Duration
	clock clock.Clock
}

type Option func(*Store)

// WithTTL makes records older than ttl invisible and eligible for pruning.
// A zero ttl keeps records forever.
func WithTTL(ttl time.Duration, c clock.Clock) Option {
	return func(s *Store) {
		s.ttl = ttl
		s.clock = c
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		m: make(map[idempotency.Fingerprint]idempotency.Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.m[fp]
	if !ok || s.expired(rec) {
		return idempotency.Record{}, false, nil
	}
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ttl > 0 {
		for k, v := range s.m {
			if s.expired(v) {
				delete(s.m, k)
			}
		}
	}
	s.m[fp] = rec
	return nil
}

// Len returns the number of stored records, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *Store) expired(rec idempotency.Record) bool {
	if s.ttl <= 0 || s.clock == nil {
		return false
	}
	return s.clock.Now().Sub(rec.CreatedAt) > s.ttl
}

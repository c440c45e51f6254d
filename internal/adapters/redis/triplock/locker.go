// Package triplock implements a per-trip lock on Redis for deployments where several
// API instances share one store.
package triplock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triplock"
)

const keyPrefix = "triplock:"

// releaseScript deletes the key only when it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a Redis implementation of triplock.Locker using SET NX PX.
type Locker struct {
	client redis.UniversalClient
	ttl    time.Duration

	minBackoff time.Duration
	maxBackoff time.Duration
}

type Option func(*Locker)

// WithTTL bounds how long a crashed holder can keep a trip locked.
func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithBackoff sets the retry interval bounds while the lock is contended.
func WithBackoff(lo, hi time.Duration) Option {
	return func(l *Locker) {
		if lo > 0 && hi >= lo {
			l.minBackoff = lo
			l.maxBackoff = hi
		}
	}
}

func New(client redis.UniversalClient, opts ...Option) *Locker {
	l := &Locker{
		client:     client,
		ttl:        10 * time.Second,
		minBackoff: 5 * time.Millisecond,
		maxBackoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Dial parses url, connects and pings.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func Key(tripID domain.TripID) string {
	return keyPrefix + tripID.String()
}

func (l *Locker) Acquire(ctx context.Context, tripID domain.TripID) (func(ctx context.Context) error, error) {
	key := Key(tripID)
	token := uuid.NewString()
	backoff := l.minBackoff

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return l.releaser(key, token), nil
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
		if backoff > l.maxBackoff {
			backoff = l.maxBackoff
		}
	}
}

func (l *Locker) releaser(key, token string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release %s: %w", key, err)
		}
		if n == 0 {
			return triplock.ErrNotHeld
		}
		return nil
	}
}

var _ triplock.Locker = (*Locker)(nil)

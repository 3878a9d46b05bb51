// Package lock provides the exclusive leases that keep two cleanups of the
// same data from running at once, across processes when Redis is available.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL = 10 * time.Minute
	keyPrefix  = "pluginhub:lock:"
)

var ErrLocked = errors.New("lock is held by another run")

type Lease interface {
	Release(ctx context.Context) error
}

type Locker interface {
	// Acquire returns ErrLocked when another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

type store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLocker implements Locker with SETNX and a TTL. Each lease carries its
// own owner token so a lease that outlived its TTL cannot release a newer one.
type RedisLocker struct {
	client store
}

func NewRedisLocker(client store) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	return &RedisLocker{client: client}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, keyPrefix+key, owner, ttl)
	if err != nil {
		return nil, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &redisLease{client: l.client, key: keyPrefix + key, owner: owner}, nil
}

type redisLease struct {
	client store
	key    string
	owner  string
}

func (r *redisLease) Release(ctx context.Context) error {
	value, err := r.client.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != r.owner {
		return nil
	}
	if err := r.client.Del(ctx, r.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}

// LocalLocker serialises holders inside a single process. Used when no Redis
// URL is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), now: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Lease, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return nil, ErrLocked
	}
	until := now.Add(ttl)
	l.held[key] = until
	return &localLease{locker: l, key: key, until: until}, nil
}

type localLease struct {
	locker *LocalLocker
	key    string
	until  time.Time
}

func (r *localLease) Release(context.Context) error {
	r.locker.mu.Lock()
	defer r.locker.mu.Unlock()
	if r.locker.held[r.key].Equal(r.until) {
		delete(r.locker.held, r.key)
	}
	return nil
}

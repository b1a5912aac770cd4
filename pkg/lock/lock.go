// Package lock serializes the approval aggregate check per execution, so two
// concurrent decisions cannot both fire the completion pipeline.
package lock

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Locker acquires a named lock. Release via the returned function.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker is a keyed in-process mutex, sufficient for a single engine
// instance and for tests.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	keyLock, ok := l.locks[key]

	if !ok {
		keyLock = &sync.Mutex{}
		l.locks[key] = keyLock
	}
	l.mu.Unlock()

	keyLock.Lock()

	return keyLock.Unlock, nil
}

const (
	redisLockTTL   = 30 * time.Second
	redisRetryWait = 50 * time.Millisecond
)

// RedisLocker coordinates across engine instances with SETNX + TTL. The TTL
// bounds the damage of a crashed holder.
type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := "stratagem:lock:" + key

	for {
		acquired, err := l.client.SetNX(ctx, lockKey, "1", redisLockTTL).Result()
		if err != nil {
			return nil, err
		}

		if acquired {
			return func() {
				_ = l.client.Del(context.Background(), lockKey).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisRetryWait):
		}
	}
}

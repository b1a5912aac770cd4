package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mohamedadel0806/stratagem/pkg/lock"
)

// NewLocker creates the per-execution completion lock. With a Redis URL the
// lock holds across processes; without one it only serializes within this
// process, which is enough for single-instance deployments.
func NewLocker(redisURL string) lock.Locker {
	if redisURL == "" {
		return lock.NewLocalLocker()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse redis URL: %w", err))
	}

	return lock.NewRedisLocker(redis.NewClient(opts))
}

package lock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			release, err := locker.Acquire(ctx, "execution-1")
			require.NoError(t, err)
			defer release()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	releaseA, err := locker.Acquire(ctx, "execution-a")
	require.NoError(t, err)
	defer releaseA()

	// A held lock on one key never blocks another key.
	releaseB, err := locker.Acquire(ctx, "execution-b")
	require.NoError(t, err)
	releaseB()
}

func TestLocalLockerReacquireAfterRelease(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "execution-1")
	require.NoError(t, err)
	release()

	release, err = locker.Acquire(ctx, "execution-1")
	require.NoError(t, err)
	release()
}

package http

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLimiterStoreSharesBucketAcrossConcurrentFirstRequests(t *testing.T) {
	store := newLimiterStore(rate.Every(time.Minute), 1, 16, time.Minute)

	const callers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.get("10.0.0.1").Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, allowed)
}

func TestLimiterStoreKeepsActiveBuckets(t *testing.T) {
	store := newLimiterStore(rate.Every(time.Minute), 1, 16, 200*time.Millisecond)

	first := store.get("10.0.0.1")
	require.True(t, first.Allow())

	time.Sleep(120 * time.Millisecond)
	assert.Same(t, first, store.get("10.0.0.1"))

	time.Sleep(120 * time.Millisecond)
	second := store.get("10.0.0.1")
	assert.Same(t, first, second)
	assert.False(t, second.Allow())
}

func TestLimiterStoreForgetsIdleBuckets(t *testing.T) {
	store := newLimiterStore(rate.Every(time.Minute), 1, 16, 50*time.Millisecond)

	first := store.get("10.0.0.1")
	time.Sleep(150 * time.Millisecond)

	assert.NotSame(t, first, store.get("10.0.0.1"))
}

package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiterEnforcesBurst(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// Each IP gets its own bucket.
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiterEvictsStaleClients(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 1, time.Minute)

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	assert.Len(t, rl.clients, 2)

	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastSeen = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	rl.evictStale(time.Now())

	assert.Len(t, rl.clients, 1)
	assert.NotContains(t, rl.clients, "10.0.0.1")
	assert.Contains(t, rl.clients, "10.0.0.2")

	// An evicted client starts over with a fresh bucket.
	assert.True(t, rl.Allow("10.0.0.1"))
}

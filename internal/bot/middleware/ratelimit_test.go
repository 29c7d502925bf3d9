package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }

	assert.True(t, rl.Allow(1))
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))

	// лимит считается отдельно на каждого пользователя
	assert.True(t, rl.Allow(2))

	// старые обращения выпадают из окна
	base = base.Add(61 * time.Second)
	assert.True(t, rl.Allow(1))
}

func TestRateLimiter_BlockedAttemptDoesNotExtendWindow(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()

	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }

	assert.True(t, rl.Allow(1))

	base = base.Add(30 * time.Second)
	assert.False(t, rl.Allow(1))

	// отказ не регистрируется как обращение
	base = base.Add(31 * time.Second)
	assert.True(t, rl.Allow(1))
}

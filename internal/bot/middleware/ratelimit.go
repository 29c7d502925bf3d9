package middleware

import (
	"sync"
	"time"
)

const cleanupInterval = 5 * time.Minute

// RateLimiter сдерживает поток обращений одного пользователя к боту:
// не более limit сообщений за скользящее окно window.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[int64][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Close останавливает фоновую горутину очистки.
// Его надо вызывать на shutdown (иначе cleanupLoop будет жить вечно).
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow регистрирует обращение пользователя и сообщает, пропускать ли его.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := pruneOld(rl.hits[userID], now.Add(-rl.window))
	if len(recent) >= rl.limit {
		rl.hits[userID] = recent
		return false
	}
	rl.hits[userID] = append(recent, now)
	return true
}

// cleanupLoop периодически убирает пользователей без обращений в окне,
// чтобы карта не росла бесконечно.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := rl.now().Add(-rl.window)
			for userID, times := range rl.hits {
				recent := pruneOld(times, cutoff)
				if len(recent) == 0 {
					delete(rl.hits, userID)
					continue
				}
				rl.hits[userID] = recent
			}
			rl.mu.Unlock()
		}
	}
}

func pruneOld(times []time.Time, cutoff time.Time) []time.Time {
	var recent []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

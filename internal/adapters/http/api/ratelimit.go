package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedLimiters bounds per-user limiter state. When exceeded the
// table is reset, which at worst grants a fresh burst.
const maxTrackedLimiters = 10_000

// submitLimiter keeps one token bucket per user id.
type submitLimiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	users map[string]*rate.Limiter
}

func newSubmitLimiter(limit rate.Limit, burst int) *submitLimiter {
	if burst < 1 {
		burst = 1
	}
	return &submitLimiter{limit: limit, burst: burst, users: make(map[string]*rate.Limiter)}
}

// Allow reports whether userID may submit now.
func (l *submitLimiter) Allow(userID string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.users[userID]
	if !ok {
		if len(l.users) >= maxTrackedLimiters {
			l.users = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.users[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

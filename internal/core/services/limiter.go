package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// limiterSweepSize is the map size at which idle limiters are dropped.
const limiterSweepSize = 1024

// callerLimiter rate limits attempts per caller ID.
type callerLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// newCallerLimiter returns nil when settings impose no limit.
func newCallerLimiter(settings domain.RedeemSettings) *callerLimiter {
	if !settings.IsLimited() {
		return nil
	}
	burst := settings.Burst
	if burst < 1 {
		burst = 1
	}
	return &callerLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Every(time.Minute / time.Duration(settings.PerMinute)),
		burst:    burst,
	}
}

// Allow reports whether callerID may make an attempt at now.
// A nil limiter allows everything.
func (l *callerLimiter) Allow(callerID string, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[callerID]
	if !ok {
		if len(l.limiters) >= limiterSweepSize {
			l.dropIdle(now)
		}
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[callerID] = limiter
	}
	return limiter.AllowN(now, 1)
}

// dropIdle forgets limiters that have refilled completely, since a new
// limiter would behave the same (caller must hold lock).
func (l *callerLimiter) dropIdle(now time.Time) {
	for id, limiter := range l.limiters {
		if limiter.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, id)
		}
	}
}

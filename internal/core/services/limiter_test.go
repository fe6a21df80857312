package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

func TestCallerLimiter_Unlimited(t *testing.T) {
	l := newCallerLimiter(domain.RedeemSettings{})
	assert.Nil(t, l)

	for range 100 {
		assert.True(t, l.Allow("user", epoch))
	}
}

func TestCallerLimiter_Burst(t *testing.T) {
	l := newCallerLimiter(domain.RedeemSettings{PerMinute: 2, Burst: 3})

	for range 3 {
		assert.True(t, l.Allow("user", epoch))
	}
	assert.False(t, l.Allow("user", epoch))

	// Other callers have their own budget.
	assert.True(t, l.Allow("other", epoch))

	// One token refills every 30 seconds.
	assert.False(t, l.Allow("user", epoch.Add(20*time.Second)))
	assert.True(t, l.Allow("user", epoch.Add(31*time.Second)))
}

func TestCallerLimiter_ZeroBurstMeansOne(t *testing.T) {
	l := newCallerLimiter(domain.RedeemSettings{PerMinute: 1})

	assert.True(t, l.Allow("user", epoch))
	assert.False(t, l.Allow("user", epoch))
}

func TestCallerLimiter_DropsIdle(t *testing.T) {
	l := newCallerLimiter(domain.RedeemSettings{PerMinute: 60, Burst: 1})

	for i := range limiterSweepSize {
		l.Allow(fmt.Sprintf("caller-%d", i), epoch)
	}
	assert.Len(t, l.limiters, limiterSweepSize)

	// Everyone has refilled a minute later, so the map is rebuilt.
	assert.True(t, l.Allow("newcomer", epoch.Add(time.Minute)))
	assert.Len(t, l.limiters, 1)
}

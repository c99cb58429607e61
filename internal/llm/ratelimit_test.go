package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestRateLimiterRejectsBeyondBudget(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	r := newRateLimiter(3, time.Minute)
	r.now = clock.now

	for i := 0; i < 3; i++ {
		assert.True(t, r.Allow())
		assert.True(t, r.Reserve(), "call %d", i)
	}
	assert.False(t, r.Allow())
	assert.False(t, r.Reserve())
}

func TestRateLimiterRecoversAfterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	r := newRateLimiter(2, time.Minute)
	r.now = clock.now

	assert.True(t, r.Reserve())
	clock.t = clock.t.Add(30 * time.Second)
	assert.True(t, r.Reserve())
	assert.False(t, r.Reserve())

	// First call leaves the window, second is still inside it.
	clock.t = clock.t.Add(31 * time.Second)
	assert.True(t, r.Reserve())
	assert.False(t, r.Reserve())

	clock.t = clock.t.Add(2 * time.Minute)
	assert.True(t, r.Allow())
}

func TestRateLimiterDisabled(t *testing.T) {
	r := newRateLimiter(0, time.Minute)
	for i := 0; i < 1000; i++ {
		assert.True(t, r.Reserve())
	}
}

package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t  time.Time
	mu sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(rpm int) (*rateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(rpm)
	rl.now = clock.Now
	rl.lastRefill = clock.Now()
	rl.poll = time.Millisecond
	return rl, clock
}

func TestRateLimiter(t *testing.T) {
	t.Run("bucket starts full and drains", func(t *testing.T) {
		rl, _ := newTestLimiter(10)
		for i := 0; i < 10; i++ {
			assert.True(t, rl.tryAcquire(), "token %d", i)
		}
		assert.False(t, rl.tryAcquire())
	})

	t.Run("refills from elapsed time", func(t *testing.T) {
		rl, clock := newTestLimiter(60)
		for i := 0; i < 60; i++ {
			require.True(t, rl.tryAcquire())
		}
		require.False(t, rl.tryAcquire())

		clock.Advance(2500 * time.Millisecond)
		assert.True(t, rl.tryAcquire())
		assert.True(t, rl.tryAcquire())
		assert.False(t, rl.tryAcquire())
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		rl, clock := newTestLimiter(2)
		clock.Advance(time.Hour)
		assert.True(t, rl.tryAcquire())
		assert.True(t, rl.tryAcquire())
		assert.False(t, rl.tryAcquire())
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl, _ := newTestLimiter(1)
		require.True(t, rl.tryAcquire())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := rl.wait(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("zero defaults to sixty per minute", func(t *testing.T) {
		rl := newRateLimiter(0)
		assert.Equal(t, 60, rl.capacity)
		assert.Equal(t, time.Second, rl.interval)
	})
}

func TestRateLimitedClient(t *testing.T) {
	fake := &mockClient{replies: []mockReply{{text: "a"}, {text: "b"}}}
	client := NewRateLimitedClient(fake, 60)

	for _, want := range []string{"a", "b"} {
		resp, err := client.Generate(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, want, resp.Text)
	}
	assert.Equal(t, 2, fake.calls())
}

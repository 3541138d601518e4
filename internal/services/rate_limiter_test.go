package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10, 100*time.Millisecond, time.Now())

	tokens, maxTokens := rl.GetStatus()
	assert.Equal(t, 10, tokens)
	assert.Equal(t, 10, maxTokens)
}

func TestRateLimiter_Allow_InitialTokens(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3, time.Second, now)

	assert.True(t, rl.Allow(now))
	assert.True(t, rl.Allow(now))
	assert.True(t, rl.Allow(now))
	assert.False(t, rl.Allow(now), "fourth request should be denied")
}

func TestRateLimiter_Allow_TokenRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute, now)

	rl.Allow(now)
	rl.Allow(now)
	assert.False(t, rl.Allow(now.Add(59*time.Second)))

	assert.True(t, rl.Allow(now.Add(61*time.Second)))
	assert.False(t, rl.Allow(now.Add(62*time.Second)))
}

func TestRateLimiter_RefillCapsAtMax(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second, now)

	rl.Allow(now)
	rl.Allow(now.Add(time.Hour))

	tokens, _ := rl.GetStatus()
	assert.Equal(t, 1, tokens)
}

func TestRateLimiter_Concurrent(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(50, time.Hour, now)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(now) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func newTestIssueLimiter(perAddress int, window time.Duration, global int, clock *time.Time) *IssueRateLimiter {
	l := NewIssueRateLimiter(perAddress, window, global, logging.Logger)
	l.now = func() time.Time { return *clock }
	if l.global != nil {
		l.global.lastRefill = *clock
	}
	return l
}

func TestIssueRateLimiter_PerAddress(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestIssueLimiter(3, 15*time.Minute, 0, &clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "+5521999999999"))
	}
	assert.False(t, l.Allow(ctx, "+5521999999999"))
	assert.True(t, l.Allow(ctx, "+5521988888888"), "other numbers keep their own budget")

	clock = clock.Add(5 * time.Minute)
	assert.True(t, l.Allow(ctx, "+5521999999999"))
	assert.False(t, l.Allow(ctx, "+5521999999999"))
}

func TestIssueRateLimiter_Global(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestIssueLimiter(10, time.Minute, 2, &clock)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "+5521900000001"))
	assert.True(t, l.Allow(ctx, "+5521900000002"))
	assert.False(t, l.Allow(ctx, "+5521900000003"))

	clock = clock.Add(31 * time.Second)
	assert.True(t, l.Allow(ctx, "+5521900000003"))
}

func TestIssueRateLimiter_CleanupIdle(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestIssueLimiter(2, 10*time.Minute, 0, &clock)
	ctx := context.Background()

	l.Allow(ctx, "+5521900000001")
	l.Allow(ctx, "+5521900000002")
	assert.Equal(t, 2, l.Size())

	assert.Equal(t, 0, l.CleanupIdle())

	clock = clock.Add(6 * time.Minute)
	assert.Equal(t, 2, l.CleanupIdle())
	assert.Equal(t, 0, l.Size())
}

func TestIssueRateLimiter_GlobalRejectionKeepsAddressToken(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestIssueLimiter(2, time.Hour, 1, &clock)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "+5521900000001"))
	assert.False(t, l.Allow(ctx, "+5521900000002"), "global ceiling reached")

	tokens, maxTokens := l.buckets["+5521900000002"].GetStatus()
	assert.Equal(t, maxTokens, tokens)

	clock = clock.Add(time.Minute)
	assert.True(t, l.Allow(ctx, "+5521900000002"))
}

func TestIssueRateLimiter_CleanupDuringAllow(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestIssueLimiter(3, time.Hour, 0, &clock)
	ctx := context.Background()

	stop := make(chan struct{})
	cleanerDone := make(chan struct{})
	go func() {
		defer close(cleanerDone)
		for {
			select {
			case <-stop:
				return
			default:
				l.CleanupIdle()
			}
		}
	}()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(ctx, "+5521999999999") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(stop)
	<-cleanerDone

	assert.Equal(t, 3, allowed)
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/observability"
	"go.uber.org/zap"
)

// RateLimiter implements a token bucket rate limiter
type RateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
}

// NewRateLimiter creates a full bucket that regains one token per refillRate
func NewRateLimiter(maxTokens int, refillRate time.Duration, now time.Time) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: now,
	}
}

// Allow takes one token if available
func (rl *RateLimiter) Allow(now time.Time) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.refill(now)
	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) refill(now time.Time) {
	if rl.refillRate <= 0 {
		rl.tokens = rl.maxTokens
		return
	}
	tokensToAdd := int(now.Sub(rl.lastRefill) / rl.refillRate)
	if tokensToAdd <= 0 {
		return
	}
	rl.tokens += tokensToAdd
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = rl.lastRefill.Add(time.Duration(tokensToAdd) * rl.refillRate)
}

// refund returns a token taken by Allow
func (rl *RateLimiter) refund() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	if rl.tokens < rl.maxTokens {
		rl.tokens++
	}
}

// full reports whether the bucket has refilled completely at now
func (rl *RateLimiter) full(now time.Time) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.refill(now)
	return rl.tokens >= rl.maxTokens
}

// GetStatus returns the current and maximum token counts
func (rl *RateLimiter) GetStatus() (int, int) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return rl.tokens, rl.maxTokens
}

// IssueRateLimiter bounds how many verification codes a single phone number
// can request within a window, plus a global ceiling across all numbers.
type IssueRateLimiter struct {
	perAddress int
	window     time.Duration
	global     *RateLimiter
	buckets    map[string]*RateLimiter
	mutex      sync.Mutex
	logger     *logging.SafeLogger
	now        func() time.Time
}

// NewIssueRateLimiter allows perAddress issues per window for each phone and
// globalPerMinute issues per minute overall. A non-positive globalPerMinute
// disables the global ceiling.
func NewIssueRateLimiter(perAddress int, window time.Duration, globalPerMinute int, logger *logging.SafeLogger) *IssueRateLimiter {
	if perAddress <= 0 {
		perAddress = 1
	}
	l := &IssueRateLimiter{
		perAddress: perAddress,
		window:     window,
		buckets:    make(map[string]*RateLimiter),
		logger:     logger,
		now:        time.Now,
	}
	if globalPerMinute > 0 {
		l.global = NewRateLimiter(globalPerMinute, time.Minute/time.Duration(globalPerMinute), l.now())
	}
	return l
}

// Allow reports whether a code may be issued to address now. A request the
// global ceiling rejects does not cost the address a token.
func (l *IssueRateLimiter) Allow(ctx context.Context, address string) bool {
	now := l.now()

	scope := l.take(address, now)
	if scope == "" {
		return true
	}

	observability.VerificationCodesIssued.WithLabelValues("rate_limited").Inc()
	if scope == "address" {
		l.logger.Warn("verification issue rate limited",
			zap.String("phone", observability.MaskPhone(address)),
			zap.String("scope", scope))
	} else {
		l.logger.Warn("verification issue rate limited", zap.String("scope", scope))
	}
	return false
}

// take consumes a token from the address bucket and the global bucket under
// l.mutex, so CleanupIdle never drops a bucket mid-request. It returns the
// rejecting scope, or "" when both allowed.
func (l *IssueRateLimiter) take(address string, now time.Time) string {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	bucket, ok := l.buckets[address]
	if !ok {
		bucket = NewRateLimiter(l.perAddress, l.window/time.Duration(l.perAddress), now)
		l.buckets[address] = bucket
	}
	if !bucket.Allow(now) {
		return "address"
	}
	if l.global != nil && !l.global.Allow(now) {
		bucket.refund()
		return "global"
	}
	return ""
}

// CleanupIdle drops buckets that have fully refilled and returns how many
// were removed.
func (l *IssueRateLimiter) CleanupIdle() int {
	now := l.now()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	removed := 0
	for address, bucket := range l.buckets {
		if bucket.full(now) {
			delete(l.buckets, address)
			removed++
		}
	}
	if removed > 0 {
		l.logger.Debug("cleaned up idle rate limit buckets", zap.Int("removed", removed))
	}
	return removed
}

// Size returns the number of tracked addresses
func (l *IssueRateLimiter) Size() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.buckets)
}

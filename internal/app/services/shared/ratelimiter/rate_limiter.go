package ratelimiter

import (
	"math"
	"strings"
	"sync"
	"time"
)

// FixedWindowLimiter counts requests per key in process memory. Each key's
// window starts at its first request and counters reset when it closes.
// Counters are lost on restart.
type FixedWindowLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	maxQuota  int
	window    time.Duration
	lastPrune time.Time
	clock     func() time.Time
}

type bucket struct {
	windowStart time.Time
	count       int
}

// ApplyLimiterInput configures limiter evaluation.
type ApplyLimiterInput struct {
	// Key identifies the client, usually its address.
	Key string
	// NowUTC is optional; the limiter clock is used when zero.
	NowUTC time.Time
}

// ApplyLimiterOutput reports allowance and retry-after seconds.
type ApplyLimiterOutput struct {
	Allowed        bool
	Remaining      int
	RetryAfterSecs int
}

func NewFixedWindowLimiter(maxQuota int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		buckets:  make(map[string]*bucket),
		maxQuota: maxQuota,
		window:   window,
		clock:    time.Now,
	}
}

// WithClock replaces the limiter clock, used by tests.
func (l *FixedWindowLimiter) WithClock(clock func() time.Time) *FixedWindowLimiter {
	l.clock = clock
	return l
}

func (l *FixedWindowLimiter) Apply(in *ApplyLimiterInput) *ApplyLimiterOutput {
	if l.maxQuota <= 0 {
		return &ApplyLimiterOutput{Allowed: true}
	}

	key := strings.ToLower(strings.TrimSpace(in.Key))
	now := in.NowUTC
	if now.IsZero() {
		now = l.clock()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.windowStart.Add(l.window)) {
		b = &bucket{windowStart: now}
		l.buckets[key] = b
	}

	if b.count >= l.maxQuota {
		windowEnd := b.windowStart.Add(l.window)
		retryAfter := int(math.Ceil(windowEnd.Sub(now).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &ApplyLimiterOutput{Allowed: false, RetryAfterSecs: retryAfter}
	}

	b.count++
	return &ApplyLimiterOutput{Allowed: true, Remaining: l.maxQuota - b.count}
}

// pruneLocked drops closed windows at most once per window length.
func (l *FixedWindowLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	for key, b := range l.buckets {
		if !now.Before(b.windowStart.Add(l.window)) {
			delete(l.buckets, key)
		}
	}
	l.lastPrune = now
}

func (l *FixedWindowLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Package budget tracks daily LLM token usage and caps the number of
// in-flight LLM calls across the process.
package budget

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Tracker is a mutex-protected daily token counter with date-rollover
// reset and warn/exceeded callbacks, plus the process-wide in-flight
// call limiter named by LLM_MAX_INFLIGHT.
type Tracker struct {
	mu         sync.Mutex
	dailyLimit int
	warnAt     float64
	tokens     int
	lastReset  time.Time
	warnSent   bool
	onWarn     func(used, limit int)
	onExceeded func(used, limit int)

	inflight *semaphore.Weighted
}

type Config struct {
	DailyLimit  int
	WarnAt      float64
	MaxInflight int
}

func NewTracker(cfg Config, onWarn, onExceeded func(used, limit int)) *Tracker {
	maxInflight := cfg.MaxInflight
	if maxInflight <= 0 {
		maxInflight = 16
	}
	return &Tracker{
		dailyLimit: cfg.DailyLimit,
		warnAt:     cfg.WarnAt,
		lastReset:  time.Now().UTC(),
		onWarn:     onWarn,
		onExceeded: onExceeded,
		inflight:   semaphore.NewWeighted(int64(maxInflight)),
	}
}

// Acquire blocks until an in-flight call slot is free or ctx is done.
func (t *Tracker) Acquire(ctx context.Context) error {
	return t.inflight.Acquire(ctx, 1)
}

func (t *Tracker) Release() {
	t.inflight.Release(1)
}

// Record adds tokens to today's count. Returns false once the daily
// limit (if any) has been reached; Wrap ignores the result and instead
// declines every later call as UPSTREAM by checking Usage first.
func (t *Tracker) Record(tokens int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()
	if t.dailyLimit <= 0 {
		t.tokens += tokens
		return true
	}

	t.tokens += tokens
	if t.tokens >= t.dailyLimit {
		if t.onExceeded != nil {
			t.onExceeded(t.tokens, t.dailyLimit)
		}
		return false
	}

	if !t.warnSent && float64(t.tokens) >= float64(t.dailyLimit)*t.warnAt {
		t.warnSent = true
		if t.onWarn != nil {
			t.onWarn(t.tokens, t.dailyLimit)
		}
	}
	return true
}

func (t *Tracker) Usage() (used, limit int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()
	return t.tokens, t.dailyLimit
}

// must hold lock
func (t *Tracker) checkReset() {
	now := time.Now().UTC()
	if now.YearDay() != t.lastReset.YearDay() || now.Year() != t.lastReset.Year() {
		t.tokens = 0
		t.warnSent = false
		t.lastReset = now
	}
}

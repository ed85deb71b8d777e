package bots

import (
	"errors"
	"sync"
	"time"
)

// ErrQuotaExceeded is returned instead of calling a remote pilot that has used up its request window.
var ErrQuotaExceeded = errors.New("pilot request quota exceeded")

// Quota enforces a maximum number of remote pilot requests within a sliding window.
type Quota struct {
	window time.Duration
	limit  int
	now    func() time.Time

	mu       sync.Mutex
	requests []time.Time
}

// NewQuota allows up to limit requests per window. A non-positive limit or window disables the quota.
func NewQuota(window time.Duration, limit int, timeSource func() time.Time) *Quota {
	if timeSource == nil {
		timeSource = time.Now
	}
	return &Quota{window: window, limit: limit, now: timeSource}
}

// Allow reports whether another request fits in the current window and records it when it does.
func (q *Quota) Allow() bool {
	if q == nil || q.limit <= 0 || q.window <= 0 {
		return true
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	cutoff := now.Add(-q.window)
	//1.- Drop requests that slid out of the window before counting.
	kept := q.requests[:0]
	for _, ts := range q.requests {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	q.requests = kept
	if len(q.requests) >= q.limit {
		return false
	}
	q.requests = append(q.requests, now)
	return true
}

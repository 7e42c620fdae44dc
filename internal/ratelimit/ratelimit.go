package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Limiter is a fixed-window counter keyed by string, used to pace calls to
// the upstream LLM API. It is advisory only: state lives in this process and
// is lost on restart, and a multi-process deployment would under-count. The
// upstream API remains the authoritative limiter.
//
// Construct one in the composition root and inject it; there is no package
// level instance.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	length  time.Duration
	now     func() time.Time
}

type window struct {
	count int
	reset time.Time
}

type Result struct {
	Allowed    bool
	RetryAfter int // seconds until reset, set when denied
}

type Status struct {
	Remaining int
	Reset     time.Time
}

func New(maxRequests int, windowLength time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		max:     maxRequests,
		length:  windowLength,
		now:     time.Now,
	}
}

// Check consumes one slot for key. A fresh or expired window restarts with
// count=1 and allows; an active window under capacity increments and allows;
// a full window denies with the seconds remaining until reset.
func (l *Limiter) Check(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.reset) {
		l.windows[key] = &window{count: 1, reset: now.Add(l.length)}
		return Result{Allowed: true}
	}

	if w.count >= l.max {
		retryAfter := int(math.Ceil(w.reset.Sub(now).Seconds()))
		return Result{Allowed: false, RetryAfter: retryAfter}
	}

	w.count++
	return Result{Allowed: true}
}

// Status reports remaining quota without consuming a slot.
func (l *Limiter) Status(key string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.reset) {
		return Status{Remaining: l.max, Reset: now.Add(l.length)}
	}
	remaining := l.max - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Status{Remaining: remaining, Reset: w.reset}
}

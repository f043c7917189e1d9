// internal/scraper/waiter.go
package scraper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// WaitState is the terminal state of one content wait.
type WaitState int

const (
	// Waiting is the transient state while the predicate is still false.
	Waiting WaitState = iota
	// Ready means the predicate became true before the deadline.
	Ready
	// TimedOut means the deadline elapsed with the predicate still false.
	TimedOut
)

// String returns the state name for logging.
func (s WaitState) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Ready:
		return "ready"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Waiter polls a readiness predicate with capped exponential backoff until
// it holds or a deadline passes. Pages on the target site render content
// asynchronously with no completion event, so polling replaces both fixed
// sleeps and load-state events.
type Waiter struct {
	PollInterval time.Duration
	MaxInterval  time.Duration
	Timeout      time.Duration

	logger *logrus.Entry
	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewWaiter creates a waiter with the given bounds. Zero values fall back
// to defaults of 250ms poll, 2s ceiling, 5s deadline.
func NewWaiter(poll, max, timeout time.Duration, logger *logrus.Entry) *Waiter {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	if max <= 0 {
		max = 2 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Waiter{
		PollInterval: poll,
		MaxInterval:  max,
		Timeout:      timeout,
		logger:       logger,
		sleep:        time.Sleep,
	}
}

// Wait evaluates the predicate until it returns true (Ready) or the
// deadline elapses (TimedOut). The predicate must be cheap and idempotent;
// it runs once per poll. A timeout is logged but left to the caller to
// classify, since an unready page is non-fatal to the run.
func (w *Waiter) Wait(ctx context.Context, predicate func(context.Context) bool) WaitState {
	deadline := time.Now().Add(w.Timeout)
	interval := w.PollInterval
	for {
		if predicate(ctx) {
			return Ready
		}
		if ctx.Err() != nil || !time.Now().Add(interval).Before(deadline) {
			w.logger.WithField("timeout", w.Timeout).Warn("timed out waiting for page content")
			return TimedOut
		}
		w.sleep(interval)
		interval *= 2
		if interval > w.MaxInterval {
			interval = w.MaxInterval
		}
	}
}

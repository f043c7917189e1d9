// internal/scraper/retry.go
package scraper

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Retryer wraps fallible browser interactions in bounded retries with
// exponential backoff. Exhausted retries surface as a terminal log line and
// an absent result, never as an error to the caller: transient rendering
// and network hiccups degrade the run instead of aborting it.
type Retryer struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// OnRetry, when set, is called once per failed attempt. Used for
	// metrics.
	OnRetry func(description string)

	logger *logrus.Entry
	sleep  func(time.Duration)
}

// NewRetryer creates a retryer. Defaults: 3 attempts, 1s base delay.
func NewRetryer(maxAttempts int, baseDelay time.Duration, logger *logrus.Entry) *Retryer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Retryer{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		logger:      logger,
		sleep:       time.Sleep,
	}
}

// Do runs the action until it succeeds or the attempt budget is spent.
// Returns false when the budget is exhausted.
func (r *Retryer) Do(description string, action func() error) bool {
	_, ok := retryValue(r, description, func() (struct{}, error) {
		return struct{}{}, action()
	})
	return ok
}

// RetryValue runs a value-returning action under the retryer's policy. The
// bool result reports whether a value was obtained.
func RetryValue[T any](r *Retryer, description string, action func() (T, error)) (T, bool) {
	return retryValue(r, description, action)
}

func retryValue[T any](r *Retryer, description string, action func() (T, error)) (T, bool) {
	var zero T
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		result, err := action()
		if err == nil {
			return result, true
		}
		r.logger.WithFields(logrus.Fields{
			"action":  description,
			"attempt": attempt,
		}).Warnf("attempt failed: %v", err)
		if r.OnRetry != nil {
			r.OnRetry(description)
		}
		if attempt < r.MaxAttempts {
			r.sleep(r.BaseDelay << uint(attempt))
		}
	}
	r.logger.WithFields(logrus.Fields{
		"action":   description,
		"attempts": r.MaxAttempts,
	}).Error("giving up after exhausting retries")
	return zero, false
}

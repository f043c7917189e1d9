// internal/scraper/retry_test.go
package scraper

import (
	"errors"
	"testing"
	"time"
)

func TestRetryerSucceedsFirstAttempt(t *testing.T) {
	r := NewRetryer(3, time.Millisecond, nil)
	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }

	calls := 0
	ok := r.Do("noop", func() error {
		calls++
		return nil
	})

	if !ok {
		t.Fatal("Do returned false for a succeeding action")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(slept) != 0 {
		t.Errorf("slept %v, want no sleeps on first-attempt success", slept)
	}
}

func TestRetryerRecoversAfterFailures(t *testing.T) {
	r := NewRetryer(3, time.Millisecond, nil)
	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }

	calls := 0
	ok := r.Do("flaky", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if !ok {
		t.Fatal("Do returned false though the final attempt succeeded")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// Delay doubles per attempt.
	want := []time.Duration{2 * time.Millisecond, 4 * time.Millisecond}
	if len(slept) != len(want) {
		t.Fatalf("sleeps = %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestRetryerExhaustsBudget(t *testing.T) {
	r := NewRetryer(3, time.Millisecond, nil)
	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }

	retried := 0
	r.OnRetry = func(string) { retried++ }

	calls := 0
	ok := r.Do("doomed", func() error {
		calls++
		return errors.New("permanent")
	})

	if ok {
		t.Fatal("Do returned true for an always-failing action")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// No sleep after the final attempt.
	if len(slept) != 2 {
		t.Errorf("sleeps = %v, want 2 entries", slept)
	}
	if retried != 3 {
		t.Errorf("retry hook fired %d times, want one per failed attempt", retried)
	}
}

func TestRetryValue(t *testing.T) {
	r := NewRetryer(2, time.Millisecond, nil)
	r.sleep = func(time.Duration) {}

	calls := 0
	got, ok := RetryValue(r, "fetch", func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "payload", nil
	})
	if !ok || got != "payload" {
		t.Errorf("RetryValue = (%q, %v), want (payload, true)", got, ok)
	}

	zero, ok := RetryValue(r, "doomed", func() (int, error) {
		return 41, errors.New("permanent")
	})
	if ok || zero != 0 {
		t.Errorf("RetryValue = (%d, %v), want zero value and false", zero, ok)
	}
}

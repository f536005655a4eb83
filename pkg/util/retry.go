package util

import (
	"context"
	"time"
)

// RetryConfig controls Retry: attempt budget and the sleep taken before each
// re-attempt. Backoff receives the number of attempts already failed (1 before
// the second attempt, 2 before the third, ...).
type RetryConfig struct {
	Attempts int
	Backoff  func(failed int) time.Duration
	Sleep    func(d time.Duration) // test hook; defaults to time.Sleep
}

// LinearBackoff returns a backoff of base × failed × scale.
func LinearBackoff(base time.Duration, scale float64) func(int) time.Duration {
	return func(failed int) time.Duration {
		return time.Duration(float64(base) * float64(failed) * scale)
	}
}

// Retry runs op up to cfg.Attempts times, sleeping cfg.Backoff between
// attempts, until op returns nil. Returns the last error when the budget is
// exhausted, or ctx.Err() if the context is cancelled during a backoff sleep.
// op receives the 1-based attempt number.
func Retry(ctx context.Context, cfg RetryConfig, op func(attempt int) error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var last error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if attempt > 1 && cfg.Backoff != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			sleep(cfg.Backoff(attempt - 1))
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if last = op(attempt); last == nil {
			return nil
		}
	}
	return last
}

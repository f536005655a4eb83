package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{Attempts: 3}, func(attempt int) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

func TestRetry_ExhaustsBudget(t *testing.T) {
	failure := errors.New("mismatch")
	calls := 0
	var slept []time.Duration

	err := Retry(context.Background(), RetryConfig{
		Attempts: 3,
		Backoff:  LinearBackoff(10*time.Second, 2),
		Sleep:    func(d time.Duration) { slept = append(slept, d) },
	}, func(attempt int) error {
		calls++
		if attempt != calls {
			t.Errorf("attempt = %d, want %d", attempt, calls)
		}
		return failure
	})

	if !errors.Is(err, failure) {
		t.Fatalf("Retry() = %v, want last op error", err)
	}
	if calls != 3 {
		t.Errorf("op called %d times, want exactly 3", calls)
	}
	// 10s × failed × scale(2): 20s before attempt 2, 40s before attempt 3.
	want := []time.Duration{20 * time.Second, 40 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %d times, want %d", len(slept), len(want))
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestRetry_RecoversOnLaterAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{
		Attempts: 3,
		Backoff:  LinearBackoff(time.Second, 1),
		Sleep:    func(time.Duration) {},
	}, func(attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() = %v, want nil", err)
	}
	if calls != 2 {
		t.Errorf("op called %d times, want 2", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, RetryConfig{Attempts: 3}, func(int) error {
		t.Error("op should not run with cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() = %v, want context.Canceled", err)
	}
}

//go:build integration

package lock

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/portwalk-net/portwalk/pkg/util"
)

// Requires a reachable Redis; set PORTWALK_TEST_REDIS to its address.
func testLocker(t *testing.T) *Locker {
	t.Helper()
	addr := os.Getenv("PORTWALK_TEST_REDIS")
	if addr == "" {
		t.Skip("PORTWALK_TEST_REDIS not set")
	}
	l, err := New(context.Background(), addr)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLocker_AcquireRelease(t *testing.T) {
	l := testLocker(t)
	ctx := context.Background()
	host := "test-10.0.0.2"

	if err := l.Acquire(ctx, host, "alice"); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	defer l.Release(ctx, host, "alice")

	holder, acquired, err := l.Holder(ctx, host)
	if err != nil {
		t.Fatalf("Holder() error: %v", err)
	}
	if holder != "alice" || acquired.IsZero() {
		t.Errorf("Holder() = %q at %v", holder, acquired)
	}

	// Second acquirer must be refused.
	err = l.Acquire(ctx, host, "bob")
	if !errors.Is(err, util.ErrDeviceLocked) {
		t.Errorf("second Acquire() error = %v, want ErrDeviceLocked", err)
	}

	// Bob cannot release Alice's lock.
	if err := l.Release(ctx, host, "bob"); err == nil {
		t.Error("Release() by non-holder succeeded")
	}

	if err := l.Release(ctx, host, "alice"); err != nil {
		t.Errorf("Release() error: %v", err)
	}
	if holder, _, _ := l.Holder(ctx, host); holder != "" {
		t.Errorf("lock still held by %q after release", holder)
	}
}

func TestLocker_ReleaseMissing(t *testing.T) {
	l := testLocker(t)
	if err := l.Release(context.Background(), "test-never-locked", "alice"); err != nil {
		t.Errorf("Release() of missing lock error: %v, want nil", err)
	}
}

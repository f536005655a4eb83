// Package lock provides advisory per-device operator locks backed by Redis.
// Two operators reconfiguring the same switch at once is how ports end up in
// undefined states; the lock makes the collision visible before any config is
// pushed. Locking is optional: sites without a Redis endpoint run without it.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/portwalk-net/portwalk/pkg/util"
)

// acquireScript takes the lock atomically: fails when the key exists, records
// holder and acquisition time otherwise.
var acquireScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 1 then
	return 0
end
redis.call("HSET", key, "holder", ARGV[1], "acquired", ARGV[2], "ttl", ARGV[3])
redis.call("EXPIRE", key, tonumber(ARGV[3]))
return 1
`)

// releaseScript releases only the caller's own lock.
// Returns 1 on success, 0 on holder mismatch, -1 when no lock exists.
var releaseScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 0 then
	return -1
end
local current = redis.call("HGET", key, "holder")
if current ~= ARGV[1] then
	return 0
end
redis.call("DEL", key)
return 1
`)

// DefaultTTL bounds how long a crashed run can keep a device locked.
const DefaultTTL = 15 * time.Minute

// Locker manages per-device locks.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the Redis endpoint and verifies it is reachable.
func New(ctx context.Context, addr string) (*Locker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("lock redis %s: %w", addr, err)
	}
	return &Locker{client: client, ttl: DefaultTTL}, nil
}

func key(host string) string {
	return "PORTWALK_LOCK|" + host
}

// Acquire takes the lock on host for holder. Returns util.ErrDeviceLocked
// when someone else already holds it.
func (l *Locker) Acquire(ctx context.Context, host, holder string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	ttl := fmt.Sprintf("%d", int(l.ttl.Seconds()))

	result, err := acquireScript.Run(ctx, l.client, []string{key(host)}, holder, now, ttl).Int()
	if err != nil {
		return fmt.Errorf("acquiring lock for %s: %w", host, err)
	}
	if result == 0 {
		current, acquired, _ := l.Holder(ctx, host)
		return fmt.Errorf("%w: %s holds %s since %s",
			util.ErrDeviceLocked, current, host, acquired.Format(time.RFC3339))
	}
	return nil
}

// Release drops holder's lock on host. A missing lock is not an error; an
// expired lock may have been taken over, and releasing someone else's is.
func (l *Locker) Release(ctx context.Context, host, holder string) error {
	result, err := releaseScript.Run(ctx, l.client, []string{key(host)}, holder).Int()
	if err != nil {
		return fmt.Errorf("releasing lock for %s: %w", host, err)
	}
	if result == 0 {
		return fmt.Errorf("lock holder mismatch for %s", host)
	}
	return nil
}

// Holder reports who holds the lock on host and since when. Empty holder
// means unlocked.
func (l *Locker) Holder(ctx context.Context, host string) (string, time.Time, error) {
	vals, err := l.client.HGetAll(ctx, key(host)).Result()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("reading lock for %s: %w", host, err)
	}
	if len(vals) == 0 {
		return "", time.Time{}, nil
	}

	acquired := time.Time{}
	if ts, ok := vals["acquired"]; ok {
		acquired, _ = time.Parse(time.RFC3339, ts)
	}
	return vals["holder"], acquired, nil
}

// Close releases the Redis connection.
func (l *Locker) Close() error {
	return l.client.Close()
}

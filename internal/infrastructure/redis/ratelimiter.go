package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Decision is the outcome of one counted hit.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Count      int
	RetryAfter time.Duration
	ResetAt    time.Time
}

func allowAll(limit int) Decision {
	return Decision{Allowed: true, Limit: limit, Remaining: limit}
}

// The first hit in a window starts its expiry; replies {count, pttl_ms}.
var incrWindow = goredis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// FixedWindowLimiter counts hits per key in Redis so all replicas share one budget.
type FixedWindowLimiter struct {
	rdb *goredis.Client
}

// NewFixedWindowLimiter with a nil client gives a limiter that allows everything.
func NewFixedWindowLimiter(c *Client) *FixedWindowLimiter {
	l := &FixedWindowLimiter{}
	if c != nil {
		l.rdb = c.rdb
	}
	return l
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 || l.rdb == nil {
		return allowAll(limit), nil
	}
	if window < time.Millisecond {
		window = time.Minute
	}

	reply, err := incrWindow.Run(ctx, l.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit %s: %w", key, err)
	}
	if len(reply) != 2 {
		return Decision{}, fmt.Errorf("ratelimit %s: want 2 values, got %d", key, len(reply))
	}

	count := int(reply[0])
	ttl := time.Duration(reply[1]) * time.Millisecond
	if ttl <= 0 {
		ttl = window
	}

	d := Decision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(0, limit-count),
		Count:     count,
		ResetAt:   time.Now().Add(ttl),
	}
	if !d.Allowed {
		d.RetryAfter = ttl
	}
	return d, nil
}

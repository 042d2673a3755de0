package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter keeps the counters in Redis. It fails open: when Redis cannot
// answer within the timeout the request is let through.
type RedisLimiter struct {
	client  redis.Scripter
	script  *redis.Script
	prefix  string
	timeout time.Duration
}

func NewRedisLimiter(client redis.Scripter, prefix string, timeout time.Duration) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{
		client:  client,
		script:  redis.NewScript(rateLimitScript),
		prefix:  prefix,
		timeout: timeout,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil {
		return true
	}
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}

	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, ttl, limit).Int64()
	if err != nil {
		slog.Warn("rate limiter unavailable, letting request through", "error", err)
		return true
	}
	return allowed == 1
}

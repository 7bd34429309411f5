package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// INCR + PEXPIRE en el primer hit de la ventana; devuelve {contador, ttl ms}.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisLimiter ventana fija compartida entre réplicas. Si Redis falla y hay Fallback,
// la decisión la toma el limitador en proceso.
type RedisLimiter struct {
	Client   redis.Scripter
	Prefix   string
	Timeout  time.Duration
	Fallback Limiter
}

// NewRedis limitador sobre client con respaldo en memoria.
func NewRedis(client redis.Scripter) *RedisLimiter {
	return &RedisLimiter{
		Client:   client,
		Prefix:   "rl:",
		Timeout:  2 * time.Second,
		Fallback: NewInMemory(),
	}
}

// Allow consume un hit de la ventana actual.
func (l *RedisLimiter) Allow(ctx context.Context, rule Rule, key string) (Decision, error) {
	rule = normalize(rule)
	if l.Client == nil {
		return l.fallback(ctx, rule, key, fmt.Errorf("ratelimit: cliente redis no configurado"))
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	redisKey := l.Prefix + rule.Name + ":" + key
	res, err := fixedWindowScript.Run(ctx, l.Client, []string{redisKey}, rule.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return l.fallback(ctx, rule, key, fmt.Errorf("ratelimit: redis: %w", err))
	}
	if len(res) < 2 {
		return l.fallback(ctx, rule, key, fmt.Errorf("ratelimit: respuesta inesperada %v", res))
	}

	count, ttlMs := res[0], res[1]
	if ttlMs < 0 {
		ttlMs = rule.Window.Milliseconds()
	}
	remaining := int64(rule.Limit) - count
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{Allowed: count <= int64(rule.Limit), Remaining: int(remaining)}
	if !d.Allowed {
		d.RetryAfter = time.Duration(ttlMs) * time.Millisecond
	}
	return d, nil
}

func (l *RedisLimiter) fallback(ctx context.Context, rule Rule, key string, cause error) (Decision, error) {
	if l.Fallback != nil {
		return l.Fallback.Allow(ctx, rule, key)
	}
	return Decision{}, cause
}

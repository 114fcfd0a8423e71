package ratelimit

import (
	"context"
	"errors"
	"time"

	"forumhub/auth-server/internal/domain/oauth"

	"github.com/redis/go-redis/v9"
)

type redisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

var redisAllowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

func NewRedisLimiter(addr, password string, db int, now func() time.Time) (oauth.RateLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if now == nil {
		now = time.Now
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisLimiter{client: client, now: now}, nil
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (oauth.RateLimitDecision, error) {
	if limit <= 0 {
		return oauth.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}
	result, err := redisAllowScript.Run(ctx, r.client, []string{key}, windowMillis).Result()
	if err != nil {
		return oauth.RateLimitDecision{}, err
	}
	current, ttlMillis, err := parseAllowReply(result)
	if err != nil {
		return oauth.RateLimitDecision{}, err
	}
	return r.decide(current, ttlMillis, limit), nil
}

func parseAllowReply(result any) (current, ttlMillis int64, err error) {
	values, ok := result.([]any)
	if !ok || len(values) < 2 {
		return 0, 0, errors.New("unexpected redis rate limit response")
	}
	current, ok = values[0].(int64)
	if !ok {
		return 0, 0, errors.New("invalid redis counter response")
	}
	ttlMillis, _ = values[1].(int64)
	return current, ttlMillis, nil
}

// decide builds the decision from the script's counter and the key's
// remaining TTL. RetryAfter comes from redis's own PTTL rather than a
// local clock, so it stays correct across limiter replicas.
func (r *redisLimiter) decide(current, ttlMillis int64, limit int) oauth.RateLimitDecision {
	left := time.Duration(ttlMillis) * time.Millisecond
	if left < 0 {
		left = 0
	}
	remaining := limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return oauth.RateLimitDecision{
		Allowed:    current <= int64(limit),
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    r.now().Add(left),
		RetryAfter: left,
	}
}

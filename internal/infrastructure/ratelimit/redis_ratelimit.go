// Package ratelimit provides distributed rate limiting backed by Redis.
// A Lua script keeps the sliding-window bookkeeping atomic so counting stays
// accurate across multiple gateway instances.
package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/openwx/weather-gateway/internal/core/ports"
)

// slidingWindowScript drops expired entries, counts the rest, and admits the
// request only while the window has room. Runs atomically inside Redis.
const slidingWindowScript = `
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

	local current = redis.call('ZCARD', key)

	if current < limit then
		redis.call('ZADD', key, now, now)
		redis.call('EXPIRE', key, window)
		return 1
	end

	return 0
`

// RedisRateLimiter implements ports.RateLimitService on a shared Redis.
type RedisRateLimiter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRateLimiter creates a Redis-backed sliding-window limiter.
//
// Parameters:
//   - client: Redis client holding the distributed window state
//   - logger: Zap logger for limiter events
//
// Returns:
//   - ports.RateLimitService: Redis limiter implementation
func NewRedisRateLimiter(client *redis.Client, logger *zap.Logger) ports.RateLimitService {
	return &RedisRateLimiter{
		client: client,
		logger: logger,
	}
}

// Allow checks whether a request from the identifier fits in the window.
//
// Parameters:
//   - ctx: context for cancellation and tracing
//   - identifier: client identifier (API key or IP address)
//   - limit: maximum requests allowed in the window
//   - window: length of the sliding window
//
// Returns:
//   - bool: true if the request is allowed
//   - error: Redis error when the script cannot run
func (r *RedisRateLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	tracer := otel.Tracer("ratelimit")
	ctx, span := tracer.Start(ctx, "RateLimit.Allow")

	defer span.End()

	span.SetAttributes(
		attribute.String("ratelimit.identifier", identifier),
		attribute.Int("ratelimit.limit", limit),
		attribute.String("ratelimit.window", window.String()),
	)

	key := "ratelimit:" + identifier
	now := time.Now().Unix()

	result, err := r.client.Eval(ctx, slidingWindowScript, []string{key}, limit, int(window.Seconds()), now).Result()

	if err != nil {
		span.RecordError(err)

		r.logger.Error("rate limit eval error",
			zap.String("identifier", identifier),
			zap.Error(err))

		return false, err
	}

	allowed := result.(int64) == 1
	span.SetAttributes(attribute.Bool("ratelimit.allowed", allowed))

	if !allowed {
		r.logger.Debug("rate limit exceeded",
			zap.String("identifier", identifier),
			zap.Int("limit", limit))
	}

	return allowed, nil
}

// Reset clears the rate limit history for an identifier.
func (r *RedisRateLimiter) Reset(ctx context.Context, identifier string) error {
	tracer := otel.Tracer("ratelimit")
	ctx, span := tracer.Start(ctx, "RateLimit.Reset")

	defer span.End()

	span.SetAttributes(attribute.String("ratelimit.identifier", identifier))

	err := r.client.Del(ctx, "ratelimit:"+identifier).Err()

	if err != nil {
		span.RecordError(err)

		r.logger.Error("rate limit reset error",
			zap.String("identifier", identifier),
			zap.Error(err))

		return err
	}

	return nil
}

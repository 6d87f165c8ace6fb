package middleware

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/openwx/weather-gateway/internal/core/ports"
)

// MemoryRateLimiter is the in-process fallback limiter used when Redis is
// disabled or unreachable. Per-client windows live in a go-cache store whose
// janitor evicts idle clients, so the limiter cannot grow without bound.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	clients *gocache.Cache
	logger  *zap.Logger
}

// clientWindow tracks request timestamps for a single client.
type clientWindow struct {
	mu       sync.Mutex
	requests []time.Time
}

// NewMemoryRateLimiter creates an in-memory sliding-window rate limiter.
//
// Parameters:
//   - idleTTL: how long an inactive client's window is retained
//   - logger: Zap logger for limiter operations
//
// Returns:
//   - ports.RateLimitService: in-memory limiter implementation
func NewMemoryRateLimiter(idleTTL time.Duration, logger *zap.Logger) ports.RateLimitService {
	return &MemoryRateLimiter{
		clients: gocache.New(idleTTL, 2*idleTTL),
		logger:  logger,
	}
}

// Allow checks whether a request from the identifier fits in the window.
//
// Parameters:
//   - ctx: context for cancellation
//   - identifier: client identifier (API key or IP address)
//   - limit: maximum requests allowed in the window
//   - window: length of the sliding window
//
// Returns:
//   - bool: true if the request is allowed
//   - error: the context error when canceled, nil otherwise
func (rl *MemoryRateLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	client := rl.window(identifier)

	client.mu.Lock()
	defer client.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)
	live := client.requests[:0]

	for _, ts := range client.requests {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}

	client.requests = live

	if len(client.requests) >= limit {
		return false, nil
	}

	client.requests = append(client.requests, now)

	return true, nil
}

// Reset clears the rate limit history for an identifier.
func (rl *MemoryRateLimiter) Reset(ctx context.Context, identifier string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.clients.Delete(identifier)

	return nil
}

// window fetches or creates the identifier's window, refreshing its idle TTL.
func (rl *MemoryRateLimiter) window(identifier string) *clientWindow {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cached, found := rl.clients.Get(identifier); found {
		client := cached.(*clientWindow)
		rl.clients.SetDefault(identifier, client)

		return client
	}

	client := &clientWindow{}
	rl.clients.SetDefault(identifier, client)

	return client
}

// Package circuitbreaker wraps Sony's GoBreaker with tracing, structured
// logging, and a small registry so callers can inspect breaker state.
package circuitbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Breaker protects a single upstream dependency against cascading failures.
type Breaker struct {
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	name    string
}

// Config defines breaker behavior and thresholds.
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	ReadyToTrip func(counts gobreaker.Counts) bool
}

// NewBreaker creates a circuit breaker with the given configuration.
// Without a ReadyToTrip function the breaker opens once at least three
// requests have been seen and half of them failed.
func NewBreaker(cfg Config, logger *zap.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= 0.5
		}
	}

	return &Breaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		name:    cfg.Name,
	}
}

// Execute runs fn inside the breaker.
//
// Parameters:
//   - ctx: context for tracing
//   - operation: operation name for logging
//   - fn: function to protect
//
// Returns:
//   - error: fn's error, or gobreaker.ErrOpenState / ErrTooManyRequests
func (b *Breaker) Execute(ctx context.Context, operation string, fn func() error) error {
	tracer := otel.Tracer("circuit-breaker")
	_, span := tracer.Start(ctx, "CircuitBreaker.Execute")

	defer span.End()

	span.SetAttributes(
		attribute.String("circuit_breaker.name", b.name),
		attribute.String("circuit_breaker.operation", operation),
		attribute.String("circuit_breaker.state", b.breaker.State().String()),
	)

	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	if err != nil {
		span.RecordError(err)

		b.logger.Warn("circuit breaker execution failed",
			zap.String("name", b.name),
			zap.String("operation", operation),
			zap.String("state", b.breaker.State().String()),
			zap.Error(err))
	}

	span.SetAttributes(attribute.Bool("circuit_breaker.success", err == nil))

	return err
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

// Counts returns the current breaker statistics.
func (b *Breaker) Counts() gobreaker.Counts {
	return b.breaker.Counts()
}

// Manager holds the breakers guarding each upstream dependency.
type Manager struct {
	breakers map[string]*Breaker
	logger   *zap.Logger
}

// NewManager creates an empty breaker registry.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		breakers: make(map[string]*Breaker),
		logger:   logger,
	}
}

// GetBreaker retrieves or creates a breaker by name. The config is ignored
// when the breaker already exists.
func (m *Manager) GetBreaker(name string, cfg Config) *Breaker {
	if breaker, exists := m.breakers[name]; exists {
		return breaker
	}

	cfg.Name = name
	breaker := NewBreaker(cfg, m.logger)
	m.breakers[name] = breaker

	return breaker
}

// GetStats returns statistics for every registered breaker, keyed by name.
func (m *Manager) GetStats() map[string]interface{} {
	stats := make(map[string]interface{})

	for name, breaker := range m.breakers {
		counts := breaker.Counts()
		stats[name] = map[string]interface{}{
			"state":                 breaker.State().String(),
			"requests":              counts.Requests,
			"total_successes":       counts.TotalSuccesses,
			"total_failures":        counts.TotalFailures,
			"consecutive_successes": counts.ConsecutiveSuccesses,
			"consecutive_failures":  counts.ConsecutiveFailures,
		}
	}

	return stats
}

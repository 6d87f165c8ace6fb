package ports

import (
	"context"
	"time"

	"github.com/openwx/weather-gateway/internal/core/domain"
)

// WeatherService is the use case boundary consumed by the HTTP endpoint.
// The returned error is non-nil only when the caller's context was canceled;
// every other failure is captured inside the OperationResult.
type WeatherService interface {
	CurrentWeather(ctx context.Context, query domain.WeatherQuery) (domain.OperationResult[domain.CurrentWeather], error)
}

// WeatherClient issues a single upstream call for the given query.
// Transport failures are synthesized into the UpstreamResult instead of being
// returned; the error is reserved for context cancellation.
type WeatherClient interface {
	CurrentWeather(ctx context.Context, query domain.WeatherQuery) (domain.UpstreamResult, error)
}

// ReportTranslator parses a raw provider body into a ProviderReport.
// Missing fields default; malformed JSON is a hard error.
type ReportTranslator interface {
	Translate(body []byte) (domain.ProviderReport, error)
}

// RateLimitService tracks request counts per client identifier.
type RateLimitService interface {
	Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, identifier string) error
}

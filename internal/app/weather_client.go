// Package app provides application-level coordination and dependency wiring.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/openwx/weather-gateway/internal/adapters/secondary/openweather"
	"github.com/openwx/weather-gateway/internal/core/domain"
	"github.com/openwx/weather-gateway/internal/infrastructure/circuitbreaker"
	"github.com/openwx/weather-gateway/internal/observability"
)

// errUpstreamUnavailable feeds provider 5xx responses into the breaker's
// failure count without discarding the result itself.
var errUpstreamUnavailable = errors.New("provider returned a server error")

// resilientWeatherClient wraps the provider client with circuit breaker
// protection and upstream latency metrics. A rejected call (breaker open)
// takes the same fail-soft path as a transport failure.
type resilientWeatherClient struct {
	client    *openweather.Client
	breaker   *circuitbreaker.Breaker
	telemetry *observability.Telemetry
}

func (c *resilientWeatherClient) CurrentWeather(ctx context.Context, query domain.WeatherQuery) (domain.UpstreamResult, error) {
	var (
		result  domain.UpstreamResult
		callErr error
	)

	start := time.Now()

	err := c.breaker.Execute(ctx, "current-weather", func() error {
		result, callErr = c.client.CurrentWeather(ctx, query)

		if callErr != nil {
			return callErr
		}

		if result.StatusCode >= http.StatusInternalServerError {
			return errUpstreamUnavailable
		}

		return nil
	})

	if callErr != nil {
		// Cancellation propagates untouched.
		return domain.UpstreamResult{}, callErr
	}

	if err != nil && !errors.Is(err, errUpstreamUnavailable) {
		// The breaker rejected the call before it was made.
		result = domain.UpstreamResult{
			StatusCode:   http.StatusInternalServerError,
			ReasonPhrase: err.Error(),
		}
	}

	if c.telemetry != nil {
		c.telemetry.RecordUpstreamCall(ctx, result.StatusCode, time.Since(start))
	}

	return result, nil
}

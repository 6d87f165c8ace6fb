// Package openweather implements a client for the OpenWeatherMap current
// weather API. This package serves as a secondary adapter, issuing the single
// upstream call per request and capturing transport failures into the result
// instead of propagating them.
package openweather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/openwx/weather-gateway/internal/core/domain"
)

// Client issues current-weather lookups against the provider.
// It shares one http.Client across requests so the outbound connection pool
// is reused.
type Client struct {
	// baseURL is the provider API base endpoint
	baseURL string

	// endpoint is the current-weather path under baseURL
	endpoint string

	// apiKey is the provider API key appended to every request
	apiKey string

	// httpClient handles HTTP communication with a bounded timeout
	httpClient *http.Client

	// logger records upstream interactions and failures
	logger *zap.Logger
}

// NewClient creates a provider client.
//
// Parameters:
//   - baseURL: provider base URL (typically https://api.openweathermap.org)
//   - endpoint: current-weather path (typically data/2.5/weather)
//   - apiKey: provider API key
//   - httpClient: shared HTTP client with timeout configuration
//   - logger: Zap logger for upstream interaction logging
//
// Returns:
//   - *Client: configured provider client
func NewClient(baseURL, endpoint, apiKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// CurrentWeather performs one GET against the provider with no retry.
//
// Parameters:
//   - ctx: context for cancellation; a canceled context is the only error path
//   - query: validated location query
//
// Returns:
//   - domain.UpstreamResult: provider status and body, or a synthesized 500
//     result carrying the transport error message as the reason phrase
//   - error: the context error when the caller canceled, nil otherwise
func (c *Client) CurrentWeather(ctx context.Context, query domain.WeatherQuery) (domain.UpstreamResult, error) {
	requestURL := fmt.Sprintf("%s/%s?q=%s&appid=%s",
		c.baseURL, c.endpoint, url.QueryEscape(query.Location()), url.QueryEscape(c.apiKey))

	c.logger.Info("requesting current weather from provider",
		zap.String("location", query.Location()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)

	if err != nil {
		return c.failSoft(err), nil
	}

	resp, err := c.httpClient.Do(req)

	if err != nil {
		if ctx.Err() != nil {
			return domain.UpstreamResult{}, ctx.Err()
		}

		return c.failSoft(err), nil
	}

	defer func(body io.ReadCloser) {
		if closeErr := body.Close(); closeErr != nil {
			c.logger.Error("failed to close provider response body", zap.Error(closeErr))
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)

	if err != nil {
		if ctx.Err() != nil {
			return domain.UpstreamResult{}, ctx.Err()
		}

		return c.failSoft(err), nil
	}

	c.logger.Info("provider response received",
		zap.String("location", query.Location()),
		zap.Int("status_code", resp.StatusCode))

	return domain.UpstreamResult{
		StatusCode:   resp.StatusCode,
		Body:         body,
		ReasonPhrase: http.StatusText(resp.StatusCode),
	}, nil
}

// failSoft converts a transport failure into an UpstreamResult so network
// errors never escape the client boundary.
func (c *Client) failSoft(err error) domain.UpstreamResult {
	c.logger.Error("provider request failed", zap.Error(err))

	return domain.UpstreamResult{
		StatusCode:   http.StatusInternalServerError,
		ReasonPhrase: err.Error(),
	}
}

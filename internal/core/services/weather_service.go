package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/openwx/weather-gateway/internal/core/domain"
	"github.com/openwx/weather-gateway/internal/core/ports"
)

type weatherService struct {
	client     ports.WeatherClient
	translator ports.ReportTranslator
	logger     *zap.Logger
}

// NewWeatherService creates the current-weather use case. It orchestrates one
// upstream call per invocation, applies the translator, and folds every
// failure into the returned OperationResult.
func NewWeatherService(client ports.WeatherClient, translator ports.ReportTranslator, logger *zap.Logger) ports.WeatherService {
	return &weatherService{
		client:     client,
		translator: translator,
		logger:     logger,
	}
}

// CurrentWeather runs the validate → fetch → translate pipeline.
// The error return is reserved for context cancellation; everything else,
// including panics below this boundary, becomes a failure result.
func (s *weatherService) CurrentWeather(ctx context.Context, query domain.WeatherQuery) (result domain.OperationResult[domain.CurrentWeather], err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("unexpected panic while getting current weather",
				zap.String("city", query.City),
				zap.Any("panic", r))

			result = domain.FailureResult[domain.CurrentWeather](http.StatusInternalServerError, fmt.Sprintf("%v", r))
			err = nil
		}
	}()

	// The endpoint validates first, but never assume a valid query here.
	if errs := query.Validate(); len(errs) > 0 {
		return domain.FailureResult[domain.CurrentWeather](http.StatusBadRequest, errs...), nil
	}

	upstream, err := s.client.CurrentWeather(ctx, query)

	if err != nil {
		// Cancellation propagates so the endpoint can return without a body.
		return domain.OperationResult[domain.CurrentWeather]{}, err
	}

	if !upstream.Success() {
		return domain.FailureResult[domain.CurrentWeather](upstream.StatusCode, s.upstreamError(upstream)), nil
	}

	if len(bytes.TrimSpace(upstream.Body)) == 0 {
		s.logger.Error("provider returned success with an empty body",
			zap.String("city", query.City),
			zap.Int("status_code", upstream.StatusCode))

		return domain.FailureResult[domain.CurrentWeather](http.StatusInternalServerError, upstream.ReasonPhrase), nil
	}

	report, terr := s.translator.Translate(upstream.Body)

	if terr != nil {
		s.logger.Error("failed to translate provider payload",
			zap.String("city", query.City),
			zap.Error(terr))

		return domain.FailureResult[domain.CurrentWeather](http.StatusInternalServerError, terr.Error()), nil
	}

	if report.ErrorMessage != "" {
		// The provider answered 2xx but flagged a failure in the body.
		s.logger.Warn("provider reported an error on a successful response",
			zap.String("city", query.City),
			zap.String("message", report.ErrorMessage))

		return domain.FailureResult[domain.CurrentWeather](http.StatusInternalServerError, report.ErrorMessage), nil
	}

	weather := domain.CurrentWeather{
		City:        report.CityName,
		CountryCode: report.CountryCode,
		Description: report.Description,
	}

	s.logger.Debug("current weather retrieved",
		zap.String("city", weather.City),
		zap.String("country_code", weather.CountryCode),
		zap.String("description", weather.Description))

	return domain.OKResult(weather), nil
}

// upstreamError extracts the provider's own error message from a non-2xx
// body, falling back to the transport reason phrase when the body is empty
// or does not parse.
func (s *weatherService) upstreamError(upstream domain.UpstreamResult) string {
	if len(bytes.TrimSpace(upstream.Body)) > 0 {
		if report, err := s.translator.Translate(upstream.Body); err == nil && report.ErrorMessage != "" {
			return report.ErrorMessage
		}
	}

	return upstream.ReasonPhrase
}

// Package rest implements HTTP handlers for the weather gateway endpoints.
// This package serves as the primary adapter, translating HTTP requests into
// use case invocations and mapping operation results onto HTTP responses.
package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/openwx/weather-gateway/internal/core/domain"
	"github.com/openwx/weather-gateway/internal/core/ports"
)

// WeatherHandler handles HTTP requests for current weather.
// It validates query parameters before the use case runs and renders the
// uniform {data, errors} envelope for every outcome.
type WeatherHandler struct {
	// service provides the current-weather use case
	service ports.WeatherService

	// logger records request outcomes
	logger *zap.Logger
}

// NewWeatherHandler creates a new HTTP handler for weather operations.
//
// Parameters:
//   - service: WeatherService interface for the current-weather use case
//   - logger: Zap logger for outcome logging
//
// Returns:
//   - *WeatherHandler: configured handler instance
func NewWeatherHandler(service ports.WeatherService, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		service: service,
		logger:  logger,
	}
}

// DataResponse is the JSON envelope returned by every weather endpoint
// outcome: data on success, one or more error strings on failure.
type DataResponse struct {
	Data   *domain.CurrentWeather `json:"data"`
	Errors []string               `json:"errors"`
}

// GetCurrentWeather handles GET requests for current weather.
//
// Parameters:
//   - w: HTTP response writer
//   - r: HTTP request carrying 'city' (required) and 'country' (optional)
//     query parameters
//
// Response codes:
//   - 200: success with the current weather payload
//   - 400: validation failure (missing city, unrecognized country name)
//   - 401: the upstream provider rejected its API key
//   - 404: the provider could not find the city
//   - 500: transport failure, translation failure, or unexpected error
func (h *WeatherHandler) GetCurrentWeather(w http.ResponseWriter, r *http.Request) {
	query := domain.WeatherQuery{
		City:    strings.TrimSpace(r.URL.Query().Get("city")),
		Country: strings.TrimSpace(r.URL.Query().Get("country")),
	}

	// Validation failures never reach the use case.
	if errs := query.Validate(); len(errs) > 0 {
		h.logger.Warn("invalid weather query",
			zap.String("city", query.City),
			zap.String("country", query.Country),
			zap.Strings("errors", errs))

		h.respondWithJSON(w, http.StatusBadRequest, DataResponse{Errors: errs})

		return
	}

	result, err := h.service.CurrentWeather(r.Context(), query)

	if err != nil {
		// The caller went away; there is nobody left to answer.
		h.logger.Debug("weather request canceled",
			zap.String("city", query.City),
			zap.Error(err))

		return
	}

	switch result.StatusCode {
	case http.StatusOK:
		h.logger.Info("current weather returned",
			zap.String("city", result.Data.City),
			zap.String("country_code", result.Data.CountryCode),
			zap.String("description", result.Data.Description))

		h.respondWithJSON(w, http.StatusOK, DataResponse{Data: result.Data, Errors: []string{}})
	case http.StatusUnauthorized, http.StatusNotFound:
		h.logger.Warn("provider rejected weather request",
			zap.String("city", query.City),
			zap.Int("status_code", result.StatusCode),
			zap.Strings("errors", result.Errors))

		h.respondWithJSON(w, result.StatusCode, DataResponse{Errors: result.Errors})
	default:
		h.logger.Error("weather request failed",
			zap.String("city", query.City),
			zap.Int("status_code", result.StatusCode),
			zap.Strings("errors", result.Errors))

		h.respondWithJSON(w, http.StatusInternalServerError, DataResponse{Errors: result.Errors})
	}
}

// respondWithJSON sends a JSON response with the specified status code.
//
// Parameters:
//   - w: HTTP response writer
//   - status: HTTP status code to return
//   - payload: envelope to encode as the response body
func (h *WeatherHandler) respondWithJSON(w http.ResponseWriter, status int, payload DataResponse) {
	if payload.Errors == nil {
		payload.Errors = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

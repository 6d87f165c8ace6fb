package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/openwx/weather-gateway/internal/adapters/primary/rest"
	"github.com/openwx/weather-gateway/internal/adapters/secondary/openweather"
	"github.com/openwx/weather-gateway/internal/config"
	"github.com/openwx/weather-gateway/internal/core/ports"
	"github.com/openwx/weather-gateway/internal/core/services"
	"github.com/openwx/weather-gateway/internal/infrastructure/circuitbreaker"
	"github.com/openwx/weather-gateway/internal/infrastructure/ratelimit"
	"github.com/openwx/weather-gateway/internal/middleware"
	"github.com/openwx/weather-gateway/internal/observability"
	"github.com/openwx/weather-gateway/internal/version"
)

// App manages the gateway's lifecycle and dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	server    *http.Server
	telemetry *observability.Telemetry
	cbManager *circuitbreaker.Manager
}

// New creates an application instance with a production logger and the
// configuration loaded from the environment.
func New() (*App, error) {
	logger, err := zap.NewProduction()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &App{
		cfg:    config.Load(),
		logger: logger,
	}, nil
}

// Start wires all components together and starts the HTTP server.
func (a *App) Start(ctx context.Context) error {
	if err := a.initTelemetry(ctx); err != nil {
		a.logger.Warn("failed to initialize telemetry, continuing without it", zap.Error(err))
	}

	rateLimitService := a.initRateLimiter(ctx)

	a.cbManager = circuitbreaker.NewManager(a.logger)

	weatherService := services.NewWeatherService(
		a.initWeatherClient(),
		openweather.NewTranslator(),
		a.logger,
	)

	weatherHandler := rest.NewWeatherHandler(weatherService, a.logger)

	apiKeyAuth := middleware.NewAPIKeyAuth(a.cfg.Auth.APIKeys, a.logger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(
		rateLimitService,
		a.cfg.RateLimit.Limit,
		a.cfg.RateLimit.Window,
		a.logger,
	)

	router := a.setupRouter(weatherHandler, apiKeyAuth, rateLimitMiddleware)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info("starting weather gateway",
			zap.String("port", a.cfg.Server.Port),
			zap.String("environment", a.cfg.Server.Environment))

		if err := a.server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				a.logger.Fatal("failed to start server", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the server and flushes telemetry.
func (a *App) Stop() {
	a.logger.Info("shutting down weather gateway...")

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown server gracefully", zap.Error(err))
		}
	}

	if a.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown telemetry", zap.Error(err))
		}
	}

	// Sync can fail on some platforms, ignore the error.
	_ = a.logger.Sync()
}

// WaitForShutdown blocks until the process receives an interrupt signal.
func (a *App) WaitForShutdown() {
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	a.logger.Info("shutdown signal received")
}

func (a *App) initTelemetry(ctx context.Context) error {
	telemetryConfig := observability.Config{
		ServiceName:    a.cfg.Observability.ServiceName,
		ServiceVersion: a.cfg.Observability.ServiceVersion,
		Environment:    a.cfg.Observability.Environment,
		OTLPEndpoint:   a.cfg.Observability.OTLPEndpoint,
		SampleRate:     a.cfg.Observability.SampleRate,
	}

	var err error
	a.telemetry, err = observability.InitTelemetry(ctx, telemetryConfig, a.logger)

	return err
}

// initRateLimiter returns the Redis-backed limiter when Redis is enabled and
// reachable, otherwise the in-memory fallback.
func (a *App) initRateLimiter(ctx context.Context) ports.RateLimitService {
	memoryLimiter := func() ports.RateLimitService {
		return middleware.NewMemoryRateLimiter(2*a.cfg.RateLimit.Window, a.logger)
	}

	if !a.cfg.Redis.Enabled {
		a.logger.Info("Redis disabled, using in-memory rate limiter")
		return memoryLimiter()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         a.cfg.Redis.Addr,
		Password:     a.cfg.Redis.Password,
		DB:           a.cfg.Redis.DB,
		PoolSize:     a.cfg.Redis.PoolSize,
		MinIdleConns: a.cfg.Redis.MinIdleConns,
		MaxRetries:   a.cfg.Redis.MaxRetries,
		DialTimeout:  a.cfg.Redis.DialTimeout,
		ReadTimeout:  a.cfg.Redis.ReadTimeout,
		WriteTimeout: a.cfg.Redis.WriteTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		a.logger.Warn("Redis connection failed, falling back to in-memory rate limiter", zap.Error(err))
		return memoryLimiter()
	}

	a.logger.Info("Redis connected successfully")

	return ratelimit.NewRedisRateLimiter(redisClient, a.logger)
}

// initWeatherClient creates the provider client wrapped with a circuit
// breaker. The outbound http.Client is shared so connections are pooled.
func (a *App) initWeatherClient() ports.WeatherClient {
	httpClient := &http.Client{
		Timeout: a.cfg.Provider.HTTPTimeout,
	}

	providerClient := openweather.NewClient(
		a.cfg.Provider.BaseURL,
		a.cfg.Provider.Endpoint,
		a.cfg.Provider.APIKey,
		httpClient,
		a.logger,
	)

	return &resilientWeatherClient{
		client: providerClient,
		breaker: a.cbManager.GetBreaker("openweather", circuitbreaker.Config{
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
		}),
		telemetry: a.telemetry,
	}
}

// setupRouter builds the route table. Operational endpoints stay outside the
// gated /v1 subtree; the API-key and rate-limit gates run ahead of the
// weather endpoint in that order.
func (a *App) setupRouter(
	weatherHandler *rest.WeatherHandler,
	apiKeyAuth *middleware.APIKeyAuth,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
) http.Handler {
	router := mux.NewRouter()

	if a.telemetry != nil {
		obsMiddleware := middleware.NewObservabilityMiddleware(a.telemetry, a.logger)
		router.Use(obsMiddleware.TracingMiddleware)
		router.Use(obsMiddleware.MetricsMiddleware)
		router.Use(obsMiddleware.LoggingMiddleware)
	}

	router.HandleFunc("/", a.rootHandler).Methods("GET")
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.HandleFunc("/health/live", livenessHandler).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler).Methods("GET")
	router.HandleFunc("/version", a.versionHandler).Methods("GET")
	router.HandleFunc("/stats", a.statsHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/v1").Subrouter()
	api.Use(apiKeyAuth.Middleware)
	api.Use(rateLimitMiddleware.Middleware)
	api.HandleFunc("/weather/current", weatherHandler.GetCurrentWeather).Methods("GET")

	return router
}

func (a *App) rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{
		"service": "weather-gateway",
		"endpoints": {
			"GET /": "This page",
			"GET /health": "Health check",
			"GET /health/live": "Liveness probe",
			"GET /health/ready": "Readiness probe",
			"GET /version": "Build information",
			"GET /stats": "Circuit breaker statistics",
			"GET /metrics": "Prometheus metrics",
			"GET /v1/weather/current?city=CITY&country=COUNTRY": "Current weather (requires X-API-KEY)"
		}
	}`))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","service":"weather-gateway"}`))
}

func livenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"alive"}`))
}

func (a *App) versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(version.Get()); err != nil {
		a.logger.Error("failed to encode version info", zap.Error(err))
	}
}

func (a *App) statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	stats := map[string]interface{}{
		"circuit_breakers": a.cbManager.GetStats(),
	}

	if err := json.NewEncoder(w).Encode(stats); err != nil {
		a.logger.Error("failed to encode stats", zap.Error(err))
	}
}

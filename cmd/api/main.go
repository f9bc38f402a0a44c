package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/payflow-kr/backend-payflow/internal/checkout"
	"github.com/payflow-kr/backend-payflow/internal/config"
	"github.com/payflow-kr/backend-payflow/internal/gateway"
	"github.com/payflow-kr/backend-payflow/internal/health"
	"github.com/payflow-kr/backend-payflow/internal/ledger"
	"github.com/payflow-kr/backend-payflow/internal/lock"
	"github.com/payflow-kr/backend-payflow/internal/obs"
	"github.com/payflow-kr/backend-payflow/internal/ratelimit"
	"github.com/payflow-kr/backend-payflow/internal/security"
	"github.com/payflow-kr/backend-payflow/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "payflow")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "payflow-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	sessions := session.RedisStore{R: redisClient, TTL: cfg.SessionTokenTTL}
	sessionHandler := session.Handler{Store: sessions}
	sessionMiddleware := session.Middleware{}

	ledgerClient := ledger.New(cfg.LedgerBaseURL, sessions, logger)

	checkoutSvc := &checkout.Service{
		Ledger:              ledgerClient,
		Gateway:             gateway.NewHosted(cfg.GatewayBaseURL, cfg.GatewayAPISecret, cfg.GatewayPollInterval),
		Locks:               lock.TryLocker{R: redisClient, Prefix: "lock:"},
		Currency:            cfg.CurrencyCode,
		PayMethod:           cfg.PayMethod,
		DefaultCancelReason: cfg.DefaultCancelReason,
		CancelLockTTL:       cfg.CancelLockTTL,
		PageSize:            cfg.DefaultPageSize,
		Log:                 logger,
	}
	checkoutHandler := &checkout.Handler{
		Svc:      checkoutSvc,
		Ledger:   ledgerClient,
		Validate: validator.New(),
		PageSize: cfg.DefaultPageSize,
	}

	submitLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:"},
		Config: ratelimit.Config{
			Key:    ratelimit.PerSession,
			Window: cfg.SubmitRateWindow,
			Max:    cfg.SubmitRateMax,
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter unavailable")
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics := obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", session.HeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.Headers{
		Enable:     envBool("SECURE_HEADERS", true),
		EnableHSTS: envBool("SECURE_HSTS", false),
	}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)

	healthHandler := health.Handler{
		Checker: health.Probes{Ledger: ledgerClient, Redis: redisClient},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/session", func(s chi.Router) {
			s.Use(sessionMiddleware.Require)
			s.Post("/", sessionHandler.Bind)
			s.Delete("/", sessionHandler.Unbind)
		})

		v.Group(func(g chi.Router) {
			g.Use(sessionMiddleware.Require)
			g.Group(func(sub chi.Router) {
				sub.Use(submitLimiter.Middleware)
				sub.Post("/checkout", checkoutHandler.Submit)
			})
			g.Get("/payments", checkoutHandler.List)
			g.Get("/payments/{id}", checkoutHandler.Get)
			g.Get("/payments/imp/{impUid}", checkoutHandler.GetByGatewayID)
			g.Get("/payments/order/{orderId}", checkoutHandler.GetByOrderID)
			g.Post("/payments/cancel/{impUid}", checkoutHandler.Cancel)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

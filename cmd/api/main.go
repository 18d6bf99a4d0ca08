package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"example.com/progress/internal/api"
	"example.com/progress/internal/auth"
	"example.com/progress/internal/cache"
	"example.com/progress/internal/config"
	"example.com/progress/internal/domain"
	"example.com/progress/internal/logging"
	"example.com/progress/internal/outbox"
	"example.com/progress/internal/persistence/memory"
	"example.com/progress/internal/persistence/postgres"
	"example.com/progress/internal/translate"
	httptransport "example.com/progress/internal/transport/http"
)

func main() {
	cfg := config.MustLoad()
	logger := logging.New("progress-api", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo       domain.Repository
		dispatcher *outbox.Dispatcher
	)
	switch cfg.Store {
	case "memory":
		logger.Warn().Msg("using in-memory store; records are lost on restart")
		repo = memory.NewRepository()
	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		repo = postgres.NewRepository(pool, postgres.WithOutbox(cfg.OutboxEnabled))

		if cfg.OutboxEnabled {
			producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
			defer producer.Close()
			registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL, nil)
			dispatcher = outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize,
				outbox.WithLogger(logger.With().Str("component", "outbox").Logger()))
			go dispatcher.Start(ctx)
		}
	}

	service := domain.NewService(repo,
		domain.WithLocation(cfg.Location),
		domain.WithMaxStreakLookback(cfg.MaxStreakLookbackDays),
		domain.WithLogger(logger.With().Str("component", "progress").Logger()),
	)

	translationCache, closeCache := buildCache(ctx, cfg, logger)
	defer closeCache()
	gateway := buildGateway(cfg.Translation, translationCache, logger)

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, logger)
	limiter := httptransport.NewRateLimiter(cfg.Translation.RateLimit, cfg.Translation.RateBurst)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httptransport.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(httptransport.CORS(cfg.CORSAllowedOrigins))

	handler := api.NewHandler(service, gateway, logger)
	handler.RegisterRoutes(router, authMiddleware.Wrap, limiter.Limit)

	// Write timeout leaves room for a full provider chain.
	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 4*cfg.Translation.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}, router)

	logger.Info().Str("store", cfg.Store).Bool("outbox", dispatcher != nil).Msg("progress-api starting")
	if err := httptransport.Serve(ctx, server, 15*time.Second, logger); err != nil {
		logger.Error().Err(err).Msg("server error")
	}
	stop()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	logger.Info().Msg("progress-api stopped")
}

// buildCache prefers Redis when an address is configured and falls back to
// the in-process cache when Redis is unreachable.
func buildCache(ctx context.Context, cfg config.Config, logger zerolog.Logger) (translate.Cache, func()) {
	tc := cfg.Translation
	if !tc.CacheEnabled {
		return nil, func() {}
	}

	if cfg.Redis.Address != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		client, err := cache.NewRedisClient(pingCtx, cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err == nil {
			c := cache.NewRedis(client, tc.CacheTTL, logger)
			return c, func() { _ = c.Close() }
		}
		logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis unavailable, using in-process translation cache")
	}

	local, err := cache.NewLocal(cache.LocalConfig{MaxCost: tc.CacheMaxCost, TTL: tc.CacheTTL})
	if err != nil {
		logger.Warn().Err(err).Msg("translation cache disabled")
		return nil, func() {}
	}
	return local, local.Close
}

func buildGateway(tc config.TranslationConfig, c translate.Cache, logger zerolog.Logger) *translate.Gateway {
	client := &http.Client{Transport: http.DefaultTransport}
	chain := []translate.Link{
		{Provider: translate.NewLibreTranslate(tc.LibreTranslateURL, tc.LibreTranslateAPIKey, client), When: translate.Always},
		{Provider: translate.NewMyMemory(tc.MyMemoryURL, tc.MyMemoryEmail, client), When: translate.Always},
		{Provider: translate.NewLingva(tc.LingvaURL, client), When: translate.AfterRateLimit},
	}

	opts := []translate.Option{
		translate.WithLogger(logger.With().Str("component", "translate").Logger()),
		translate.WithAttemptTimeout(tc.Timeout),
	}
	if c != nil {
		opts = append(opts, translate.WithCache(c))
	}
	return translate.NewGateway(chain, opts...)
}

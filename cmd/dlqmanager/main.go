package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/progress/internal/config"
	"example.com/progress/internal/logging"
	"example.com/progress/internal/outbox"
	httptransport "example.com/progress/internal/transport/http"
)

func main() {
	cfg := config.MustLoad()
	logger := logging.New("progress-dlqmanager", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	manager := outbox.NewDLQManager(pool, cfg.DLQMaxRetries, cfg.DLQBaseDelay, logger)

	metricsDone := make(chan struct{})
	go func() {
		defer close(metricsDone)
		if err := httptransport.Serve(ctx, httptransport.NewMetricsServer(cfg.MetricsAddress), 10*time.Second, logger); err != nil {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	logger.Info().
		Dur("interval", cfg.DLQPollInterval).
		Int("max_retries", cfg.DLQMaxRetries).
		Int("batch_size", cfg.DLQBatchSize).
		Msg("dlq manager started")
	manager.Run(ctx, cfg.DLQPollInterval, cfg.DLQBatchSize)
	logger.Info().Msg("dlq manager received shutdown signal")
	<-metricsDone
}

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"campusreach/internal/config"
	"campusreach/internal/leaderboard"
	"campusreach/internal/queue"
	"campusreach/internal/records"
	"campusreach/internal/store"
	"campusreach/internal/worker"
)

// Worker consumes domain events and keeps the leaderboard snapshot warm.
func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.Logging)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("worker failed")
	}
}

func run(cfg config.App, logger zerolog.Logger) error {
	if cfg.QueueBackend != "redis" || cfg.StoreBackend != "postgres" {
		return errors.New("worker needs QUEUE_BACKEND=redis and STORE_BACKEND=postgres; memory backends are consumed in the api process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	pg, err := store.OpenPostgres(cfg.DatabaseURL, store.PostgresOptions{MaxOpenConns: 4})
	if err != nil {
		return err
	}
	defer func() { _ = pg.Close() }()
	if err := pg.Ping(ctx); err != nil {
		return err
	}

	redisClient := store.OpenRedis(cfg.Redis())
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx); err != nil {
		return err
	}

	board := leaderboard.NewBoard(
		records.NewRepository(pg.DB),
		leaderboard.NewCache(redisClient.Client, cfg.LeaderboardTTL),
	)
	proc := worker.NewProcessor(board)

	sched, err := proc.Schedule(ctx, cfg.LeaderboardRefresh)
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("scheduler shutdown")
		}
	}()

	messages, err := queue.NewRedisQueue(redisClient.Client, "").Consume(ctx)
	if err != nil {
		return err
	}

	log.Info().Dur("refresh_every", cfg.LeaderboardRefresh).Msg("worker started, waiting for messages")
	proc.Run(ctx, messages)
	log.Info().Msg("worker stopped")
	return nil
}

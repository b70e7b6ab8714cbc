package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"campusreach/internal/auth"
	"campusreach/internal/config"
	"campusreach/internal/engagement"
	"campusreach/internal/handler"
	"campusreach/internal/httpmiddleware"
	"campusreach/internal/leaderboard"
	"campusreach/internal/metrics"
	"campusreach/internal/queue"
	"campusreach/internal/records"
	"campusreach/internal/store"
	"campusreach/internal/vault"
	"campusreach/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.Logging)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}

// recordStore is what the API needs from a record store backend.
type recordStore interface {
	engagement.Store
	Ping(ctx context.Context) error
}

func run(cfg config.App, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	probes := map[string]handler.Pinger{}

	recs, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	probes["records"] = recs

	var cache leaderboard.Snapshots
	redisClient := store.OpenRedis(cfg.Redis())
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable, leaderboard cache disabled")
	} else {
		cache = leaderboard.NewCache(redisClient.Client, cfg.LeaderboardTTL)
	}
	if cache != nil || cfg.QueueBackend == "redis" {
		probes["redis"] = redisClient
	}
	board := leaderboard.NewBoard(recs, cache)

	q, err := openQueue(ctx, cfg.QueueBackend, redisClient, board, cache != nil)
	if err != nil {
		return err
	}

	blobs, err := openVault(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	probes["blobs"] = blobs

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, auth.TokenTTL)
	svc := engagement.NewService(engagement.Deps{
		Store:   recs,
		Blobs:   blobs,
		Tokens:  tokens,
		Queue:   q,
		Ranking: board,
	})

	if cfg.SeedAdminEmail != "" {
		created, err := svc.EnsureAdmin(ctx, engagement.AdminInput{Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword})
		if err != nil {
			return err
		}
		log.Info().Str("email", cfg.SeedAdminEmail).Bool("created", created).Msg("admin seed checked")
	}

	h := handler.New(svc, handler.Options{
		Health:         healthInfo(cfg),
		Probes:         probes,
		MaxUploadBytes: cfg.Blob.MaxUploadBytes,
	})

	quiet := []string{cfg.BasePath + "/health", "/metrics"}
	router := handler.NewRouter(handler.RouterConfig{
		Handler:  h,
		Tokens:   tokens,
		BasePath: cfg.BasePath,
		Metrics:  metrics.Handler(),
		Middleware: []gin.HandlerFunc{
			httpmiddleware.RequestLogger(logger, quiet...),
			metrics.GinMiddleware(),
			cors.New(corsConfig(cfg.CORSOrigins)),
			httpmiddleware.SecurityHeaders(cfg.IsProduction()),
			httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin, quiet...).GinMiddleware(),
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.BasePath).Str("store", cfg.StoreBackend).Str("queue", cfg.QueueBackend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}
	log.Info().Msg("server exited")
	return nil
}

func healthInfo(cfg config.App) handler.HealthInfo {
	return handler.HealthInfo{
		Environment:         cfg.Env,
		DatabaseConfigured:  cfg.StoreBackend == "postgres" && cfg.DatabaseURL != "",
		JWTSecretConfigured: cfg.JWTSecretFromEnv,
		BlobConfigured:      cfg.Blob.Configured(),
	}
}

// openQueue returns the queue domain events are published to, or nil when
// nothing would consume them. An in-memory queue is drained by a processor in
// this process, which only has work to do when the leaderboard is cached.
func openQueue(ctx context.Context, backend string, client *store.Redis, board worker.Board, cached bool) (queue.Queue, error) {
	if backend != "memory" {
		return queue.NewRedisQueue(client.Client, ""), nil
	}
	if !cached {
		log.Info().Msg("leaderboard cache disabled, domain events are not queued")
		return nil, nil
	}
	mem := queue.NewInMemory(256)
	msgs, err := mem.Consume(ctx)
	if err != nil {
		return nil, err
	}
	go worker.NewProcessor(board).Run(ctx, msgs)
	return mem, nil
}

func openStore(ctx context.Context, cfg config.App) (recordStore, func(), error) {
	if cfg.StoreBackend == "memory" {
		log.Warn().Msg("using in-memory record store, data is lost on restart")
		return records.NewMemory(), func() {}, nil
	}

	pg, err := store.OpenPostgres(cfg.DatabaseURL, store.PostgresOptions{})
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() { _ = pg.Close() }
	if err := pg.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("db not reachable")
	}
	if err := metrics.RegisterDB(pg.DB, "records"); err != nil {
		log.Warn().Err(err).Msg("db pool metrics not registered")
	}

	if cfg.MigrateOnStart {
		if err := store.Migrate(ctx, pg.DB); err != nil {
			closeDB()
			return nil, nil, err
		}
		log.Info().Msg("migrations applied")
	}
	return records.NewRepository(pg.DB), closeDB, nil
}

func openVault(ctx context.Context, cfg config.Blob) (*vault.Vault, error) {
	opts := vault.Options{
		MaxBytes:  cfg.MaxUploadBytes,
		ViewTTL:   cfg.ViewURLTTL,
		UploadTTL: cfg.UploadURLTTL,
	}
	if !cfg.Configured() {
		log.Warn().Msg("blob storage not configured (BLOB_BUCKET / BLOB_ACCESS_KEY_ID / BLOB_SECRET_ACCESS_KEY)")
		return vault.New(vault.Unconfigured(), opts), nil
	}

	backend, err := vault.NewS3(ctx, vault.S3Options{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		PathStyle:       cfg.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("blob storage configured")
	return vault.New(backend, opts), nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", httpmiddleware.RequestIDHeader},
		ExposeHeaders: []string{httpmiddleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

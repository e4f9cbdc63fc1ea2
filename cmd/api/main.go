package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"thumbforge/internal/cache"
	"thumbforge/internal/config"
	"thumbforge/internal/database"
	"thumbforge/internal/handlers"
	"thumbforge/internal/jobs"
	"thumbforge/internal/log"
	"thumbforge/internal/queue"
	"thumbforge/internal/repository"
	"thumbforge/internal/server"
	"thumbforge/internal/service"
	"thumbforge/internal/slug"
	"thumbforge/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "api")

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid time zone")
	}
	now := func() time.Time { return time.Now().In(loc) }

	ctx := context.Background()

	if err := database.Migrate(cfg.Postgres.DSN); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBuckets(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}

	users := repository.NewUserRepository(dbPool)
	tokens := repository.NewTokenRepository(dbPool)
	tiers := repository.NewTierRepository(dbPool)
	images := repository.NewImageRepository(dbPool)

	producer := queue.NewProducer(redisClient, cfg.Redis.Stream)
	allocator := slug.NewAllocator(nil)

	authService := service.NewAuthService(users, tokens, cfg, logger)
	imageService := service.NewImageService(images, objectStore, allocator, producer, cfg, logger, now)

	handlerSet := handlers.NewHandlerSet(logger, cfg, dbPool, redisClient, authService, imageService, users, tokens, tiers, images)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(imageService, cfg, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/craverscorner/food-ordering-website/internal/cart"
	"github.com/craverscorner/food-ordering-website/internal/cartsync"
	"github.com/craverscorner/food-ordering-website/internal/config"
	"github.com/craverscorner/food-ordering-website/internal/obs"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(cfg.ObsLogFormat, cfg.ObsLogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	sessions := &cart.SessionStore{R: redis.NewClient(redisOpts), TTL: cfg.CartTTL}

	worker := cartsync.Worker{
		Sessions:  sessions,
		Snapshots: &cart.PGSnapshotStore{Pool: pool},
		Log:       logger,
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:      redisOpts.Addr,
			Username:  redisOpts.Username,
			Password:  redisOpts.Password,
			DB:        redisOpts.DB,
			TLSConfig: redisOpts.TLSConfig,
		},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(cartsync.TypeCartSync, worker.HandleSyncTask)

	logger.Info().Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(initCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(initCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

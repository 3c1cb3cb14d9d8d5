package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"

	"github.com/yagnesh-3/Fira-sub001/internal/app"
	"github.com/yagnesh-3/Fira-sub001/internal/config"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
	"github.com/yagnesh-3/Fira-sub001/internal/observability"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	log.Init(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := observability.ConfigureTraceProvider(cfg.JaegerEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure tracing")
	}
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	var deps app.Dependencies

	if cfg.DatabaseURL != "" {
		db, err := sqlx.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open database")
		}
		defer db.Close()
		deps.DB = db
	} else {
		logger.Warn().Msg("DATABASE_URL is not set, using the in-memory ledger")
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer redisClient.Close()
		deps.RedisClient = redisClient
	}

	application, err := app.NewApp(cfg, deps, log.NewWatermill(logrus.NewEntry(logrus.StandardLogger())))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create app")
	}

	err = application.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("app failed")
	}
}

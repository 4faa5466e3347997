package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/haven-app/haven-api/internal/api"
	"github.com/haven-app/haven-api/internal/core/crypto"
	"github.com/haven-app/haven-api/internal/core/service"
	"github.com/haven-app/haven-api/internal/core/token"
	"github.com/haven-app/haven-api/internal/infrastructure/db/postgres"
	redisdb "github.com/haven-app/haven-api/internal/infrastructure/db/redis"
	"github.com/haven-app/haven-api/internal/infrastructure/notify"
	"github.com/haven-app/haven-api/internal/infrastructure/queue"
	"github.com/haven-app/haven-api/internal/pkg/config"
	"github.com/haven-app/haven-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logg := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	db, err := postgres.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		logg.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logg.Fatal().Err(err).Msg("migrations failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		logg.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	repo := postgres.NewCredentialRepository(db)
	hasher := crypto.NewPBKDF2Hasher(cfg.Hash.Iterations, cfg.Hash.MaxConcurrent)
	codec := token.NewCodec(cfg.JWTSecret, cfg.TokenTTL)
	resetStore := redisdb.NewResetTokenStore(rdb)

	notifier := notify.NewLogNotifier(logg, cfg.AppBaseURL)
	dispatcher := queue.NewDispatcher(cfg.Reset.Workers, notifier, logg)
	dispatcher.Start(ctx)

	authService := service.NewAuthService(repo, hasher, codec, resetStore, dispatcher, cfg.Reset.TokenTTL)

	e := api.NewRouter(cfg, logg, db, rdb, authService)

	go func() {
		logg.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting api server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logg.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logg.Error().Err(err).Msg("graceful shutdown failed")
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gridmarket/charges/internal/app"
	"github.com/gridmarket/charges/internal/chargelinks"
	"github.com/gridmarket/charges/internal/charges"
	chargeshttp "github.com/gridmarket/charges/internal/charges/http"
	"github.com/gridmarket/charges/internal/marketparticipants"
	"github.com/gridmarket/charges/internal/observability"
	"github.com/gridmarket/charges/internal/platform/cache"
	"github.com/gridmarket/charges/internal/platform/db"
	"github.com/gridmarket/charges/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "charges-api")

	pool, err := db.New(ctx, cfg.PGDSN, "charges-api")
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, "charges-api")
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	enqueuer := jobs.NewClient(asynqClient)

	chargeRepo := charges.NewRepository(pool)
	linkRepo := chargelinks.NewRepository(pool)
	participantRepo := marketparticipants.NewRepository(pool)

	historyFactory := chargelinks.NewHistoryFactory(participantRepo)
	linkService := chargelinks.NewService(logger, linkRepo, chargeRepo, historyFactory, enqueuer)

	metrics := observability.NewMetrics()

	readCache := charges.NewCache(redisClient, 30*time.Second)
	chargesHandler := chargeshttp.NewHandler(logger, chargeRepo, enqueuer, readCache)
	linksHandler := chargelinks.NewHandler(logger, linkService, enqueuer)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		ChargesHandler: chargesHandler,
		LinksHandler:   linksHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

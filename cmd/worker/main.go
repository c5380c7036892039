package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gridmarket/charges/internal/app"
	"github.com/gridmarket/charges/internal/chargelinks"
	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/charges/processing"
	"github.com/gridmarket/charges/internal/charges/validation"
	"github.com/gridmarket/charges/internal/marketparticipants"
	"github.com/gridmarket/charges/internal/observability"
	"github.com/gridmarket/charges/internal/platform/cache"
	"github.com/gridmarket/charges/internal/platform/db"
	"github.com/gridmarket/charges/internal/shared"
	"github.com/gridmarket/charges/jobs"
)

const idempotencyRetention = 90 * 24 * time.Hour

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "charges-worker")

	pool, err := db.New(ctx, cfg.PGDSN, "charges-worker")
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, "charges-worker")
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
	publisher := jobs.NewClient(asynqClient)

	zoned, err := shared.NewZonedTimeService(cfg.TimeZone)
	if err != nil {
		logger.Error("load time zone", slog.Any("error", err))
		os.Exit(1)
	}

	chargeRepo := charges.NewRepository(pool)
	linkRepo := chargelinks.NewRepository(pool)
	participantRepo := marketparticipants.NewRepository(pool)

	factory := validation.NewFactory(chargeRepo, participantRepo, zoned, validation.ValidityInterval{
		StartDays: cfg.ChargeValidityStartDays,
		EndDays:   cfg.ChargeValidityEndDays,
	})

	idempotencyStore := shared.NewIdempotencyStore(pool)
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	chargeService := processing.NewService(processing.ServiceConfig{
		Logger:     logger,
		Repository: chargeRepo,
		Factory:    factory,
		Publisher:  publisher,
		Auditor:    auditLogger,
		Recorder:   metrics,
	})

	historyFactory := chargelinks.NewHistoryFactory(participantRepo)
	linkService := chargelinks.NewService(logger, linkRepo, chargeRepo, historyFactory, publisher)

	readCache := charges.NewCache(redisClient, 30*time.Second)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeChargeCommand, Handler: jobs.HandleChargeCommandTask(chargeService, logger)},
			{Type: jobs.TaskTypeLinkCommand, Handler: jobs.HandleLinkCommandTask(linkService, logger)},
			{Type: jobs.TaskTypeChargeNotify, Handler: jobs.HandleChargeNotifyTask(readCache, logger)},
			{Type: jobs.TaskTypeChargeReject, Handler: jobs.HandleChargeRejectTask(logger)},
			{Type: jobs.TaskTypeIdempotencyCleanup, Handler: jobs.HandleIdempotencyCleanupTask(idempotencyStore, idempotencyRetention, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

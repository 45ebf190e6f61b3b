package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/bibliodash/bibliodash/internal/app"
	jobmetrics "github.com/bibliodash/bibliodash/internal/jobs"
	"github.com/bibliodash/bibliodash/internal/platform/cache"
	"github.com/bibliodash/bibliodash/internal/platform/db"
	"github.com/bibliodash/bibliodash/internal/reports"
	reportsdb "github.com/bibliodash/bibliodash/internal/reports/db"
	"github.com/bibliodash/bibliodash/jobs"
	"github.com/bibliodash/bibliodash/report"
)

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

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var summaryCache *reports.Cache
	if cfg.CacheEnabled() {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		summaryCache = reports.NewCache(redisClient, cfg.SummaryCacheTTL).WithLogger(logger)
	}

	metrics := jobmetrics.NewMetrics(nil)
	service := reports.NewService(reportsdb.New(pool), summaryCache)
	warmupJob := jobs.NewSummaryWarmupJob(service, logger, metrics)
	exportJob := jobs.NewExportJob(jobs.ExportJobConfig{
		Source:  service,
		PDF:     report.NewClient(cfg.GotenbergURL),
		Dir:     cfg.ExportDir,
		Logger:  logger,
		Metrics: metrics,
	})

	var cron []jobs.CronRegistration
	if cfg.CacheEnabled() && cfg.WarmupCron != "" {
		warmupTask, err := jobs.NewSummaryWarmupTask("schedule")
		if err != nil {
			logger.Error("build warmup task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSummaryWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskReportExport, Handler: exportJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.Int("cron_entries", len(cron)), slog.String("export_dir", cfg.ExportDir))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/onebeat/internal/app"
	jobmetrics "github.com/odyssey-erp/onebeat/internal/jobs"
	"github.com/odyssey-erp/onebeat/internal/platform/cache"
	"github.com/odyssey-erp/onebeat/internal/platform/db"
	"github.com/odyssey-erp/onebeat/jobs"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PoolConfig("onebeat-worker"))
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	ob, err := app.NewOneBeat(ctx, cfg, pool, logger)
	if err != nil {
		logger.Error("init onebeat", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := ob.Close(); err != nil {
			logger.Warn("close remotes", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	exportJob := &jobs.ExportJob{
		Service:   ob.Service,
		Assembler: ob.Assembler,
		Remote:    ob.Outbox,
		Locker:    cache.NewLocker(redisClient, "onebeat:lock:"),
		LockTTL:   cfg.LockTTL,
		Logger:    logger.With(slog.String("job", jobs.TaskOnebeatExport)),
		Metrics:   metrics,
	}
	replenishJob := &jobs.ReplenishJob{
		Importer: ob.Importer,
		Logger:   logger.With(slog.String("job", jobs.TaskOnebeatReplenish)),
		Metrics:  metrics,
	}

	cron, err := cronRegistrations(cfg.OneBeatConfig)
	if err != nil {
		logger.Error("build cron tasks", slog.Any("error", err))
		os.Exit(1)
	}
	cronTZ, err := time.LoadLocation(cfg.CronTimezone)
	if err != nil {
		logger.Error("load cron timezone", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.AsynqRedis(),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOnebeatExport, Handler: exportJob.Handle},
			{Type: jobs.TaskOnebeatReplenish, Handler: replenishJob.Handle},
		},
		Cron:     cron,
		Location: cronTZ,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.Int("companies", len(cfg.CompanyIDs)), slog.Int("cron_entries", len(cron)))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

// cronRegistrations schedules one export and one replenish per configured company.
func cronRegistrations(cfg app.OneBeatConfig) ([]jobs.CronRegistration, error) {
	var out []jobs.CronRegistration
	for _, companyID := range cfg.CompanyIDs {
		exportTask, err := jobs.NewExportTask(jobs.ExportPayload{CompanyID: companyID})
		if err != nil {
			return nil, err
		}
		replenishTask, err := jobs.NewReplenishTask(jobs.ReplenishPayload{CompanyID: companyID})
		if err != nil {
			return nil, err
		}
		out = append(out,
			jobs.CronRegistration{Spec: cfg.ExportCron, Task: exportTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			jobs.CronRegistration{Spec: cfg.ReplenishCron, Task: replenishTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		)
	}
	return out, nil
}

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
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/onebeat/internal/app"
	"github.com/odyssey-erp/onebeat/internal/observability"
	onebeathttp "github.com/odyssey-erp/onebeat/internal/onebeat/http"
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

	dbpool, err := db.New(ctx, cfg.PoolConfig("onebeat"))
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	ob, err := app.NewOneBeat(ctx, cfg, dbpool, logger)
	if err != nil {
		logger.Error("init onebeat", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := ob.Close(); err != nil {
			logger.Warn("close remotes", slog.Any("error", err))
		}
	}()

	redisOpts := cfg.AsynqRedis()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	onebeatHandler, err := onebeathttp.NewHandler(logger, ob.Service, ob.Assembler, ob.Importer, jobClient)
	if err != nil {
		logger.Error("init onebeat handler", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()
	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Pool:           dbpool,
		OneBeatHandler: onebeatHandler,
		JobHandler:     jobHandler,
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

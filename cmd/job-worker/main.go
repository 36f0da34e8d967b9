// Package main 异步任务执行器入口（job-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/wire"
	"dtf-editor-api/pkg/logger"
	"dtf-editor-api/pkg/tracer"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "job-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	app, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	app.Worker.Register(app.Consumer)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return app.Consumer.Start(gctx)
	})
	g.Go(func() error {
		app.Tracker.SweepLoop(gctx)
		return nil
	})
	g.Go(func() error {
		app.Consumer.MonitorDLQ(gctx, 100)
		return nil
	})

	logger.Info(ctx, "job-worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down job-worker...")
	app.Consumer.Stop()
	cancel()
	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error(ctx, "worker stopped with error", err)
	}
	logger.Info(ctx, "job-worker exited")
}

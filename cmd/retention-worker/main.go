// Package main 版本保留清理执行器入口（retention-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nb-studio-api/internal/application/version"
	"nb-studio-api/internal/config"
	"nb-studio-api/internal/infrastructure/messaging"
	"nb-studio-api/internal/infrastructure/persistence/postgres"
	"nb-studio-api/internal/wire"
	"nb-studio-api/pkg/logger"
	"nb-studio-api/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "retention-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	dataLayer, cleanup, err := wire.InitializeDataLayer(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to init data layer", err)
	}
	defer cleanup()

	svc := dataLayer.VersionService
	notebookRepo := dataLayer.NotebookRepo
	spaceRepo := dataLayer.SpaceRepo

	consumer := messaging.NewConsumer(dataLayer.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamRetentionSweep,
		Group:        messaging.ConsumerGroupRetention,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
		RetryLimit:   cfg.Messaging.RedisStream.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
			Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
			Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
		},
	})

	consumer.RegisterHandler("retention_sweep", func(msgCtx context.Context, msg *messaging.Message) error {
		var payload messaging.RetentionSweepMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}

		keep := payload.KeepCount
		if keep <= 0 {
			keep = svc.KeepCountFor(msgCtx, payload.SpaceID)
		}

		pruned, err := svc.Prune(msgCtx, payload.NotebookID, keep, "stream")
		if err != nil {
			return err
		}
		if pruned > 0 {
			logger.Info(msgCtx, "retention sweep completed",
				"notebook_id", payload.NotebookID,
				"keep_count", keep,
				"pruned", pruned,
			)
		}
		return nil
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	go runPeriodicSweep(sweepCtx, cfg, svc, notebookRepo, spaceRepo)

	log := logger.FromContext(ctx)
	log.Info("retention-worker started",
		"sweep_interval", cfg.Versioning.Retention.SweepInterval.String(),
		"default_keep_count", cfg.Versioning.Retention.DefaultKeepCount,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("retention-worker shutting down")
	cancelSweep()
	consumer.Stop()
}

// runPeriodicSweep 周期性遍历全部笔记执行保留清理
// 作为事件触发清理的兜底，覆盖错过入队的笔记。
func runPeriodicSweep(ctx context.Context, cfg *config.Config, svc *version.Service, notebookRepo *postgres.NotebookRepository, spaceRepo *postgres.SpaceRepository) {
	interval := cfg.Versioning.Retention.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	batchSize := cfg.Versioning.Retention.SweepBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepAll(ctx, svc, notebookRepo, spaceRepo, batchSize)
		}
	}
}

// sweepAll 分批遍历笔记并按空间保留策略清理
// 空间未开启自动清理时跳过其下全部笔记。
func sweepAll(ctx context.Context, svc *version.Service, notebookRepo *postgres.NotebookRepository, spaceRepo *postgres.SpaceRepository, batchSize int) {
	start := time.Now()
	var swept, failed int

	for offset := 0; ; offset += batchSize {
		ids, err := notebookRepo.ListIDs(ctx, offset, batchSize)
		if err != nil {
			logger.Error(ctx, "failed to list notebooks for sweep", err)
			return
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			notebook, err := notebookRepo.GetByID(ctx, id)
			if err != nil || notebook == nil {
				failed++
				continue
			}

			space, err := spaceRepo.GetByID(ctx, notebook.SpaceID)
			if err != nil {
				failed++
				continue
			}
			if space == nil || space.Settings == nil || !space.Settings.AutoPruneEnabled {
				continue
			}

			keep := svc.KeepCountFor(ctx, notebook.SpaceID)
			if _, err := svc.Prune(ctx, id, keep, "sweep"); err != nil {
				logger.Warn(ctx, "sweep prune failed",
					"notebook_id", id,
					"error", err,
				)
				failed++
				continue
			}
			swept++
		}

		if len(ids) < batchSize {
			break
		}
	}

	logger.Info(ctx, "periodic sweep finished",
		"swept", swept,
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

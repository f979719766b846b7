package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/eventstore/common/clock"
	"basegraph.app/eventstore/common/id"
	"basegraph.app/eventstore/common/logger"
	"basegraph.app/eventstore/common/otel"
	"basegraph.app/eventstore/core/config"
	"basegraph.app/eventstore/core/db"
	"basegraph.app/eventstore/internal/queue"
	"basegraph.app/eventstore/internal/service"
	"basegraph.app/eventstore/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if cfg.StoreDriver != config.StoreDriverPostgres {
		slog.ErrorContext(ctx, "the standalone worker needs STORE_DRIVER=postgres; the memory driver runs its worker inside the server")
		os.Exit(1)
	}

	slog.InfoContext(ctx, "eventstore worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RecordGroup,
		"consumer_name", cfg.Pipeline.RecordConsumer)

	// Node id differs from the server's.
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RecordStream)

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RecordStream,
		Group:        cfg.Pipeline.RecordGroup,
		Consumer:     cfg.Pipeline.RecordConsumer,
		DLQStream:    cfg.Pipeline.RecordDLQStream,
		BatchSize:    10,
		Block:        5 * time.Second,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	recorder := service.NewEventRecorder(
		service.NewTxRunner(database),
		clock.Real(),
		time.Duration(cfg.Replay.RetentionDays)*24*time.Hour,
		slog.Default(),
	)

	w := worker.New(consumer, recorder, worker.Config{
		MaxAttempts: cfg.Pipeline.MaxAttempts,
	})

	reclaimer := worker.NewReclaimer(redisClient, worker.ReclaimerConfig{
		Stream:      cfg.Pipeline.RecordStream,
		Group:       cfg.Pipeline.RecordGroup,
		Consumer:    cfg.Pipeline.RecordConsumer + "-reclaimer",
		MinIdle:     5 * time.Minute,
		Interval:    time.Minute,
		BatchSize:   10,
		MaxAttempts: int64(cfg.Pipeline.MaxAttempts),
	}, consumer, w.ProcessMessage)

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	reclaimer.Stop()
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

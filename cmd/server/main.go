package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/eventstore/common/clock"
	"basegraph.app/eventstore/common/id"
	"basegraph.app/eventstore/common/logger"
	"basegraph.app/eventstore/common/otel"
	"basegraph.app/eventstore/core/config"
	"basegraph.app/eventstore/core/db"
	"basegraph.app/eventstore/internal/dispatch"
	"basegraph.app/eventstore/internal/http/middleware"
	httprouter "basegraph.app/eventstore/internal/http/router"
	"basegraph.app/eventstore/internal/queue"
	"basegraph.app/eventstore/internal/service"
	"basegraph.app/eventstore/internal/store"
	"basegraph.app/eventstore/internal/store/memory"
	"basegraph.app/eventstore/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "eventstore server starting",
		"env", cfg.Env,
		"service", cfg.OTel.ServiceName,
		"store_driver", cfg.StoreDriver)

	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

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
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RecordStream)

	producer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RecordStream, slog.Default())
	defer producer.Close()

	var (
		records  store.EventRecordStore
		txRunner service.TxRunner
	)

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		mem := memory.New()
		records = mem
		txRunner = service.NewStoreTxRunner(mem)
		slog.WarnContext(ctx, "using in-memory event store; records are lost on restart")
	default:
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "database connected")

		records = store.NewStores(database.Queries()).EventRecords()
		txRunner = service.NewTxRunner(database)
	}

	dispatcher := dispatch.NewRouter().
		Fallback(dispatch.NewStreamDispatcher(redisClient, cfg.Replay.DispatchStream, slog.Default()))

	services := service.NewServices(
		records,
		txRunner,
		producer,
		dispatcher,
		clock.Real(),
		service.ReplayConfig{MaxRange: time.Duration(cfg.Replay.MaxRangeDays) * 24 * time.Hour},
		time.Duration(cfg.Replay.RetentionDays)*24*time.Hour,
	)

	// The memory store lives in this process, so the recorder worker must too.
	var embedded *worker.Worker
	if cfg.StoreDriver == config.StoreDriverMemory {
		consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
			Stream:       cfg.Pipeline.RecordStream,
			Group:        cfg.Pipeline.RecordGroup,
			Consumer:     cfg.Pipeline.RecordConsumer + "-embedded",
			DLQStream:    cfg.Pipeline.RecordDLQStream,
			BatchSize:    10,
			Block:        2 * time.Second,
			RequeueDelay: 100 * time.Millisecond,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create consumer", "error", err)
			os.Exit(1)
		}
		embedded = worker.New(consumer, services.Recorder(), worker.Config{MaxAttempts: cfg.Pipeline.MaxAttempts})
		go func() {
			if err := embedded.Run(ctx); err != nil {
				slog.ErrorContext(ctx, "embedded worker stopped", "error", err)
			}
		}()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute, // replay batches run inside the request
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if embedded != nil {
		embedded.Stop()
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		TraceHeaderName: cfg.Pipeline.TraceHeaderName,
		AdminAPIKey:     cfg.AdminAPIKey,
	})

	return router
}

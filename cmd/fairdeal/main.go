package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aescanero/fairdeal/internal/application/oracle"
	"github.com/aescanero/fairdeal/internal/application/orchestrator"
	"github.com/aescanero/fairdeal/internal/application/uploader"
	"github.com/aescanero/fairdeal/internal/application/workers"
	"github.com/aescanero/fairdeal/internal/config"
	"github.com/aescanero/fairdeal/internal/registry"
	artifactmemory "github.com/aescanero/fairdeal/pkg/adapters/artifacts/memory"
	"github.com/aescanero/fairdeal/pkg/adapters/artifacts/pinata"
	artifactredis "github.com/aescanero/fairdeal/pkg/adapters/artifacts/redis"
	eventmemory "github.com/aescanero/fairdeal/pkg/adapters/events/memory"
	eventredis "github.com/aescanero/fairdeal/pkg/adapters/events/redis"
	"github.com/aescanero/fairdeal/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/fairdeal/pkg/adapters/oracle/ethrpc"
	oraclememory "github.com/aescanero/fairdeal/pkg/adapters/oracle/memory"
	"github.com/aescanero/fairdeal/pkg/adapters/proof/local"
	"github.com/aescanero/fairdeal/pkg/api/grpc"
	"github.com/aescanero/fairdeal/pkg/api/http"
	"github.com/aescanero/fairdeal/pkg/api/websocket"
	"github.com/aescanero/fairdeal/pkg/ports"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting fair deal service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Redis is only dialed when a configured backend needs it.
	var redisClient *goredis.Client
	if cfg.NeedsRedis() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Event bus
	var eventBus ports.EventBus
	switch cfg.Events.Backend {
	case "redis":
		eventBus, err = eventredis.NewStreamsEventBus(
			redisClient,
			cfg.Events.ConsumerGroup,
			fmt.Sprintf("%s-%d", cfg.Events.ConsumerName, os.Getpid()),
			logger,
		)
		if err != nil {
			logger.Fatal("failed to create event bus", zap.Error(err))
		}
	default:
		eventBus = eventmemory.NewInMemoryEventBus()
	}

	// Artifact store
	var artifactStore ports.ArtifactStore
	switch cfg.Uploader.Provider {
	case "pinata":
		artifactStore, err = pinata.NewStore(pinata.Config{
			APIKey:    cfg.Uploader.PinataAPIKey,
			APISecret: cfg.Uploader.PinataAPISecret,
			Timeout:   cfg.Uploader.RequestTimeout,
		}, logger)
		if err != nil {
			logger.Fatal("failed to create pinata store", zap.Error(err))
		}
	case "redis":
		artifactStore = artifactredis.NewStore(redisClient, 0)
	default:
		artifactStore = artifactmemory.NewStore()
	}

	// Oracle client
	var oracleClient ports.OracleClient
	switch cfg.Oracle.Backend {
	case "ethrpc":
		oracleClient, err = ethrpc.NewClient(ethrpc.Config{
			RPCURL:          cfg.Oracle.RPCURL,
			WSURL:           cfg.Oracle.WSURL,
			ContractAddress: cfg.Oracle.ContractAddress,
			RequestTimeout:  cfg.Oracle.RequestTimeout,
		}, logger)
		if err != nil {
			logger.Fatal("failed to create oracle client", zap.Error(err))
		}
	default:
		memClient := oraclememory.NewClient()
		if cfg.Oracle.AutoFulfillDelay > 0 {
			memClient.AutoFulfill(cfg.Oracle.AutoFulfillDelay)
		}
		oracleClient = memClient
	}

	metricsCollector := prometheus.NewCollector()

	// Application components
	proofEngine := local.NewEngine(logger)

	workerPool := workers.NewPool(
		cfg.Workers.PoolSize,
		proofEngine,
		metricsCollector,
		logger,
		cfg.Workers.HealthCheckInterval,
	)

	coordinator := oracle.NewCoordinator(
		oracleClient,
		metricsCollector,
		logger,
		cfg.Oracle.PollInterval,
		cfg.Oracle.PollMaxAttempts,
	)

	up := uploader.New(
		artifactStore,
		metricsCollector,
		logger,
		cfg.Uploader.MaxRetries,
		cfg.Uploader.RetryDelay,
	)

	sessions := registry.New(logger)

	orchestratorMgr := orchestrator.NewManager(
		sessions,
		coordinator,
		up,
		workerPool,
		eventBus,
		metricsCollector,
		logger,
		orchestrator.Config{
			CheckInterval:        cfg.Oracle.CheckInterval,
			AttemptTimeout:       cfg.Oracle.AttemptTimeout,
			SweepInterval:        cfg.Sessions.SweepInterval,
			SessionTTL:           cfg.Sessions.TTL,
			EstimatedWaitSeconds: cfg.Sessions.EstimatedWaitSeconds,
		},
	)

	if err := workerPool.Start(); err != nil {
		logger.Fatal("failed to start worker pool", zap.Error(err))
	}
	orchestratorMgr.Start()

	// API servers
	httpServer := http.NewServer(&http.Config{
		Port:         cfg.HTTPPort,
		Orchestrator: orchestratorMgr,
		Logger:       logger,
	})

	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("fair deal service started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.String("oracle_backend", cfg.Oracle.Backend),
		zap.String("upload_provider", cfg.Uploader.Provider),
		zap.Int("worker_pool_size", cfg.Workers.PoolSize))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := orchestratorMgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator shutdown error", zap.Error(err))
	}

	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker pool shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("fair deal service shut down complete")
}

// initLogger initializes the logger based on log level.
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/config"
	"github.com/democracy-watch/congress-indexer/internal/geo"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/providers/congressapi"
	"github.com/democracy-watch/congress-indexer/internal/providers/houseclerk"
	"github.com/democracy-watch/congress-indexer/internal/providers/senategov"
	temporalprovider "github.com/democracy-watch/congress-indexer/internal/providers/temporal"
	"github.com/democracy-watch/congress-indexer/internal/ratelimit"
	"github.com/democracy-watch/congress-indexer/internal/store"
	"github.com/democracy-watch/congress-indexer/internal/sync"
	"github.com/democracy-watch/congress-indexer/internal/workflows"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
	envPath    = flag.String("env", "", "Path to .env file")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadWorkerConfig(*configPath, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
	}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting sync worker")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	logger.Info("Connected to database")

	dataStore := store.NewPGStore(db)

	// Initialize adapters and the shared per-source rate limiter
	clockAdapter := adapter.NewClock()
	httpClient := adapter.NewHTTPClient(cfg.Sources.HTTPTimeout)
	rateLimiter, err := ratelimit.NewProxy(cfg.Sources.RateLimiterConfig())
	if err != nil {
		logger.Fatal("Failed to initialize rate limiter", zap.Error(err))
	}

	// Source clients
	congressClient := congressapi.NewClient(httpClient, rateLimiter, cfg.Sources.CongressAPIURL, cfg.Sources.CongressAPIKey)
	clerkClient := houseclerk.NewClient(httpClient, rateLimiter, cfg.Sources.HouseClerkURL, clockAdapter)
	senateClient := senategov.NewClient(httpClient, rateLimiter, cfg.Sources.SenateGovURL, clockAdapter)
	zipLoader := geo.NewZipDistrictLoader(httpClient, dataStore, cfg.Sources.ZipDistrictCSVURL)

	syncService := sync.NewService(congressClient, clerkClient, senateClient, zipLoader, dataStore, clockAdapter, cfg.Sync)
	executor := workflows.NewExecutor(syncService)

	// Connect to Temporal
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporalprovider.NewZapLoggerAdapter(logger.Default()),
	})
	if err != nil {
		logger.Fatal("Failed to connect to Temporal", zap.Error(err), zap.String("host_port", cfg.Temporal.HostPort))
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", zap.String("namespace", cfg.Temporal.Namespace))

	temporalWorker := worker.New(
		temporalClient,
		cfg.Temporal.SyncTaskQueue,
		worker.Options{
			MaxConcurrentActivityExecutionSize: cfg.Temporal.MaxConcurrentActivityExecutionSize,
			WorkerActivitiesPerSecond:          cfg.Temporal.WorkerActivitiesPerSecond,
			MaxConcurrentActivityTaskPollers:   cfg.Temporal.MaxConcurrentActivityTaskPollers,
			Interceptors: []interceptor.WorkerInterceptor{
				temporalprovider.NewSentryActivityInterceptor(),
			},
		})
	logger.Info("Created Temporal worker", zap.String("taskQueue", cfg.Temporal.SyncTaskQueue))

	workerCore := workflows.NewWorkerCore(executor, workflows.WorkerCoreConfig{})

	// Register workflows
	temporalWorker.RegisterWorkflow(workerCore.SyncCongressWorkflow)
	temporalWorker.RegisterWorkflow(workerCore.SyncMembersWorkflow)
	temporalWorker.RegisterWorkflow(workerCore.SyncBillsWorkflow)
	temporalWorker.RegisterWorkflow(workerCore.SyncHouseVotesWorkflow)
	temporalWorker.RegisterWorkflow(workerCore.SyncSenateVotesWorkflow)
	temporalWorker.RegisterWorkflow(workerCore.SyncZipDistrictsWorkflow)
	logger.Info("Registered workflows")

	// Register activities
	temporalWorker.RegisterActivity(executor.SyncMembers)
	temporalWorker.RegisterActivity(executor.SyncBillChunk)
	temporalWorker.RegisterActivity(executor.SyncHouseVoteChunk)
	temporalWorker.RegisterActivity(executor.SyncSenateVoteChunk)
	temporalWorker.RegisterActivity(executor.SyncZipDistricts)
	temporalWorker.RegisterActivity(executor.MarkEntitySynced)
	logger.Info("Registered activities")

	if err := temporalWorker.Start(); err != nil {
		logger.Fatal("Failed to start worker", zap.Error(err))
	}
	logger.Info("Worker started and listening for tasks")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down worker")
	temporalWorker.Stop()
}

// Package main provides the main entry point for the Arc marketing intelligence platform
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arclabs/arc/app/handlers"
	"github.com/arclabs/arc/app/router"
	"github.com/arclabs/arc/app/services"
	"github.com/arclabs/arc/app/worker"
	businessflow "github.com/arclabs/arc/business_flow"
	"github.com/arclabs/arc/config"
	"github.com/arclabs/arc/repository"
	"github.com/arclabs/arc/utils"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Application wires the HTTP server and the ingestion worker together
type Application struct {
	router      router.Router
	worker      *asynq.Server
	workerMux   *asynq.ServeMux
	asynqClient *asynq.Client
	config      *config.Config
	stopFuncs   []func()
}

func main() {
	log.Println("Starting Arc application...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start the ingestion worker in a goroutine
	go func() {
		log.Printf("Worker starting with concurrency %d", cfg.Queue.Concurrency)
		if err := app.worker.Run(app.workerMux); err != nil {
			log.Fatalf("Failed to start worker: %v", err)
		}
	}()

	// Start the HTTP server in a goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	app.worker.Shutdown()
	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	for _, stop := range app.stopFuncs {
		stop()
	}

	log.Println("Application stopped")
}

// setupLogging routes the standard logger through lumberjack when file
// output is configured
func setupLogging(cfg *config.Config) {
	if cfg.Logging.Output != "file" {
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	}))
}

// initializeApplication sets up all application components
func initializeApplication(cfg *config.Config) (*Application, error) {
	db, err := initializeDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := pingRedis(cfg); err != nil {
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	cipher, err := utils.NewCredentialCipher(cfg.Security.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential cipher: %w", err)
	}

	// Repositories
	workspaceRepo := repository.NewWorkspaceRepository(db)
	connRepo := repository.NewAccountConnectionRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	contentRepo := repository.NewContentItemRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	spendRepo := repository.NewSpendRepository(db)
	roiViewRepo := repository.NewROIViewRepository(db)
	jobRunRepo := repository.NewJobRunRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Runs abandoned by a dead worker must not stay RUNNING forever
	swept, err := jobRunRepo.SweepStaleRunning(context.Background(), utils.UTCNowAdd(-utils.StaleJobRunThreshold))
	if err != nil {
		return nil, fmt.Errorf("failed to sweep stale job runs: %w", err)
	}
	if swept > 0 {
		log.Printf("Swept %d stale running job runs", swept)
	}

	// Queue client and enqueuer
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	enqueuer := worker.NewEnqueuer(asynqClient)

	// Platform fetchers
	registry := businessflow.NewFetcherRegistry(
		services.NewYouTubeClient("", 30*time.Second),
		services.NewInstagramClient("", 30*time.Second),
		services.NewGoogleAdsClient("", 30*time.Second),
		services.NewMetaAdsClient("", 30*time.Second),
	)

	// Business flows
	rollupFlow := businessflow.NewRollupFlow(spendRepo, roiViewRepo, db)
	connectionFlow := businessflow.NewConnectionFlow(workspaceRepo, connRepo, auditRepo, cipher)
	campaignFlow := businessflow.NewCampaignFlow(workspaceRepo, campaignRepo, roiViewRepo, auditRepo)
	ingestFlow := businessflow.NewIngestFlow(
		workspaceRepo, connRepo, channelRepo, contentRepo, commentRepo,
		campaignRepo, spendRepo, jobRunRepo, auditRepo,
		rollupFlow, registry, cipher, enqueuer,
	)

	// HTTP layer
	connectionHandler := handlers.NewConnectionHandler(connectionFlow)
	campaignHandler := handlers.NewCampaignHandler(campaignFlow)
	ingestHandler := handlers.NewIngestHandler(ingestFlow)
	fiberRouter := router.NewFiberRouter(connectionHandler, campaignHandler, ingestHandler)

	// Worker
	taskHandler := worker.NewIngestTaskHandler(ingestFlow)
	asynqServer := worker.NewServer(redisOpt, cfg.Queue.Concurrency)
	mux := worker.NewMux(taskHandler)

	app := &Application{
		router:      fiberRouter,
		worker:      asynqServer,
		workerMux:   mux,
		asynqClient: asynqClient,
		config:      cfg,
	}
	app.stopFuncs = append(app.stopFuncs, func() {
		if err := asynqClient.Close(); err != nil {
			log.Printf("Asynq client close error: %v", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return app, nil
}

// initializeDatabase opens the postgres connection and configures pooling
func initializeDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Logging.Level == "debug" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return utils.UTCNow()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	return db, nil
}

// pingRedis verifies the queue backend is reachable before workers start
func pingRedis(cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classched/config"
	"classched/cron"
	"classched/database"
	directoryRepo "classched/database/repository/directory"
	ledgerRepo "classched/database/repository/ledger"
	"classched/handlers"
	"classched/middleware"
	"classched/routes"
	"classched/services/scheduling"
	"classched/services/storage"
	"classched/services/tasks"
	"classched/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	quota, err := cfg.QuotaConfig()
	if err != nil {
		logger.Sugar().Fatalf("main: invalid scheduling configuration: %v", err)
	}

	// repositories.
	var (
		ledger      ledgerRepo.Ledger
		directory   directoryRepo.Directory
		mongoClient *mongo.Client
	)
	switch cfg.LedgerBackend {
	case "memory":
		logger.Warn("main: using in-memory ledger, bookings will not survive a restart")
		ledger = ledgerRepo.NewMemoryLedger()
		directory = directoryRepo.NewMemoryDirectory(directoryRepo.DefaultRoster())
	default:
		database.InitDB()
		mongoClient = database.MongoClient
		db := database.Database()

		mongoLedger := ledgerRepo.NewMongoLedger(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mongoLedger.EnsureIndexes(ctx); err != nil {
			logger.Sugar().Fatalf("main: failed to create ledger indexes: %v", err)
		}
		cancel()
		ledger = mongoLedger
		directory = directoryRepo.NewMongoDirectory(db)
	}

	var redisClients []*redis.Client
	var locker scheduling.Locker
	switch cfg.LockBackend {
	case "redis":
		lockClient := utils.GetLockClient()
		redisClients = append(redisClients, lockClient)
		locker = scheduling.NewRedisLocker(lockClient, cfg.LockTTL, logger)
	default:
		locker = scheduling.NewLocalLocker()
	}

	// services.
	schedulingService := scheduling.NewSchedulingService(ledger, directory, locker, quota, cfg.IngestWorkers, logger)

	var archive storage.ArchiveService = storage.NoopArchive{}
	if cfg.CloudinaryCloudName != "" {
		cloudinaryArchive, err := storage.NewCloudinaryArchive(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.UploadArchiveFolder)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize cloudinary archive: %v", err)
		}
		archive = cloudinaryArchive
	}

	var (
		jobs        *tasks.JobStore
		queue       *asynq.Client
		ingestQueue *asynq.Server
	)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	if cfg.AsyncIngestEnabled {
		jobsClient := utils.GetJobsClient()
		redisClients = append(redisClients, jobsClient)
		jobs = tasks.NewJobStore(jobsClient, cfg.JobReportTTL)
		queue = asynq.NewClient(cron.QueueRedisOpt())
		ingestQueue = cron.InitIngestWorker(workerCtx, schedulingService, jobs, logger)
	}

	healthCtx, stopHealth := context.WithCancel(context.Background())
	utils.StartHealthMonitor(healthCtx, time.Minute, redisClients, mongoClient)

	scheduleHandler := handlers.NewScheduleHandler(schedulingService, jobs, nil, archive, cfg.MaxUploadBytes)
	if queue != nil {
		scheduleHandler.Queue = queue
	}
	handlerBundle := handlers.NewHandlerBundle(scheduleHandler, handlers.NewHealthHandler("classched"))

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	stopHealth()
	stopWorker()
	if ingestQueue != nil {
		ingestQueue.Shutdown()
	}
	if queue != nil {
		if err := queue.Close(); err != nil {
			logger.Warn("main: failed to close queue client", zap.Error(err))
		}
	}
	if err := database.Disconnect(ctx); err != nil {
		logger.Warn("main: failed to disconnect from MongoDB", zap.Error(err))
	}
	_ = logger.Sync()

	logger.Sugar().Info("main: server stopped gracefully")
}

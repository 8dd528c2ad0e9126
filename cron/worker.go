package cron

import (
	"context"
	"fmt"
	"time"

	"classched/config"
	"classched/models"
	"classched/services/scheduling"
	"classched/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt is the asynq connection for the ingest queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitIngestWorker runs the async ingest worker in background and returns
// the server so the caller can shut it down. The queue connection monitor
// runs until ctx is cancelled.
func InitIngestWorker(ctx context.Context, svc scheduling.SchedulingService, jobs *tasks.JobStore, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			// A batch already fans out over INGEST_WORKERS goroutines.
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeIngestRegistrations, NewIngestHandler(svc, jobs, logger))

	monitorClient := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	go monitorRedisConnection(ctx, monitorClient, 10*time.Second, logger)

	go func() {
		logger.Info("starting ingest worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Warn("ingest worker failed to start",
					zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))

				if attempts == maxAttempts {
					logger.Fatal("ingest worker: max retry attempts reached")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
	return srv
}

// NewIngestHandler applies the rows of an ingest task and stores the report.
func NewIngestHandler(svc scheduling.SchedulingService, jobs *tasks.JobStore, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseIngestPayload(task)
		if err != nil {
			logger.Error("dropping ingest task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		log := logger.With(zap.String("jobId", p.JobID), zap.Int("rows", len(p.Rows)))

		if err := jobs.Transition(ctx, p.JobID, func(r *models.IngestReport) {
			r.Status = tasks.JobRunning
		}); err != nil {
			log.Error("could not mark job running", zap.Error(err))
			return err
		}

		outcomes := svc.IngestBatch(ctx, p.Rows)

		if err := jobs.Transition(ctx, p.JobID, func(r *models.IngestReport) {
			r.Status = tasks.JobCompleted
			r.Outcomes = outcomes
		}); err != nil {
			log.Error("could not store job report", zap.Error(err))
			return err
		}
		log.Info("ingest job completed")
		return nil
	}
}

// monitorRedisConnection pings the queue database every interval to surface
// failures at runtime. It closes client when ctx is done.
func monitorRedisConnection(ctx context.Context, client *redis.Client, interval time.Duration, logger *zap.Logger) {
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close ingest queue monitor client", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
			logger.Warn("ingest queue redis connection lost", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

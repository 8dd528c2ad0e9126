package utils

import (
	"context"
	"log"
	"time"

	"classched/config"

	"github.com/go-redis/redis/v8"
)

var (
	// LockClient backs the distributed schedule locks.
	LockClient *redis.Client
	// JobsClient stores async ingest reports.
	JobsClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// GetLockClient returns the Redis client for schedule locks.
func GetLockClient() *redis.Client {
	if LockClient == nil {
		LockClient = newRedisClient(config.AppConfig.RedisLockDB, "Locks")
	}
	return LockClient
}

// GetJobsClient returns the Redis client for ingest job reports.
func GetJobsClient() *redis.Client {
	if JobsClient == nil {
		JobsClient = newRedisClient(config.AppConfig.RedisJobsDB, "Jobs")
	}
	return JobsClient
}

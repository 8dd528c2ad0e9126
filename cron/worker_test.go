package cron

import (
	"context"
	"testing"
	"time"

	directoryRepo "classched/database/repository/directory"
	ledgerRepo "classched/database/repository/ledger"
	"classched/models"
	"classched/services/scheduling"
	"classched/services/tasks"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIngestHandlerStoresReport(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	jobs := tasks.NewJobStore(client, time.Hour)

	quota := scheduling.DailyQuotaConfig{
		ClassDuration:    time.Hour,
		MaxPerStudent:    3,
		MaxPerInstructor: 5,
		MaxPerClassType:  10,
		Location:         time.UTC,
	}
	svc := scheduling.NewSchedulingService(
		ledgerRepo.NewMemoryLedger(),
		directoryRepo.NewMemoryDirectory(directoryRepo.DefaultRoster()),
		scheduling.NewLocalLocker(), quota, 2, zap.NewNop())

	_, err := jobs.Create(ctx, "job-1", "upload.csv")
	require.NoError(t, err)

	task, _, err := tasks.NewIngestTask(tasks.IngestPayload{
		JobID: "job-1",
		Rows: []models.RowRecord{
			{Line: 2, Action: "new", RegistrationID: "1", StudentID: "1", InstructorID: "1", ClassTypeID: "1", StartTime: "2024-01-01T09:00"},
			{Line: 3, Action: "new", RegistrationID: "2", StudentID: "1", InstructorID: "2", ClassTypeID: "1", StartTime: "2024-01-01T09:30"},
		},
	})
	require.NoError(t, err)

	handler := NewIngestHandler(svc, jobs, zap.NewNop())
	require.NoError(t, handler.ProcessTask(ctx, task))

	report, err := jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, tasks.JobCompleted, report.Status)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, models.RowSuccess, report.Outcomes[0].Status)
	assert.Equal(t, models.RowRejected, report.Outcomes[1].Status)
}

func TestIngestHandlerSkipsBadPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	handler := NewIngestHandler(nil, tasks.NewJobStore(client, time.Hour), zap.NewNop())
	err := handler.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeIngestRegistrations, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestMonitorRedisConnectionStopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitorRedisConnection(ctx, client, 10*time.Millisecond, zap.NewNop())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not return after cancel")
	}
	assert.ErrorIs(t, client.Ping(context.Background()).Err(), redis.ErrClosed)
}

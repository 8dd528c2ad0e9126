package tasks

import (
	"context"
	"testing"
	"time"

	"classched/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJobStore(t *testing.T) (*JobStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJobStore(client, time.Hour), mr
}

func TestJobStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestJobStore(t)

	id := NewJobID()
	created, err := store.Create(ctx, id, "registrations.csv")
	require.NoError(t, err)
	assert.Equal(t, JobQueued, created.Status)

	require.NoError(t, store.Transition(ctx, id, func(r *models.IngestReport) {
		r.Status = JobCompleted
		r.Outcomes = []models.RowOutcome{{Line: 2, RegistrationID: 1, Status: models.RowSuccess}}
	}))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, got.Status)
	assert.Equal(t, "registrations.csv", got.FileName)
	require.Len(t, got.Outcomes, 1)
	assert.Equal(t, models.RowSuccess, got.Outcomes[0].Status)

	assert.Equal(t, time.Hour, mr.TTL(store.prefix+id))

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobStoreUnknownJob(t *testing.T) {
	store, _ := newTestJobStore(t)
	err := store.Transition(context.Background(), "missing", func(*models.IngestReport) {})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestIngestTaskRoundTrip(t *testing.T) {
	payload := IngestPayload{
		JobID:    "job-1",
		FileName: "a.csv",
		Rows:     []models.RowRecord{{Line: 2, Action: "new", RegistrationID: "1"}},
	}
	task, opts, err := NewIngestTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TypeIngestRegistrations, task.Type())
	assert.Len(t, opts, 2)

	got, err := ParseIngestPayload(task)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

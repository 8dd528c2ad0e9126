package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"classched/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// ErrJobNotFound is returned for unknown or expired job ids.
var ErrJobNotFound = errors.New("job not found")

// JobStore keeps ingest reports in Redis until they expire.
type JobStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

func NewJobStore(client *redis.Client, ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JobStore{client: client, ttl: ttl, prefix: "classched:job:", now: time.Now}
}

// NewJobID returns a fresh job identifier.
func NewJobID() string {
	return uuid.NewString()
}

// Create records a queued job.
func (s *JobStore) Create(ctx context.Context, jobID, fileName string) (*models.IngestReport, error) {
	now := s.now().UTC()
	report := &models.IngestReport{
		JobID:     jobID,
		Status:    JobQueued,
		FileName:  fileName,
		Outcomes:  []models.RowOutcome{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Save(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *JobStore) Save(ctx context.Context, report *models.IngestReport) error {
	report.UpdatedAt = s.now().UTC()
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", report.JobID, err)
	}
	if err := s.client.Set(ctx, s.prefix+report.JobID, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", report.JobID, err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, jobID string) (*models.IngestReport, error) {
	b, err := s.client.Get(ctx, s.prefix+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	var report models.IngestReport
	if err := json.Unmarshal(b, &report); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &report, nil
}

// Transition loads the job, applies update and saves it back.
func (s *JobStore) Transition(ctx context.Context, jobID string, update func(*models.IngestReport)) error {
	report, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	update(report)
	return s.Save(ctx, report)
}

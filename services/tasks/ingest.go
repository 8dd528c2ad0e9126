package tasks

import (
	"encoding/json"
	"fmt"

	"classched/models"

	"github.com/hibiken/asynq"
)

const TypeIngestRegistrations = "registrations:ingest"

// IngestPayload is the body of an ingest task.
type IngestPayload struct {
	JobID    string             `json:"jobId"`
	FileName string             `json:"fileName"`
	Rows     []models.RowRecord `json:"rows"`
}

func NewIngestTask(payload IngestPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeIngestRegistrations, b)
	// Rows are not idempotent once applied, so a failed job is not retried.
	opts := []asynq.Option{asynq.MaxRetry(0), asynq.TaskID(payload.JobID)}

	return task, opts, nil
}

// ParseIngestPayload decodes the body of an ingest task.
func ParseIngestPayload(task *asynq.Task) (IngestPayload, error) {
	var p IngestPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid ingest payload: %w", err)
	}
	if p.JobID == "" {
		return p, fmt.Errorf("invalid ingest payload: missing job id")
	}
	return p, nil
}

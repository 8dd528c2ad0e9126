package models

import "time"

// Row actions accepted by the ingestion pipeline.
const (
	ActionNew    = "new"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// RowStatus is the per-row ingestion result.
type RowStatus string

const (
	RowSuccess  RowStatus = "success"
	RowRejected RowStatus = "rejected"
	RowError    RowStatus = "error"
)

// RowRecord is one uploaded registration row. Fields are kept as raw text;
// the pipeline owns parsing and validation.
type RowRecord struct {
	Line           int    `json:"line"`
	Action         string `json:"action"`
	RegistrationID string `json:"registrationId"`
	StudentID      string `json:"studentId"`
	InstructorID   string `json:"instructorId"`
	ClassTypeID    string `json:"classTypeId"`
	StartTime      string `json:"startTime"`
	// Malformed holds the decoder's complaint when the line itself could not be read.
	Malformed string `json:"malformed,omitempty"`
}

// RowOutcome reports what happened to one RowRecord.
type RowOutcome struct {
	Line           int       `json:"line"`
	RegistrationID int64     `json:"registrationId,omitempty"`
	Status         RowStatus `json:"status"`
	Message        string    `json:"message"`
}

// IngestReport is the result of an asynchronous ingestion job.
type IngestReport struct {
	JobID     string       `json:"jobId"`
	Status    string       `json:"status"` // queued, running, completed or failed
	FileName  string       `json:"fileName,omitempty"`
	Outcomes  []RowOutcome `json:"outcomes"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

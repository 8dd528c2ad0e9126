package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"

	"classched/models"
	"classched/services/ingest"
	"classched/services/scheduling"
	"classched/services/storage"
	"classched/services/tasks"
	"classched/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskEnqueuer is the part of the asynq client the upload handler needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ScheduleHandler serves registration uploads and schedule queries.
type ScheduleHandler struct {
	Service        scheduling.SchedulingService
	Jobs           *tasks.JobStore
	Queue          TaskEnqueuer
	Archive        storage.ArchiveService
	MaxUploadBytes int64
}

// NewScheduleHandler creates a ScheduleHandler. Async uploads are only
// accepted when both jobs and queue are set.
func NewScheduleHandler(svc scheduling.SchedulingService, jobs *tasks.JobStore, queue TaskEnqueuer, archive storage.ArchiveService, maxUploadBytes int64) *ScheduleHandler {
	if archive == nil {
		archive = storage.NoopArchive{}
	}
	return &ScheduleHandler{
		Service:        svc,
		Jobs:           jobs,
		Queue:          queue,
		Archive:        archive,
		MaxUploadBytes: maxUploadBytes,
	}
}

// UploadRegistrationsHandler ingests a CSV upload. With ?mode=async the rows
// are queued and a job id is returned instead of the outcomes.
func (h *ScheduleHandler) UploadRegistrationsHandler(c *gin.Context) {
	logger := getLogger(c)

	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.JSONError(c, http.StatusRequestEntityTooLarge, "file too large", err.Error())
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "file not provided", err.Error())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to open file", err.Error())
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to read file", err.Error())
		return
	}

	rows, err := ingest.DecodeCSV(bytes.NewReader(data))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid CSV file", err.Error())
		return
	}

	if publicID, err := h.Archive.Archive(c.Request.Context(), fileHeader.Filename, bytes.NewReader(data)); err != nil {
		logger.Warn("failed to archive upload", zap.String("file", fileHeader.Filename), zap.Error(err))
	} else if publicID != "" {
		logger.Info("upload archived", zap.String("file", fileHeader.Filename), zap.String("publicId", publicID))
	}

	if c.Query("mode") == "async" {
		h.enqueue(c, fileHeader.Filename, rows)
		return
	}

	outcomes := h.Service.IngestBatch(c.Request.Context(), rows)
	if outcomes == nil {
		outcomes = []models.RowOutcome{}
	}
	utils.JSONSuccess(c, http.StatusCreated, "Registrations processed", outcomes)
}

func (h *ScheduleHandler) enqueue(c *gin.Context, fileName string, rows []models.RowRecord) {
	if h.Jobs == nil || h.Queue == nil {
		utils.JSONError(c, http.StatusBadRequest, "async ingestion is disabled", "")
		return
	}
	ctx := c.Request.Context()

	jobID := tasks.NewJobID()
	report, err := h.Jobs.Create(ctx, jobID, fileName)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create ingest job", err.Error())
		return
	}

	task, opts, err := tasks.NewIngestTask(tasks.IngestPayload{JobID: jobID, FileName: fileName, Rows: rows})
	if err == nil {
		_, err = h.Queue.EnqueueContext(ctx, task, opts...)
	}
	if err != nil {
		_ = h.Jobs.Transition(ctx, jobID, func(r *models.IngestReport) {
			r.Status = tasks.JobFailed
			r.Error = err.Error()
		})
		utils.JSONError(c, http.StatusInternalServerError, "failed to queue ingest job", err.Error())
		return
	}

	utils.JSONSuccess(c, http.StatusAccepted, "Registrations queued", report)
}

// GetIngestJobHandler returns the report of an async upload.
func (h *ScheduleHandler) GetIngestJobHandler(c *gin.Context) {
	if h.Jobs == nil {
		utils.JSONError(c, http.StatusNotFound, "job not found", "async ingestion is disabled")
		return
	}
	report, err := h.Jobs.Get(c.Request.Context(), c.Param("jobID"))
	if errors.Is(err, tasks.ErrJobNotFound) {
		utils.JSONError(c, http.StatusNotFound, "job not found", "")
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load job", err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, "", report)
}

// ListSchedulesHandler lists bookings filtered by startDate, endDate and instructorId,
// each with its student, instructor and class type records.
func (h *ScheduleHandler) ListSchedulesHandler(c *gin.Context) {
	var query models.BookingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	schedules, err := h.Service.ListSchedules(c.Request.Context(), query)
	if err != nil {
		respondQueryError(c, "failed to list schedules", err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, "Schedule List", schedules)
}

// InstructorCountsHandler returns the number of classes per instructor name.
func (h *ScheduleHandler) InstructorCountsHandler(c *gin.Context) {
	var query models.BookingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	counts, err := h.Service.CountBookingsByInstructor(c.Request.Context(), query)
	if err != nil {
		respondQueryError(c, "failed to count classes", err)
		return
	}

	result := make([]models.InstructorCount, 0, len(counts))
	for name, n := range counts {
		result = append(result, models.InstructorCount{Name: name, Classes: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Classes != result[j].Classes {
			return result[i].Classes > result[j].Classes
		}
		return result[i].Name < result[j].Name
	})
	utils.JSONSuccess(c, http.StatusOK, "", result)
}

// ListInstructorsHandler lists every known instructor.
func (h *ScheduleHandler) ListInstructorsHandler(c *gin.Context) {
	instructors, err := h.Service.ListInstructors(c.Request.Context())
	if err != nil {
		respondQueryError(c, "failed to list instructors", err)
		return
	}
	if instructors == nil {
		instructors = []models.Instructor{}
	}
	utils.JSONSuccess(c, http.StatusOK, "", instructors)
}

func respondQueryError(c *gin.Context, message string, err error) {
	if scheduling.IsValidation(err) {
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	utils.JSONError(c, http.StatusInternalServerError, message, err.Error())
}

package scheduling

import (
	"context"
	"strings"
	"time"

	directoryRepo "classched/database/repository/directory"
	ledgerRepo "classched/database/repository/ledger"
	"classched/models"

	"go.uber.org/zap"
)

// UnknownInstructor names instructors missing from the directory. Students
// and class types missing from the directory are named the same way.
const UnknownInstructor = "Unknown"

// SchedulingService is the surface the HTTP layer and the async worker use.
type SchedulingService interface {
	IngestBatch(ctx context.Context, rows []models.RowRecord) []models.RowOutcome
	ListBookings(ctx context.Context, query models.BookingQuery) ([]models.Booking, error)
	ListSchedules(ctx context.Context, query models.BookingQuery) ([]models.Schedule, error)
	CountBookingsByInstructor(ctx context.Context, query models.BookingQuery) (map[string]int, error)
	ListInstructors(ctx context.Context) ([]models.Instructor, error)
}

// DefaultSchedulingService implements SchedulingService.
type DefaultSchedulingService struct {
	Ledger    ledgerRepo.Ledger
	Directory directoryRepo.Directory
	Pipeline  *Pipeline
	Quota     DailyQuotaConfig
	Logger    *zap.Logger
}

// NewSchedulingService wires the pipeline around ledger and locker.
func NewSchedulingService(
	ledger ledgerRepo.Ledger,
	directory directoryRepo.Directory,
	locker Locker,
	quota DailyQuotaConfig,
	workers int,
	logger *zap.Logger,
) *DefaultSchedulingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultSchedulingService{
		Ledger:    ledger,
		Directory: directory,
		Pipeline:  NewPipeline(ledger, locker, quota, workers, logger),
		Quota:     quota,
		Logger:    logger,
	}
}

func (s *DefaultSchedulingService) IngestBatch(ctx context.Context, rows []models.RowRecord) []models.RowOutcome {
	started := time.Now()
	outcomes := s.Pipeline.IngestBatch(ctx, rows)

	var succeeded, rejected, failed int
	for _, o := range outcomes {
		switch o.Status {
		case models.RowSuccess:
			succeeded++
		case models.RowRejected:
			rejected++
		default:
			failed++
		}
	}
	s.Logger.Info("registration batch ingested",
		zap.Int("rows", len(rows)),
		zap.Int("succeeded", succeeded),
		zap.Int("rejected", rejected),
		zap.Int("errors", failed),
		zap.Duration("elapsed", time.Since(started)),
	)
	return outcomes
}

// ListBookings returns bookings matching the query, ordered by start time.
func (s *DefaultSchedulingService) ListBookings(ctx context.Context, query models.BookingQuery) ([]models.Booking, error) {
	filter, err := s.parseQuery(query, true)
	if err != nil {
		return nil, err
	}
	bookings, err := s.Ledger.List(ctx, filter)
	if err != nil {
		return nil, persistenceError("list bookings", err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// ListSchedules is ListBookings with each booking's student, instructor and
// class type records attached.
func (s *DefaultSchedulingService) ListSchedules(ctx context.Context, query models.BookingQuery) ([]models.Schedule, error) {
	bookings, err := s.ListBookings(ctx, query)
	if err != nil {
		return nil, err
	}

	var studentIDs, instructorIDs, classTypeIDs []int64
	for _, b := range bookings {
		studentIDs = append(studentIDs, b.StudentID)
		instructorIDs = append(instructorIDs, b.InstructorID)
		classTypeIDs = append(classTypeIDs, b.ClassTypeID)
	}
	students, err := s.Directory.StudentNames(ctx, uniqueIDs(studentIDs))
	if err != nil {
		return nil, persistenceError("resolve student names", err)
	}
	instructors, err := s.Directory.InstructorNames(ctx, uniqueIDs(instructorIDs))
	if err != nil {
		return nil, persistenceError("resolve instructor names", err)
	}
	classTypes, err := s.Directory.ClassTypeNames(ctx, uniqueIDs(classTypeIDs))
	if err != nil {
		return nil, persistenceError("resolve class type names", err)
	}

	schedules := make([]models.Schedule, 0, len(bookings))
	for _, b := range bookings {
		schedules = append(schedules, models.Schedule{
			Booking:    b,
			Student:    models.Student{ID: b.StudentID, Name: nameOrUnknown(students, b.StudentID)},
			Instructor: models.Instructor{ID: b.InstructorID, Name: nameOrUnknown(instructors, b.InstructorID)},
			ClassType:  models.ClassType{ID: b.ClassTypeID, Name: nameOrUnknown(classTypes, b.ClassTypeID)},
		})
	}
	return schedules, nil
}

// CountBookingsByInstructor returns booking counts keyed by instructor name.
// Instructors sharing a name are summed.
func (s *DefaultSchedulingService) CountBookingsByInstructor(ctx context.Context, query models.BookingQuery) (map[string]int, error) {
	filter, err := s.parseQuery(query, false)
	if err != nil {
		return nil, err
	}
	counts, err := s.Ledger.CountByInstructor(ctx, filter)
	if err != nil {
		return nil, persistenceError("count bookings per instructor", err)
	}

	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	names, err := s.Directory.InstructorNames(ctx, ids)
	if err != nil {
		return nil, persistenceError("resolve instructor names", err)
	}

	byName := make(map[string]int, len(counts))
	for id, count := range counts {
		byName[nameOrUnknown(names, id)] += count
	}
	return byName, nil
}

func (s *DefaultSchedulingService) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	instructors, err := s.Directory.ListInstructors(ctx)
	if err != nil {
		return nil, persistenceError("list instructors", err)
	}
	return instructors, nil
}

func nameOrUnknown(names map[int64]string, id int64) string {
	name, ok := names[id]
	if !ok || strings.TrimSpace(name) == "" {
		return UnknownInstructor
	}
	return name
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// parseQuery turns the raw query into a ledger filter. A date-only endDate
// covers the whole of that day.
func (s *DefaultSchedulingService) parseQuery(query models.BookingQuery, allowInstructor bool) (models.BookingFilter, error) {
	var filter models.BookingFilter
	loc := s.Quota.location()

	if raw := strings.TrimSpace(query.StartDate); raw != "" {
		from, err := parseFilterDate(raw, loc, false)
		if err != nil {
			return filter, newValidationError("startDate", "invalid startDate format %q", raw)
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(query.EndDate); raw != "" {
		to, err := parseFilterDate(raw, loc, true)
		if err != nil {
			return filter, newValidationError("endDate", "invalid endDate format %q", raw)
		}
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return filter, newValidationError("endDate", "endDate must not be before startDate")
	}
	if allowInstructor && strings.TrimSpace(query.InstructorID) != "" {
		id, err := parseID("instructorId", query.InstructorID)
		if err != nil {
			return filter, err
		}
		filter.InstructorID = id
	}
	return filter, nil
}

func parseFilterDate(raw string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if day, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		if endOfDay {
			_, end := DayWindow(day, loc)
			return end, nil
		}
		return day, nil
	}
	return ParseStartTime(raw, loc)
}

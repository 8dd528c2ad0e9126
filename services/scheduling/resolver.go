package scheduling

import (
	"context"
	"fmt"
	"time"

	"classched/models"
)

// Proposal is a booking candidate submitted to the resolver.
type Proposal struct {
	StudentID    int64
	InstructorID int64
	ClassTypeID  int64
	StartTime    time.Time
	// ExcludeRegistrationID keeps an updated booking from conflicting with its own prior slot.
	ExcludeRegistrationID int64
}

// Decision is the resolver's verdict. Reason and Message are empty when admissible.
type Decision struct {
	Admissible bool
	Reason     RejectReason
	Message    string
}

// Err returns the decision as a *ConflictRejected, or nil when admissible.
func (d Decision) Err() error {
	if d.Admissible {
		return nil
	}
	return &ConflictRejected{Reason: d.Reason, Detail: d.Message}
}

func reject(reason RejectReason, format string, args ...any) Decision {
	return Decision{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ConflictResolver decides whether a proposal may be scheduled. It holds no
// state of its own; the caller provides isolation around check and write.
type ConflictResolver struct {
	quota *QuotaTracker
	cfg   DailyQuotaConfig
}

func NewConflictResolver(quota *QuotaTracker, cfg DailyQuotaConfig) *ConflictResolver {
	return &ConflictResolver{quota: quota, cfg: cfg}
}

// CanSchedule runs the checks in order and stops at the first failure:
// student overlap, instructor overlap, then the student, instructor and
// class type daily quotas. Overlap is always reported ahead of quota.
// Overlap candidates are the entity's bookings starting on the same calendar
// day in the configured timezone, so a class running past midnight is not
// compared with the next day's bookings.
func (r *ConflictResolver) CanSchedule(ctx context.Context, p Proposal) (Decision, error) {
	proposed := NewInterval(p.StartTime, r.cfg.ClassDuration)

	studentBookings, err := r.quota.BookingsOnDay(ctx, models.EntityStudent, p.StudentID, p.StartTime, p.ExcludeRegistrationID)
	if err != nil {
		return Decision{}, fmt.Errorf("load student bookings: %w", err)
	}
	if clash, ok := r.firstOverlap(studentBookings, proposed); ok {
		return reject(ReasonStudentOverlap, "student %d has another class (registration %d) that overlaps with this time",
			p.StudentID, clash.RegistrationID), nil
	}

	instructorBookings, err := r.quota.BookingsOnDay(ctx, models.EntityInstructor, p.InstructorID, p.StartTime, p.ExcludeRegistrationID)
	if err != nil {
		return Decision{}, fmt.Errorf("load instructor bookings: %w", err)
	}
	if clash, ok := r.firstOverlap(instructorBookings, proposed); ok {
		return reject(ReasonInstructorOverlap, "instructor %d has another class (registration %d) that overlaps with this time",
			p.InstructorID, clash.RegistrationID), nil
	}

	classTypeCount, err := r.quota.CountBookingsOnDay(ctx, models.EntityClassType, p.ClassTypeID, p.StartTime, p.ExcludeRegistrationID)
	if err != nil {
		return Decision{}, fmt.Errorf("count class type bookings: %w", err)
	}

	counts := []struct {
		kind  models.EntityKind
		id    int64
		count int
	}{
		{models.EntityStudent, p.StudentID, len(studentBookings)},
		{models.EntityInstructor, p.InstructorID, len(instructorBookings)},
		{models.EntityClassType, p.ClassTypeID, classTypeCount},
	}
	for _, c := range counts {
		limit := r.cfg.Limit(c.kind)
		if c.count >= limit {
			return reject(quotaReason(c.kind), "%s %d has reached max classes per day (%d)", c.kind, c.id, limit), nil
		}
	}

	return Decision{Admissible: true}, nil
}

func (r *ConflictResolver) firstOverlap(bookings []models.Booking, proposed Interval) (models.Booking, bool) {
	for _, b := range bookings {
		if r.intervalOf(b).Overlaps(proposed) {
			return b, true
		}
	}
	return models.Booking{}, false
}

// intervalOf uses the stored end time, falling back to the configured
// duration for records written without one.
func (r *ConflictResolver) intervalOf(b models.Booking) Interval {
	if b.EndTime.After(b.StartTime) {
		return Interval{Start: b.StartTime, End: b.EndTime}
	}
	return NewInterval(b.StartTime, r.cfg.ClassDuration)
}

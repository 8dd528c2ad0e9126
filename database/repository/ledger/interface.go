package ledgerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classched/models"
)

var (
	// ErrDuplicateKey is returned by Create when the registration id already has a live booking.
	ErrDuplicateKey = errors.New("registration already exists")
	// ErrNotFound is returned when no live booking exists for a registration id.
	ErrNotFound = errors.New("booking not found")
)

// Ledger is the authoritative store of live bookings keyed by registration id.
type Ledger interface {
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, registrationID int64, booking *models.Booking) error
	Delete(ctx context.Context, registrationID int64) error
	Get(ctx context.Context, registrationID int64) (*models.Booking, error)
	// ListByEntity returns the entity's bookings whose start time lies in [from, to].
	ListByEntity(ctx context.Context, kind models.EntityKind, entityID int64, from, to time.Time) ([]models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	// CountByInstructor returns booking counts keyed by instructor id.
	CountByInstructor(ctx context.Context, filter models.BookingFilter) (map[int64]int, error)
}

func entityField(kind models.EntityKind) (string, error) {
	switch kind {
	case models.EntityStudent:
		return "student_id", nil
	case models.EntityInstructor:
		return "instructor_id", nil
	case models.EntityClassType:
		return "class_type_id", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

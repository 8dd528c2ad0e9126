package scheduling

import (
	"context"
	"time"

	ledgerRepo "classched/database/repository/ledger"
	"classched/models"
)

// QuotaTracker counts live bookings per entity per calendar day. It reads
// the ledger on every call so rows committed earlier in a batch are seen.
type QuotaTracker struct {
	ledger ledgerRepo.Ledger
	cfg    DailyQuotaConfig
}

func NewQuotaTracker(ledger ledgerRepo.Ledger, cfg DailyQuotaConfig) *QuotaTracker {
	return &QuotaTracker{ledger: ledger, cfg: cfg}
}

// BookingsOnDay returns the entity's bookings starting on day's calendar day,
// leaving out excludeRegistrationID (0 excludes nothing).
func (q *QuotaTracker) BookingsOnDay(ctx context.Context, kind models.EntityKind, entityID int64, day time.Time, excludeRegistrationID int64) ([]models.Booking, error) {
	from, to := DayWindow(day, q.cfg.location())
	bookings, err := q.ledger.ListByEntity(ctx, kind, entityID, from, to)
	if err != nil {
		return nil, err
	}
	if excludeRegistrationID == 0 {
		return bookings, nil
	}
	kept := bookings[:0]
	for _, b := range bookings {
		if b.RegistrationID != excludeRegistrationID {
			kept = append(kept, b)
		}
	}
	return kept, nil
}

// CountBookingsOnDay returns how many bookings the entity already holds on day.
func (q *QuotaTracker) CountBookingsOnDay(ctx context.Context, kind models.EntityKind, entityID int64, day time.Time, excludeRegistrationID int64) (int, error) {
	bookings, err := q.BookingsOnDay(ctx, kind, entityID, day, excludeRegistrationID)
	if err != nil {
		return 0, err
	}
	return len(bookings), nil
}

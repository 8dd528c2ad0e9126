package ledgerRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"classched/models"
)

// MemoryLedger keeps bookings in process memory. It backs tests and
// single-instance deployments that do not need durability.
type MemoryLedger struct {
	mu       sync.RWMutex
	bookings map[int64]models.Booking
	now      func() time.Time
}

// NewMemoryLedger constructs an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		bookings: make(map[int64]models.Booking),
		now:      time.Now,
	}
}

func (l *MemoryLedger) Create(_ context.Context, booking *models.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.bookings[booking.RegistrationID]; exists {
		return ErrDuplicateKey
	}
	now := l.now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	l.bookings[booking.RegistrationID] = *booking
	return nil
}

func (l *MemoryLedger) Update(_ context.Context, registrationID int64, booking *models.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, exists := l.bookings[registrationID]
	if !exists {
		return ErrNotFound
	}
	booking.RegistrationID = registrationID
	booking.CreatedAt = existing.CreatedAt
	booking.UpdatedAt = l.now()
	l.bookings[registrationID] = *booking
	return nil
}

func (l *MemoryLedger) Delete(_ context.Context, registrationID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.bookings[registrationID]; !exists {
		return ErrNotFound
	}
	delete(l.bookings, registrationID)
	return nil
}

func (l *MemoryLedger) Get(_ context.Context, registrationID int64) (*models.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	booking, exists := l.bookings[registrationID]
	if !exists {
		return nil, ErrNotFound
	}
	return &booking, nil
}

func (l *MemoryLedger) ListByEntity(_ context.Context, kind models.EntityKind, entityID int64, from, to time.Time) ([]models.Booking, error) {
	if _, err := entityField(kind); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.Booking
	for _, b := range l.bookings {
		if b.EntityID(kind) != entityID {
			continue
		}
		if b.StartTime.Before(from) || b.StartTime.After(to) {
			continue
		}
		out = append(out, b)
	}
	sortByStart(out)
	return out, nil
}

func (l *MemoryLedger) List(_ context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Booking, 0, len(l.bookings))
	for _, b := range l.bookings {
		if matchesFilter(b, filter) {
			out = append(out, b)
		}
	}
	sortByStart(out)
	return out, nil
}

func (l *MemoryLedger) CountByInstructor(_ context.Context, filter models.BookingFilter) (map[int64]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[int64]int)
	for _, b := range l.bookings {
		if matchesFilter(b, filter) {
			counts[b.InstructorID]++
		}
	}
	return counts, nil
}

func matchesFilter(b models.Booking, filter models.BookingFilter) bool {
	if filter.From != nil && b.StartTime.Before(*filter.From) {
		return false
	}
	if filter.To != nil && b.StartTime.After(*filter.To) {
		return false
	}
	if filter.InstructorID != 0 && b.InstructorID != filter.InstructorID {
		return false
	}
	return true
}

func sortByStart(bookings []models.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].StartTime.Equal(bookings[j].StartTime) {
			return bookings[i].RegistrationID < bookings[j].RegistrationID
		}
		return bookings[i].StartTime.Before(bookings[j].StartTime)
	})
}

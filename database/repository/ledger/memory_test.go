package ledgerRepo

import (
	"context"
	"testing"
	"time"

	"classched/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booking(reg, student, instr, class int64, start time.Time) *models.Booking {
	return &models.Booking{
		RegistrationID: reg,
		StudentID:      student,
		InstructorID:   instr,
		ClassTypeID:    class,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
	}
}

func TestMemoryLedgerCRUD(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.Create(ctx, booking(1, 10, 100, 5, start)))
	assert.ErrorIs(t, l.Create(ctx, booking(1, 11, 101, 6, start)), ErrDuplicateKey)

	got, err := l.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.StudentID)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, l.Update(ctx, 1, booking(0, 12, 100, 5, start.Add(time.Hour))))
	got, err = l.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.RegistrationID)
	assert.Equal(t, int64(12), got.StudentID)

	assert.ErrorIs(t, l.Update(ctx, 2, booking(2, 1, 1, 1, start)), ErrNotFound)

	require.NoError(t, l.Delete(ctx, 1))
	assert.ErrorIs(t, l.Delete(ctx, 1), ErrNotFound)
	_, err = l.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	// Ids are reusable after deletion.
	require.NoError(t, l.Create(ctx, booking(1, 10, 100, 5, start)))
}

func TestMemoryLedgerListByEntity(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.Create(ctx, booking(3, 10, 100, 5, day.Add(15*time.Hour))))
	require.NoError(t, l.Create(ctx, booking(1, 10, 101, 5, day.Add(9*time.Hour))))
	require.NoError(t, l.Create(ctx, booking(2, 11, 100, 6, day.Add(9*time.Hour))))
	require.NoError(t, l.Create(ctx, booking(4, 10, 100, 5, day.Add(33*time.Hour))))

	end := day.Add(24*time.Hour - time.Nanosecond)
	got, err := l.ListByEntity(ctx, models.EntityStudent, 10, day, end)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].RegistrationID)
	assert.Equal(t, int64(3), got[1].RegistrationID)

	got, err = l.ListByEntity(ctx, models.EntityInstructor, 100, day, end)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = l.ListByEntity(ctx, models.EntityClassType, 6, day, end)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = l.ListByEntity(ctx, models.EntityKind("room"), 1, day, end)
	assert.Error(t, err)
}

func TestMemoryLedgerListAndCount(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, l.Create(ctx, booking(1, 10, 100, 5, day.Add(9*time.Hour))))
	require.NoError(t, l.Create(ctx, booking(2, 11, 100, 5, day.Add(33*time.Hour))))
	require.NoError(t, l.Create(ctx, booking(3, 12, 101, 5, day.Add(57*time.Hour))))

	from := day.Add(24 * time.Hour)
	got, err := l.List(ctx, models.BookingFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = l.List(ctx, models.BookingFilter{InstructorID: 100})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	counts, err := l.CountByInstructor(ctx, models.BookingFilter{})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{100: 2, 101: 1}, counts)
}

package scheduling

import (
	"context"
	"testing"
	"time"

	ledgerRepo "classched/database/repository/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(ledger ledgerRepo.Ledger) *ConflictResolver {
	cfg := testQuota()
	return NewConflictResolver(NewQuotaTracker(ledger, cfg), cfg)
}

func TestCanScheduleOverlap(t *testing.T) {
	ctx := context.Background()
	ledger := ledgerRepo.NewMemoryLedger()
	seed(t, ledger, 1, 10, 100, 5, at(t, "2024-01-01T09:00"))
	resolver := newTestResolver(ledger)

	t.Run("same student overlapping", func(t *testing.T) {
		d, err := resolver.CanSchedule(ctx, Proposal{StudentID: 10, InstructorID: 101, ClassTypeID: 5, StartTime: at(t, "2024-01-01T09:30")})
		require.NoError(t, err)
		assert.False(t, d.Admissible)
		assert.Equal(t, ReasonStudentOverlap, d.Reason)
	})

	t.Run("same instructor overlapping", func(t *testing.T) {
		d, err := resolver.CanSchedule(ctx, Proposal{StudentID: 11, InstructorID: 100, ClassTypeID: 5, StartTime: at(t, "2024-01-01T08:30")})
		require.NoError(t, err)
		assert.False(t, d.Admissible)
		assert.Equal(t, ReasonInstructorOverlap, d.Reason)
	})

	t.Run("adjacent is admissible", func(t *testing.T) {
		d, err := resolver.CanSchedule(ctx, Proposal{StudentID: 10, InstructorID: 100, ClassTypeID: 5, StartTime: at(t, "2024-01-01T10:00")})
		require.NoError(t, err)
		assert.True(t, d.Admissible)
		assert.NoError(t, d.Err())
	})

	t.Run("own slot is ignored when excluded", func(t *testing.T) {
		d, err := resolver.CanSchedule(ctx, Proposal{StudentID: 10, InstructorID: 100, ClassTypeID: 5, StartTime: at(t, "2024-01-01T09:15"), ExcludeRegistrationID: 1})
		require.NoError(t, err)
		assert.True(t, d.Admissible)
	})
}

func TestCanScheduleOverlapIsDayScoped(t *testing.T) {
	ctx := context.Background()
	ledger := ledgerRepo.NewMemoryLedger()
	seed(t, ledger, 1, 10, 100, 5, at(t, "2024-01-01T23:30"))
	resolver := newTestResolver(ledger)

	// The seeded class runs until 00:30 on the next day, which is a different bucket.
	d, err := resolver.CanSchedule(ctx, Proposal{StudentID: 10, InstructorID: 100, ClassTypeID: 5, StartTime: at(t, "2024-01-02T00:00")})
	require.NoError(t, err)
	assert.True(t, d.Admissible)
}

func TestCanScheduleStudentQuota(t *testing.T) {
	ctx := context.Background()
	ledger := ledgerRepo.NewMemoryLedger()
	seed(t, ledger, 1, 10, 100, 5, at(t, "2024-01-01T08:00"))
	seed(t, ledger, 2, 10, 101, 5, at(t, "2024-01-01T10:00"))
	seed(t, ledger, 3, 10, 102, 5, at(t, "2024-01-01T12:00"))
	resolver := newTestResolver(ledger)

	d, err := resolver.CanSchedule(ctx, Proposal{StudentID: 10, InstructorID: 103, ClassTypeID: 6, StartTime: at(t, "2024-01-01T18:00")})
	require.NoError(t, err)
	assert.False(t, d.Admissible)
	assert.Equal(t, ReasonStudentQuota, d.Reason)

	var conflict *ConflictRejected
	require.ErrorAs(t, d.Err(), &conflict)
	assert.Equal(t, ReasonStudentQuota, conflict.Reason)

	// The next day starts a fresh count.
	d, err = resolver.CanSchedule(ctx, Proposal{StudentID: 10, InstructorID: 103, ClassTypeID: 6, StartTime: at(t, "2024-01-02T08:00")})
	require.NoError(t, err)
	assert.True(t, d.Admissible)
}

func TestCanScheduleOverlapReportedBeforeQuota(t *testing.T) {
	ctx := context.Background()
	ledger := ledgerRepo.NewMemoryLedger()
	seed(t, ledger, 1, 10, 100, 5, at(t, "2024-01-01T08:00"))
	seed(t, ledger, 2, 10, 101, 5, at(t, "2024-01-01T10:00"))
	seed(t, ledger, 3, 10, 102, 5, at(t, "2024-01-01T12:00"))
	resolver := newTestResolver(ledger)

	d, err := resolver.CanSchedule(ctx, Proposal{StudentID: 10, InstructorID: 103, ClassTypeID: 6, StartTime: at(t, "2024-01-01T12:30")})
	require.NoError(t, err)
	assert.Equal(t, ReasonStudentOverlap, d.Reason)
}

func TestCanScheduleInstructorAndClassTypeQuota(t *testing.T) {
	ctx := context.Background()
	ledger := ledgerRepo.NewMemoryLedger()
	day := at(t, "2024-03-04T06:00")
	for i := int64(0); i < 5; i++ {
		seed(t, ledger, 100+i, 20+i, 200, 7, day.Add(time.Duration(i)*2*time.Hour))
	}
	resolver := newTestResolver(ledger)

	d, err := resolver.CanSchedule(ctx, Proposal{StudentID: 99, InstructorID: 200, ClassTypeID: 8, StartTime: at(t, "2024-03-04T22:00")})
	require.NoError(t, err)
	assert.Equal(t, ReasonInstructorQuota, d.Reason)

	for i := int64(0); i < 5; i++ {
		seed(t, ledger, 300+i, 40+i, 300+i, 7, day.Add(time.Duration(i)*2*time.Hour))
	}
	d, err = resolver.CanSchedule(ctx, Proposal{StudentID: 99, InstructorID: 400, ClassTypeID: 7, StartTime: at(t, "2024-03-04T22:00")})
	require.NoError(t, err)
	assert.Equal(t, ReasonClassTypeQuota, d.Reason)
}

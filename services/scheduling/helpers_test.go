package scheduling

import (
	"context"
	"strconv"
	"testing"
	"time"

	ledgerRepo "classched/database/repository/ledger"
	"classched/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testQuota() DailyQuotaConfig {
	return DailyQuotaConfig{
		ClassDuration:    60 * time.Minute,
		MaxPerStudent:    3,
		MaxPerInstructor: 5,
		MaxPerClassType:  10,
		Location:         time.UTC,
	}
}

func newTestPipeline(t *testing.T, ledger ledgerRepo.Ledger, locker Locker) *Pipeline {
	t.Helper()
	if ledger == nil {
		ledger = ledgerRepo.NewMemoryLedger()
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	return NewPipeline(ledger, locker, testQuota(), 4, zap.NewNop())
}

func row(line int, action string, reg, student, instr, class int64, start string) models.RowRecord {
	return models.RowRecord{
		Line:           line,
		Action:         action,
		RegistrationID: strconv.FormatInt(reg, 10),
		StudentID:      strconv.FormatInt(student, 10),
		InstructorID:   strconv.FormatInt(instr, 10),
		ClassTypeID:    strconv.FormatInt(class, 10),
		StartTime:      start,
	}
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := ParseStartTime(value, time.UTC)
	require.NoError(t, err)
	return ts
}

func seed(t *testing.T, ledger ledgerRepo.Ledger, reg, student, instr, class int64, start time.Time) {
	t.Helper()
	err := ledger.Create(context.Background(), &models.Booking{
		RegistrationID: reg,
		StudentID:      student,
		InstructorID:   instr,
		ClassTypeID:    class,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
	})
	require.NoError(t, err)
}

func statuses(outcomes []models.RowOutcome) []models.RowStatus {
	out := make([]models.RowStatus, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Status
	}
	return out
}

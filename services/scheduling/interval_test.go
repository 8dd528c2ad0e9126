package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalOverlaps(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	hour := NewInterval(base, time.Hour)

	tests := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"identical", NewInterval(base, time.Hour), true},
		{"partial from the right", NewInterval(base.Add(30*time.Minute), time.Hour), true},
		{"partial from the left", NewInterval(base.Add(-30*time.Minute), time.Hour), true},
		{"contained", NewInterval(base.Add(10*time.Minute), 10*time.Minute), true},
		{"adjacent after", NewInterval(base.Add(time.Hour), time.Hour), false},
		{"adjacent before", NewInterval(base.Add(-time.Hour), time.Hour), false},
		{"disjoint", NewInterval(base.Add(3*time.Hour), time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hour.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(hour), "overlap must be symmetric")
		})
	}
}

func TestDayWindowUsesLocation(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)

	// 22:30 UTC on Jan 1 is already Jan 2 in Nairobi (UTC+3).
	ts := time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC)

	start, end := DayWindow(ts, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.True(t, end.Before(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))

	start, _ = DayWindow(ts, nairobi)
	assert.Equal(t, "2024-01-02", start.Format("2006-01-02"))
	assert.Equal(t, "2024-01-02", dayLabel(ts, nairobi))
}

func TestQuotaConfigValidate(t *testing.T) {
	cfg := testQuota()
	require.NoError(t, cfg.Validate())

	cfg.ClassDuration = 0
	assert.Error(t, cfg.Validate())

	cfg = testQuota()
	cfg.MaxPerInstructor = 0
	assert.Error(t, cfg.Validate())
}

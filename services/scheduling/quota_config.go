package scheduling

import (
	"fmt"
	"time"

	"classched/models"
)

// DailyQuotaConfig holds the scheduling rules. It is built once at startup
// and passed by value; nothing mutates it afterwards.
type DailyQuotaConfig struct {
	ClassDuration    time.Duration
	MaxPerStudent    int
	MaxPerInstructor int
	MaxPerClassType  int
	// Location is the calendar used to decide which day a booking falls on.
	Location *time.Location
}

// Validate rejects configurations that cannot schedule anything.
func (c DailyQuotaConfig) Validate() error {
	if c.ClassDuration <= 0 {
		return fmt.Errorf("class duration must be positive, got %s", c.ClassDuration)
	}
	for _, kind := range models.EntityKinds {
		if c.Limit(kind) <= 0 {
			return fmt.Errorf("max classes per day for %s must be positive, got %d", kind, c.Limit(kind))
		}
	}
	return nil
}

// Limit returns the daily maximum for kind.
func (c DailyQuotaConfig) Limit(kind models.EntityKind) int {
	switch kind {
	case models.EntityStudent:
		return c.MaxPerStudent
	case models.EntityInstructor:
		return c.MaxPerInstructor
	case models.EntityClassType:
		return c.MaxPerClassType
	default:
		return 0
	}
}

func (c DailyQuotaConfig) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

package scheduling

import (
	"strconv"
	"strings"
	"time"

	"classched/models"
)

// zonedLayouts carry their own offset; localLayouts are read in the
// configured location.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04:05Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006/01/02 15:04:05",
		"2006/01/02 15:04",
		"01/02/2006 15:04:05",
		"01/02/2006 15:04",
		"2006-01-02",
	}
)

// ParseStartTime reads a free-text timestamp.
func ParseStartTime(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, newValidationError("startTime", "missing start time")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newValidationError("startTime", "invalid date format %q", value)
}

func parseID(field, raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, newValidationError(field, "missing %s", field)
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, newValidationError(field, "invalid %s %q", field, value)
	}
	return id, nil
}

func normalizeAction(raw string) (string, error) {
	action := strings.ToLower(strings.TrimSpace(raw))
	switch action {
	case "":
		return "", newValidationError("action", "missing action")
	case models.ActionNew, models.ActionUpdate, models.ActionDelete:
		return action, nil
	default:
		return "", newValidationError("action", "unknown action %q", strings.TrimSpace(raw))
	}
}

// parsedRow is a RowRecord after validation.
type parsedRow struct {
	line           int
	action         string
	registrationID int64
	studentID      int64
	instructorID   int64
	classTypeID    int64
	startTime      time.Time
}

func (p parsedRow) proposal() Proposal {
	return Proposal{
		StudentID:    p.studentID,
		InstructorID: p.instructorID,
		ClassTypeID:  p.classTypeID,
		StartTime:    p.startTime,
	}
}

// parseRow validates the fields the row's action needs. The registration id
// is still returned on failure when it parsed, so the outcome can name it.
func parseRow(rec models.RowRecord, loc *time.Location) (parsedRow, error) {
	row := parsedRow{line: rec.Line}
	if rec.Malformed != "" {
		return row, newValidationError("row", "malformed row: %s", rec.Malformed)
	}
	if id, err := parseID("registrationId", rec.RegistrationID); err == nil {
		row.registrationID = id
	}

	action, err := normalizeAction(rec.Action)
	if err != nil {
		return row, err
	}
	row.action = action

	if row.registrationID == 0 {
		_, err := parseID("registrationId", rec.RegistrationID)
		return row, err
	}
	if action == models.ActionDelete {
		return row, nil
	}

	if row.studentID, err = parseID("studentId", rec.StudentID); err != nil {
		return row, err
	}
	if row.instructorID, err = parseID("instructorId", rec.InstructorID); err != nil {
		return row, err
	}
	if row.classTypeID, err = parseID("classTypeId", rec.ClassTypeID); err != nil {
		return row, err
	}
	if row.startTime, err = ParseStartTime(rec.StartTime, loc); err != nil {
		return row, err
	}
	return row, nil
}

package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCSV(t *testing.T) {
	input := "Registration ID,Student ID,Instructor ID,Class ID,Class Start Time,Action\n" +
		"1,10,100,5,2024-01-01T09:00,new\n" +
		"\n" +
		"2, 11 ,101,5,2024-01-01 09:30,NEW\n" +
		"3,,,,,delete\n"

	rows, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "1", rows[0].RegistrationID)
	assert.Equal(t, "5", rows[0].ClassTypeID)
	assert.Equal(t, "2024-01-01T09:00", rows[0].StartTime)
	assert.Equal(t, "new", rows[0].Action)

	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "11", rows[1].StudentID)
	assert.Equal(t, "NEW", rows[1].Action)

	assert.Equal(t, "delete", rows[2].Action)
	assert.Empty(t, rows[2].StudentID)
}

func TestDecodeCSVHeaderVariants(t *testing.T) {
	input := "\ufeffaction,registration_id,studentId,INSTRUCTOR ID,class-type-id,start time,notes\n" +
		"update,7,10,100,5,2024-01-01T09:00,moved\n"

	rows, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "update", rows[0].Action)
	assert.Equal(t, "7", rows[0].RegistrationID)
	assert.Equal(t, "100", rows[0].InstructorID)
	assert.Equal(t, "5", rows[0].ClassTypeID)
	assert.Equal(t, "2024-01-01T09:00", rows[0].StartTime)
}

func TestDecodeCSVShortRows(t *testing.T) {
	input := "Registration ID,Student ID,Instructor ID,Class ID,Class Start Time,Action\n" +
		"9,10\n"

	rows, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "9", rows[0].RegistrationID)
	assert.Empty(t, rows[0].Action)
}

func TestDecodeCSVMissingColumns(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("Student ID,Class ID\n1,2\n"))
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "Action")
	assert.Contains(t, err.Error(), "Registration ID")

	_, err = DecodeCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

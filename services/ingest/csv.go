package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"classched/models"
)

// ErrMissingColumns is returned when the header lacks a required column.
var ErrMissingColumns = errors.New("missing required columns")

type column int

const (
	colRegistrationID column = iota
	colStudentID
	colInstructorID
	colClassTypeID
	colStartTime
	colAction
)

// headerAliases maps normalized header names to columns. The spaced names
// are the ones the registration export uses.
var headerAliases = map[string]column{
	"registrationid": colRegistrationID,
	"studentid":      colStudentID,
	"instructorid":   colInstructorID,
	"classid":        colClassTypeID,
	"classtypeid":    colClassTypeID,
	"classstarttime": colStartTime,
	"starttime":      colStartTime,
	"action":         colAction,
}

var requiredColumns = map[column]string{
	colRegistrationID: "Registration ID",
	colAction:         "Action",
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// DecodeCSV reads registration rows from r. The first line is the header.
// Lines that cannot be read are returned as Malformed records so they still
// get an outcome.
func DecodeCSV(r io.Reader) ([]models.RowRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[column]int, len(header))
	for i, h := range header {
		if col, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	var missing []string
	for col, name := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var rows []models.RowRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, models.RowRecord{Line: parseErr.StartLine, Malformed: parseErr.Err.Error()})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		get := func(col column) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		rows = append(rows, models.RowRecord{
			Line:           line,
			Action:         get(colAction),
			RegistrationID: get(colRegistrationID),
			StudentID:      get(colStudentID),
			InstructorID:   get(colInstructorID),
			ClassTypeID:    get(colClassTypeID),
			StartTime:      get(colStartTime),
		})
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

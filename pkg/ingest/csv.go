// Package ingest reads availability tables from CSV uploads and writes
// schedules back out as CSV.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/models"
)

const (
	employeeColumn = "employee"
	capColumn      = "maxhoursperweek"
)

// ReadAvailability parses a CSV whose header holds an Employee column, a
// MaxHoursPerWeek column and one column per shift. Shift order follows the
// header. Blank cells read as 0. It also returns the raw rows keyed by
// header name for previews.
func ReadAvailability(r io.Reader) (models.AvailabilityInput, []map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return models.AvailabilityInput{}, nil, errors.InvalidInput("file", "empty CSV")
	}
	if err != nil {
		return models.AvailabilityInput{}, nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to read CSV header")
	}

	var records [][]string
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.AvailabilityInput{}, nil, errors.Wrap(err, errors.CodeInvalidInput, fmt.Sprintf("failed to read CSV line %d", line))
		}
		records = append(records, record)
	}

	in, err := parseRows("file", header, records, func(i int) string {
		return fmt.Sprintf("line %d", i+2)
	})
	if err != nil {
		return models.AvailabilityInput{}, nil, err
	}

	var rows []map[string]string
	for _, record := range records {
		raw := make(map[string]string, len(header))
		for i, h := range header {
			raw[h] = record[i]
		}
		rows = append(rows, raw)
	}
	return in, rows, nil
}

// parseRows builds an availability input from a header and its rows. field
// names the request field in errors and rowName labels a row index.
func parseRows(field string, header []string, records [][]string, rowName func(int) string) (models.AvailabilityInput, error) {
	var in models.AvailabilityInput

	empCol, capCol := -1, -1
	var shiftCols []int
	for i, h := range header {
		h = strings.TrimSpace(h)
		header[i] = h
		switch normalize(h) {
		case employeeColumn:
			empCol = i
		case capColumn:
			capCol = i
		default:
			shiftCols = append(shiftCols, i)
			in.Shifts = append(in.Shifts, h)
		}
	}
	if empCol < 0 {
		return in, errors.InvalidInput(field, "missing Employee column")
	}
	if capCol < 0 {
		return in, errors.InvalidInput(field, "missing MaxHoursPerWeek column")
	}

	in.Cells = make(map[string]map[string]int)
	in.MaxHoursPerWeek = make(map[string]int)

	for n, record := range records {
		if len(record) != len(header) {
			return in, errors.InvalidInput(field, fmt.Sprintf("%s: expected %d fields, got %d", rowName(n), len(header), len(record)))
		}

		emp := strings.TrimSpace(record[empCol])
		if emp == "" {
			return in, errors.InvalidInput(field, fmt.Sprintf("%s: empty employee", rowName(n)))
		}
		if _, dup := in.Cells[emp]; dup {
			return in, errors.InvalidInput(field, fmt.Sprintf("%s: duplicate employee %s", rowName(n), emp))
		}

		maxHours, err := strconv.Atoi(strings.TrimSpace(record[capCol]))
		if err != nil || maxHours < 0 {
			return in, errors.InvalidInput(field, fmt.Sprintf("%s: MaxHoursPerWeek must be a non-negative integer, got %q", rowName(n), record[capCol]))
		}

		row := make(map[string]int, len(shiftCols))
		for k, col := range shiftCols {
			v, err := parseCell(record[col])
			if err != nil {
				return in, errors.InvalidInput(field, fmt.Sprintf("%s, shift %s: %v", rowName(n), in.Shifts[k], err))
			}
			row[in.Shifts[k]] = v
		}

		in.Employees = append(in.Employees, emp)
		in.Cells[emp] = row
		in.MaxHoursPerWeek[emp] = maxHours
	}

	return in, nil
}

func parseCell(s string) (int, error) {
	switch strings.TrimSpace(s) {
	case "", "0":
		return 0, nil
	case "1":
		return 1, nil
	default:
		return 0, fmt.Errorf("non-boolean value %q", s)
	}
}

func normalize(h string) string {
	h = strings.ToLower(h)
	return strings.NewReplacer("_", "", " ", "").Replace(h)
}

// WriteSchedule writes one row per employee and one 0/1 column per shift.
func WriteSchedule(w io.Writer, m *models.Matrix) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(append([]string{"Employee"}, m.Shifts...)); err != nil {
		return err
	}
	for i, e := range m.Employees {
		record := make([]string, 0, len(m.Shifts)+1)
		record = append(record, e)
		for j := range m.Shifts {
			if m.At(i, j) {
				record = append(record, "1")
			} else {
				record = append(record, "0")
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

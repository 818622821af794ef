package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/models"
)

// FromRecords parses availability sent as a list of row objects, the layout
// of the CSV with one object per line. Columns are the union of all keys in
// order of first appearance; a key missing from a row reads as blank.
func FromRecords(records []models.Record) (models.AvailabilityInput, error) {
	if len(records) == 0 {
		return models.AvailabilityInput{}, errors.InvalidInput("availability", "at least one record is required")
	}

	var header []string
	col := make(map[string]int)
	for _, r := range records {
		for _, k := range r.Keys {
			if _, ok := col[k]; !ok {
				col[k] = len(header)
				header = append(header, k)
			}
		}
	}

	rows := make([][]string, len(records))
	for n, r := range records {
		row := make([]string, len(header))
		for _, k := range r.Keys {
			v, err := recordText(r.Values[k])
			if err != nil {
				return models.AvailabilityInput{}, errors.InvalidInput("availability", fmt.Sprintf("record %d, key %s: %v", n+1, k, err))
			}
			row[col[k]] = v
		}
		rows[n] = row
	}

	return parseRows("availability", header, rows, func(i int) string {
		return fmt.Sprintf("record %d", i+1)
	})
}

// recordText renders a JSON scalar the way it would appear in a CSV cell.
// Integral floats such as 1.0 become "1"; booleans become "1" or "0".
func recordText(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", err
	}

	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		f, err := x.Float64()
		if err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return strconv.FormatInt(int64(f), 10), nil
		}
		return x.String(), nil
	default:
		return "", fmt.Errorf("unsupported value %s", raw)
	}
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one availability row of the first API version: an object with
// Employee, MaxHoursPerWeek and one key per shift. Key order is kept
// because it fixes the shift order.
type Record struct {
	Keys   []string
	Values map[string]json.RawMessage
}

// UnmarshalJSON decodes an object and remembers the order of its keys.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("availability record must be an object, got %s", data)
	}

	r.Keys = nil
	r.Values = make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if _, seen := r.Values[key]; !seen {
			r.Keys = append(r.Keys, key)
		}
		r.Values[key] = raw
	}
	_, err = dec.Token()
	return err
}

// ColumnTable is a schedule keyed by shift, then by employee, as the first
// API version exchanged it.
type ColumnTable map[string]map[string]int

// Table transposes c. Shifts come out sorted; employee order is left to
// FromTable.
func (c ColumnTable) Table() Table {
	cells := make(map[string]map[string]int)
	for shift, col := range c {
		for emp, v := range col {
			if cells[emp] == nil {
				cells[emp] = make(map[string]int)
			}
			cells[emp][shift] = v
		}
	}
	return Table{
		Shifts: sortedKeys(map[string]map[string]int(c)),
		Cells:  cells,
	}
}

// ToColumns renders every cell keyed by shift, then by employee.
func (m *Matrix) ToColumns() ColumnTable {
	cols := make(ColumnTable, len(m.Shifts))
	for j, s := range m.Shifts {
		col := make(map[string]int, len(m.Employees))
		for i, e := range m.Employees {
			if m.cells[i][j] {
				col[e] = 1
			} else {
				col[e] = 0
			}
		}
		cols[s] = col
	}
	return cols
}

package models

import (
	"fmt"
	"sort"

	"github.com/arnavshah/roster-api-go/pkg/errors"
)

// Matrix is a dense boolean employee x shift table. It backs both the
// availability matrix and the schedule. Row and column order is the order
// the identifiers were declared in.
type Matrix struct {
	Employees []string
	Shifts    []string

	empIdx   map[string]int
	shiftIdx map[string]int
	cells    [][]bool
}

// NewMatrix creates an all-false matrix. Identifiers must be non-empty and
// unique within their axis.
func NewMatrix(employees, shifts []string) (*Matrix, error) {
	m := &Matrix{
		Employees: append([]string(nil), employees...),
		Shifts:    append([]string(nil), shifts...),
		empIdx:    make(map[string]int, len(employees)),
		shiftIdx:  make(map[string]int, len(shifts)),
	}
	for i, e := range employees {
		if e == "" {
			return nil, errors.InvalidInput("employees", "empty employee id")
		}
		if _, dup := m.empIdx[e]; dup {
			return nil, errors.InvalidInput("employees", "duplicate employee id: "+e)
		}
		m.empIdx[e] = i
	}
	for j, s := range shifts {
		if s == "" {
			return nil, errors.InvalidInput("shifts", "empty shift id")
		}
		if _, dup := m.shiftIdx[s]; dup {
			return nil, errors.InvalidInput("shifts", "duplicate shift id: "+s)
		}
		m.shiftIdx[s] = j
	}
	m.cells = make([][]bool, len(employees))
	for i := range m.cells {
		m.cells[i] = make([]bool, len(shifts))
	}
	return m, nil
}

// FromTable converts a wire table, rejecting non-boolean cells and cells
// that reference undeclared identifiers. Omitted employee or shift lists
// are taken from the cell keys in sorted order.
func FromTable(t Table) (*Matrix, error) {
	employees := t.Employees
	if len(employees) == 0 {
		employees = sortedKeys(t.Cells)
	}
	shifts := t.Shifts
	if len(shifts) == 0 {
		seen := make(map[string]struct{})
		for _, row := range t.Cells {
			for s := range row {
				if _, ok := seen[s]; !ok {
					seen[s] = struct{}{}
					shifts = append(shifts, s)
				}
			}
		}
		sort.Strings(shifts)
	}

	m, err := NewMatrix(employees, shifts)
	if err != nil {
		return nil, err
	}

	for _, e := range sortedKeys(t.Cells) {
		i, ok := m.empIdx[e]
		if !ok {
			return nil, errors.InvalidInput("cells", "unknown employee: "+e)
		}
		row := t.Cells[e]
		for _, s := range sortedKeys(row) {
			j, ok := m.shiftIdx[s]
			if !ok {
				return nil, errors.InvalidInput("cells", "unknown shift: "+s)
			}
			switch row[s] {
			case 0:
			case 1:
				m.cells[i][j] = true
			default:
				return nil, errors.InvalidInput("cells", fmt.Sprintf("non-boolean value %d at (%s, %s)", row[s], e, s))
			}
		}
	}
	return m, nil
}

// ToTable renders every cell, including zeros.
func (m *Matrix) ToTable() Table {
	cells := make(map[string]map[string]int, len(m.Employees))
	for i, e := range m.Employees {
		row := make(map[string]int, len(m.Shifts))
		for j, s := range m.Shifts {
			if m.cells[i][j] {
				row[s] = 1
			} else {
				row[s] = 0
			}
		}
		cells[e] = row
	}
	return Table{
		Employees: append([]string(nil), m.Employees...),
		Shifts:    append([]string(nil), m.Shifts...),
		Cells:     cells,
	}
}

// EmployeeIndex returns the row of an employee.
func (m *Matrix) EmployeeIndex(id string) (int, bool) {
	i, ok := m.empIdx[id]
	return i, ok
}

// ShiftIndex returns the column of a shift.
func (m *Matrix) ShiftIndex(id string) (int, bool) {
	j, ok := m.shiftIdx[id]
	return j, ok
}

func (m *Matrix) HasEmployee(id string) bool {
	_, ok := m.empIdx[id]
	return ok
}

func (m *Matrix) HasShift(id string) bool {
	_, ok := m.shiftIdx[id]
	return ok
}

// At returns the cell at row i, column j.
func (m *Matrix) At(i, j int) bool {
	return m.cells[i][j]
}

// SetAt sets the cell at row i, column j.
func (m *Matrix) SetAt(i, j int, v bool) {
	m.cells[i][j] = v
}

// Get returns the cell for (employee, shift); unknown identifiers read false.
func (m *Matrix) Get(emp, shift string) bool {
	i, ok := m.empIdx[emp]
	if !ok {
		return false
	}
	j, ok := m.shiftIdx[shift]
	if !ok {
		return false
	}
	return m.cells[i][j]
}

// Load counts the true cells in an employee's row.
func (m *Matrix) Load(emp string) int {
	i, ok := m.empIdx[emp]
	if !ok {
		return 0
	}
	return m.rowSum(i)
}

func (m *Matrix) rowSum(i int) int {
	n := 0
	for _, v := range m.cells[i] {
		if v {
			n++
		}
	}
	return n
}

// Loads returns the load of every employee.
func (m *Matrix) Loads() map[string]int {
	loads := make(map[string]int, len(m.Employees))
	for i, e := range m.Employees {
		loads[e] = m.rowSum(i)
	}
	return loads
}

// ColumnFilled reports whether any cell of shift column j is set.
func (m *Matrix) ColumnFilled(j int) bool {
	for i := range m.cells {
		if m.cells[i][j] {
			return true
		}
	}
	return false
}

// SameShape reports whether both matrices cover the same employee set and
// the same shift set. Declaration order is ignored.
func (m *Matrix) SameShape(o *Matrix) bool {
	if len(m.Employees) != len(o.Employees) || len(m.Shifts) != len(o.Shifts) {
		return false
	}
	for _, e := range m.Employees {
		if !o.HasEmployee(e) {
			return false
		}
	}
	for _, s := range m.Shifts {
		if !o.HasShift(s) {
			return false
		}
	}
	return true
}

// Equal reports whether both matrices have the same shape and cell values.
func (m *Matrix) Equal(o *Matrix) bool {
	if !m.SameShape(o) {
		return false
	}
	for _, e := range m.Employees {
		for _, s := range m.Shifts {
			if m.Get(e, s) != o.Get(e, s) {
				return false
			}
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

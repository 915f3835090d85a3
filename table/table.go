// Package table holds the labeled 2-D matrix that every flotilla dataset is
// loaded into. Rows are keyed by sample (or event/gene) ids and columns by
// feature or attribute names. A column is either numeric, with NaN marking a
// missing value, or categorical, with an invalid null.String marking one.
//
// Tables are values: no method mutates its receiver. Subsetting,
// standardizing and dropping rows all return a new Table.
package table

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/guregu/null.v3"
)

// Kind is the storage kind of a column.
type Kind byte

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	}

	return fmt.Sprintf("Kind(%d)", byte(k))
}

type column struct {
	kind Kind
	num  []float64
	cat  []null.String
}

func (c column) len() int {
	if c.kind == Numeric {
		return len(c.num)
	}
	return len(c.cat)
}

// pick returns a new column holding the values at positions idx, in that
// order.
func (c column) pick(idx []int) column {
	out := column{kind: c.kind}
	if c.kind == Numeric {
		out.num = make([]float64, len(idx))
		for i, j := range idx {
			out.num[i] = c.num[j]
		}
		return out
	}

	out.cat = make([]null.String, len(idx))
	for i, j := range idx {
		out.cat[i] = c.cat[j]
	}
	return out
}

type Table struct {
	rows   []string
	cols   []string
	rowIdx map[string]int
	colIdx map[string]int
	data   []column
}

func index(axis Axis, keys []string) (map[string]int, error) {
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		if _, exists := idx[k]; exists {
			return nil, &DuplicateKeyError{Axis: axis, Key: k}
		}
		idx[k] = i
	}
	return idx, nil
}

func newTable(rows, cols []string, data []column) (*Table, error) {
	rowIdx, err := index(Rows, rows)
	if err != nil {
		return nil, err
	}
	colIdx, err := index(Columns, cols)
	if err != nil {
		return nil, err
	}
	if len(data) != len(cols) {
		return nil, fmt.Errorf("%d columns were named but %d were provided", len(cols), len(data))
	}
	for i, c := range data {
		if c.len() != len(rows) {
			return nil, fmt.Errorf("column %q has %d values, expected %d", cols[i], c.len(), len(rows))
		}
	}

	return &Table{
		rows:   rows,
		cols:   cols,
		rowIdx: rowIdx,
		colIdx: colIdx,
		data:   data,
	}, nil
}

// NewNumeric builds an all-numeric table. values is row-major: values[i][j]
// is the cell at rows[i], cols[j].
func NewNumeric(rows, cols []string, values [][]float64) (*Table, error) {
	if len(values) != len(rows) {
		return nil, fmt.Errorf("%d rows were named but %d were provided", len(rows), len(values))
	}

	data := make([]column, len(cols))
	for j := range cols {
		data[j] = column{kind: Numeric, num: make([]float64, len(rows))}
	}
	for i, row := range values {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("row %q has %d values, expected %d", rows[i], len(row), len(cols))
		}
		for j, v := range row {
			data[j].num[i] = v
		}
	}

	return newTable(copyStrings(rows), copyStrings(cols), data)
}

// NewCategorical builds an all-categorical table. Empty strings become missing
// values.
func NewCategorical(rows, cols []string, values [][]string) (*Table, error) {
	if len(values) != len(rows) {
		return nil, fmt.Errorf("%d rows were named but %d were provided", len(rows), len(values))
	}

	data := make([]column, len(cols))
	for j := range cols {
		data[j] = column{kind: Categorical, cat: make([]null.String, len(rows))}
	}
	for i, row := range values {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("row %q has %d values, expected %d", rows[i], len(row), len(cols))
		}
		for j, v := range row {
			data[j].cat[i] = null.NewString(v, v != "")
		}
	}

	return newTable(copyStrings(rows), copyStrings(cols), data)
}

// Rows returns the row keys in table order.
func (t *Table) Rows() []string { return copyStrings(t.rows) }

// Columns returns the column keys in table order.
func (t *Table) Columns() []string { return copyStrings(t.cols) }

func (t *Table) NRows() int { return len(t.rows) }

func (t *Table) NCols() int { return len(t.cols) }

func (t *Table) HasRow(key string) bool {
	_, ok := t.rowIdx[key]
	return ok
}

func (t *Table) HasColumn(key string) bool {
	_, ok := t.colIdx[key]
	return ok
}

// IsNumeric reports whether every column is numeric.
func (t *Table) IsNumeric() bool {
	for _, c := range t.data {
		if c.kind != Numeric {
			return false
		}
	}
	return true
}

// Kind returns the storage kind of the named column.
func (t *Table) Kind(col string) (Kind, error) {
	j, ok := t.colIdx[col]
	if !ok {
		return 0, &MissingKeyError{Axis: Columns, Keys: []string{col}}
	}
	return t.data[j].kind, nil
}

// Float returns a numeric cell. NaN means the value is missing.
func (t *Table) Float(row, col string) (float64, error) {
	i, j, err := t.locate(row, col)
	if err != nil {
		return math.NaN(), err
	}
	if t.data[j].kind != Numeric {
		return math.NaN(), fmt.Errorf("column %q is %s", col, t.data[j].kind)
	}
	return t.data[j].num[i], nil
}

// Value returns any cell as a string. Numeric cells are formatted with the
// shortest representation that round-trips; missing cells are invalid.
func (t *Table) Value(row, col string) (null.String, error) {
	i, j, err := t.locate(row, col)
	if err != nil {
		return null.String{}, err
	}
	return t.data[j].stringAt(i), nil
}

func (c column) stringAt(i int) null.String {
	if c.kind == Categorical {
		return c.cat[i]
	}
	if math.IsNaN(c.num[i]) {
		return null.String{}
	}
	return null.StringFrom(strconv.FormatFloat(c.num[i], 'g', -1, 64))
}

func (t *Table) locate(row, col string) (int, int, error) {
	i, ok := t.rowIdx[row]
	if !ok {
		return 0, 0, &MissingKeyError{Axis: Rows, Keys: []string{row}}
	}
	j, ok := t.colIdx[col]
	if !ok {
		return 0, 0, &MissingKeyError{Axis: Columns, Keys: []string{col}}
	}
	return i, j, nil
}

// NumericColumn returns a copy of a numeric column in row order.
func (t *Table) NumericColumn(col string) ([]float64, error) {
	j, ok := t.colIdx[col]
	if !ok {
		return nil, &MissingKeyError{Axis: Columns, Keys: []string{col}}
	}
	if t.data[j].kind != Numeric {
		return nil, fmt.Errorf("column %q is %s", col, t.data[j].kind)
	}
	out := make([]float64, len(t.rows))
	copy(out, t.data[j].num)
	return out, nil
}

// StringColumn returns any column as strings in row order.
func (t *Table) StringColumn(col string) ([]null.String, error) {
	j, ok := t.colIdx[col]
	if !ok {
		return nil, &MissingKeyError{Axis: Columns, Keys: []string{col}}
	}
	out := make([]null.String, len(t.rows))
	for i := range out {
		out[i] = t.data[j].stringAt(i)
	}
	return out, nil
}

// NumericRow returns the values of one row across all columns. Every column
// must be numeric.
func (t *Table) NumericRow(row string) ([]float64, error) {
	i, ok := t.rowIdx[row]
	if !ok {
		return nil, &MissingKeyError{Axis: Rows, Keys: []string{row}}
	}
	out := make([]float64, len(t.cols))
	for j, c := range t.data {
		if c.kind != Numeric {
			return nil, fmt.Errorf("column %q is %s", t.cols[j], c.kind)
		}
		out[j] = c.num[i]
	}
	return out, nil
}

// CountValid returns the number of non-missing cells in a column.
func (t *Table) CountValid(col string) (int, error) {
	j, ok := t.colIdx[col]
	if !ok {
		return 0, &MissingKeyError{Axis: Columns, Keys: []string{col}}
	}
	n := 0
	for i := range t.rows {
		if t.data[j].stringAt(i).Valid {
			n++
		}
	}
	return n, nil
}

// Map applies fn to every numeric cell and returns the result. Categorical
// columns are carried over unchanged.
func (t *Table) Map(fn func(float64) float64) *Table {
	data := make([]column, len(t.data))
	for j, c := range t.data {
		if c.kind != Numeric {
			data[j] = c
			continue
		}
		num := make([]float64, len(c.num))
		for i, v := range c.num {
			num[i] = fn(v)
		}
		data[j] = column{kind: Numeric, num: num}
	}

	return &Table{rows: t.rows, cols: t.cols, rowIdx: t.rowIdx, colIdx: t.colIdx, data: data}
}

// Equal reports whether two tables have the same keys in the same order and
// the same cells. Two missing cells are equal.
func Equal(a, b *Table) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !equalStrings(a.rows, b.rows) || !equalStrings(a.cols, b.cols) {
		return false
	}
	for j := range a.data {
		ca, cb := a.data[j], b.data[j]
		if ca.kind != cb.kind {
			return false
		}
		for i := range a.rows {
			if ca.kind == Numeric {
				x, y := ca.num[i], cb.num[i]
				if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
					return false
				}
				continue
			}
			if ca.cat[i] != cb.cat[i] {
				return false
			}
		}
	}
	return true
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

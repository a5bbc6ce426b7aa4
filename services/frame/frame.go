// Package frame holds a small in-memory table used to reshape the raw
// statistics files before they are persisted.
package frame

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMissingColumn is returned when an operation names a column the frame lacks
var ErrMissingColumn = errors.New("missing column")

// Frame is an ordered table of cells. A cell is nil, a float64 or a string.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]interface{}
}

// New returns an empty frame with the given columns
func New(columns ...string) *Frame {
	f := &Frame{index: make(map[string]int)}
	for _, c := range columns {
		f.addColumn(c)
	}
	return f
}

func (f *Frame) addColumn(name string) int {
	if i, ok := f.index[name]; ok {
		return i
	}
	f.columns = append(f.columns, name)
	f.index[name] = len(f.columns) - 1
	for r := range f.rows {
		f.rows[r] = append(f.rows[r], nil)
	}
	return len(f.columns) - 1
}

// Columns returns the column names in order
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.rows)
}

// Has reports whether the frame has every named column
func (f *Frame) Has(columns ...string) bool {
	for _, c := range columns {
		if _, ok := f.index[c]; !ok {
			return false
		}
	}
	return true
}

// Require returns ErrMissingColumn naming the first absent column
func (f *Frame) Require(columns ...string) error {
	for _, c := range columns {
		if _, ok := f.index[c]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}
	return nil
}

// Append adds a row. Missing trailing cells are nil, extra cells are dropped.
func (f *Frame) Append(cells ...interface{}) {
	row := make([]interface{}, len(f.columns))
	copy(row, cells)
	f.rows = append(f.rows, row)
}

// AppendRecord adds a row from a column → cell map, creating unknown columns
func (f *Frame) AppendRecord(record map[string]interface{}) {
	for c := range record {
		f.addColumn(c)
	}
	row := make([]interface{}, len(f.columns))
	for c, v := range record {
		row[f.index[c]] = v
	}
	f.rows = append(f.rows, row)
}

// Get returns the cell at row i of column col, nil when the column is absent
func (f *Frame) Get(i int, col string) interface{} {
	c, ok := f.index[col]
	if !ok {
		return nil
	}
	return f.rows[i][c]
}

// Set writes a cell, creating the column when needed
func (f *Frame) Set(i int, col string, v interface{}) {
	c := f.addColumn(col)
	f.rows[i][c] = v
}

// Row returns a view of row i
func (f *Frame) Row(i int) Row {
	return Row{f: f, i: i}
}

// Rows returns a view of every row in order
func (f *Frame) Rows() []Row {
	out := make([]Row, len(f.rows))
	for i := range f.rows {
		out[i] = Row{f: f, i: i}
	}
	return out
}

// Derive sets column name on every row to fn(row), adding the column if needed
func (f *Frame) Derive(name string, fn func(r Row) interface{}) {
	c := f.addColumn(name)
	for i := range f.rows {
		f.rows[i][c] = fn(Row{f: f, i: i})
	}
}

// Rename renames columns by old → new; names not in the frame are ignored
func (f *Frame) Rename(names map[string]string) {
	for old, name := range names {
		i, ok := f.index[old]
		if !ok || old == name {
			continue
		}
		delete(f.index, old)
		f.columns[i] = name
		f.index[name] = i
	}
}

// SetColumns replaces every column name; the count must match
func (f *Frame) SetColumns(names []string) error {
	if len(names) != len(f.columns) {
		return fmt.Errorf("expected %d column names, got %d", len(f.columns), len(names))
	}
	index := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := index[n]; dup {
			return fmt.Errorf("duplicate column name %q", n)
		}
		index[n] = i
	}
	f.columns = append([]string(nil), names...)
	f.index = index
	return nil
}

// Filter returns a new frame with the rows keep accepts
func (f *Frame) Filter(keep func(r Row) bool) *Frame {
	out := New(f.columns...)
	for i, row := range f.rows {
		if keep(Row{f: f, i: i}) {
			out.rows = append(out.rows, append([]interface{}(nil), row...))
		}
	}
	return out
}

// Replace swaps cells equal to one of the markers for v in the named columns
func (f *Frame) Replace(columns []string, markers []string, v interface{}) error {
	if err := f.Require(columns...); err != nil {
		return err
	}
	set := make(map[string]bool, len(markers))
	for _, m := range markers {
		set[m] = true
	}
	for _, col := range columns {
		c := f.index[col]
		for _, row := range f.rows {
			if s, ok := row[c].(string); ok && set[s] {
				row[c] = v
			}
		}
	}
	return nil
}

// FillNull replaces nil cells of the named columns with v.
// Absent columns are created and filled.
func (f *Frame) FillNull(v interface{}, columns ...string) {
	for _, col := range columns {
		c := f.addColumn(col)
		for _, row := range f.rows {
			if IsNull(row[c]) {
				row[c] = v
			}
		}
	}
}

// ToNumeric converts the named columns to float64 cells. Cells that do not
// parse become nil.
func (f *Frame) ToNumeric(columns ...string) error {
	if err := f.Require(columns...); err != nil {
		return err
	}
	for _, col := range columns {
		c := f.index[col]
		for _, row := range f.rows {
			if n, ok := Float(row[c]); ok {
				row[c] = n
			} else {
				row[c] = nil
			}
		}
	}
	return nil
}

// ToMap maps each key cell to its value cell as strings, skipping null keys.
// Later rows win.
func (f *Frame) ToMap(key, value string) (map[string]string, error) {
	if err := f.Require(key, value); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(f.rows))
	k, v := f.index[key], f.index[value]
	for _, row := range f.rows {
		if IsNull(row[k]) {
			continue
		}
		out[String(row[k])] = String(row[v])
	}
	return out, nil
}

// Explode splits the named column on sep and emits one row per part.
// Rows with a null cell are dropped; parts are trimmed and blanks skipped.
func (f *Frame) Explode(col, sep string) (*Frame, error) {
	if err := f.Require(col); err != nil {
		return nil, err
	}
	c := f.index[col]
	out := New(f.columns...)
	for _, row := range f.rows {
		if IsNull(row[c]) {
			continue
		}
		for _, part := range strings.Split(String(row[c]), sep) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			cp := append([]interface{}(nil), row...)
			cp[c] = part
			out.rows = append(out.rows, cp)
		}
	}
	return out, nil
}

// SumBy groups rows by the key columns and sums the value columns, treating
// cells that are not numeric as 0. Groups keep first-seen order.
func (f *Frame) SumBy(keys []string, values []string) (*Frame, error) {
	if err := f.Require(keys...); err != nil {
		return nil, err
	}
	if err := f.Require(values...); err != nil {
		return nil, err
	}

	type group struct {
		keys []interface{}
		sums []decimal.Decimal
	}
	var order []string
	groups := make(map[string]*group)

	for i, row := range f.rows {
		k := f.key(i, keys)
		g, ok := groups[k]
		if !ok {
			g = &group{sums: make([]decimal.Decimal, len(values))}
			for _, kc := range keys {
				g.keys = append(g.keys, row[f.index[kc]])
			}
			groups[k] = g
			order = append(order, k)
		}
		for j, vc := range values {
			if n, ok := Float(row[f.index[vc]]); ok {
				g.sums[j] = g.sums[j].Add(decimal.NewFromFloat(n))
			}
		}
	}

	out := New(append(append([]string(nil), keys...), values...)...)
	for _, k := range order {
		g := groups[k]
		cells := append([]interface{}(nil), g.keys...)
		for _, s := range g.sums {
			cells = append(cells, s.InexactFloat64())
		}
		out.Append(cells...)
	}
	return out, nil
}

// LeftJoin returns f with the non-key columns of right appended. Rows of f
// without a match get fill in every joined column; the first match wins.
func (f *Frame) LeftJoin(right *Frame, on []string, fill interface{}) (*Frame, error) {
	if err := f.Require(on...); err != nil {
		return nil, err
	}
	if err := right.Require(on...); err != nil {
		return nil, err
	}

	onSet := make(map[string]bool, len(on))
	for _, c := range on {
		onSet[c] = true
	}
	var extra []string
	for _, c := range right.columns {
		if !onSet[c] {
			extra = append(extra, c)
		}
	}

	lookup := make(map[string]int, len(right.rows))
	for i := range right.rows {
		k := right.key(i, on)
		if _, seen := lookup[k]; !seen {
			lookup[k] = i
		}
	}

	out := New(f.columns...)
	for _, c := range extra {
		out.addColumn(c)
	}
	for i, row := range f.rows {
		cells := append([]interface{}(nil), row...)
		j, ok := lookup[f.key(i, on)]
		for _, c := range extra {
			if ok {
				cells = append(cells, right.rows[j][right.index[c]])
			} else {
				cells = append(cells, fill)
			}
		}
		out.Append(cells...)
	}
	return out, nil
}

// Sum adds up a column over every row with coerce semantics
func (f *Frame) Sum(col string) (decimal.Decimal, error) {
	if err := f.Require(col); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	c := f.index[col]
	for _, row := range f.rows {
		if n, ok := Float(row[c]); ok {
			total = total.Add(decimal.NewFromFloat(n))
		}
	}
	return total, nil
}

func (f *Frame) key(i int, columns []string) string {
	parts := make([]string, len(columns))
	for j, c := range columns {
		parts[j] = String(f.rows[i][f.index[c]])
	}
	return strings.Join(parts, "\x00")
}

// Row is a read/write view of one frame row
type Row struct {
	f *Frame
	i int
}

// Index returns the row position in its frame
func (r Row) Index() int { return r.i }

func (r Row) Get(col string) interface{} { return r.f.Get(r.i, col) }

func (r Row) Set(col string, v interface{}) { r.f.Set(r.i, col, v) }

// String returns the cell as text, "" for null
func (r Row) String(col string) string { return String(r.Get(col)) }

// Number returns the cell as a float, 0 when it is not numeric
func (r Row) Number(col string) float64 {
	n, _ := Float(r.Get(col))
	return n
}

// IsNull reports whether the cell is missing
func (r Row) IsNull(col string) bool { return IsNull(r.Get(col)) }

// IsNull reports whether v is a missing cell
func IsNull(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	}
	return false
}

// Float converts a cell to a number. Strings parse after trimming spaces.
func Float(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// String formats a cell. Whole floats print without a fraction so numeric
// ids read back as they were written.
func String(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	}
	return fmt.Sprint(v)
}

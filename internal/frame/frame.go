// Package frame implements the DataFrame conceptual model: an ordered set of
// named, typed columns sharing a row count. Frames are treated as immutable
// between stages — each stage returns a new Frame rather than mutating its
// input — the same discipline the teacher applies to its *Row pooling
// (internal/transformer.Row), generalized here from pooled row slices to a
// columnar value type because the engine must reorder and project columns
// as a first-class operation (spec.md §4.5.3).
package frame

import "fmt"

// Frame is an ordered list of named columns, each holding len(Rows) values
// (any may be nil to represent NULL).
type Frame struct {
	Columns []string
	Rows    [][]any // Rows[r][c] — row-major for easy chunk slicing.
}

// New constructs an empty frame with the given column order.
func New(columns []string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return len(f.Rows) }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.Columns) }

// IndexOf returns the position of a column name, or -1.
func (f *Frame) IndexOf(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AppendRow appends one row. The row must have NumCols() values.
func (f *Frame) AppendRow(row []any) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("frame: row width %d does not match column count %d", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, row)
	return nil
}

// Column returns all values of one column by name.
func (f *Frame) Column(name string) ([]any, bool) {
	idx := f.IndexOf(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]any, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// Project returns a new frame containing exactly the given columns, in the
// given order. Missing columns are filled with nil (NULL); this is the
// operation that implements spec.md §4.5.3's mandatory pre-serialization
// reorder. Callers are expected to have already validated that every
// non-nullable target column is present (internal/loader owns that check).
func (f *Frame) Project(columns []string) *Frame {
	out := New(columns)
	idxs := make([]int, len(columns))
	for i, c := range columns {
		idxs[i] = f.IndexOf(c)
	}
	out.Rows = make([][]any, len(f.Rows))
	for r, row := range f.Rows {
		newRow := make([]any, len(columns))
		for i, srcIdx := range idxs {
			if srcIdx >= 0 {
				newRow[i] = row[srcIdx]
			}
		}
		out.Rows[r] = newRow
	}
	return out
}

// WithColumn returns a new frame with an added or replaced column. values
// must have exactly len(f.Rows) entries; any other length, including a
// non-empty values on a frame with no rows, returns an error.
func (f *Frame) WithColumn(name string, values []any) (*Frame, error) {
	if len(values) != len(f.Rows) {
		return nil, fmt.Errorf("frame: column %q has %d values, frame has %d rows", name, len(values), len(f.Rows))
	}
	idx := f.IndexOf(name)
	if idx >= 0 {
		out := &Frame{Columns: f.Columns, Rows: make([][]any, len(f.Rows))}
		for i, row := range f.Rows {
			newRow := append([]any(nil), row...)
			newRow[idx] = values[i]
			out.Rows[i] = newRow
		}
		return out, nil
	}
	out := &Frame{Columns: append(append([]string(nil), f.Columns...), name)}
	out.Rows = make([][]any, len(f.Rows))
	for i, row := range f.Rows {
		out.Rows[i] = append(append([]any(nil), row...), values[i])
	}
	return out, nil
}

// DropColumns returns a new frame without the named columns.
func (f *Frame) DropColumns(names map[string]struct{}) *Frame {
	keep := make([]string, 0, len(f.Columns))
	for _, c := range f.Columns {
		if _, drop := names[c]; !drop {
			keep = append(keep, c)
		}
	}
	return f.Project(keep)
}

// Filter returns a new frame containing only rows for which keep(row) is
// true. The row slice passed to keep is aligned to f.Columns.
func (f *Frame) Filter(keep func(row []any) bool) *Frame {
	out := New(f.Columns)
	for _, row := range f.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

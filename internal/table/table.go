package table

import (
	"fmt"
	"strings"
)

// Table is an ordered sequence of named columns over string cells. Every
// row has exactly one cell per column. Cell types are not enforced; the
// source reports mix text, numbers and dates and the pipeline treats them
// all as opaque strings. An unmatched join cell is the empty string.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New creates an empty table with the given column names. When a name
// repeats, the index resolves to its first occurrence.
func New(columns []string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, name := range t.columns {
		if _, exists := t.index[name]; !exists {
			t.index[name] = i
		}
	}
	return t
}

// FromRows builds a table from a header row and data rows. Rows are
// normalized to the header width: short rows are padded with empty cells,
// long rows truncated.
func FromRows(header []string, rows [][]string) *Table {
	t := New(header)
	for _, row := range rows {
		t.appendRow(row)
	}
	return t
}

func (t *Table) appendRow(row []string) {
	switch {
	case len(row) == len(t.columns):
		t.rows = append(t.rows, row)
	case len(row) > len(t.columns):
		t.rows = append(t.rows, row[:len(t.columns)])
	default:
		padded := make([]string, len(t.columns))
		copy(padded, row)
		t.rows = append(t.rows, padded)
	}
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Cell returns the cell at the given row for the named column. It returns
// the empty string when the column does not exist.
func (t *Table) Cell(row int, column string) string {
	i, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.rows[row][i]
}

// Row provides name-based access to the cells of a single row.
type Row struct {
	t *Table
	i int
}

// Get returns the cell for the named column, or "" when absent.
func (r Row) Get(column string) string {
	return r.t.Cell(r.i, column)
}

// Index returns the position of this row within its table.
func (r Row) Index() int {
	return r.i
}

// RowAt returns a view over the row at the given position.
func (t *Table) RowAt(i int) Row {
	return Row{t: t, i: i}
}

// Records returns the data rows as string slices in column order. The
// returned slices share storage with the table and must not be modified.
func (t *Table) Records() [][]string {
	return t.rows
}

// TrimHeaders returns a table whose column names have surrounding
// whitespace removed. Trimming an already-trimmed table yields identical
// column names. Rows are shared with the receiver.
func (t *Table) TrimHeaders() *Table {
	trimmed := make([]string, len(t.columns))
	for i, name := range t.columns {
		trimmed[i] = strings.TrimSpace(name)
	}
	out := New(trimmed)
	out.rows = t.rows
	return out
}

// LeftJoin joins the receiver with right, matching leftKey cells against
// rightKey cells. Every left row appears in the result at least once:
// rows with no match carry empty cells for the right-side columns, and a
// left row matching n right rows fans out into n result rows, in right
// table order. Empty key cells stand in for nulls and never match, on
// either side. All right columns are appended, the right key included.
// When a right column name already exists on the left it is suffixed with
// "_y" to keep result names unique.
func (t *Table) LeftJoin(right *Table, leftKey, rightKey string) (*Table, error) {
	leftIdx := t.ColumnIndex(leftKey)
	if leftIdx < 0 {
		return nil, fmt.Errorf("left join: column %q not in left table", leftKey)
	}
	rightIdx := right.ColumnIndex(rightKey)
	if rightIdx < 0 {
		return nil, fmt.Errorf("left join: column %q not in right table", rightKey)
	}

	columns := append([]string(nil), t.columns...)
	seen := make(map[string]bool, len(columns)+len(right.columns))
	for _, name := range columns {
		seen[name] = true
	}
	for _, name := range right.columns {
		for seen[name] {
			name += "_y"
		}
		seen[name] = true
		columns = append(columns, name)
	}

	// Right rows grouped by key, preserving first-appearance order. Empty
	// key cells are null-like and never match, so they stay out of the
	// index.
	matches := make(map[string][]int, right.NumRows())
	for i, row := range right.rows {
		key := row[rightIdx]
		if key == "" {
			continue
		}
		matches[key] = append(matches[key], i)
	}

	out := New(columns)
	out.rows = make([][]string, 0, len(t.rows))
	blank := make([]string, len(right.columns))
	for _, leftRow := range t.rows {
		var hits []int
		if key := leftRow[leftIdx]; key != "" {
			hits = matches[key]
		}
		if len(hits) == 0 {
			out.rows = append(out.rows, joinRow(leftRow, blank))
			continue
		}
		for _, hit := range hits {
			out.rows = append(out.rows, joinRow(leftRow, right.rows[hit]))
		}
	}
	return out, nil
}

func joinRow(left, right []string) []string {
	row := make([]string, 0, len(left)+len(right))
	row = append(row, left...)
	return append(row, right...)
}

// Select projects the table onto the named columns, in the given order.
// Names not present are silently skipped; the result holds exactly the
// intersection.
func (t *Table) Select(names ...string) *Table {
	kept := make([]int, 0, len(names))
	columns := make([]string, 0, len(names))
	for _, name := range names {
		if i, ok := t.index[name]; ok {
			kept = append(kept, i)
			columns = append(columns, name)
		}
	}

	out := New(columns)
	out.rows = make([][]string, len(t.rows))
	for r, row := range t.rows {
		projected := make([]string, len(kept))
		for c, i := range kept {
			projected[c] = row[i]
		}
		out.rows[r] = projected
	}
	return out
}

// Rename returns a table with columns renamed per the mapping. Source
// names not present in the table are no-ops; columns not in the mapping
// pass through unchanged.
func (t *Table) Rename(mapping map[string]string) *Table {
	columns := make([]string, len(t.columns))
	for i, name := range t.columns {
		if renamed, ok := mapping[name]; ok {
			columns[i] = renamed
		} else {
			columns[i] = name
		}
	}
	out := New(columns)
	out.rows = t.rows
	return out
}

// Filter returns a table holding the rows for which pred returns true,
// in their original order.
func (t *Table) Filter(pred func(Row) bool) *Table {
	out := New(t.columns)
	for i := range t.rows {
		if pred(Row{t: t, i: i}) {
			out.rows = append(out.rows, t.rows[i])
		}
	}
	return out
}

// DedupeBy removes rows whose value in the named column was already seen
// on an earlier row, keeping the first occurrence. When the column does
// not exist the table is returned unchanged apart from being a fresh
// value.
func (t *Table) DedupeBy(column string) *Table {
	idx := t.ColumnIndex(column)
	out := New(t.columns)
	if idx < 0 {
		out.rows = t.rows
		return out
	}
	seen := make(map[string]bool, len(t.rows))
	for _, row := range t.rows {
		if seen[row[idx]] {
			continue
		}
		seen[row[idx]] = true
		out.rows = append(out.rows, row)
	}
	return out
}

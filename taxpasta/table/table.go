// Package table reads raw tabular profiles into an ordered row/column table
// with named columns. It knows nothing about producers or schemas.
package table

import "fmt"

// Table is an immutable, ordered sequence of rows with named columns. Every
// cell is kept as the raw text found in the source.
type Table struct {
	columns  []string
	rows     [][]string
	warnings []Warning
	index    map[string]int
}

// Warning is a parser diagnostic for a single source line, e.g. a malformed
// row that was skipped.
type Warning struct {
	Line    int64
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// New builds a table from columns and rows. Both slices are copied.
func New(columns []string, rows [][]string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		rows:    make([][]string, len(rows)),
	}
	for i, row := range rows {
		t.rows[i] = append([]string(nil), row...)
	}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.columns))
	for i, name := range t.columns {
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
}

// Columns returns a copy of the column names in source order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// NumColumns returns the number of named columns.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Cell returns the raw value at row i, column j. Short rows read as "".
func (t *Table) Cell(i, j int) string {
	row := t.rows[i]
	if j < 0 || j >= len(row) {
		return ""
	}
	return row[j]
}

// Value returns the raw value of the named column at row i.
func (t *Table) Value(i int, name string) (string, bool) {
	j := t.Index(name)
	if j < 0 {
		return "", false
	}
	return t.Cell(i, j), true
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Warnings returns the parser diagnostics collected while reading.
func (t *Table) Warnings() []Warning {
	return append([]Warning(nil), t.warnings...)
}

// Rename returns a copy of the table with new column names. The number of
// names must match the number of columns.
func (t *Table) Rename(names []string) (*Table, error) {
	if len(names) != len(t.columns) {
		return nil, fmt.Errorf("rename: expected %d names, got %d", len(t.columns), len(names))
	}
	out := &Table{
		columns:  append([]string(nil), names...),
		rows:     t.rows,
		warnings: t.warnings,
	}
	out.buildIndex()
	return out, nil
}

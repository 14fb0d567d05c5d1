// SPDX-License-Identifier: MIT

package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrNoColumn is returned when a named column is absent.
	ErrNoColumn = errors.New("table: no such column")

	// ErrBadRow is returned for a row whose width differs from the header or
	// an index outside [0, Len()).
	ErrBadRow = errors.New("table: bad row")

	// ErrEmpty is returned when a table has no header.
	ErrEmpty = errors.New("table: missing header")
)

// Table is an in-memory CSV table: one header row and string cells.
// Cells are parsed on access (Float, FloatColumn).
type Table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// New builds a table, copying header and rows. Every row must have
// len(header) cells; header names must be unique.
func New(header []string, rows [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, ErrEmpty
	}
	t := &Table{
		header: append([]string(nil), header...),
		index:  make(map[string]int, len(header)),
		rows:   make([][]string, 0, len(rows)),
	}
	for k, name := range t.header {
		name = strings.TrimSpace(name)
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", name)
		}
		t.header[k] = name
		t.index[name] = k
	}
	for k, r := range rows {
		if err := t.Append(r); err != nil {
			return nil, fmt.Errorf("table: row %d: %w", k, err)
		}
	}

	return t, nil
}

// Append adds a copy of row.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.header) {
		return fmt.Errorf("%w: %d cells, header has %d", ErrBadRow, len(row), len(t.header))
	}
	t.rows = append(t.rows, append([]string(nil), row...))

	return nil
}

// Header returns a copy of the column names.
func (t *Table) Header() []string { return append([]string(nil), t.header...) }

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Column returns the position of the named column.
func (t *Table) Column(name string) (int, error) {
	k, ok := t.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}

	return k, nil
}

// Value returns the raw cell at (row, column name).
func (t *Table) Value(row int, col string) (string, error) {
	k, err := t.Column(col)
	if err != nil {
		return "", err
	}
	if row < 0 || row >= len(t.rows) {
		return "", fmt.Errorf("%w: index %d of %d", ErrBadRow, row, len(t.rows))
	}

	return t.rows[row][k], nil
}

// Float parses the cell at (row, column name) as float64.
func (t *Table) Float(row int, col string) (float64, error) {
	s, err := t.Value(row, col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("table: row %d column %q: %w", row, col, err)
	}

	return v, nil
}

// FloatColumn parses a whole column.
func (t *Table) FloatColumn(col string) ([]float64, error) {
	out := make([]float64, len(t.rows))
	var err error
	for i := range t.rows {
		if out[i], err = t.Float(i, col); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Sum totals a numeric column.
func (t *Table) Sum(col string) (float64, error) {
	vals, err := t.FloatColumn(col)
	if err != nil {
		return 0, err
	}
	var s float64
	for _, v := range vals {
		s += v
	}

	return s, nil
}

// Read parses CSV with a header row.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrEmpty
	}
	// strip a UTF-8 BOM left by spreadsheet exports
	recs[0][0] = strings.TrimPrefix(recs[0][0], "\ufeff")

	return New(recs[0], recs[1:])
}

// LoadCSV reads the CSV file at path.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return t, nil
}

// Write emits the header and rows as CSV.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if err := cw.WriteAll(t.rows); err != nil { // WriteAll flushes
		return fmt.Errorf("table: %w", err)
	}

	return nil
}

// WriteCSV writes t to path, replacing any existing file.
func WriteCSV(path string, t *Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("table: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("table: close %s: %w", path, cerr)
		}
	}()

	return Write(f, t)
}

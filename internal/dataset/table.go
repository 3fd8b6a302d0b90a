// Package dataset loads CSV survey exports and turns them into feature
// matrices for training.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Table is a column-named string table loaded from a CSV file.
// Empty cells are treated as missing.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ReadCSVFile loads a CSV file with a header row.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses CSV data with a header row. Rows shorter than the header are
// padded with missing cells.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv has no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := &Table{Columns: cols}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(rec) > len(cols) {
			return nil, fmt.Errorf("line %d has %d fields, header has %d", line, len(rec), len(cols))
		}
		row := make([]string, len(cols))
		for i, v := range rec {
			row[i] = strings.TrimSpace(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]string, error) {
	i := t.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Rename renames columns using mapping. Columns not in mapping are unchanged.
func (t *Table) Rename(mapping map[string]string) {
	for i, c := range t.Columns {
		if to, ok := mapping[c]; ok {
			t.Columns[i] = to
		}
	}
}

// Drop removes the named columns. Unknown names are an error.
func (t *Table) Drop(names ...string) error {
	for _, name := range names {
		i := t.Index(name)
		if i < 0 {
			return fmt.Errorf("drop column %q: not found", name)
		}
		t.Columns = slices.Delete(t.Columns, i, i+1)
		for r := range t.Rows {
			t.Rows[r] = slices.Delete(t.Rows[r], i, i+1)
		}
	}
	return nil
}

// FillMissingWithMode replaces empty cells in every column with that column's
// most frequent value. Ties go to the lexically smallest value. Columns that
// are entirely empty are left alone.
func (t *Table) FillMissingWithMode() {
	for c := range t.Columns {
		counts := make(map[string]int)
		for _, row := range t.Rows {
			if row[c] != "" {
				counts[row[c]]++
			}
		}
		mode, best := "", 0
		for v, n := range counts {
			if n > best || (n == best && v < mode) {
				mode, best = v, n
			}
		}
		if best == 0 {
			continue
		}
		for _, row := range t.Rows {
			if row[c] == "" {
				row[c] = mode
			}
		}
	}
}

// FeatureColumns returns every column except the excluded ones, in table order.
func (t *Table) FeatureColumns(exclude ...string) []string {
	var out []string
	for _, c := range t.Columns {
		if !slices.Contains(exclude, c) {
			out = append(out, c)
		}
	}
	return out
}

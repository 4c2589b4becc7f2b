package transformer

import (
	"bytes"
	"encoding/csv"
	"io"
)

// Table is a flattened document: ordered columns and one map of cells per row.
type Table struct {
	Columns []string
	Rows    []map[string]string

	seen map[string]struct{}
}

func newTable() *Table {
	return &Table{seen: make(map[string]struct{})}
}

func (t *Table) addColumn(name string) {
	if _, ok := t.seen[name]; ok {
		return
	}
	t.seen[name] = struct{}{}
	t.Columns = append(t.Columns, name)
}

func (t *Table) addRow(row map[string]string) {
	t.Rows = append(t.Rows, row)
}

// Shape returns the row and column counts.
func (t *Table) Shape() (rows, cols int) {
	return len(t.Rows), len(t.Columns)
}

// WriteCSV writes a header line followed by one line per row. Cells missing from a
// row are written empty.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// CSV renders the table with WriteCSV.
func (t *Table) CSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

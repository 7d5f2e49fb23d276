package feature

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Table accumulates one Vector per image in processing order.
type Table struct {
	Variant Variant
	Rows    []Vector
}

func NewTable(v Variant) *Table {
	return &Table{Variant: v, Rows: make([]Vector, 0)}
}

// Append adds a row. The row must have exactly the variant's column count.
func (t *Table) Append(vec Vector) error {
	if want := len(t.Variant.Columns()); len(vec) != want {
		return fmt.Errorf("feature vector has %d columns, table %s needs %d", len(vec), t.Variant, want)
	}

	t.Rows = append(t.Rows, vec)

	return nil
}

// Len is the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// WriteCSV writes the header line followed by one line per row, every value
// with five decimal digits.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Variant.Columns()); err != nil {
		return fmt.Errorf("unable to write feature header: %w", err)
	}

	record := make([]string, len(t.Variant.Columns()))
	for i, row := range t.Rows {
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'f', 5, 64)
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("unable to write feature row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("unable to flush feature table: %w", err)
	}

	return nil
}

// ReadCSV reads comma-separated numeric rows. A first row that isn't numeric
// is returned as the header.
func ReadCSV(r io.Reader) ([]string, [][]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read csv: %w", err)
	}

	var header []string
	rows := make([][]float64, 0, len(records))

	for i, record := range records {
		row, err := parseRow(record)
		if err != nil {
			if i == 0 {
				header = record
				continue
			}

			return nil, nil, fmt.Errorf("unable to parse csv line %d: %w", i+1, err)
		}

		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, nil, fmt.Errorf("csv line %d has %d values, want %d", i+1, len(row), len(rows[0]))
		}

		rows = append(rows, row)
	}

	return header, rows, nil
}

func parseRow(record []string) ([]float64, error) {
	row := make([]float64, len(record))
	for i, s := range record {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}

	return row, nil
}

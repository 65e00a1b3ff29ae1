// Package tabular reads and writes the CSV tables exchanged between commands.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

// NA is written for values that could not be computed
const NA = "NA"

// Table is a CSV file held in memory with whitespace-trimmed headers
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Read loads a CSV file with a header row
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		category := errors.CategoryFileIO
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return nil, errors.New(fmt.Errorf("failed to open %s: %w", path, err)).
			Component("tabular").
			Category(category).
			FileContext(path).
			Build()
	}
	defer func() { _ = f.Close() }()

	t, err := Parse(f)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to read %s: %w", path, err)).
			Component("tabular").
			Category(errors.CategoryFileParsing).
			FileContext(path).
			Build()
	}
	t.Path = path
	return t, nil
}

// Parse reads CSV records from r. The first record is the header.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return &Table{index: map[string]int{}}, nil
	}
	if err != nil {
		return nil, err
	}

	t := &Table{Header: make([]string, len(header)), index: make(map[string]int, len(header))}
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.Header[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Require fails when any of the named columns is absent
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.Newf("missing required column(s) %s", strings.Join(missing, ", ")).
		Component("tabular").
		Category(errors.CategoryFileParsing).
		FileContext(t.Path).
		Context("columns", t.Header).
		Build()
}

// Has reports whether a column exists
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Col returns the column index or -1
func (t *Table) Col(column string) int {
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

// Value returns the trimmed cell of row i in column, or "" when absent
func (t *Table) Value(i int, column string) string {
	c := t.Col(column)
	if c < 0 || c >= len(t.Rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[i][c])
}

// Float parses the cell of row i in column
func (t *Table) Float(i int, column string) (float64, error) {
	v := t.Value(i, column)
	if v == "" || strings.EqualFold(v, NA) || strings.EqualFold(v, "nan") {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(fmt.Errorf("row %d column %s: %w", i+2, column, err)).
			Component("tabular").
			Category(errors.CategoryFileParsing).
			FileContext(t.Path).
			Build()
	}
	return f, nil
}

// Write writes header and rows to path, creating parent directories
func Write(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(fmt.Errorf("failed to create directory for %s: %w", path, err)).
			Component("tabular").
			Category(errors.CategoryFileIO).
			Build()
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.New(fmt.Errorf("failed to create %s: %w", path, err)).
			Component("tabular").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return errors.New(fmt.Errorf("failed to write %s: %w", path, err)).
			Component("tabular").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	return f.Close()
}

// FormatFloat formats v for output, writing NA for NaN and infinities
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NA
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatInt formats an integer cell
func FormatInt(v int) string {
	return strconv.Itoa(v)
}

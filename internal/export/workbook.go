// Package export bundles result tables into a single spreadsheet workbook.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/tabular"
)

// maxSheetName is the longest sheet name a workbook accepts
const maxSheetName = 31

// defaultSheet is the sheet created with every new workbook
const defaultSheet = "Sheet1"

// Sheet is one table to export
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// FromTable converts a table to a sheet named after its file
func FromTable(tbl *tabular.Table) Sheet {
	base := filepath.Base(tbl.Path)
	return Sheet{
		Name:   strings.TrimSuffix(base, filepath.Ext(base)),
		Header: tbl.Header,
		Rows:   tbl.Rows,
	}
}

// SheetName makes name valid as a worksheet name
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "table"
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}

// uniqueNames returns valid sheet names, suffixing repeats with ~2, ~3 and so on
func uniqueNames(sheets []Sheet) []string {
	names := make([]string, len(sheets))
	seen := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		name := SheetName(s.Name)
		for n := 2; seen[strings.ToLower(name)]; n++ {
			suffix := "~" + strconv.Itoa(n)
			base := []rune(SheetName(s.Name))
			if len(base)+len(suffix) > maxSheetName {
				base = base[:maxSheetName-len(suffix)]
			}
			name = string(base) + suffix
		}
		seen[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

// cellValue writes numbers as numbers and everything else as text
func cellValue(s string) any {
	if s == "" || s == tabular.NA {
		return s
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

// Write saves sheets to an xlsx workbook at path, one worksheet per sheet
// with a frozen header row.
func Write(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return errors.Newf("no tables to export").
			Component("export").
			Category(errors.CategoryValidation).
			FileContext(path).
			Build()
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	names := uniqueNames(sheets)
	for i, s := range sheets {
		if err := writeSheet(f, names[i], s); err != nil {
			return errors.New(fmt.Errorf("failed to write sheet %s: %w", names[i], err)).
				Component("export").
				Category(errors.CategoryFileIO).
				FileContext(path).
				Build()
		}
	}

	if !slices.Contains(names, defaultSheet) {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return errors.New(err).
				Component("export").
				Category(errors.CategoryFileIO).
				FileContext(path).
				Build()
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	if err := f.SaveAs(path); err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	GetLogger().Info("Workbook written",
		logger.String("path", path),
		logger.Int("sheets", len(sheets)))
	return nil
}

func writeSheet(f *excelize.File, name string, s Sheet) error {
	if name != defaultSheet {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return err
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range s.Rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// BundleCSVs reads every CSV file directly inside dir, in name order, and
// writes them to one workbook at out. Unreadable files are logged and skipped.
func BundleCSVs(dir, out string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("dir", dir).
			Build()
	}
	slices.Sort(paths)

	sheets := make([]Sheet, 0, len(paths))
	var included []string
	for _, p := range paths {
		tbl, err := tabular.Read(p)
		if err != nil {
			GetLogger().Warn("Skipping unreadable table",
				logger.String("path", p),
				logger.Error(err))
			continue
		}
		sheets = append(sheets, FromTable(tbl))
		included = append(included, p)
	}

	if len(sheets) == 0 {
		return nil, errors.Newf("no CSV tables found in %s", dir).
			Component("export").
			Category(errors.CategoryNotFound).
			Context("dir", dir).
			Build()
	}
	if err := Write(out, sheets); err != nil {
		return nil, err
	}
	return included, nil
}

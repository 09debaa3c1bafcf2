// Package xlsx reads the georeferenced business registry from an Excel
// workbook.
package xlsx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

var requiredColumns = []string{
	domain.ColumnID,
	domain.ColumnLatitude,
	domain.ColumnLongitude,
	domain.ColumnEmployees,
	domain.ColumnPayroll,
	domain.ColumnAverageSalary,
}

// Reader loads business tables from a workbook sheet.
type Reader struct {
	sheet  string
	logger *slog.Logger
}

// NewReader creates a workbook reader. An empty sheet selects the first
// sheet of the workbook.
func NewReader(sheet string, logger *slog.Logger) *Reader {
	return &Reader{sheet: sheet, logger: logger}
}

// ReadBusinesses loads every row with valid coordinates. Rows whose latitude
// or longitude is blank or not a number are dropped and counted in the
// table's Dropped field; they are never reported as errors.
func (r *Reader) ReadBusinesses(path string) (domain.BusinessTable, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.BusinessTable{}, domain.NewLoadError(path, domain.ErrMissingFile, err)
		}
		return domain.BusinessTable{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.BusinessTable{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return domain.BusinessTable{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, errors.New("workbook has no sheets"))
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.BusinessTable{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, fmt.Errorf("sheet %q: %w", sheet, err))
	}
	if len(rows) == 0 {
		return domain.BusinessTable{}, domain.NewLoadError(path, domain.ErrMissingColumns, fmt.Errorf("sheet %q is empty", sheet))
	}

	cols := headerIndex(rows[0])
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return domain.BusinessTable{}, domain.NewLoadError(path, domain.ErrMissingColumns, fmt.Errorf("%s", strings.Join(missing, ", ")))
	}

	table := domain.BusinessTable{Source: path, CRS: domain.DefaultCRS, Rows: make([]domain.Business, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		b, ok := parseRow(row, cols)
		if !ok {
			table.Dropped++
			continue
		}
		table.Rows = append(table.Rows, b)
	}

	r.logger.Info("business registry read",
		"path", path,
		"sheet", sheet,
		"rows", table.Len(),
		"dropped", table.Dropped,
	)
	return table, nil
}

type columns map[string]int

func headerIndex(header []string) columns {
	cols := make(columns, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

// cell returns the trimmed value of a named column. GetRows drops trailing
// empty cells, so short rows read as blank.
func (c columns) cell(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseRow(row []string, cols columns) (domain.Business, bool) {
	lat, okLat := parseNumber(cols.cell(row, domain.ColumnLatitude))
	lon, okLon := parseNumber(cols.cell(row, domain.ColumnLongitude))
	if !okLat || !okLon {
		return domain.Business{}, false
	}

	employees, _ := parseNumber(cols.cell(row, domain.ColumnEmployees))
	payroll, _ := parseNumber(cols.cell(row, domain.ColumnPayroll))
	salary, salaryKnown := parseNumber(cols.cell(row, domain.ColumnAverageSalary))

	return domain.Business{
		ID:            cols.cell(row, domain.ColumnID),
		Sector:        cols.cell(row, domain.ColumnSector),
		Subsector:     cols.cell(row, domain.ColumnSubsector),
		Status:        cols.cell(row, domain.ColumnStatus),
		Employees:     employees,
		Payroll:       payroll,
		AverageSalary: salary,
		SalaryKnown:   salaryKnown,
		Lat:           lat,
		Lon:           lon,
	}, true
}

// parseNumber reads a raw cell value. Text cells written with Brazilian
// separators ("1.234,56") are accepted as well.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && strings.Contains(s, ",") {
		v, err = strconv.ParseFloat(strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", "."), 64)
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

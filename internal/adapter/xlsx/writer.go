package xlsx

import (
	"fmt"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// writeColumns is the column order written by WriteBusinesses.
var writeColumns = []any{
	domain.ColumnID,
	domain.ColumnSector,
	domain.ColumnSubsector,
	domain.ColumnStatus,
	domain.ColumnEmployees,
	domain.ColumnPayroll,
	domain.ColumnAverageSalary,
	domain.ColumnLatitude,
	domain.ColumnLongitude,
}

// WriteBusinesses saves t as a workbook with the registry's column layout.
// Unknown salaries are written as blank cells.
func WriteBusinesses(path, sheet string, t domain.BusinessTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &writeColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, b := range t.Rows {
		var salary any
		if b.SalaryKnown {
			salary = b.AverageSalary
		}
		row := []any{b.ID, b.Sector, b.Subsector, b.Status, b.Employees, b.Payroll, salary, b.Lat, b.Lon}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Package export renders the reconciled record view as a spreadsheet for the
// dashboard's download button.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/clinicops/clinic-crm/internal/records"
)

var columns = []string{"Name", "Phone", "Email", "Service", "Price", "Date", "Time", "Status", "Source"}

// Exporter writes xlsx workbooks of unified records.
type Exporter struct{}

// NewExporter creates an Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// WriteXLSX writes one "Patients" sheet with a bold header row followed by
// one row per record, in the order given.
func (e *Exporter) WriteXLSX(w io.Writer, recs []records.UnifiedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Patients"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("export: create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("export: header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("export: header cell: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("export: header style: %w", err)
		}
	}

	for i, rec := range recs {
		row := i + 2
		values := []any{rec.Name, rec.Phone, rec.Email, rec.Service, rec.Price, rec.Date, rec.Time, rec.Status, rec.Source}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("export: cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("export: cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

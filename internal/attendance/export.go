package attendance

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Benedict258/Tend-X/internal/space"
)

// Export renders a space's records as an XLSX workbook. Column order follows
// the form: Name, Email, each custom field in schema order, then Submitted At.
func Export(sp space.Space, records []Record) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	fields := FormSchema(sp.RequiredFields)
	headers := make([]string, 0, len(fields)+1)
	for _, fld := range fields {
		headers = append(headers, fld.Label)
	}
	headers = append(headers, "Submitted At")

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, rec := range records {
		row := make([]any, 0, len(headers))
		for _, fld := range fields {
			row = append(row, rec.Fields[fld.Key])
		}
		row = append(row, rec.SubmittedAt.Format("2006-01-02 15:04:05"))
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetSheetName(sheet, "Attendance"); err != nil {
		return nil, err
	}
	return f, nil
}

// ExportFilename builds the download name for a space's export.
func ExportFilename(sp space.Space) string {
	return fmt.Sprintf("%s-attendance.xlsx", sp.UniqueCode)
}

package export

import (
	"fmt"
	"io"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

type excelRenderer struct{}

func (excelRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (excelRenderer) Extension() string { return "xlsx" }

func (excelRenderer) Render(w io.Writer, r *domain.GeneratedReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	// Add headers
	for i, h := range []string{"Section", "Line", "Amount"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	// Add data
	for i, l := range Lines(r) {
		row := i + 2
		if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), l.Section); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), l.Line); err != nil {
			return err
		}
		if err := f.SetCellFloat(sheetName, fmt.Sprintf("C%d", row), l.Amount.InexactFloat64(), 2, 64); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

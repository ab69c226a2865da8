package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/go-pdf/fpdf"
)

type pdfRenderer struct{}

func (pdfRenderer) ContentType() string { return "application/pdf" }
func (pdfRenderer) Extension() string   { return "pdf" }

func (pdfRenderer) Render(w io.Writer, r *domain.GeneratedReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title(r.Type), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title(r.Type), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if p := periodLabel(r.Period); p != "" {
		pdf.CellFormat(0, 6, p, "", 1, "L", false, 0, "")
	}
	if r.Department != nil {
		pdf.CellFormat(0, 6, "Department: "+r.Department.Name, "", 1, "L", false, 0, "")
	}
	if r.TenantID != "" {
		pdf.CellFormat(0, 6, "Tenant: "+r.TenantID, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 7, "Section", "B", 0, "L", false, 0, "")
	pdf.CellFormat(90, 7, "Line", "B", 0, "L", false, 0, "")
	pdf.CellFormat(50, 7, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range Lines(r) {
		pdf.CellFormat(40, 6, l.Section, "", 0, "L", false, 0, "")
		pdf.CellFormat(90, 6, l.Line, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, l.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	if len(r.Warnings) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		for _, warning := range r.Warnings {
			pdf.MultiCell(0, 5, "Note: "+warning, "", "L", false)
		}
	}

	return pdf.Output(w)
}

func title(t domain.ReportType) string {
	switch t {
	case domain.ReportProfitLoss:
		return "Profit & Loss"
	case domain.ReportBalanceSheet:
		return "Balance Sheet"
	case domain.ReportCashFlow:
		return "Cash Flow"
	}
	return strings.ReplaceAll(string(t), "_", " ")
}

func periodLabel(p domain.Period) string {
	switch {
	case p.AsOfDate != "":
		return "As of " + p.AsOfDate
	case p.StartDate != "":
		return fmt.Sprintf("%s to %s", p.StartDate, p.EndDate)
	}
	return ""
}

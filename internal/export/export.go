package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"
	FormatJSON  = "json"
)

// Renderer serializes a generated report into one download format.
type Renderer interface {
	ContentType() string
	Extension() string
	Render(w io.Writer, r *domain.GeneratedReport) error
}

// For returns the renderer for format.
func For(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return csvRenderer{}, nil
	case FormatExcel, "xlsx":
		return excelRenderer{}, nil
	case FormatPDF:
		return pdfRenderer{}, nil
	case FormatJSON:
		return jsonRenderer{}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFormat, format)
}

// Filename is the attachment name for a report rendered by rd.
func Filename(t domain.ReportType, rd Renderer) string {
	return string(t) + "." + rd.Extension()
}

// ContentDisposition is the header value that makes clients download the file.
func ContentDisposition(t domain.ReportType, rd Renderer) string {
	return fmt.Sprintf("attachment; filename=%q", Filename(t, rd))
}

// Line is one row of a tabular export.
type Line struct {
	Section string
	Line    string
	Amount  decimal.Decimal
}

// Lines flattens a report into section/line/amount rows in figure order,
// followed by the comparison figures when present.
func Lines(r *domain.GeneratedReport) []Line {
	body := r.Body()
	if body == nil {
		return nil
	}
	var out []Line
	for _, f := range body.Figures() {
		section, line := splitField(f.Field)
		out = append(out, Line{Section: section, Line: line, Amount: f.Value})
	}
	if r.Comparison != nil {
		for _, v := range r.Comparison.Variances {
			out = append(out,
				Line{Section: "comparison", Line: v.Field + ".previous", Amount: v.Previous},
				Line{Section: "comparison", Line: v.Field + ".variance", Amount: v.Variance},
				Line{Section: "comparison", Line: v.Field + ".variance_percent", Amount: v.VariancePercent},
			)
		}
	}
	return out
}

func splitField(field string) (section, line string) {
	if i := strings.IndexByte(field, '.'); i >= 0 {
		return field[:i], field[i+1:]
	}
	return "summary", field
}

// Decode reads report data posted by a client. It accepts either a full
// report envelope or a bare report body of type t. An envelope must carry
// exactly one body and it must be of type t. A bare body must have at least
// one field and no fields foreign to t.
func Decode(t domain.ReportType, raw json.RawMessage) (*domain.GeneratedReport, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: report_data is required", domain.ErrValidation)
	}

	var env domain.GeneratedReport
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: report_data: %v", domain.ErrValidation, err)
	}
	if bodies := bodyTypes(&env); len(bodies) > 0 {
		if len(bodies) > 1 {
			return nil, fmt.Errorf("%w: report_data carries more than one report", domain.ErrValidation)
		}
		if bodies[0] != t {
			return nil, fmt.Errorf("%w: report_data is a %s report, not %s", domain.ErrValidation, bodies[0], t)
		}
		if env.Type != "" && env.Type != t {
			return nil, fmt.Errorf("%w: report_data is labelled %s, not %s", domain.ErrValidation, env.Type, t)
		}
		env.Type = t
		return &env, nil
	}

	var body domain.Report
	switch t {
	case domain.ReportProfitLoss:
		body = &domain.ProfitLoss{}
	case domain.ReportBalanceSheet:
		body = &domain.BalanceSheet{}
	case domain.ReportCashFlow:
		body = &domain.CashFlow{}
	default:
		return nil, domain.ErrUnknownReportType
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: report_data: %v", domain.ErrValidation, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: report_data has no %s fields", domain.ErrValidation, t)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(body); err != nil {
		return nil, fmt.Errorf("%w: report_data is not a %s report: %v", domain.ErrValidation, t, err)
	}
	out := &domain.GeneratedReport{Type: t, Warnings: []string{}}
	out.SetBody(body)
	return out, nil
}

func bodyTypes(g *domain.GeneratedReport) []domain.ReportType {
	var out []domain.ReportType
	if g.ProfitLoss != nil {
		out = append(out, domain.ReportProfitLoss)
	}
	if g.BalanceSheet != nil {
		out = append(out, domain.ReportBalanceSheet)
	}
	if g.CashFlow != nil {
		out = append(out, domain.ReportCashFlow)
	}
	return out
}

type jsonRenderer struct{}

func (jsonRenderer) ContentType() string { return "application/json" }
func (jsonRenderer) Extension() string   { return "json" }

func (jsonRenderer) Render(w io.Writer, r *domain.GeneratedReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for every date parameter.
const DateLayout = "2006-01-02"

type ReportType string

const (
	ReportProfitLoss   ReportType = "profit_loss"
	ReportBalanceSheet ReportType = "balance_sheet"
	ReportCashFlow     ReportType = "cash_flow"
)

// ParseReportType accepts the snake, kebab and short spellings used by clients.
func ParseReportType(s string) (ReportType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "profit_loss", "profit-loss", "profitloss", "pl", "p&l":
		return ReportProfitLoss, nil
	case "balance_sheet", "balance-sheet", "balancesheet", "bs":
		return ReportBalanceSheet, nil
	case "cash_flow", "cash-flow", "cashflow", "cf":
		return ReportCashFlow, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReportType, s)
}

// IsRange reports whether the report type covers a date range (as opposed to an as-of date).
func (t ReportType) IsRange() bool {
	return t == ReportProfitLoss || t == ReportCashFlow
}

// Slug is the kebab-case name used in URLs and export filenames.
func (t ReportType) Slug() string {
	return strings.ReplaceAll(string(t), "_", "-")
}

type ComparisonType string

const (
	ComparisonPreviousPeriod ComparisonType = "previous-period"
	ComparisonYearOverYear   ComparisonType = "year-over-year"
	ComparisonExplicitDate   ComparisonType = "explicit-date"
)

func ValidComparisonType(t string) bool {
	switch ComparisonType(t) {
	case ComparisonPreviousPeriod, ComparisonYearOverYear, ComparisonExplicitDate:
		return true
	}
	return false
}

// DefaultComparisonType is used when comparison is enabled without a type.
// A balance sheet given a comparison date compares against that date.
func DefaultComparisonType(t ReportType, date *time.Time) ComparisonType {
	if t == ReportBalanceSheet && date != nil {
		return ComparisonExplicitDate
	}
	return ComparisonPreviousPeriod
}

// ComparisonRequest asks for a second run of the same report over a prior window.
type ComparisonRequest struct {
	Type ComparisonType
	Date *time.Time
}

// ReportRequest is a validated request for one report.
type ReportRequest struct {
	Type       ReportType
	Window     Window
	Comparison *ComparisonRequest
}

func (r ReportRequest) Validate() error {
	switch r.Type {
	case ReportProfitLoss, ReportBalanceSheet, ReportCashFlow:
	default:
		return ErrUnknownReportType
	}
	if err := r.Window.Validate(); err != nil {
		return err
	}
	if r.Type.IsRange() != r.Window.IsRange() {
		return ErrMissingDate
	}
	if r.Comparison != nil {
		if !ValidComparisonType(string(r.Comparison.Type)) {
			return ErrInvalidComparison
		}
		if r.Comparison.Type == ComparisonExplicitDate && r.Comparison.Date == nil {
			return fmt.Errorf("%w: comparison_date is required for explicit-date", ErrInvalidComparison)
		}
	}
	return nil
}

// Params returns the normalized parameter set. url.Values encodes with sorted
// keys, so equal requests always render identically.
func (r ReportRequest) Params() url.Values {
	v := url.Values{}
	if r.Window.Start != nil {
		v.Set("start_date", r.Window.Start.Format(DateLayout))
		v.Set("end_date", r.Window.End.Format(DateLayout))
	} else {
		v.Set("as_of_date", r.Window.End.Format(DateLayout))
	}
	if r.Window.DepartmentID != nil {
		v.Set("department_id", r.Window.DepartmentID.String())
	}
	if r.Comparison != nil {
		v.Set("comparison_type", string(r.Comparison.Type))
		if r.Comparison.Date != nil {
			v.Set("comparison_date", r.Comparison.Date.Format(DateLayout))
		}
	}
	return v
}

// Figure is one comparable numeric field of a report, addressed by dotted path.
type Figure struct {
	Field string
	Value decimal.Decimal
}

// Report is implemented by every report body.
type Report interface {
	Figures() []Figure
	Empty() bool
}

// Period describes the window a report covers.
type Period struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	AsOfDate  string `json:"as_of_date,omitempty"`
}

// Period renders w for report metadata.
func (w Window) Period() Period {
	if w.Start != nil {
		return Period{StartDate: w.Start.Format(DateLayout), EndDate: w.End.Format(DateLayout)}
	}
	return Period{AsOfDate: w.End.Format(DateLayout)}
}

// GeneratedReport is the immutable envelope returned to callers and cached by value.
type GeneratedReport struct {
	Type         ReportType        `json:"report_type"`
	TenantID     string            `json:"tenant_id"`
	Parameters   map[string]string `json:"parameters"`
	Period       Period            `json:"period"`
	Department   *Department       `json:"department,omitempty"`
	ProfitLoss   *ProfitLoss       `json:"profit_loss,omitempty"`
	BalanceSheet *BalanceSheet     `json:"balance_sheet,omitempty"`
	CashFlow     *CashFlow         `json:"cash_flow,omitempty"`
	Comparison   *Comparison       `json:"comparison,omitempty"`
	Warnings     []string          `json:"warnings"`
	GeneratedAt  time.Time         `json:"generated_at"`
	GeneratedBy  string            `json:"generated_by"`
}

// Body returns the report-specific payload, or nil if none is set.
func (g *GeneratedReport) Body() Report {
	switch {
	case g == nil:
		return nil
	case g.ProfitLoss != nil:
		return g.ProfitLoss
	case g.BalanceSheet != nil:
		return g.BalanceSheet
	case g.CashFlow != nil:
		return g.CashFlow
	}
	return nil
}

// SetBody stores r in the field matching its concrete type.
func (g *GeneratedReport) SetBody(r Report) {
	switch b := r.(type) {
	case *ProfitLoss:
		g.ProfitLoss = b
	case *BalanceSheet:
		g.BalanceSheet = b
	case *CashFlow:
		g.CashFlow = b
	}
}

// FlattenParams converts url.Values to a plain map for JSON metadata.
func FlattenParams(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k := range v {
		out[k] = v.Get(k)
	}
	return out
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Variance is the period-over-period change of one figure.
type Variance struct {
	Field           string          `json:"field"`
	Current         decimal.Decimal `json:"current"`
	Previous        decimal.Decimal `json:"previous"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent decimal.Decimal `json:"variance_percent"`
}

// Comparison is attached to a report when comparison was requested.
type Comparison struct {
	Type           ComparisonType `json:"comparison_type"`
	PreviousPeriod Period         `json:"previous_period"`
	PreviousEmpty  bool           `json:"previous_is_empty"`
	Variances      []Variance     `json:"variances"`
}

// ComputeVariance returns current-previous and that difference as a percentage
// of previous. The percentage is (variance/previous)*100 rounded half away
// from zero to two decimal places, so it can differ from the exact ratio by at
// most 0.005. A zero previous value yields a zero percentage rather than an
// undefined one.
func ComputeVariance(current, previous decimal.Decimal) (variance, percent decimal.Decimal) {
	variance = current.Sub(previous)
	if previous.IsZero() {
		return variance, decimal.Zero
	}
	return variance, variance.Div(previous).Mul(hundred).Round(2)
}

// CompareFigures pairs figures by field name. Fields missing from previous are
// compared against zero.
func CompareFigures(current, previous []Figure) []Variance {
	prev := make(map[string]decimal.Decimal, len(previous))
	for _, f := range previous {
		prev[f.Field] = f.Value
	}
	out := make([]Variance, 0, len(current))
	for _, f := range current {
		p := prev[f.Field]
		v, pct := ComputeVariance(f.Value, p)
		out = append(out, Variance{
			Field:           f.Field,
			Current:         f.Value,
			Previous:        p,
			Variance:        v,
			VariancePercent: pct,
		})
	}
	return out
}

// PriorWindow computes the window to compare w against.
//
// Range windows keep their length: previous-period ends the day before w
// starts, year-over-year shifts both bounds back a year, explicit-date ends on
// the given date. Under previous-period a range made of whole calendar months
// is compared against the same number of whole months. As-of windows move back one month, one
// year, or to the explicit date respectively; month arithmetic clamps to the
// target month's length and a month-end date maps to the previous month-end.
func PriorWindow(w Window, req ComparisonRequest) (Window, error) {
	if req.Type == ComparisonExplicitDate && req.Date == nil {
		return Window{}, ErrInvalidComparison
	}

	if !w.IsRange() {
		prev := w
		switch req.Type {
		case ComparisonPreviousPeriod:
			prev.End = shiftMonths(w.End, -1)
		case ComparisonYearOverYear:
			prev.End = shiftMonths(w.End, -12)
		case ComparisonExplicitDate:
			prev.End = *req.Date
		default:
			return Window{}, ErrInvalidComparison
		}
		return prev, nil
	}

	length := w.End.Sub(*w.Start)
	start, end := *w.Start, w.End
	months, whole := wholeMonths(start, end)
	switch req.Type {
	case ComparisonPreviousPeriod:
		if whole {
			start = start.AddDate(0, -months, 0)
			end = w.Start.AddDate(0, 0, -1)
			break
		}
		end = w.Start.AddDate(0, 0, -1)
		start = end.Add(-length)
	case ComparisonYearOverYear:
		start = shiftMonths(start, -12)
		end = shiftMonths(end, -12)
	case ComparisonExplicitDate:
		end = *req.Date
		start = end.Add(-length)
	default:
		return Window{}, ErrInvalidComparison
	}
	return NewRange(start, end, w.DepartmentID), nil
}

// shiftMonths moves t by n months without spilling into the following month.
// The last day of a month maps to the last day of the target month.
func shiftMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	last := lastOfMonth(first).Day()
	day := t.Day()
	if day > last || isMonthEnd(t) {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, -1)
}

func isMonthEnd(t time.Time) bool {
	return t.Day() == lastOfMonth(t).Day()
}

// wholeMonths reports whether start..end covers complete calendar months and
// how many.
func wholeMonths(start, end time.Time) (int, bool) {
	if start.Day() != 1 || !isMonthEnd(end) {
		return 0, false
	}
	n := (end.Year()-start.Year())*12 + int(end.Month()-start.Month()) + 1
	return n, n > 0
}

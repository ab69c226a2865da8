package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerKind identifies one of the read-only ledger tables in a tenant schema.
type LedgerKind string

const (
	LedgerInvoice   LedgerKind = "invoice"
	LedgerExpense   LedgerKind = "expense"
	LedgerAsset     LedgerKind = "asset"
	LedgerLiability LedgerKind = "liability"
)

// Ledger categories.
const (
	CategoryConsultations = "consultations"
	CategoryProcedures    = "procedures"
	CategoryMedications   = "medications"
	CategoryLabTests      = "lab_tests"
	CategoryOther         = "other"

	CategorySalaries    = "salaries"
	CategorySupplies    = "supplies"
	CategoryUtilities   = "utilities"
	CategoryMaintenance = "maintenance"

	CategoryCurrent   = "current"
	CategoryFixed     = "fixed"
	CategoryDisposal  = "disposal"
	CategoryLongTerm  = "long_term"
	CategoryRepayment = "repayment"
)

// UnassignedDepartment is the ByDepartment bucket for rows without a department.
const UnassignedDepartment = "unassigned"

var ledgerCategories = map[LedgerKind][]string{
	LedgerInvoice:   {CategoryConsultations, CategoryProcedures, CategoryMedications, CategoryLabTests, CategoryOther},
	LedgerExpense:   {CategorySalaries, CategorySupplies, CategoryUtilities, CategoryMaintenance, CategoryOther},
	LedgerAsset:     {CategoryCurrent, CategoryFixed, CategoryDisposal},
	LedgerLiability: {CategoryCurrent, CategoryLongTerm, CategoryRepayment},
}

// Categories returns the known categories for a ledger kind, in display order.
func (k LedgerKind) Categories() []string {
	return append([]string(nil), ledgerCategories[k]...)
}

// Valid reports whether k is a known ledger kind.
func (k LedgerKind) Valid() bool {
	_, ok := ledgerCategories[k]
	return ok
}

// FoldsUnknown reports whether rows with an unrecognised category are counted
// under "other" rather than dropped.
func (k LedgerKind) FoldsUnknown() bool {
	return k == LedgerInvoice || k == LedgerExpense
}

// Window is the date filter for one aggregation. A nil Start means "as of End".
type Window struct {
	Start        *time.Time `json:"start_date,omitempty"`
	End          time.Time  `json:"end_date"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
}

// NewRange builds a date-range window.
func NewRange(start, end time.Time, dept *uuid.UUID) Window {
	s := start
	return Window{Start: &s, End: end, DepartmentID: dept}
}

// NewAsOf builds an as-of window.
func NewAsOf(asOf time.Time, dept *uuid.UUID) Window {
	return Window{End: asOf, DepartmentID: dept}
}

// IsRange reports whether the window has a lower bound.
func (w Window) IsRange() bool {
	return w.Start != nil
}

// Validate checks ordering of the bounds.
func (w Window) Validate() error {
	if w.End.IsZero() {
		return ErrMissingDate
	}
	if w.Start != nil && w.Start.After(w.End) {
		return ErrInvalidDateRange
	}
	return nil
}

// WithDepartment returns a copy of w restricted to dept.
func (w Window) WithDepartment(dept *uuid.UUID) Window {
	w.DepartmentID = dept
	return w
}

// LedgerSum is one grouped row returned by the ledger store.
type LedgerSum struct {
	Category     string
	DepartmentID *uuid.UUID
	Total        decimal.Decimal
}

// Aggregate is the result of summing one ledger kind over a window.
// Total always equals the sum of ByDepartment.
type Aggregate struct {
	Kind         LedgerKind
	ByCategory   map[string]decimal.Decimal
	ByDepartment map[string]decimal.Decimal
	Total        decimal.Decimal
	RowCount     int
	CategoryRows map[string]int
	// Unrecognised categories seen, for warnings.
	Unknown []string
}

// Category returns the sum for a category, zero when absent.
func (a *Aggregate) Category(name string) decimal.Decimal {
	if a == nil {
		return decimal.Zero
	}
	return a.ByCategory[name]
}

// Rows returns how many grouped rows contributed to the given categories.
func (a *Aggregate) Rows(categories ...string) int {
	if a == nil {
		return 0
	}
	n := 0
	for _, c := range categories {
		n += a.CategoryRows[c]
	}
	return n
}

// Department is a department reference carried in report metadata.
type Department struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

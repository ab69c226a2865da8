package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregator turns grouped ledger sums into per-category and per-department
// totals. Every report generator reads the ledger through it.
type Aggregator struct {
	ledger domain.LedgerStore
}

func NewAggregator(ledger domain.LedgerStore) *Aggregator {
	return &Aggregator{ledger: ledger}
}

func (a *Aggregator) Aggregate(ctx context.Context, sess domain.Session, kind domain.LedgerKind, w domain.Window) (*domain.Aggregate, error) {
	sums, err := a.ledger.SumByCategory(ctx, sess, kind, w)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", kind, err)
	}
	return buildAggregate(kind, sums), nil
}

func buildAggregate(kind domain.LedgerKind, sums []domain.LedgerSum) *domain.Aggregate {
	agg := &domain.Aggregate{
		Kind:         kind,
		ByCategory:   make(map[string]decimal.Decimal),
		ByDepartment: make(map[string]decimal.Decimal),
		CategoryRows: make(map[string]int),
		Total:        decimal.Zero,
	}
	known := make(map[string]bool)
	for _, c := range kind.Categories() {
		agg.ByCategory[c] = decimal.Zero
		known[c] = true
	}

	sorted := append([]domain.LedgerSum(nil), sums...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}
		return departmentKey(sorted[i].DepartmentID) < departmentKey(sorted[j].DepartmentID)
	})

	seenUnknown := make(map[string]bool)
	for _, s := range sorted {
		category := s.Category
		if !known[category] {
			if !seenUnknown[category] {
				seenUnknown[category] = true
				agg.Unknown = append(agg.Unknown, category)
			}
			if !kind.FoldsUnknown() {
				continue
			}
			category = domain.CategoryOther
		}
		agg.ByCategory[category] = agg.ByCategory[category].Add(s.Total)
		dept := departmentKey(s.DepartmentID)
		agg.ByDepartment[dept] = agg.ByDepartment[dept].Add(s.Total)
		agg.CategoryRows[category]++
		agg.RowCount++
	}

	// Total is defined over the department partition.
	depts := make([]string, 0, len(agg.ByDepartment))
	for d := range agg.ByDepartment {
		depts = append(depts, d)
	}
	sort.Strings(depts)
	for _, d := range depts {
		agg.Total = agg.Total.Add(agg.ByDepartment[d])
	}
	return agg
}

func departmentKey(id *uuid.UUID) string {
	if id == nil {
		return domain.UnassignedDepartment
	}
	return id.String()
}

func unknownCategoryWarnings(aggs ...*domain.Aggregate) []string {
	var out []string
	for _, a := range aggs {
		for _, c := range a.Unknown {
			if a.Kind.FoldsUnknown() {
				out = append(out, fmt.Sprintf("%s category %q counted as other", a.Kind, c))
			} else {
				out = append(out, fmt.Sprintf("%s category %q ignored", a.Kind, c))
			}
		}
	}
	return out
}

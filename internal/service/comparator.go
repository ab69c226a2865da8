package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/balancereports/internal/domain"
)

const warnEmptyComparison = "comparison period has no ledger entries"

// compare re-runs gen over the prior window inside the same session and pairs
// every figure of current with its prior value.
func compare(ctx context.Context, sess domain.Session, gen Generator, w domain.Window, req domain.ComparisonRequest, current domain.Report) (*domain.Comparison, []string, error) {
	prevWindow, err := domain.PriorWindow(w, req)
	if err != nil {
		return nil, nil, err
	}
	prev, _, err := gen.Generate(ctx, sess, prevWindow)
	if err != nil {
		return nil, nil, fmt.Errorf("comparison report: %w", err)
	}

	cmp := &domain.Comparison{
		Type:           req.Type,
		PreviousPeriod: prevWindow.Period(),
		PreviousEmpty:  prev.Empty(),
		Variances:      domain.CompareFigures(current.Figures(), prev.Figures()),
	}
	var warnings []string
	if cmp.PreviousEmpty {
		warnings = append(warnings, warnEmptyComparison)
	}
	return cmp, warnings, nil
}

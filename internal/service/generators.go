package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	warnEmptyPeriod = "no ledger entries match the requested period"
	warnImbalance   = "accounting equation does not balance: assets differ from liabilities plus equity by %s"
)

// Generator builds one report type from aggregator output.
type Generator interface {
	Type() domain.ReportType
	Generate(ctx context.Context, sess domain.Session, w domain.Window) (domain.Report, []string, error)
}

// NewGenerators returns the generator for every report type, keyed by type.
func NewGenerators(agg *Aggregator) map[domain.ReportType]Generator {
	gens := []Generator{
		&ProfitLossGenerator{agg: agg},
		&BalanceSheetGenerator{agg: agg},
		&CashFlowGenerator{agg: agg},
	}
	out := make(map[domain.ReportType]Generator, len(gens))
	for _, g := range gens {
		out[g.Type()] = g
	}
	return out
}

type ProfitLossGenerator struct {
	agg *Aggregator
}

func (g *ProfitLossGenerator) Type() domain.ReportType { return domain.ReportProfitLoss }

func (g *ProfitLossGenerator) Generate(ctx context.Context, sess domain.Session, w domain.Window) (domain.Report, []string, error) {
	inv, err := g.agg.Aggregate(ctx, sess, domain.LedgerInvoice, w)
	if err != nil {
		return nil, nil, err
	}
	exp, err := g.agg.Aggregate(ctx, sess, domain.LedgerExpense, w)
	if err != nil {
		return nil, nil, err
	}

	pl := domain.BuildProfitLoss(
		domain.Revenue{
			Consultations: inv.Category(domain.CategoryConsultations),
			Procedures:    inv.Category(domain.CategoryProcedures),
			Medications:   inv.Category(domain.CategoryMedications),
			LabTests:      inv.Category(domain.CategoryLabTests),
			Other:         inv.Category(domain.CategoryOther),
		},
		domain.Expenses{
			Salaries:    exp.Category(domain.CategorySalaries),
			Supplies:    exp.Category(domain.CategorySupplies),
			Utilities:   exp.Category(domain.CategoryUtilities),
			Maintenance: exp.Category(domain.CategoryMaintenance),
			Other:       exp.Category(domain.CategoryOther),
		},
	)
	pl.IsEmpty = inv.RowCount+exp.RowCount == 0

	warnings := unknownCategoryWarnings(inv, exp)
	if pl.IsEmpty {
		warnings = append(warnings, warnEmptyPeriod)
	}
	return pl, warnings, nil
}

type BalanceSheetGenerator struct {
	agg *Aggregator
}

func (g *BalanceSheetGenerator) Type() domain.ReportType { return domain.ReportBalanceSheet }

// Generate reads every ledger through the as-of date. Disposals reduce fixed
// assets, repayments reduce long-term liabilities, and retained earnings are
// cumulative revenue less cumulative expenses.
func (g *BalanceSheetGenerator) Generate(ctx context.Context, sess domain.Session, w domain.Window) (domain.Report, []string, error) {
	w = domain.NewAsOf(w.End, w.DepartmentID)

	aggs, err := g.agg.aggregateAll(ctx, sess, w, domain.LedgerAsset, domain.LedgerLiability, domain.LedgerInvoice, domain.LedgerExpense)
	if err != nil {
		return nil, nil, err
	}
	assets, liabilities, inv, exp := aggs[0], aggs[1], aggs[2], aggs[3]

	bs := domain.BuildBalanceSheet(
		domain.Assets{
			Current: assets.Category(domain.CategoryCurrent),
			Fixed:   assets.Category(domain.CategoryFixed).Sub(assets.Category(domain.CategoryDisposal)),
		},
		domain.Liabilities{
			Current:  liabilities.Category(domain.CategoryCurrent),
			LongTerm: liabilities.Category(domain.CategoryLongTerm).Sub(liabilities.Category(domain.CategoryRepayment)),
		},
		domain.Equity{RetainedEarnings: inv.Total.Sub(exp.Total)},
	)
	bs.IsEmpty = assets.RowCount+liabilities.RowCount+inv.RowCount+exp.RowCount == 0

	warnings := unknownCategoryWarnings(aggs...)
	if bs.IsEmpty {
		warnings = append(warnings, warnEmptyPeriod)
	}
	if !bs.AccountingEquationBalanced {
		warnings = append(warnings, fmt.Sprintf(warnImbalance, bs.Imbalance().StringFixed(2)))
	}
	return bs, warnings, nil
}

type CashFlowGenerator struct {
	agg *Aggregator
}

func (g *CashFlowGenerator) Type() domain.ReportType { return domain.ReportCashFlow }

// Generate classifies invoices and expenses as operating, fixed-asset
// purchases and disposals as investing, long-term borrowing and repayment as
// financing. Beginning cash is the cumulative net of the same flows up to the
// day before the window starts.
func (g *CashFlowGenerator) Generate(ctx context.Context, sess domain.Session, w domain.Window) (domain.Report, []string, error) {
	if w.Start == nil {
		return nil, nil, domain.ErrMissingDate
	}

	current, rows, warnings, err := g.activities(ctx, sess, w)
	if err != nil {
		return nil, nil, err
	}
	prior, _, _, err := g.activities(ctx, sess, domain.NewAsOf(w.Start.AddDate(0, 0, -1), w.DepartmentID))
	if err != nil {
		return nil, nil, err
	}
	beginning := sumNets(prior)

	cf := domain.BuildCashFlow(current[0], current[1], current[2], beginning)
	cf.IsEmpty = rows == 0
	if cf.IsEmpty {
		warnings = append(warnings, warnEmptyPeriod)
	}
	return cf, warnings, nil
}

func (g *CashFlowGenerator) activities(ctx context.Context, sess domain.Session, w domain.Window) ([3]domain.CashActivity, int, []string, error) {
	var out [3]domain.CashActivity
	aggs, err := g.agg.aggregateAll(ctx, sess, w, domain.LedgerInvoice, domain.LedgerExpense, domain.LedgerAsset, domain.LedgerLiability)
	if err != nil {
		return out, 0, nil, err
	}
	inv, exp, assets, liabilities := aggs[0], aggs[1], aggs[2], aggs[3]

	out[0] = domain.NewCashActivity(inv.Total, exp.Total)
	out[1] = domain.NewCashActivity(assets.Category(domain.CategoryDisposal), assets.Category(domain.CategoryFixed))
	out[2] = domain.NewCashActivity(liabilities.Category(domain.CategoryLongTerm), liabilities.Category(domain.CategoryRepayment))

	rows := inv.RowCount + exp.RowCount +
		assets.Rows(domain.CategoryDisposal, domain.CategoryFixed) +
		liabilities.Rows(domain.CategoryLongTerm, domain.CategoryRepayment)
	return out, rows, unknownCategoryWarnings(aggs...), nil
}

func (a *Aggregator) aggregateAll(ctx context.Context, sess domain.Session, w domain.Window, kinds ...domain.LedgerKind) ([]*domain.Aggregate, error) {
	out := make([]*domain.Aggregate, 0, len(kinds))
	for _, k := range kinds {
		agg, err := a.Aggregate(ctx, sess, k, w)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

func sumNets(acts [3]domain.CashActivity) decimal.Decimal {
	return acts[0].Net.Add(acts[1].Net).Add(acts[2].Net)
}

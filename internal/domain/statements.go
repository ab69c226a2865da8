package domain

import (
	"github.com/shopspring/decimal"
)

type Revenue struct {
	Consultations decimal.Decimal `json:"consultations"`
	Procedures    decimal.Decimal `json:"procedures"`
	Medications   decimal.Decimal `json:"medications"`
	LabTests      decimal.Decimal `json:"lab_tests"`
	Other         decimal.Decimal `json:"other"`
	Total         decimal.Decimal `json:"total"`
}

type Expenses struct {
	Salaries    decimal.Decimal `json:"salaries"`
	Supplies    decimal.Decimal `json:"supplies"`
	Utilities   decimal.Decimal `json:"utilities"`
	Maintenance decimal.Decimal `json:"maintenance"`
	Other       decimal.Decimal `json:"other"`
	Total       decimal.Decimal `json:"total"`
}

// ProfitLoss is the income statement for a date range.
type ProfitLoss struct {
	Revenue       Revenue         `json:"revenue"`
	Expenses      Expenses        `json:"expenses"`
	NetProfitLoss decimal.Decimal `json:"net_profit_loss"`
	IsEmpty       bool            `json:"is_empty"`
}

// BuildProfitLoss fills in the totals and the net result.
func BuildProfitLoss(rev Revenue, exp Expenses) *ProfitLoss {
	rev.Total = sum(rev.Consultations, rev.Procedures, rev.Medications, rev.LabTests, rev.Other)
	exp.Total = sum(exp.Salaries, exp.Supplies, exp.Utilities, exp.Maintenance, exp.Other)
	return &ProfitLoss{
		Revenue:       rev,
		Expenses:      exp,
		NetProfitLoss: rev.Total.Sub(exp.Total),
	}
}

func (p *ProfitLoss) Empty() bool { return p.IsEmpty }

func (p *ProfitLoss) Figures() []Figure {
	return []Figure{
		{"revenue.consultations", p.Revenue.Consultations},
		{"revenue.procedures", p.Revenue.Procedures},
		{"revenue.medications", p.Revenue.Medications},
		{"revenue.lab_tests", p.Revenue.LabTests},
		{"revenue.other", p.Revenue.Other},
		{"revenue.total", p.Revenue.Total},
		{"expenses.salaries", p.Expenses.Salaries},
		{"expenses.supplies", p.Expenses.Supplies},
		{"expenses.utilities", p.Expenses.Utilities},
		{"expenses.maintenance", p.Expenses.Maintenance},
		{"expenses.other", p.Expenses.Other},
		{"expenses.total", p.Expenses.Total},
		{"net_profit_loss", p.NetProfitLoss},
	}
}

type Assets struct {
	Current decimal.Decimal `json:"current"`
	Fixed   decimal.Decimal `json:"fixed"`
	Total   decimal.Decimal `json:"total"`
}

type Liabilities struct {
	Current  decimal.Decimal `json:"current"`
	LongTerm decimal.Decimal `json:"long_term"`
	Total    decimal.Decimal `json:"total"`
}

type Equity struct {
	RetainedEarnings decimal.Decimal `json:"retained_earnings"`
	Total            decimal.Decimal `json:"total"`
}

// BalanceSheet is the position as of a single date. An unbalanced sheet is
// reported as such and never adjusted.
type BalanceSheet struct {
	Assets                     Assets      `json:"assets"`
	Liabilities                Liabilities `json:"liabilities"`
	Equity                     Equity      `json:"equity"`
	AccountingEquationBalanced bool        `json:"accounting_equation_balanced"`
	IsEmpty                    bool        `json:"is_empty"`
}

func BuildBalanceSheet(a Assets, l Liabilities, e Equity) *BalanceSheet {
	a.Total = a.Current.Add(a.Fixed)
	l.Total = l.Current.Add(l.LongTerm)
	e.Total = e.RetainedEarnings
	return &BalanceSheet{
		Assets:                     a,
		Liabilities:                l,
		Equity:                     e,
		AccountingEquationBalanced: a.Total.Equal(l.Total.Add(e.Total)),
	}
}

// Imbalance is assets minus (liabilities + equity); zero when balanced.
func (b *BalanceSheet) Imbalance() decimal.Decimal {
	return b.Assets.Total.Sub(b.Liabilities.Total.Add(b.Equity.Total))
}

func (b *BalanceSheet) Empty() bool { return b.IsEmpty }

func (b *BalanceSheet) Figures() []Figure {
	return []Figure{
		{"assets.current", b.Assets.Current},
		{"assets.fixed", b.Assets.Fixed},
		{"assets.total", b.Assets.Total},
		{"liabilities.current", b.Liabilities.Current},
		{"liabilities.long_term", b.Liabilities.LongTerm},
		{"liabilities.total", b.Liabilities.Total},
		{"equity.retained_earnings", b.Equity.RetainedEarnings},
		{"equity.total", b.Equity.Total},
	}
}

type Flow struct {
	Total decimal.Decimal `json:"total"`
}

type CashActivity struct {
	Inflows  Flow            `json:"inflows"`
	Outflows Flow            `json:"outflows"`
	Net      decimal.Decimal `json:"net"`
}

// NewCashActivity computes net from the two flows.
func NewCashActivity(in, out decimal.Decimal) CashActivity {
	return CashActivity{Inflows: Flow{Total: in}, Outflows: Flow{Total: out}, Net: in.Sub(out)}
}

type CashFlow struct {
	Operating     CashActivity    `json:"operating"`
	Investing     CashActivity    `json:"investing"`
	Financing     CashActivity    `json:"financing"`
	NetCashFlow   decimal.Decimal `json:"net_cash_flow"`
	BeginningCash decimal.Decimal `json:"beginning_cash"`
	EndingCash    decimal.Decimal `json:"ending_cash"`
	IsEmpty       bool            `json:"is_empty"`
}

func BuildCashFlow(operating, investing, financing CashActivity, beginningCash decimal.Decimal) *CashFlow {
	net := sum(operating.Net, investing.Net, financing.Net)
	return &CashFlow{
		Operating:     operating,
		Investing:     investing,
		Financing:     financing,
		NetCashFlow:   net,
		BeginningCash: beginningCash,
		EndingCash:    beginningCash.Add(net),
	}
}

func (c *CashFlow) Empty() bool { return c.IsEmpty }

func (c *CashFlow) Figures() []Figure {
	return []Figure{
		{"operating.inflows.total", c.Operating.Inflows.Total},
		{"operating.outflows.total", c.Operating.Outflows.Total},
		{"operating.net", c.Operating.Net},
		{"investing.inflows.total", c.Investing.Inflows.Total},
		{"investing.outflows.total", c.Investing.Outflows.Total},
		{"investing.net", c.Investing.Net},
		{"financing.inflows.total", c.Financing.Inflows.Total},
		{"financing.outflows.total", c.Financing.Outflows.Total},
		{"financing.net", c.Financing.Net},
		{"net_cash_flow", c.NetCashFlow},
		{"beginning_cash", c.BeginningCash},
		{"ending_cash", c.EndingCash},
	}
}

func sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ledgerTables = map[domain.LedgerKind]string{
	domain.LedgerInvoice:   "invoices",
	domain.LedgerExpense:   "expenses",
	domain.LedgerAsset:     "assets",
	domain.LedgerLiability: "liabilities",
}

// LedgerStore reads the per-tenant ledger tables. Table names are left
// unqualified and resolve through the session's search_path.
type LedgerStore struct{}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

func (s *LedgerStore) SumByCategory(ctx context.Context, sess domain.Session, kind domain.LedgerKind, w domain.Window) ([]domain.LedgerSum, error) {
	table, ok := ledgerTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown ledger kind %q", kind)
	}
	query, args := sumQuery(table, w)

	rows, err := sess.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum %s: %w", table, err)
	}
	defer rows.Close()

	var sums []domain.LedgerSum
	for rows.Next() {
		var (
			category string
			deptID   *uuid.UUID
			total    decimal.Decimal
		)
		if err := rows.Scan(&category, &deptID, &total); err != nil {
			return nil, fmt.Errorf("scan %s sum: %w", table, err)
		}
		sums = append(sums, domain.LedgerSum{Category: category, DepartmentID: deptID, Total: total})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum %s: %w", table, err)
	}
	return sums, nil
}

func sumQuery(table string, w domain.Window) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT category, department_id, COALESCE(SUM(amount), 0) FROM ")
	b.WriteString(table)
	b.WriteString(" WHERE entry_date <= $1")
	args := []any{w.End}
	if w.Start != nil {
		args = append(args, *w.Start)
		fmt.Fprintf(&b, " AND entry_date >= $%d", len(args))
	}
	if w.DepartmentID != nil {
		args = append(args, *w.DepartmentID)
		fmt.Fprintf(&b, " AND department_id = $%d", len(args))
	}
	b.WriteString(" GROUP BY category, department_id")
	return b.String(), args
}

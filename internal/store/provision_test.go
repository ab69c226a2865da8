package store

import (
	"context"
	"strings"
	"testing"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionTenant(t *testing.T) {
	q := &stubQuerier{}
	tc := domain.TenantContext{TenantID: "tenant_hospital_a", SchemaName: "tenant_hospital_a"}

	require.NoError(t, ProvisionTenant(context.Background(), q, tc))

	require.Len(t, q.execs, 6)
	assert.Equal(t, `CREATE SCHEMA IF NOT EXISTS "tenant_hospital_a"`, q.execs[0].sql)
	for _, table := range []string{"departments", "invoices", "expenses", "assets", "liabilities"} {
		found := false
		for _, e := range q.execs {
			if strings.Contains(e.sql, `"tenant_hospital_a".`+table+" (") {
				found = true
			}
		}
		assert.True(t, found, table)
	}
}

func TestProvisionTenant_RejectsInvalidSchema(t *testing.T) {
	q := &stubQuerier{}
	err := ProvisionTenant(context.Background(), q, domain.TenantContext{SchemaName: "public"})
	assert.ErrorIs(t, err, domain.ErrInvalidTenantID)
	assert.Empty(t, q.execs)
}

func TestDemoLedgerTotals(t *testing.T) {
	sums := map[domain.LedgerKind]int64{}
	var q1Revenue, q1Expenses int64
	for _, e := range DemoLedger {
		sums[e.Kind] += e.Amount
		if e.Date >= "2024-01-01" && e.Date <= "2024-03-31" {
			switch e.Kind {
			case domain.LedgerInvoice:
				q1Revenue += e.Amount
			case domain.LedgerExpense:
				q1Expenses += e.Amount
			}
		}
	}
	assert.EqualValues(t, 170000, q1Revenue)
	assert.EqualValues(t, 120000, q1Expenses)
	equity := sums[domain.LedgerInvoice] - sums[domain.LedgerExpense]
	assert.EqualValues(t, 880000, sums[domain.LedgerAsset])
	assert.Equal(t, sums[domain.LedgerAsset], sums[domain.LedgerLiability]+equity)
}

func TestSeedDemoLedger(t *testing.T) {
	q := &stubQuerier{}
	tc := domain.TenantContext{TenantID: "tenant_demo_clinic", SchemaName: "tenant_demo_clinic"}

	n, err := SeedDemoLedger(context.Background(), q, tc)
	require.NoError(t, err)
	assert.Equal(t, len(DemoLedger), n)

	var inserts []execCall
	for _, e := range q.execs {
		if strings.Contains(e.sql, ".invoices (id") || strings.Contains(e.sql, ".expenses (id") ||
			strings.Contains(e.sql, ".assets (id") || strings.Contains(e.sql, ".liabilities (id") {
			inserts = append(inserts, e)
		}
	}
	require.Len(t, inserts, len(DemoLedger))
	assert.True(t, inserts[1].args[3].(decimal.Decimal).Equal(decimal.NewFromInt(50000)))
}

func TestEnsureAuditTable(t *testing.T) {
	q := &stubQuerier{}
	require.NoError(t, EnsureAuditTable(context.Background(), q))
	require.Len(t, q.execs, 1)
	assert.Contains(t, q.execs[0].sql, "public.report_audit_logs")
}

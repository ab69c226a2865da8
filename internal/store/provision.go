package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const auditTableDDL = `
CREATE TABLE IF NOT EXISTS public.report_audit_logs (
	id          UUID PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	user_id     TEXT NOT NULL DEFAULT '',
	report_type TEXT NOT NULL,
	action      TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	parameters  JSONB NOT NULL DEFAULT '{}',
	ip_address  TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS report_audit_logs_tenant_created_idx
	ON public.report_audit_logs (tenant_id, created_at DESC)`

// EnsureAuditTable creates the shared audit table if it is missing.
func EnsureAuditTable(ctx context.Context, db Querier) error {
	if _, err := db.Exec(ctx, auditTableDDL); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

// tenantDDL returns the statements that create a tenant schema with its
// department and ledger tables.
func tenantDDL(tc domain.TenantContext) []string {
	schema := pgx.Identifier{tc.SchemaName}.Sanitize()
	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS " + schema,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.departments (
	id   UUID PRIMARY KEY,
	name TEXT NOT NULL
)`, schema),
	}
	for _, kind := range []domain.LedgerKind{domain.LedgerInvoice, domain.LedgerExpense, domain.LedgerAsset, domain.LedgerLiability} {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	id            UUID PRIMARY KEY,
	category      TEXT NOT NULL,
	department_id UUID REFERENCES %s.departments (id),
	amount        NUMERIC(18, 2) NOT NULL,
	entry_date    DATE NOT NULL
)`, schema, ledgerTables[kind], schema))
	}
	return stmts
}

// ProvisionTenant creates the tenant's schema and tables. It is idempotent.
func ProvisionTenant(ctx context.Context, db Querier, tc domain.TenantContext) error {
	if _, err := domain.ResolveTenant(tc.SchemaName); err != nil {
		return err
	}
	for _, stmt := range tenantDDL(tc) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("provision %s: %w", tc.SchemaName, err)
		}
	}
	return nil
}

// DemoEntry is one ledger row written by SeedDemoLedger.
type DemoEntry struct {
	Kind       domain.LedgerKind
	Category   string
	Department string
	Amount     int64
	Date       string
}

// DemoLedger is a first-quarter ledger for a small hospital. Its profit and
// loss for 2024-01-01..2024-03-31 is 170000 revenue against 120000 expenses,
// and its balance sheet as of 2024-03-31 balances at 880000.
var DemoLedger = []DemoEntry{
	{domain.LedgerInvoice, domain.CategoryOther, "", 470000, "2023-12-31"},
	{domain.LedgerInvoice, domain.CategoryConsultations, "Outpatient", 50000, "2024-01-15"},
	{domain.LedgerInvoice, domain.CategoryProcedures, "Surgery", 75000, "2024-02-10"},
	{domain.LedgerInvoice, domain.CategoryMedications, "Pharmacy", 25000, "2024-02-20"},
	{domain.LedgerInvoice, domain.CategoryLabTests, "Laboratory", 15000, "2024-03-05"},
	{domain.LedgerInvoice, domain.CategoryOther, "", 5000, "2024-03-20"},
	{domain.LedgerExpense, domain.CategorySalaries, "Surgery", 80000, "2024-01-31"},
	{domain.LedgerExpense, domain.CategorySupplies, "Pharmacy", 20000, "2024-02-15"},
	{domain.LedgerExpense, domain.CategoryUtilities, "", 10000, "2024-03-01"},
	{domain.LedgerExpense, domain.CategoryMaintenance, "", 5000, "2024-03-10"},
	{domain.LedgerExpense, domain.CategoryOther, "", 5000, "2024-03-25"},
	{domain.LedgerAsset, domain.CategoryCurrent, "", 300000, "2024-01-02"},
	{domain.LedgerAsset, domain.CategoryFixed, "Surgery", 580000, "2023-06-30"},
	{domain.LedgerLiability, domain.CategoryCurrent, "", 160000, "2024-01-02"},
	{domain.LedgerLiability, domain.CategoryLongTerm, "", 200000, "2023-06-30"},
}

// SeedDemoLedger provisions tc and writes DemoLedger into it.
func SeedDemoLedger(ctx context.Context, db Querier, tc domain.TenantContext) (int, error) {
	if err := ProvisionTenant(ctx, db, tc); err != nil {
		return 0, err
	}
	schema := pgx.Identifier{tc.SchemaName}.Sanitize()

	departments := map[string]uuid.UUID{}
	for _, e := range DemoLedger {
		if e.Department == "" || departments[e.Department] != uuid.Nil {
			continue
		}
		id := uuid.New()
		departments[e.Department] = id
		if _, err := db.Exec(ctx, "INSERT INTO "+schema+".departments (id, name) VALUES ($1, $2)", id, e.Department); err != nil {
			return 0, fmt.Errorf("seed department %s: %w", e.Department, err)
		}
	}

	for i, e := range DemoLedger {
		day, err := time.Parse(domain.DateLayout, e.Date)
		if err != nil {
			return i, err
		}
		var dept *uuid.UUID
		if id, ok := departments[e.Department]; ok {
			dept = &id
		}
		sql := fmt.Sprintf("INSERT INTO %s.%s (id, category, department_id, amount, entry_date) VALUES ($1, $2, $3, $4, $5)",
			schema, ledgerTables[e.Kind])
		if _, err := db.Exec(ctx, sql, uuid.New(), e.Category, dept, decimal.NewFromInt(e.Amount), day); err != nil {
			return i, fmt.Errorf("seed %s row %d: %w", e.Kind, i, err)
		}
	}
	return len(DemoLedger), nil
}

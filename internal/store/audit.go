package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/google/uuid"
)

// AuditStore writes to public.report_audit_logs. The table lives outside every
// tenant schema so that requests rejected before scoping are still recorded;
// every read is filtered by tenant_id.
type AuditStore struct {
	db Querier
}

func NewAuditStore(db Querier) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Create(ctx context.Context, e *domain.AuditLogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO public.report_audit_logs
		 (id, tenant_id, user_id, report_type, action, outcome, parameters, ip_address, request_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.TenantID, e.UserID, e.ReportType, string(e.Action), string(e.Outcome),
		e.Parameters, e.IPAddress, e.RequestID, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *AuditStore) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLogEntry, int, error) {
	f.Normalize()
	where, args := auditWhere(f)

	var total int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM public.report_audit_logs WHERE `+where,
		args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT id, tenant_id, user_id, report_type, action, outcome, parameters, ip_address, request_id, created_at
		 FROM public.report_audit_logs WHERE %s
		 ORDER BY created_at DESC, id
		 LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditLogEntry{}
	for rows.Next() {
		var (
			e               domain.AuditLogEntry
			action, outcome string
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.ReportType, &action, &outcome,
			&e.Parameters, &e.IPAddress, &e.RequestID, &e.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		e.Action = domain.AuditAction(action)
		e.Outcome = domain.AuditOutcome(outcome)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func auditWhere(f domain.AuditFilter) (string, []any) {
	clauses := []string{"tenant_id = $1"}
	args := []any{f.TenantID}
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.ReportType != "" {
		add("report_type = $%d", f.ReportType)
	}
	if f.Action != "" {
		add("action = $%d", string(f.Action))
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}
	return strings.Join(clauses, " AND "), args
}

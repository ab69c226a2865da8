package domain

import (
	"context"

	"github.com/google/uuid"
)

// Rows is the subset of a driver result set read by the stores.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Row is a single-row result.
type Row interface {
	Scan(dest ...any) error
}

// Session is a database handle bound to exactly one tenant schema for the
// duration of one request. Unqualified table names resolve inside that schema.
type Session interface {
	Tenant() TenantContext
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// SessionProvider scopes a pooled connection to a tenant for the lifetime of fn
// and releases it on every exit path.
type SessionProvider interface {
	WithSession(ctx context.Context, tc TenantContext, fn func(ctx context.Context, s Session) error) error
}

// LedgerStore reads grouped ledger sums through a scoped session.
type LedgerStore interface {
	SumByCategory(ctx context.Context, s Session, kind LedgerKind, w Window) ([]LedgerSum, error)
}

type DepartmentStore interface {
	GetByID(ctx context.Context, s Session, id uuid.UUID) (*Department, error)
}

// AuditStore persists audit entries in the shared schema.
type AuditStore interface {
	Create(ctx context.Context, e *AuditLogEntry) error
	List(ctx context.Context, f AuditFilter) ([]AuditLogEntry, int, error)
}

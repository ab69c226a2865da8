package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const rollbackTimeout = 5 * time.Second

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// SessionProvider hands out tenant-scoped sessions backed by read-only
// transactions on the shared pool. The search_path is set with SET LOCAL, so
// it is discarded by the rollback that ends every session and a pooled
// connection never carries one tenant's scope into another request.
type SessionProvider struct {
	db     TxBeginner
	tracer trace.Tracer
}

func NewSessionProvider(db TxBeginner) *SessionProvider {
	return &SessionProvider{db: db, tracer: otel.Tracer("balancereports/store")}
}

func (p *SessionProvider) WithSession(ctx context.Context, tc domain.TenantContext, fn func(ctx context.Context, s domain.Session) error) error {
	// Re-check here as well: the schema name is spliced into SQL below.
	if _, err := domain.ResolveTenant(tc.SchemaName); err != nil {
		return err
	}

	ctx, span := p.tracer.Start(ctx, "store.WithSession",
		trace.WithAttributes(attribute.String("tenant.id", tc.TenantID)))
	defer span.End()

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("begin tenant session: %w", err)
	}
	defer func() {
		// The request context may already be canceled; the rollback must still run.
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer cancel()
		_ = tx.Rollback(rbCtx)
	}()

	if _, err := tx.Exec(ctx, "SET LOCAL search_path TO "+pgx.Identifier{tc.SchemaName}.Sanitize()); err != nil {
		span.RecordError(err)
		return fmt.Errorf("scope session to %s: %w", tc.SchemaName, err)
	}

	return fn(ctx, &scopedSession{tx: tx, tenant: tc})
}

type scopedSession struct {
	tx     pgx.Tx
	tenant domain.TenantContext
}

func (s *scopedSession) Tenant() domain.TenantContext {
	return s.tenant
}

func (s *scopedSession) Query(ctx context.Context, sql string, args ...any) (domain.Rows, error) {
	rows, err := s.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *scopedSession) QueryRow(ctx context.Context, sql string, args ...any) domain.Row {
	return s.tx.QueryRow(ctx, sql, args...)
}

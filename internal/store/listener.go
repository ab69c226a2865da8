package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationListener holds one pooled connection in LISTEN mode for the
// lifetime of Listen.
type NotificationListener struct {
	pool    *pgxpool.Pool
	channel string
}

func NewNotificationListener(pool *pgxpool.Pool, channel string) *NotificationListener {
	return &NotificationListener{pool: pool, channel: channel}
}

// Listen blocks, passing each notification payload to handle, until ctx is
// done or the connection fails.
func (l *NotificationListener) Listen(ctx context.Context, handle func(payload string)) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	defer func() {
		_, _ = conn.Exec(context.WithoutCancel(ctx), "UNLISTEN "+pgx.Identifier{l.channel}.Sanitize())
	}()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		handle(n.Payload)
	}
}

// NotifyLedgerChange tells every listening instance that tenantID's ledger changed.
func NotifyLedgerChange(ctx context.Context, db Querier, channel, tenantID string) error {
	if _, err := db.Exec(ctx, "SELECT pg_notify($1, $2)", channel, tenantID); err != nil {
		return fmt.Errorf("notify %s: %w", channel, err)
	}
	return nil
}

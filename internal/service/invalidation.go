package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultReconnectDelay = 5 * time.Second
	invalidationTimeout   = 10 * time.Second
)

// ChangeFeed delivers tenant ids whose ledgers changed. Satisfied by
// *store.NotificationListener.
type ChangeFeed interface {
	Listen(ctx context.Context, handle func(payload string)) error
}

// TenantInvalidator is satisfied by *ReportService.
type TenantInvalidator interface {
	InvalidateTenant(ctx context.Context, tenantID string, source string) (int, error)
}

// InvalidationListener drops a tenant's cached reports whenever its ledger
// changes. Payloads that are not valid tenant ids are ignored.
type InvalidationListener struct {
	feed        ChangeFeed
	invalidator TenantInvalidator
	logger      *zap.Logger

	reconnectDelay time.Duration
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

func NewInvalidationListener(feed ChangeFeed, invalidator TenantInvalidator, logger *zap.Logger) *InvalidationListener {
	return &InvalidationListener{
		feed:           feed,
		invalidator:    invalidator,
		logger:         logger,
		reconnectDelay: defaultReconnectDelay,
	}
}

func (l *InvalidationListener) SetReconnectDelay(d time.Duration) {
	l.reconnectDelay = d
}

// Start listens in a background goroutine, reconnecting after failures until Stop.
func (l *InvalidationListener) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.logger.Info("ledger change listener started")

		for {
			err := l.feed.Listen(ctx, l.handle)
			if ctx.Err() != nil {
				l.logger.Info("ledger change listener stopped")
				return
			}
			if err != nil {
				l.logger.Warn("ledger change listener failed; reconnecting",
					zap.Duration("delay", l.reconnectDelay), zap.Error(err))
			}
			select {
			case <-time.After(l.reconnectDelay):
			case <-ctx.Done():
				l.logger.Info("ledger change listener stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the listener.
func (l *InvalidationListener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
}

func (l *InvalidationListener) handle(payload string) {
	tc, err := domain.ResolveTenant(payload)
	if err != nil {
		l.logger.Warn("ignoring ledger change for invalid tenant id",
			zap.String("tenant_id", domain.SanitizeTenantID(payload)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), invalidationTimeout)
	defer cancel()
	if _, err := l.invalidator.InvalidateTenant(ctx, tc.TenantID, "notify"); err != nil {
		l.logger.Error("failed to invalidate report cache",
			zap.String("tenant_id", tc.TenantID), zap.Error(err))
	}
}

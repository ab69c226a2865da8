package cache

import (
	"context"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/domain"
)

// Store holds generated reports by key. Implementations must never return an
// entry past its expiry.
type Store interface {
	Get(ctx context.Context, k Key) (*domain.GeneratedReport, bool, error)
	Set(ctx context.Context, k Key, r *domain.GeneratedReport, ttl time.Duration) error
	InvalidateTenant(ctx context.Context, tenantID string) (int, error)
}

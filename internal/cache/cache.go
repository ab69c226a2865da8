package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/Harshitk-cp/balancereports/internal/metrics"
	"github.com/bsm/redislock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLockTTL = 30 * time.Second
	// Waiters re-run a computation at most this many times when the caller
	// that started it went away.
	maxAttempts = 3
)

// ComputeFunc produces a report on a cache miss.
type ComputeFunc func(ctx context.Context) (*domain.GeneratedReport, error)

// Locker is satisfied by *redislock.Client.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

// ReportCache serves reports from a Store and collapses concurrent misses for
// one key into a single computation.
type ReportCache struct {
	store  Store
	ttl    time.Duration
	locker Locker
	group  singleflight.Group
	logger *zap.Logger
}

func New(store Store, ttl time.Duration, logger *zap.Logger) *ReportCache {
	return &ReportCache{store: store, ttl: ttl, logger: logger}
}

// WithLocker makes misses take a distributed lock per key so several
// instances sharing a Redis store do not compute the same report at once.
func (c *ReportCache) WithLocker(l Locker) *ReportCache {
	c.locker = l
	return c
}

// leaderCanceled marks a failure caused by the context of the caller that
// started a shared computation, not by the computation itself.
type leaderCanceled struct{ err error }

func (e *leaderCanceled) Error() string { return e.err.Error() }
func (e *leaderCanceled) Unwrap() error { return e.err }

// GetOrCompute returns the cached report for k, or computes, stores and
// returns it. The bool reports whether the value came from the cache.
// Failed computations are never stored.
func (c *ReportCache) GetOrCompute(ctx context.Context, k Key, compute ComputeFunc) (*domain.GeneratedReport, bool, error) {
	label := string(k.ReportType)
	if r, ok := c.lookup(ctx, k); ok {
		metrics.CacheHitsTotal.WithLabelValues(label).Inc()
		return r, true, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(label).Inc()

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		ch := c.group.DoChan(k.String(), func() (any, error) {
			return c.fill(ctx, k, compute)
		})

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(*domain.GeneratedReport), false, nil
			}
			err = res.Err
			var lc *leaderCanceled
			if errors.As(err, &lc) && ctx.Err() == nil {
				continue
			}
			return nil, false, err
		}
	}
	return nil, false, err
}

func (c *ReportCache) fill(ctx context.Context, k Key, compute ComputeFunc) (*domain.GeneratedReport, error) {
	// A caller that missed just before the previous computation stored its
	// result may land here; do not compute twice.
	if r, ok := c.lookup(ctx, k); ok {
		return r, nil
	}

	if c.locker != nil {
		lock, err := c.locker.Obtain(ctx, "lock:"+k.String(), defaultLockTTL, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
		})
		switch {
		case err == nil:
			defer func() { _ = lock.Release(context.WithoutCancel(ctx)) }()
			if r, ok := c.lookup(ctx, k); ok {
				return r, nil
			}
		case errors.Is(err, redislock.ErrNotObtained):
			c.logger.Warn("could not obtain report lock; computing anyway", zap.String("key", k.String()))
		default:
			c.logger.Warn("error obtaining report lock; computing anyway", zap.String("key", k.String()), zap.Error(err))
		}
	}

	r, err := compute(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &leaderCanceled{err: err}
		}
		return nil, err
	}
	if err := c.store.Set(ctx, k, r, c.ttl); err != nil {
		c.logger.Warn("failed to store report in cache", zap.String("key", k.String()), zap.Error(err))
	}
	return r, nil
}

func (c *ReportCache) lookup(ctx context.Context, k Key) (*domain.GeneratedReport, bool) {
	r, ok, err := c.store.Get(ctx, k)
	if err != nil {
		c.logger.Warn("report cache read failed", zap.String("key", k.String()), zap.Error(err))
		return nil, false
	}
	return r, ok
}

// InvalidateTenant drops every cached report of one tenant.
func (c *ReportCache) InvalidateTenant(ctx context.Context, tenantID string) (int, error) {
	return c.store.InvalidateTenant(ctx, tenantID)
}

// Purge removes expired entries when the store keeps them in process.
func (c *ReportCache) Purge() int {
	if p, ok := c.store.(interface{ Purge() int }); ok {
		return p.Purge()
	}
	return 0
}

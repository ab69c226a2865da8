package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/Harshitk-cp/balancereports/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPendingAuditWrites = 64

var ErrAuditTenantMissing = errors.New("audit query requires a tenant")

// AuditService records one entry per report request. Denials are written
// before the response; everything else is written in the background and a
// failed write never fails the request.
type AuditService struct {
	store   domain.AuditStore
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time

	pending chan struct{}
	wg      sync.WaitGroup
}

func NewAuditService(store domain.AuditStore, logger *zap.Logger, timeout time.Duration) *AuditService {
	return &AuditService{
		store:   store,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
		pending: make(chan struct{}, maxPendingAuditWrites),
	}
}

// Record writes e synchronously.
func (s *AuditService) Record(ctx context.Context, e domain.AuditLogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Create(ctx, &e); err != nil {
		metrics.AuditWriteFailuresTotal.Inc()
		s.logger.Error("failed to write audit log",
			zap.String("tenant_id", e.TenantID),
			zap.String("user_id", e.UserID),
			zap.String("action", string(e.Action)),
			zap.String("outcome", string(e.Outcome)),
			zap.String("request_id", e.RequestID),
			zap.Error(err))
		return err
	}
	metrics.AuditWritesTotal.WithLabelValues(string(e.Action)).Inc()
	return nil
}

// RecordAsync writes e without blocking the caller. When too many writes are
// already in flight it falls back to writing inline rather than dropping e.
func (s *AuditService) RecordAsync(e domain.AuditLogEntry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now().UTC()
	}
	select {
	case s.pending <- struct{}{}:
	default:
		_ = s.Record(context.Background(), e)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.pending }()
		_ = s.Record(context.Background(), e)
	}()
}

// Wait blocks until background writes have finished.
func (s *AuditService) Wait() {
	s.wg.Wait()
}

// List returns one page of the tenant's audit log.
func (s *AuditService) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLogEntry, domain.Pagination, error) {
	if f.TenantID == "" {
		return nil, domain.Pagination{}, ErrAuditTenantMissing
	}
	f.Normalize()
	entries, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return entries, domain.NewPagination(f.Page, f.Limit, total), nil
}

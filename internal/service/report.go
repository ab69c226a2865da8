package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/cache"
	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/Harshitk-cp/balancereports/internal/metrics"
	"github.com/Harshitk-cp/balancereports/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ReportCache is satisfied by *cache.ReportCache.
type ReportCache interface {
	GetOrCompute(ctx context.Context, k cache.Key, compute cache.ComputeFunc) (*domain.GeneratedReport, bool, error)
	InvalidateTenant(ctx context.Context, tenantID string) (int, error)
}

type ReportOptions struct {
	Timeout       time.Duration
	SlowThreshold time.Duration
}

// ReportService validates a request, serves it from cache or computes it in a
// tenant-scoped session, and audits the outcome.
type ReportService struct {
	sessions    domain.SessionProvider
	departments domain.DepartmentStore
	generators  map[domain.ReportType]Generator
	cache       ReportCache
	audit       *AuditService
	logger      *zap.Logger
	tracer      trace.Tracer
	opts        ReportOptions
	now         func() time.Time
}

func NewReportService(
	sessions domain.SessionProvider,
	ledger domain.LedgerStore,
	departments domain.DepartmentStore,
	reportCache ReportCache,
	audit *AuditService,
	logger *zap.Logger,
	opts ReportOptions,
) *ReportService {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SlowThreshold <= 0 {
		opts.SlowThreshold = 500 * time.Millisecond
	}
	return &ReportService{
		sessions:    sessions,
		departments: departments,
		generators:  NewGenerators(NewAggregator(ledger)),
		cache:       reportCache,
		audit:       audit,
		logger:      logger,
		tracer:      otel.Tracer("balancereports/service"),
		opts:        opts,
		now:         time.Now,
	}
}

// Generate returns the report for req within tc. The bool reports a cache hit.
// Exactly one generate audit entry is recorded per call. The cached report is
// shared by every user of the tenant; GeneratedBy is stamped on a copy for
// each caller.
func (s *ReportService) Generate(ctx context.Context, tc domain.TenantContext, caller domain.Caller, req domain.ReportRequest) (*domain.GeneratedReport, bool, error) {
	params := req.Params()
	entry := domain.NewAuditEntry(tc.TenantID, caller, string(req.Type), domain.AuditActionGenerate, domain.AuditOutcomeSuccess, domain.FlattenParams(params))

	if err := req.Validate(); err != nil {
		entry.Outcome = domain.AuditOutcomeInvalid
		s.audit.RecordAsync(entry)
		return nil, false, err
	}

	key := cache.NewKey(tc.TenantID, req.Type, params)
	report, cached, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*domain.GeneratedReport, error) {
		return s.compute(ctx, tc, caller, req)
	})
	switch {
	case err == nil:
	case domain.IsValidation(err):
		entry.Outcome = domain.AuditOutcomeInvalid
	default:
		entry.Outcome = domain.AuditOutcomeError
	}
	s.audit.RecordAsync(entry)

	if err != nil {
		return nil, false, err
	}
	out := *report
	out.GeneratedBy = caller.UserID
	return &out, cached, nil
}

func (s *ReportService) compute(ctx context.Context, tc domain.TenantContext, caller domain.Caller, req domain.ReportRequest) (*domain.GeneratedReport, error) {
	gen, ok := s.generators[req.Type]
	if !ok {
		return nil, domain.ErrUnknownReportType
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "service.GenerateReport", trace.WithAttributes(
		attribute.String("tenant.id", tc.TenantID),
		attribute.String("report.type", string(req.Type)),
	))
	defer span.End()

	started := time.Now()
	out := &domain.GeneratedReport{
		Type:        req.Type,
		TenantID:    tc.TenantID,
		Parameters:  domain.FlattenParams(req.Params()),
		Period:      req.Window.Period(),
		Warnings:    []string{},
		GeneratedAt: s.now().UTC(),
	}

	err := s.sessions.WithSession(ctx, tc, func(ctx context.Context, sess domain.Session) error {
		if id := req.Window.DepartmentID; id != nil {
			dept, err := s.departments.GetByID(ctx, sess, *id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%w: %s", domain.ErrDepartmentUnknown, id.String())
				}
				return fmt.Errorf("resolve department: %w", err)
			}
			out.Department = dept
		}

		body, warnings, err := gen.Generate(ctx, sess, req.Window)
		if err != nil {
			return err
		}
		out.SetBody(body)
		out.Warnings = append(out.Warnings, warnings...)

		if req.Comparison != nil {
			cmp, warnings, err := compare(ctx, sess, gen, req.Window, *req.Comparison, body)
			if err != nil {
				return err
			}
			out.Comparison = cmp
			out.Warnings = append(out.Warnings, warnings...)
		}
		return nil
	})

	elapsed := time.Since(started)
	metrics.ReportGenerationDuration.WithLabelValues(string(req.Type)).Observe(elapsed.Seconds())
	if err != nil {
		metrics.ReportsGeneratedTotal.WithLabelValues(string(req.Type), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !domain.IsValidation(err) {
			s.logger.Error("report generation failed",
				zap.String("tenant_id", tc.TenantID),
				zap.String("report_type", string(req.Type)),
				zap.String("request_id", caller.RequestID),
				zap.Error(err))
		}
		return nil, err
	}
	metrics.ReportsGeneratedTotal.WithLabelValues(string(req.Type), "success").Inc()

	if elapsed >= s.opts.SlowThreshold {
		s.logger.Warn("slow report",
			zap.String("tenant_id", tc.TenantID),
			zap.String("report_type", string(req.Type)),
			zap.Any("parameters", out.Parameters),
			zap.Duration("duration", elapsed))
	}
	return out, nil
}

// InvalidateTenant drops every cached report for tenantID.
func (s *ReportService) InvalidateTenant(ctx context.Context, tenantID string, source string) (int, error) {
	n, err := s.cache.InvalidateTenant(ctx, tenantID)
	if err != nil {
		return n, err
	}
	metrics.CacheInvalidationsTotal.WithLabelValues(source).Inc()
	s.logger.Info("report cache invalidated",
		zap.String("tenant_id", tenantID),
		zap.String("source", source),
		zap.Int("entries", n))
	return n, nil
}

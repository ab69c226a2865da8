package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/balancereports/internal/api/middleware"
	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportGenerator is satisfied by *service.ReportService.
type ReportGenerator interface {
	Generate(ctx context.Context, tc domain.TenantContext, caller domain.Caller, req domain.ReportRequest) (*domain.GeneratedReport, bool, error)
}

type ReportHandler struct {
	reports ReportGenerator
	audit   AuditRecorder
	logger  *zap.Logger
}

func NewReportHandler(reports ReportGenerator, audit AuditRecorder, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, audit: audit, logger: logger}
}

var reportParams = []string{
	"start_date", "end_date", "as_of_date", "department_id",
	"enable_comparison", "comparison_type", "comparison_date",
}

type reportQuery struct {
	StartDate        string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate          string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	AsOfDate         string `json:"as_of_date" validate:"omitempty,datetime=2006-01-02"`
	DepartmentID     string `json:"department_id" validate:"omitempty,uuid"`
	EnableComparison string `json:"enable_comparison" validate:"omitempty,boolean"`
	ComparisonType   string `json:"comparison_type" validate:"omitempty,oneof=previous-period year-over-year explicit-date"`
	ComparisonDate   string `json:"comparison_date" validate:"omitempty,datetime=2006-01-02"`
}

type reportResponse struct {
	Report   *domain.GeneratedReport `json:"report"`
	Warnings []string                `json:"warnings"`
	Cached   bool                    `json:"cached"`
}

func (h *ReportHandler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, domain.ReportProfitLoss)
}

func (h *ReportHandler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, domain.ReportBalanceSheet)
}

func (h *ReportHandler) CashFlow(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, domain.ReportCashFlow)
}

func (h *ReportHandler) serve(w http.ResponseWriter, r *http.Request, t domain.ReportType) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	caller := middleware.CallerFromRequest(r)

	req, err := parseReportRequest(r, t)
	if err != nil {
		// The service audits requests it sees; this one never reaches it.
		h.audit.RecordAsync(domain.NewAuditEntry(tc.TenantID, caller, string(t),
			domain.AuditActionGenerate, domain.AuditOutcomeInvalid, knownParams(r, reportParams...)))
		writeServiceError(w, r, h.logger, err)
		return
	}

	report, cached, err := h.reports.Generate(r.Context(), tc, caller, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	warnings := report.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, reportResponse{Report: report, Warnings: warnings, Cached: cached})
}

func parseReportRequest(r *http.Request, t domain.ReportType) (domain.ReportRequest, error) {
	q := r.URL.Query()
	in := reportQuery{
		StartDate:        q.Get("start_date"),
		EndDate:          q.Get("end_date"),
		AsOfDate:         q.Get("as_of_date"),
		DepartmentID:     q.Get("department_id"),
		EnableComparison: q.Get("enable_comparison"),
		ComparisonType:   q.Get("comparison_type"),
		ComparisonDate:   q.Get("comparison_date"),
	}
	if err := validate.Struct(in); err != nil {
		return domain.ReportRequest{}, validationError(err)
	}

	var dept *uuid.UUID
	if in.DepartmentID != "" {
		id, err := uuid.Parse(in.DepartmentID)
		if err != nil {
			return domain.ReportRequest{}, fmt.Errorf("%w: department_id must be a UUID", domain.ErrValidation)
		}
		dept = &id
	}

	req := domain.ReportRequest{Type: t}
	if t.IsRange() {
		if in.StartDate == "" || in.EndDate == "" {
			return domain.ReportRequest{}, fmt.Errorf("%w: start_date and end_date are required", domain.ErrMissingDate)
		}
		start, err := parseDate(in.StartDate)
		if err != nil {
			return domain.ReportRequest{}, err
		}
		end, err := parseDate(in.EndDate)
		if err != nil {
			return domain.ReportRequest{}, err
		}
		req.Window = domain.NewRange(*start, *end, dept)
	} else {
		if in.AsOfDate == "" {
			return domain.ReportRequest{}, fmt.Errorf("%w: as_of_date is required", domain.ErrMissingDate)
		}
		asOf, err := parseDate(in.AsOfDate)
		if err != nil {
			return domain.ReportRequest{}, err
		}
		req.Window = domain.NewAsOf(*asOf, dept)
	}

	if enabled, _ := strconv.ParseBool(in.EnableComparison); enabled {
		date, err := parseDate(in.ComparisonDate)
		if err != nil {
			return domain.ReportRequest{}, err
		}
		ct := domain.ComparisonType(in.ComparisonType)
		if ct == "" {
			ct = domain.DefaultComparisonType(t, date)
		}
		req.Comparison = &domain.ComparisonRequest{Type: ct, Date: date}
	}
	return req, nil
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/balancereports/internal/api/middleware"
	"github.com/Harshitk-cp/balancereports/internal/domain"
	"go.uber.org/zap"
)

// AuditLogLister is satisfied by *service.AuditService.
type AuditLogLister interface {
	List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLogEntry, domain.Pagination, error)
}

type AuditLogHandler struct {
	logs   AuditLogLister
	audit  AuditRecorder
	logger *zap.Logger
}

func NewAuditLogHandler(logs AuditLogLister, audit AuditRecorder, logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logs: logs, audit: audit, logger: logger}
}

const auditLogResource = "audit-logs"

var auditLogParams = []string{"user_id", "report_type", "action", "start_date", "end_date", "page", "limit"}

type auditLogQuery struct {
	UserID     string `json:"user_id" validate:"omitempty,max=255"`
	ReportType string `json:"report_type" validate:"omitempty,max=64"`
	Action     string `json:"action" validate:"omitempty,oneof=generate access_granted access_denied"`
	StartDate  string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Page       int    `json:"page" validate:"min=1"`
	Limit      int    `json:"limit" validate:"min=1,max=200"`
}

type auditLogResponse struct {
	Data       []domain.AuditLogEntry `json:"data"`
	Pagination domain.Pagination      `json:"pagination"`
}

// List returns the caller's tenant audit log. The tenant filter always comes
// from the request scope, never from query parameters.
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	entry := domain.NewAuditEntry(tc.TenantID, middleware.CallerFromRequest(r), auditLogResource,
		domain.AuditActionAccessGranted, domain.AuditOutcomeSuccess, knownParams(r, auditLogParams...))

	f, err := parseAuditFilter(r)
	if err != nil {
		entry.Outcome = domain.AuditOutcomeInvalid
		h.audit.RecordAsync(entry)
		writeServiceError(w, r, h.logger, err)
		return
	}
	f.TenantID = tc.TenantID

	entries, page, err := h.logs.List(r.Context(), f)
	if err != nil {
		entry.Outcome = domain.AuditOutcomeError
		h.audit.RecordAsync(entry)
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit.RecordAsync(entry)

	if entries == nil {
		entries = []domain.AuditLogEntry{}
	}
	writeJSON(w, http.StatusOK, auditLogResponse{Data: entries, Pagination: page})
}

func parseAuditFilter(r *http.Request) (domain.AuditFilter, error) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		return domain.AuditFilter{}, fmt.Errorf("%w: page must be an integer", domain.ErrValidation)
	}
	limit, err := intParam(q.Get("limit"), domain.DefaultAuditPageSize)
	if err != nil {
		return domain.AuditFilter{}, fmt.Errorf("%w: limit must be an integer", domain.ErrValidation)
	}

	in := auditLogQuery{
		UserID:     q.Get("user_id"),
		ReportType: q.Get("report_type"),
		Action:     q.Get("action"),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		Page:       page,
		Limit:      limit,
	}
	if err := validate.Struct(in); err != nil {
		return domain.AuditFilter{}, validationError(err)
	}

	f := domain.AuditFilter{
		UserID:     in.UserID,
		ReportType: in.ReportType,
		Action:     domain.AuditAction(in.Action),
		Page:       in.Page,
		Limit:      in.Limit,
	}
	// Report routes are stored by report type; other resources by name.
	if t, err := domain.ParseReportType(in.ReportType); err == nil {
		f.ReportType = string(t)
	}

	if f.From, err = parseDate(in.StartDate); err != nil {
		return domain.AuditFilter{}, err
	}
	end, err := parseDate(in.EndDate)
	if err != nil {
		return domain.AuditFilter{}, err
	}
	if end != nil {
		// end_date is inclusive.
		next := end.AddDate(0, 0, 1)
		f.To = &next
	}
	if f.From != nil && end != nil && f.From.After(*end) {
		return domain.AuditFilter{}, domain.ErrInvalidDateRange
	}
	return f, nil
}

func intParam(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}

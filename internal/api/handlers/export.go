package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Harshitk-cp/balancereports/internal/api/middleware"
	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/Harshitk-cp/balancereports/internal/export"
	"github.com/Harshitk-cp/balancereports/internal/metrics"
	"go.uber.org/zap"
)

const (
	exportResource = "export"
	maxExportBody  = 10 << 20
)

type ExportHandler struct {
	audit  AuditRecorder
	logger *zap.Logger
}

func NewExportHandler(audit AuditRecorder, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{audit: audit, logger: logger}
}

type exportRequest struct {
	ReportType string          `json:"report_type" validate:"required"`
	Format     string          `json:"format" validate:"required,oneof=csv excel xlsx pdf json"`
	ReportData json.RawMessage `json:"report_data" validate:"required"`
}

// Export renders posted report data in the requested format and returns it
// as a download.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	caller := middleware.CallerFromRequest(r)
	entry := domain.NewAuditEntry(tc.TenantID, caller, exportResource,
		domain.AuditActionAccessGranted, domain.AuditOutcomeSuccess, map[string]string{})
	fail := func(outcome domain.AuditOutcome, err error) {
		entry.Outcome = outcome
		h.audit.RecordAsync(entry)
		writeServiceError(w, r, h.logger, err)
	}

	var in exportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExportBody)).Decode(&in); err != nil {
		fail(domain.AuditOutcomeInvalid, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	entry.Parameters["format"] = in.Format
	entry.Parameters["report_type"] = in.ReportType

	if err := validate.Struct(in); err != nil {
		fail(domain.AuditOutcomeInvalid, validationError(err))
		return
	}
	t, err := domain.ParseReportType(in.ReportType)
	if err != nil {
		fail(domain.AuditOutcomeInvalid, err)
		return
	}
	entry.ReportType = string(t)
	renderer, err := export.For(in.Format)
	if err != nil {
		fail(domain.AuditOutcomeInvalid, err)
		return
	}
	report, err := export.Decode(t, in.ReportData)
	if err != nil {
		fail(domain.AuditOutcomeInvalid, err)
		return
	}

	switch report.TenantID {
	case "":
		report.TenantID = tc.TenantID
	case tc.TenantID:
	default:
		metrics.AccessDeniedTotal.WithLabelValues("cross_tenant").Inc()
		entry.Action = domain.AuditActionAccessDenied
		entry.Outcome = domain.AuditOutcomeDenied
		entry.Parameters["report_tenant_id"] = domain.SanitizeTenantID(report.TenantID)
		_ = h.audit.Record(r.Context(), entry)
		writeServiceError(w, r, h.logger, domain.ErrCrossTenant)
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, report); err != nil {
		fail(domain.AuditOutcomeError, fmt.Errorf("render %s export: %w", in.Format, err))
		return
	}
	h.audit.RecordAsync(entry)

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", export.ContentDisposition(t, renderer))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

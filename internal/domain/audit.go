package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionGenerate      AuditAction = "generate"
	AuditActionAccessGranted AuditAction = "access_granted"
	AuditActionAccessDenied  AuditAction = "access_denied"
)

type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeError   AuditOutcome = "error"
	AuditOutcomeInvalid AuditOutcome = "invalid"
	AuditOutcomeDenied  AuditOutcome = "denied"
)

// AuditLogEntry is an append-only record of one report request.
type AuditLogEntry struct {
	ID         uuid.UUID         `json:"id"`
	TenantID   string            `json:"tenant_id"`
	UserID     string            `json:"user_id"`
	ReportType string            `json:"report_type"`
	Action     AuditAction       `json:"action"`
	Outcome    AuditOutcome      `json:"outcome"`
	Parameters map[string]string `json:"parameters,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Caller identifies who issued a request.
type Caller struct {
	UserID    string
	Role      string
	IPAddress string
	RequestID string
}

// NewAuditEntry stamps an entry for one request by caller.
func NewAuditEntry(tenantID string, c Caller, reportType string, action AuditAction, outcome AuditOutcome, params map[string]string) AuditLogEntry {
	return AuditLogEntry{
		TenantID:   tenantID,
		UserID:     c.UserID,
		ReportType: reportType,
		Action:     action,
		Outcome:    outcome,
		Parameters: params,
		IPAddress:  c.IPAddress,
		RequestID:  c.RequestID,
	}
}

// AuditFilter narrows an audit log listing. TenantID is always set by the caller's scope.
type AuditFilter struct {
	TenantID   string
	UserID     string
	ReportType string
	Action     AuditAction
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 200
)

// Normalize clamps paging values.
func (f *AuditFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultAuditPageSize
	}
	if f.Limit > MaxAuditPageSize {
		f.Limit = MaxAuditPageSize
	}
}

// Offset is the row offset for the current page.
func (f AuditFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination is the paging block returned with list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

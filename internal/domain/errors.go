package domain

import (
	"errors"
	"fmt"
)

// Validation errors map to 400.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTenantID   = errors.New("invalid tenant id")
	ErrTenantIDMissing   = fmt.Errorf("%w: X-Tenant-ID header is required", ErrInvalidTenantID)
	ErrInvalidDateRange  = errors.New("start_date must not be after end_date")
	ErrMissingDate       = errors.New("required date parameter is missing")
	ErrInvalidComparison = errors.New("invalid comparison parameters")
	ErrUnknownReportType = errors.New("unknown report type")
	ErrUnknownFormat     = errors.New("unsupported export format")
	ErrDepartmentUnknown = errors.New("department not found")
)

// Authorization errors.
var (
	// ErrUnauthorized maps to 401.
	ErrUnauthorized = errors.New("missing or invalid bearer token")
	// ErrCrossTenant maps to 403 and is always paired with an access_denied audit entry.
	ErrCrossTenant = errors.New("authenticated identity does not belong to the requested tenant")
)

// IsValidation reports whether err should be surfaced to the caller as a 400.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidTenantID),
		errors.Is(err, ErrInvalidDateRange),
		errors.Is(err, ErrMissingDate),
		errors.Is(err, ErrInvalidComparison),
		errors.Is(err, ErrUnknownReportType),
		errors.Is(err, ErrUnknownFormat),
		errors.Is(err, ErrDepartmentUnknown):
		return true
	}
	return false
}

package domain

import (
	"strings"
)

const (
	// TenantPrefix is required on every tenant identifier; the identifier doubles as the schema name.
	TenantPrefix = "tenant_"

	minTenantIDLength = 10
	// PostgreSQL truncates identifiers longer than 63 bytes.
	maxTenantIDLength = 63
)

// TenantContext binds a request to exactly one tenant schema. It lives for a
// single request and is never persisted.
type TenantContext struct {
	TenantID   string `json:"tenant_id"`
	SchemaName string `json:"schema_name"`
}

// ResolveTenant validates a raw tenant identifier and returns the context for it.
// The schema name is later embedded in a statement that cannot take bind
// parameters, so any identifier outside the allow-list is rejected here.
func ResolveTenant(raw string) (TenantContext, error) {
	if raw == "" {
		return TenantContext{}, ErrTenantIDMissing
	}
	if len(raw) < minTenantIDLength || len(raw) > maxTenantIDLength {
		return TenantContext{}, ErrInvalidTenantID
	}
	if !strings.HasPrefix(raw, TenantPrefix) || strings.EqualFold(raw, "public") {
		return TenantContext{}, ErrInvalidTenantID
	}
	for i := 0; i < len(raw); i++ {
		if !isSchemaChar(raw[i]) {
			return TenantContext{}, ErrInvalidTenantID
		}
	}
	return TenantContext{TenantID: raw, SchemaName: raw}, nil
}

// SanitizeTenantID strips every character outside [A-Za-z0-9_]. It is used to
// record rejected identifiers; it does not make an identifier valid.
func SanitizeTenantID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if isSchemaChar(raw[i]) {
			b.WriteByte(raw[i])
		}
	}
	out := b.String()
	if len(out) > maxTenantIDLength {
		out = out[:maxTenantIDLength]
	}
	return out
}

func isSchemaChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

package middleware

import (
	"context"
	"net/http"
	"path"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/Harshitk-cp/balancereports/internal/metrics"
)

const (
	TenantIDHeader   = "X-Tenant-ID"
	tenantContextKey = contextKey("tenant")
)

// DenialRecorder writes an audit entry before the response is sent.
type DenialRecorder interface {
	Record(ctx context.Context, e domain.AuditLogEntry) error
}

func TenantFromContext(ctx context.Context) (domain.TenantContext, bool) {
	tc, ok := ctx.Value(tenantContextKey).(domain.TenantContext)
	return tc, ok
}

// TenantScope resolves X-Tenant-ID and binds it to the request. It must run
// after JWTAuth. A malformed id is a 400. An id that does not match the
// token's tenant_id claim is a 403, and so is a token with no tenant claim.
// Both are audited as access_denied before the response is written.
func TenantScope(audit DenialRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(TenantIDHeader)

			tc, err := domain.ResolveTenant(raw)
			if err != nil {
				deny(r, audit, domain.SanitizeTenantID(raw), "invalid_tenant_id")
				writeError(w, r, http.StatusBadRequest, "INVALID_TENANT_ID", err.Error())
				return
			}

			claims := ClaimsFromContext(r.Context())
			if claims == nil || claims.TenantID != tc.TenantID {
				deny(r, audit, tc.TenantID, "cross_tenant")
				writeError(w, r, http.StatusForbidden, "FORBIDDEN", domain.ErrCrossTenant.Error())
				return
			}

			ctx := context.WithValue(r.Context(), tenantContextKey, tc)
			publish(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(r *http.Request, audit DenialRecorder, tenantID, reason string) {
	metrics.AccessDeniedTotal.WithLabelValues(reason).Inc()
	entry := domain.NewAuditEntry(tenantID, CallerFromRequest(r), resourceName(r),
		domain.AuditActionAccessDenied, domain.AuditOutcomeDenied,
		map[string]string{"reason": reason, "path": r.URL.Path})
	// A failed write is logged and counted by the recorder.
	_ = audit.Record(r.Context(), entry)
}

// resourceName is the report type for report routes and the last path
// segment otherwise.
func resourceName(r *http.Request) string {
	seg := path.Base(r.URL.Path)
	if t, err := domain.ParseReportType(seg); err == nil {
		return string(t)
	}
	return seg
}


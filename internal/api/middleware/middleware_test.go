package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

type recordingAudit struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry
}

func (a *recordingAudit) Record(_ context.Context, e domain.AuditLogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func token(t *testing.T, secret, user, tenant string) string {
	t.Helper()
	tok, err := SignToken(secret, Claims{
		TenantID: tenant,
		Role:     "accountant",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return tok
}

// scoped chains the auth and tenant middleware in front of a handler that
// records what it saw.
func scoped(audit DenialRecorder) (http.Handler, *domain.TenantContext, *bool) {
	var seen domain.TenantContext
	called := false
	h := RequestID(JWTAuth(testSecret, audit)(TenantScope(audit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = TenantFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))))
	return h, &seen, &called
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	audit := &recordingAudit{}
	h, _, called := scoped(audit)
	req := httptest.NewRequest(http.MethodGet, "/api/balance-reports/profit-loss", nil)
	req.Header.Set(TenantIDHeader, "tenant_hospital_a")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
	body := decodeError(t, rec)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
	assert.NotEmpty(t, body["request_id"])

	require.Len(t, audit.entries, 1)
	e := audit.entries[0]
	assert.Equal(t, domain.AuditActionAccessDenied, e.Action)
	assert.Equal(t, domain.AuditOutcomeDenied, e.Outcome)
	assert.Equal(t, "tenant_hospital_a", e.TenantID)
	assert.Equal(t, "profit_loss", e.ReportType)
	assert.Equal(t, "unauthorized", e.Parameters["reason"])
	assert.Equal(t, body["request_id"], e.RequestID)
}

func TestJWTAuth_DenialSanitizesTenantHeader(t *testing.T) {
	audit := &recordingAudit{}
	h, _, _ := scoped(audit)
	req := httptest.NewRequest(http.MethodGet, "/api/balance-reports/cash-flow", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	req.Header.Set(TenantIDHeader, "tenant_a'; DROP SCHEMA x")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "tenant_aDROPSCHEMAx", audit.entries[0].TenantID)
}

func TestJWTAuth_RejectsBadTokens(t *testing.T) {
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		TenantID:         "tenant_hospital_a",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"wrong secret": "Bearer " + token(t, "other-secret", "u1", "tenant_hospital_a"),
		"not bearer":   "Basic " + token(t, testSecret, "u1", "tenant_hospital_a"),
		"garbage":      "Bearer not-a-jwt",
		"alg none":     "Bearer " + none,
		"no subject":   "Bearer " + token(t, testSecret, "", "tenant_hospital_a"),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			audit := &recordingAudit{}
			h, _, called := scoped(audit)
			req := httptest.NewRequest(http.MethodGet, "/api/balance-reports/profit-loss", nil)
			req.Header.Set("Authorization", header)
			req.Header.Set(TenantIDHeader, "tenant_hospital_a")
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, *called)
			assert.Len(t, audit.entries, 1)
		})
	}
}

func TestTenantScope_BindsMatchingTenant(t *testing.T) {
	audit := &recordingAudit{}
	h, seen, called := scoped(audit)
	req := httptest.NewRequest(http.MethodGet, "/api/balance-reports/profit-loss", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, testSecret, "u1", "tenant_hospital_a"))
	req.Header.Set(TenantIDHeader, "tenant_hospital_a")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, *called)
	assert.Equal(t, "tenant_hospital_a", seen.SchemaName)
	assert.Empty(t, audit.entries)
}

func TestTenantScope_InvalidTenantIsAuditedAndRejected(t *testing.T) {
	for _, raw := range []string{"", "tenant", "public", "tenant_a; DROP SCHEMA x", "hospital_a_schema"} {
		t.Run(raw, func(t *testing.T) {
			audit := &recordingAudit{}
			h, _, called := scoped(audit)
			req := httptest.NewRequest(http.MethodGet, "/api/balance-reports/balance-sheet", nil)
			req.Header.Set("Authorization", "Bearer "+token(t, testSecret, "u1", "tenant_hospital_a"))
			req.Header.Set(TenantIDHeader, raw)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, *called)
			require.Len(t, audit.entries, 1)
			e := audit.entries[0]
			assert.Equal(t, domain.AuditActionAccessDenied, e.Action)
			assert.Equal(t, domain.AuditOutcomeDenied, e.Outcome)
			assert.Equal(t, "balance_sheet", e.ReportType)
			assert.Equal(t, "u1", e.UserID)
			assert.False(t, strings.ContainsAny(e.TenantID, " ;"), "recorded id must be sanitized")
			assert.Equal(t, "INVALID_TENANT_ID", decodeError(t, rec)["code"])
		})
	}
}

func TestTenantScope_CrossTenantIsForbidden(t *testing.T) {
	audit := &recordingAudit{}
	h, _, called := scoped(audit)
	req := httptest.NewRequest(http.MethodGet, "/api/balance-reports/audit-logs", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, testSecret, "u1", "tenant_hospital_a"))
	req.Header.Set(TenantIDHeader, "tenant_hospital_b")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *called)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "tenant_hospital_b", audit.entries[0].TenantID)
	assert.Equal(t, "audit-logs", audit.entries[0].ReportType)
	assert.Equal(t, "cross_tenant", audit.entries[0].Parameters["reason"])
}

func TestTenantScope_TokenWithoutTenantIsForbidden(t *testing.T) {
	audit := &recordingAudit{}
	h, _, called := scoped(audit)
	req := httptest.NewRequest(http.MethodGet, "/api/balance-reports/profit-loss", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, testSecret, "u1", ""))
	req.Header.Set(TenantIDHeader, "tenant_hospital_a")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *called)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "cross_tenant", audit.entries[0].Parameters["reason"])
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Len(t, seen, 36)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogging_IncludesTenantAndUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h, _, _ := scoped(&recordingAudit{})
	h = Logging(zap.New(core))(h)

	req := httptest.NewRequest(http.MethodGet, "/api/balance-reports/profit-loss", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, testSecret, "u1", "tenant_hospital_a"))
	req.Header.Set(TenantIDHeader, "tenant_hospital_a")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "tenant_hospital_a", fields["tenant_id"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.EqualValues(t, http.StatusNoContent, fields["status"])
}

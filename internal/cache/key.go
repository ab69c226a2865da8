package cache

import (
	"net/url"

	"github.com/Harshitk-cp/balancereports/internal/domain"
)

const keyPrefix = "balance-reports"

// Key identifies one cached report. Tenant ids never contain ':' so the
// rendered form cannot collide across tenants.
type Key struct {
	TenantID   string
	ReportType domain.ReportType
	// Params is the url-encoded parameter set; url.Values.Encode sorts by key.
	Params string
}

func NewKey(tenantID string, t domain.ReportType, params url.Values) Key {
	return Key{TenantID: tenantID, ReportType: t, Params: params.Encode()}
}

func (k Key) String() string {
	return tenantPrefix(k.TenantID) + string(k.ReportType) + ":" + k.Params
}

func tenantPrefix(tenantID string) string {
	return keyPrefix + ":" + tenantID + ":"
}

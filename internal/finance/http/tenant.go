package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/freelanceflow/freelanceflow/internal/platform/httpx"
)

// TenantHeader carries the authenticated tenant, set by the gateway in
// front of this service.
const TenantHeader = "X-Tenant-ID"

type tenantKey struct{}

// ContextWithTenant stores the tenant on ctx.
func ContextWithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantFromContext returns the tenant stored by RequireTenant.
func TenantFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(tenantKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// RequireTenant rejects requests without a valid tenant header.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := uuid.Parse(r.Header.Get(TenantHeader))
		if err != nil || tenantID == uuid.Nil {
			httpx.Problem(w, r, http.StatusUnauthorized, "Unauthorized", "missing or invalid "+TenantHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithTenant(r.Context(), tenantID)))
	})
}

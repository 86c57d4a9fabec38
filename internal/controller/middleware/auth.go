// Package middleware contains HTTP middleware for the controller.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"jobcoordinator/internal/auth"
	"jobcoordinator/internal/store"

	"github.com/google/uuid"
)

type tenantKey struct{}

// TenantLookup is the subset of store.TenantStore that AuthMiddleware needs.
type TenantLookup interface {
	GetTenantByAPIKeyHash(ctx context.Context, hash string) (*store.Tenant, error)
}

// AuthMiddleware resolves the tenant behind an "Authorization: Bearer <key>"
// header and stores it in the request context. Requests with a missing or
// malformed header are rejected before the store is ever touched.
func AuthMiddleware(tenants TenantLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "missing or invalid authorization header", http.StatusUnauthorized)
				return
			}

			tenant, err := tenants.GetTenantByAPIKeyHash(r.Context(), auth.HashKey(key))
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if tenant == nil {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), tenantKey{}, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from a "Bearer <token>" Authorization
// header value. It rejects any other scheme and any header carrying more
// than one token.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// TenantFromContext returns the tenant resolved by AuthMiddleware.
func TenantFromContext(ctx context.Context) (*store.Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(*store.Tenant)
	return t, ok
}

// NewContextWithTenant returns a copy of ctx carrying tenant, as if it had
// been resolved by AuthMiddleware. Exported for tests of handlers and
// middleware layered on top of auth.
func NewContextWithTenant(ctx context.Context, tenant *store.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenant)
}

// TenantIDFromContext returns the ID of the tenant resolved by
// AuthMiddleware.
func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	t, ok := TenantFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return t.ID, true
}

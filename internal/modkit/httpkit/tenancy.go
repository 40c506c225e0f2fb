package httpkit

import (
	"context"
	"net/http"

	pnet "turna/internal/platform/net"
)

// TenancyPort checks that the tenant a token was scoped to is still usable
type TenancyPort interface {
	Validate(ctx context.Context, tenantID string) error
}

// TenancyFunc adapts a plain function into a TenancyPort
type TenancyFunc func(ctx context.Context, tenantID string) error

// Validate implements TenancyPort
func (f TenancyFunc) Validate(ctx context.Context, tenantID string) error { return f(ctx, tenantID) }

// Tenancy re-checks tenant-scoped callers against the port on every request
// account-stage tokens carry no tenant id and pass through untouched
func Tenancy(p TenancyPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := pnet.TenantID(r.Context())
			if p == nil || tid == "" {
				next.ServeHTTP(w, r)
				return
			}
			if err := p.Validate(r.Context(), tid); err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

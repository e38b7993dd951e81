package rbac

import (
	"net/http"

	"github.com/mind-engage/autocheck/internal/ctxlog"
)

// Require enforces perm under DefaultPolicy.
func Require(perm string) func(http.Handler) http.Handler {
	return DefaultPolicy.Require(perm)
}

// Require rejects anonymous requests with 401 and callers whose role lacks
// perm with 403.
func (p Policy) Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, ok := PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			if !p.Allows(who.Role, perm) {
				ctxlog.FromContext(r.Context()).Info("permission denied", "sub", who.Subject, "role", who.Role, "perm", perm)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"

	authgate "github.com/tmarev/authgate"
)

// RequirePermission rejects requests whose authenticated user lacks the
// named permission. Must run after [Guard]; a request with no injected
// identity is rejected with 401, a clean denial with 403.
func RequirePermission(engine *authgate.Engine, perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			allowed, err := engine.HasPermission(r.Context(), res.UserID, perm)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middlewares

import (
	"net/http"

	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/security/token"
)

// RequireAdminKey exige el header X-Admin-API-Key. Sin key configurada, la
// surface admin queda deshabilitada por completo.
func RequireAdminKey(apiKey string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				httpx.WriteError(w, http.StatusNotFound, "not found")
				return
			}
			if !token.Equal(r.Header.Get("X-Admin-API-Key"), apiKey) {
				httpx.WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middlewares

import (
	"net/http"
	"strconv"

	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/rate"
)

// WithRateLimit limita por IP de cliente. Pensado para montarse sólo en el
// path de login. Si el limiter falla (Redis caído) el request pasa: preferimos
// degradar el límite antes que bloquear logins. trustProxy controla si
// X-Forwarded-For vale como clave; sin proxy confiable adelante se usa
// siempre RemoteAddr.
func WithRateLimit(l rate.Limiter, trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), clientIP(r, trustProxy))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
				httpx.WriteError(w, http.StatusTooManyRequests, "too many login attempts, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

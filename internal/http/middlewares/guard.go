package middlewares

import (
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/auth"
	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/rememberme"
	"github.com/dropDatabas3/gatekeeper/internal/session"
)

// GuardConfig configura el guard de sesión.
type GuardConfig struct {
	Registry *session.Registry
	Remember *rememberme.Service

	SessionCookie  string
	RememberCookie string
	Cookies        httpx.CookieConfig
	RememberTTL    time.Duration

	// Skip marca paths que no requieren sesión (login, /vc, /healthz, ...).
	Skip func(path string) bool
}

// WithSessionGuard protege todo lo que no esté en la whitelist.
//
// Sesión activa => sigue, con la sesión en el contexto. Sesión desalojada o
// vencida => el body fijo de sesión-expirada. Sin sesión pero con cookie
// remember-me válida => re-autenticación silenciosa: rota el token, registra
// sesión nueva (el cupo aplica igual) y sigue. Cualquier otra cosa => 401.
func WithSessionGuard(cfg GuardConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if ck, err := r.Cookie(cfg.SessionCookie); err == nil && ck.Value != "" {
				s, state := cfg.Registry.Lookup(ck.Value)
				switch state {
				case session.Active:
					cfg.Registry.Touch(s.ID)
					next.ServeHTTP(w, r.WithContext(setSession(r.Context(), s)))
					return
				case session.Expired:
					writeSessionError(w, auth.ErrSessionExpired)
					return
				}
				// Unknown: cae al camino remember-me
			}

			cfg.silentReauth(w, r, next)
		})
	}
}

// writeSessionError mapea errores de sesión a su salida HTTP. Sólo la
// sesión vencida o desalojada tiene body propio; el resto es un 401 a secas.
func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrSessionExpired) {
		httpx.WriteSessionExpired(w)
		return
	}
	httpx.WriteUnauthenticated(w)
}

func (cfg GuardConfig) silentReauth(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ck, err := r.Cookie(cfg.RememberCookie)
	if err != nil || ck.Value == "" {
		httpx.WriteUnauthenticated(w)
		return
	}

	tok, err := rememberme.Decode(ck.Value)
	if err != nil {
		httpx.ClearCookie(w, cfg.Cookies, cfg.RememberCookie)
		httpx.WriteUnauthenticated(w)
		return
	}

	username, rotated, err := cfg.Remember.Validate(r.Context(), tok)
	switch {
	case err == nil:
		httpx.CountRememberValidation("ok")
	case errors.Is(err, auth.ErrTokenReuse):
		httpx.CountRememberValidation("reuse")
		httpx.CountTokenReuse()
		httpx.ClearCookie(w, cfg.Cookies, cfg.RememberCookie)
		httpx.ClearCookie(w, cfg.Cookies, cfg.SessionCookie)
		httpx.WriteUnauthenticated(w)
		return
	case errors.Is(err, auth.ErrUnknownSeries):
		httpx.CountRememberValidation("unknown_series")
		httpx.ClearCookie(w, cfg.Cookies, cfg.RememberCookie)
		httpx.WriteUnauthenticated(w)
		return
	default:
		httpx.CountRememberValidation("error")
		logger.From(r.Context()).Error("remember-me validation failed", logger.Err(err))
		httpx.WriteUnavailable(w)
		return
	}

	s, err := cfg.Registry.Register(username, "")
	if err != nil {
		httpx.WriteUnavailable(w)
		return
	}

	httpx.SetCookie(w, cfg.Cookies, cfg.SessionCookie, s.ID, 0)
	httpx.SetCookie(w, cfg.Cookies, cfg.RememberCookie, rotated.Encode(), cfg.RememberTTL)

	logger.From(r.Context()).Info("silent re-authentication",
		logger.Principal(username),
		logger.SessionID(s.ID),
		logger.Series(rotated.Series),
	)
	next.ServeHTTP(w, r.WithContext(setSession(r.Context(), s)))
}

// Package router arma el árbol de rutas del gateway.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/http/handlers"
	"github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
	"github.com/dropDatabas3/gatekeeper/internal/rate"
)

// Config reúne todo lo que el router necesita ya construido.
type Config struct {
	Gate  *handlers.Gate
	Admin *handlers.Admin
	Guard middlewares.GuardConfig

	LoginPath   string
	LogoutPath  string
	CaptchaPath string

	AdminAPIKey string
	Limiter     rate.Limiter // nil = sin rate limit
	Metrics     http.Handler // nil = sin /metrics

	// TrustProxy habilita X-Forwarded-For como IP de cliente (logs y rate
	// limit). Sólo con un reverse proxy confiable adelante.
	TrustProxy bool
}

// New construye el handler raíz: onion de middlewares + rutas.
func New(cfg Config) http.Handler {
	open := map[string]bool{
		cfg.LoginPath:   true,
		cfg.LogoutPath:  true,
		cfg.CaptchaPath: true,
		"/healthz":      true,
		"/metrics":      true,
	}
	if cfg.Guard.Skip == nil {
		cfg.Guard.Skip = func(path string) bool { return open[path] }
	}

	r := chi.NewRouter()

	loginHandler := http.Handler(http.HandlerFunc(cfg.Gate.Login))
	if cfg.Limiter != nil {
		loginHandler = middlewares.WithRateLimit(cfg.Limiter, cfg.TrustProxy)(loginHandler)
	}
	r.Method(http.MethodPost, cfg.LoginPath, loginHandler)
	r.Get(cfg.CaptchaPath, cfg.Gate.VerificationCode)

	// Logout acepta GET y POST, como el clásico.
	r.Get(cfg.LogoutPath, cfg.Gate.Logout)
	r.Post(cfg.LogoutPath, cfg.Gate.Logout)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middlewares.RequireAdminKey(cfg.AdminAPIKey))
		ar.Get("/sessions", cfg.Admin.ListSessions)
		ar.Delete("/sessions/{sid}", cfg.Admin.DeleteSession)
		ar.Delete("/tokens/{username}", cfg.Admin.DeleteTokens)
	})

	r.Get("/me", handlers.Me)

	// Cualquier otra ruta también pasa por el guard; si la sesión está
	// activa el backend de atrás respondería, acá sólo hay 404 JSON.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not found")
	})

	// El guard envuelve todo menos los paths abiertos; /admin tiene su
	// propia llave y también queda fuera del guard de sesión.
	skipInner := cfg.Guard.Skip
	cfg.Guard.Skip = func(path string) bool {
		if skipInner(path) {
			return true
		}
		return len(path) >= 7 && path[:7] == "/admin/"
	}

	return middlewares.Chain(r,
		middlewares.WithRequestID(),
		middlewares.WithLogging(cfg.TrustProxy),
		middlewares.WithRecover(),
		httpx.WithMetrics,
		middlewares.WithSessionGuard(cfg.Guard),
	)
}

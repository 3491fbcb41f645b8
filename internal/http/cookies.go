package http

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig reúne los atributos comunes de las cookies del gateway.
type CookieConfig struct {
	Domain   string
	SameSite string // "lax" | "strict" | "none"
	Secure   bool
}

func (c CookieConfig) sameSite() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SetCookie escribe una cookie HttpOnly con los atributos configurados.
// ttl 0 deja una cookie de sesión de navegador.
func SetCookie(w http.ResponseWriter, cfg CookieConfig, name, value string, ttl time.Duration) {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
	}
	if ttl > 0 {
		ck.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, ck)
}

// ClearCookie pisa la cookie con MaxAge negativo.
func ClearCookie(w http.ResponseWriter, cfg CookieConfig, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
		MaxAge:   -1,
	})
}

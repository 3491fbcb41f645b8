// Package handlers implementa los endpoints del gateway.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/auth"
	"github.com/dropDatabas3/gatekeeper/internal/captcha"
	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/rememberme"
	"github.com/dropDatabas3/gatekeeper/internal/session"
)

// LoginKeys son las claves del body JSON de login. Configurables para
// convivir con clientes legados (uname/pwd/kaptcha).
type LoginKeys struct {
	Username string
	Password string
	Captcha  string
	Remember string
}

// Gate es el punto de entrada de autenticación: login, logout y el código
// de verificación comparten sus dependencias.
type Gate struct {
	Verifier *auth.Verifier
	Registry *session.Registry
	Remember *rememberme.Service
	Captcha  *captcha.Service

	Keys           LoginKeys
	Cookies        httpx.CookieConfig
	SessionCookie  string
	RememberCookie string
	CaptchaCookie  string
	RememberTTL    time.Duration
	CaptchaTTL     time.Duration
}

// Login procesa POST {login path}. El orden es fijo: primero se consume el
// código de verificación (acierte o no), después las credenciales.
func (g *Gate) Login(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !httpx.ReadJSON(w, r, &body) {
		return
	}

	username := strings.TrimSpace(stringField(body, g.Keys.Username))
	pass := stringField(body, g.Keys.Password)
	code := stringField(body, g.Keys.Captcha)
	remember := boolField(body, g.Keys.Remember)

	vcid := ""
	if ck, err := r.Cookie(g.CaptchaCookie); err == nil {
		vcid = ck.Value
	}

	ok, err := g.Captcha.Consume(r.Context(), vcid, code)
	if err != nil {
		logger.From(r.Context()).Error("captcha store unavailable", logger.Err(err))
		httpx.CountLogin("error")
		httpx.WriteUnavailable(w)
		return
	}
	// El código ya no existe más, pase lo que pase de acá en adelante.
	httpx.ClearCookie(w, g.Cookies, g.CaptchaCookie)
	if !ok {
		g.writeVerifyError(w, r, auth.ErrInvalidVerificationCode)
		return
	}

	principal, err := g.Verifier.Verify(r.Context(), auth.Credential{Username: username, Password: pass})
	if err != nil {
		g.writeVerifyError(w, r, err)
		return
	}

	s, err := g.Registry.Register(principal.Username, principal.UserID)
	if err != nil {
		httpx.CountLogin("error")
		httpx.WriteUnavailable(w)
		return
	}
	httpx.SetCookie(w, g.Cookies, g.SessionCookie, s.ID, 0)

	if remember {
		tok, err := g.Remember.Issue(r.Context(), principal.Username)
		if err != nil {
			// El login ya está hecho; perder el remember-me no lo anula.
			logger.From(r.Context()).Error("remember-me issue failed", logger.Err(err))
		} else {
			httpx.SetCookie(w, g.Cookies, g.RememberCookie, tok.Encode(), g.RememberTTL)
		}
	}

	httpx.CountLogin("success")
	logger.From(r.Context()).Info("login success",
		logger.Principal(principal.Username),
		logger.SessionID(s.ID),
	)
	httpx.WriteLoginSuccess(w, principal.Username, s.ExpiresAt)
}

func (g *Gate) writeVerifyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidVerificationCode):
		httpx.CountLogin("bad_captcha")
		httpx.WriteLoginFailure(w, "invalid verification code")
	case errors.Is(err, auth.ErrBadCredentials):
		httpx.CountLogin("bad_credentials")
		httpx.WriteLoginFailure(w, "bad credentials")
	case errors.Is(err, auth.ErrAccountDisabled):
		httpx.CountLogin("disabled")
		httpx.WriteLoginFailure(w, "account disabled")
	case errors.Is(err, auth.ErrAccountLocked):
		httpx.CountLogin("locked")
		httpx.WriteLoginFailure(w, "account locked")
	default:
		httpx.CountLogin("error")
		logger.From(r.Context()).Error("credential verification failed", logger.Err(err))
		httpx.WriteUnavailable(w)
	}
}

func stringField(body map[string]any, key string) string {
	v, _ := body[key].(string)
	return v
}

// boolField acepta bool o los strings habituales ("true", "on", "1").
func boolField(body map[string]any, key string) bool {
	switch v := body[key].(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "true" || s == "on" || s == "1" || s == "yes"
	default:
		return false
	}
}

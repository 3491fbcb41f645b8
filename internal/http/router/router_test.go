package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeeper/internal/alert"
	"github.com/dropDatabas3/gatekeeper/internal/auth"
	"github.com/dropDatabas3/gatekeeper/internal/cache"
	"github.com/dropDatabas3/gatekeeper/internal/captcha"
	"github.com/dropDatabas3/gatekeeper/internal/config"
	"github.com/dropDatabas3/gatekeeper/internal/domain/repository"
	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/http/handlers"
	"github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
	"github.com/dropDatabas3/gatekeeper/internal/rememberme"
	"github.com/dropDatabas3/gatekeeper/internal/security/password"
	"github.com/dropDatabas3/gatekeeper/internal/security/token"
	"github.com/dropDatabas3/gatekeeper/internal/session"
	"github.com/dropDatabas3/gatekeeper/internal/store/memory"
)

const (
	testAdminKey = "test-admin-key"
	knownCode    = "12345"
)

type testEnv struct {
	srv      *httptest.Server
	cache    cache.Client
	registry *session.Registry
	users    *memory.UserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	// Defaults de producción (paths, claves, cupo 1) sin tocar YAML ni env.
	cfgLoaded, err := config.FromEnv()
	require.NoError(t, err)
	*cfg = *cfgLoaded

	users := memory.NewUserRepo()
	tokens := memory.NewTokenRepo()
	c := cache.NewMemory("", time.Minute)

	phc, err := password.Hash(password.Default, "s3cret")
	require.NoError(t, err)
	_, err = users.Create(context.Background(), repository.CreateUserInput{
		Username: "alice", PasswordHash: phc,
	})
	require.NoError(t, err)

	registry := session.NewRegistry(cfg.Session.MaxSessions, cfg.SessionTTL())
	remember := rememberme.NewService(tokens, alert.ZapNotifier{}, cfg.RememberTTL())
	codes := captcha.NewService(c, cfg.Captcha.Length, cfg.CaptchaTTL(), cfg.Captcha.Width, cfg.Captcha.Height)
	cookies := httpx.CookieConfig{SameSite: cfg.Session.SameSite}

	gate := &handlers.Gate{
		Verifier: auth.NewVerifier(users),
		Registry: registry,
		Remember: remember,
		Captcha:  codes,
		Keys: handlers.LoginKeys{
			Username: cfg.Login.UsernameKey,
			Password: cfg.Login.PasswordKey,
			Captcha:  cfg.Login.CaptchaKey,
			Remember: cfg.Login.RememberKey,
		},
		Cookies:        cookies,
		SessionCookie:  cfg.Session.CookieName,
		RememberCookie: cfg.Remember.CookieName,
		CaptchaCookie:  cfg.Captcha.CookieName,
		RememberTTL:    cfg.RememberTTL(),
		CaptchaTTL:     cfg.CaptchaTTL(),
	}

	h := New(Config{
		Gate:  gate,
		Admin: &handlers.Admin{Registry: registry, Remember: remember},
		Guard: middlewares.GuardConfig{
			Registry:       registry,
			Remember:       remember,
			SessionCookie:  cfg.Session.CookieName,
			RememberCookie: cfg.Remember.CookieName,
			Cookies:        cookies,
			RememberTTL:    cfg.RememberTTL(),
		},
		LoginPath:   cfg.Login.Path,
		LogoutPath:  cfg.Login.LogoutPath,
		CaptchaPath: cfg.Captcha.Path,
		AdminAPIKey: testAdminKey,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, cache: c, registry: registry, users: users}
}

// issueKnownCode pide un código y lo pisa por uno conocido, devolviendo la
// cookie vcid lista para el login.
func (e *testEnv) issueKnownCode(t *testing.T) *http.Cookie {
	t.Helper()
	resp, err := http.Get(e.srv.URL + "/vc")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	vcid := findCookie(t, resp.Cookies(), "vcid")
	err = e.cache.Set(context.Background(), "vc:"+vcid.Value,
		token.SHA256Base64URL(strings.ToLower(knownCode)), time.Minute)
	require.NoError(t, err)
	return vcid
}

func (e *testEnv) login(t *testing.T, body map[string]any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/doLogin", bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	require.NoError(t, err)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, ck := range cookies {
		if ck.Name == name && ck.Value != "" {
			return ck
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func TestLoginSuccessFlow(t *testing.T) {
	e := newTestEnv(t)
	vcid := e.issueKnownCode(t)

	resp := e.login(t, map[string]any{
		"uname": "alice", "pwd": "s3cret", "kaptcha": knownCode,
	}, vcid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	sid := findCookie(t, resp.Cookies(), "sid")
	body := decodeBody(t, resp)
	require.Equal(t, float64(200), body["status"])
	require.Equal(t, "alice", body["principal"])

	// La sesión sirve para rutas protegidas.
	me := e.get(t, "/me", sid)
	meBody := decodeBody(t, me)
	require.Equal(t, http.StatusOK, me.StatusCode)
	require.Equal(t, "alice", meBody["principal"])
}

func TestLoginWrongCaptchaBurnsCode(t *testing.T) {
	e := newTestEnv(t)
	vcid := e.issueKnownCode(t)

	resp := e.login(t, map[string]any{
		"uname": "alice", "pwd": "s3cret", "kaptcha": "99999",
	}, vcid)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Equal(t, "invalid verification code", body["msg"])

	// El código correcto ya no sirve: se consumió con el intento fallido.
	resp = e.login(t, map[string]any{
		"uname": "alice", "pwd": "s3cret", "kaptcha": knownCode,
	}, vcid)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginBadPasswordAndUnknownUserLookAlike(t *testing.T) {
	e := newTestEnv(t)

	vcid := e.issueKnownCode(t)
	respA := e.login(t, map[string]any{
		"uname": "alice", "pwd": "wrong", "kaptcha": knownCode,
	}, vcid)
	bodyA := decodeBody(t, respA)

	vcid = e.issueKnownCode(t)
	respB := e.login(t, map[string]any{
		"uname": "nobody", "pwd": "wrong", "kaptcha": knownCode,
	}, vcid)
	bodyB := decodeBody(t, respB)

	require.Equal(t, http.StatusUnauthorized, respA.StatusCode)
	require.Equal(t, http.StatusUnauthorized, respB.StatusCode)
	require.Equal(t, bodyA["msg"], bodyB["msg"])
}

func TestSecondLoginEvictsFirstSession(t *testing.T) {
	e := newTestEnv(t)

	vcid := e.issueKnownCode(t)
	respA := e.login(t, map[string]any{"uname": "alice", "pwd": "s3cret", "kaptcha": knownCode}, vcid)
	sidA := findCookie(t, respA.Cookies(), "sid")
	respA.Body.Close()

	vcid = e.issueKnownCode(t)
	respB := e.login(t, map[string]any{"uname": "alice", "pwd": "s3cret", "kaptcha": knownCode}, vcid)
	sidB := findCookie(t, respB.Cookies(), "sid")
	respB.Body.Close()

	// El dispositivo A recibe el body exacto de sesión-expirada.
	me := e.get(t, "/me", sidA)
	require.Equal(t, http.StatusInternalServerError, me.StatusCode)
	body := decodeBody(t, me)
	require.Equal(t, float64(500), body["status"])
	require.Equal(t, httpx.SessionExpiredMsg, body["msg"])

	// El dispositivo B sigue activo.
	me = e.get(t, "/me", sidB)
	require.Equal(t, http.StatusOK, me.StatusCode)
	me.Body.Close()
}

func TestLogoutInvalidatesAndIsIdempotent(t *testing.T) {
	e := newTestEnv(t)

	vcid := e.issueKnownCode(t)
	resp := e.login(t, map[string]any{"uname": "alice", "pwd": "s3cret", "kaptcha": knownCode}, vcid)
	sid := findCookie(t, resp.Cookies(), "sid")
	resp.Body.Close()

	out := e.get(t, "/logout", sid)
	require.Equal(t, http.StatusOK, out.StatusCode)
	out.Body.Close()

	// La sesión quedó olvidada: 401, no el body de expirada.
	me := e.get(t, "/me", sid)
	require.Equal(t, http.StatusUnauthorized, me.StatusCode)
	me.Body.Close()

	// Logout sin nada sigue siendo 200.
	out = e.get(t, "/logout")
	require.Equal(t, http.StatusOK, out.StatusCode)
	out.Body.Close()
}

func TestSilentReauthRotatesRememberToken(t *testing.T) {
	e := newTestEnv(t)

	vcid := e.issueKnownCode(t)
	resp := e.login(t, map[string]any{
		"uname": "alice", "pwd": "s3cret", "kaptcha": knownCode, "remember_me": true,
	}, vcid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rememberA := findCookie(t, resp.Cookies(), "remember-me")
	resp.Body.Close()

	// Sin cookie de sesión: el guard re-autentica con el remember-me.
	me := e.get(t, "/me", rememberA)
	require.Equal(t, http.StatusOK, me.StatusCode)
	newSid := findCookie(t, me.Cookies(), "sid")
	rememberB := findCookie(t, me.Cookies(), "remember-me")
	require.NotEqual(t, rememberA.Value, rememberB.Value)
	me.Body.Close()

	// La sesión nueva funciona de forma normal.
	me = e.get(t, "/me", newSid)
	require.Equal(t, http.StatusOK, me.StatusCode)
	me.Body.Close()

	// El par viejo ahora es un reuso: 401 y cadena revocada.
	me = e.get(t, "/me", rememberA)
	require.Equal(t, http.StatusUnauthorized, me.StatusCode)
	me.Body.Close()

	// El par rotado también cayó con la revocación total.
	me = e.get(t, "/me", rememberB)
	require.Equal(t, http.StatusUnauthorized, me.StatusCode)
	me.Body.Close()
}

func TestAdminSurface(t *testing.T) {
	e := newTestEnv(t)

	vcid := e.issueKnownCode(t)
	resp := e.login(t, map[string]any{"uname": "alice", "pwd": "s3cret", "kaptcha": knownCode}, vcid)
	sid := findCookie(t, resp.Cookies(), "sid")
	resp.Body.Close()

	// Sin key: 403.
	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/admin/sessions", nil)
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, r.StatusCode)
	r.Body.Close()

	// Con key: lista con la sesión de alice.
	req, _ = http.NewRequest(http.MethodGet, e.srv.URL+"/admin/sessions", nil)
	req.Header.Set("X-Admin-API-Key", testAdminKey)
	r, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := decodeBody(t, r)
	require.Equal(t, http.StatusOK, r.StatusCode)
	sessions := body["sessions"].([]any)
	require.Len(t, sessions, 1)

	// Revocación admin: la sesión muere como en un logout.
	req, _ = http.NewRequest(http.MethodDelete, e.srv.URL+"/admin/sessions/"+sid.Value, nil)
	req.Header.Set("X-Admin-API-Key", testAdminKey)
	r, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, r.StatusCode)
	r.Body.Close()

	me := e.get(t, "/me", sid)
	require.Equal(t, http.StatusUnauthorized, me.StatusCode)
	me.Body.Close()
}

func TestUnauthenticatedAndUnknownPaths(t *testing.T) {
	e := newTestEnv(t)

	me := e.get(t, "/me")
	require.Equal(t, http.StatusUnauthorized, me.StatusCode)
	me.Body.Close()

	// Paths abiertos no exigen sesión.
	h := e.get(t, "/healthz")
	require.Equal(t, http.StatusOK, h.StatusCode)
	h.Body.Close()
}

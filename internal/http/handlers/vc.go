package handlers

import (
	"net/http"

	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
)

// VerificationCode sirve GET {captcha path}: un PNG con el código vigente.
// Reemitir pisa el código anterior del mismo vcid.
func (g *Gate) VerificationCode(w http.ResponseWriter, r *http.Request) {
	vcid := ""
	if ck, err := r.Cookie(g.CaptchaCookie); err == nil {
		vcid = ck.Value
	}

	id, png, err := g.Captcha.Issue(r.Context(), vcid)
	if err != nil {
		logger.From(r.Context()).Error("captcha issue failed", logger.Err(err))
		httpx.WriteUnavailable(w)
		return
	}

	httpx.SetCookie(w, g.Cookies, g.CaptchaCookie, id, g.CaptchaTTL)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	_, _ = w.Write(png)
}

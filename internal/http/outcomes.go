package http

import (
	"net/http"
	"time"
)

// Resultados del gateway. Todo es JSON con un sobre {status, ...}: los
// clientes son máquinas, nunca hay redirects ni HTML.

// SessionExpiredMsg es el texto exacto del resultado sesión-expirada.
const SessionExpiredMsg = "current session has expired, please log in again"

type successBody struct {
	Status    int       `json:"status"`
	Msg       string    `json:"msg"`
	Principal string    `json:"principal"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WriteLoginSuccess responde el resultado de un login exitoso.
func WriteLoginSuccess(w http.ResponseWriter, principal string, expiresAt time.Time) {
	noStore(w)
	WriteJSON(w, http.StatusOK, successBody{
		Status:    http.StatusOK,
		Msg:       "login success",
		Principal: principal,
		ExpiresAt: expiresAt.UTC(),
	})
}

// WriteLoginFailure responde un login fallido. El msg nunca debe revelar si
// el usuario existe.
func WriteLoginFailure(w http.ResponseWriter, msg string) {
	noStore(w)
	WriteError(w, http.StatusUnauthorized, msg)
}

// WriteSessionExpired responde el resultado sesión-expirada con su body fijo.
func WriteSessionExpired(w http.ResponseWriter) {
	noStore(w)
	WriteError(w, http.StatusInternalServerError, SessionExpiredMsg)
}

// WriteUnauthenticated responde 401 para requests sin sesión.
func WriteUnauthenticated(w http.ResponseWriter) {
	noStore(w)
	WriteError(w, http.StatusUnauthorized, "authentication required")
}

// WriteLogout responde el resultado de un logout.
func WriteLogout(w http.ResponseWriter) {
	noStore(w)
	WriteJSON(w, http.StatusOK, statusBody{Status: http.StatusOK, Msg: "logout success"})
}

// WriteUnavailable responde 503 cuando el datastore o el verificador no contestan.
func WriteUnavailable(w http.ResponseWriter) {
	noStore(w)
	WriteError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

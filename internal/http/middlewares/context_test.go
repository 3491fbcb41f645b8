package middlewares

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientIPIgnoresForwardedForByDefault(t *testing.T) {
	r := httptest.NewRequest("POST", "/doLogin", nil)
	r.RemoteAddr = "10.0.0.9:51234"
	r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2")

	// Sin proxy confiable el header del cliente no cuenta: si contara,
	// rotarlo alcanzaría para esquivar el rate limit de login.
	require.Equal(t, "10.0.0.9", clientIP(r, false))

	// Con proxy confiable vale el primer hop.
	require.Equal(t, "1.1.1.1", clientIP(r, true))
}

func TestClientIPWithoutForwardedHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/me", nil)
	r.RemoteAddr = "192.168.1.5:40000"
	require.Equal(t, "192.168.1.5", clientIP(r, true))
}

package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeeper/internal/auth"
	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
)

func TestWriteSessionErrorExpiredBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSessionError(rec, auth.ErrSessionExpired)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t,
		`{"status":500,"msg":"`+httpx.SessionExpiredMsg+`"}`,
		rec.Body.String(),
	)

	// Un error envuelto también llega al mismo body.
	rec = httptest.NewRecorder()
	writeSessionError(rec, errors.Join(errors.New("lookup"), auth.ErrSessionExpired))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWriteSessionErrorOtherIs401(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSessionError(rec, errors.New("anything else"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeeper/internal/auth"
)

func TestWriteVerifyErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"verification code", auth.ErrInvalidVerificationCode, http.StatusUnauthorized, "invalid verification code"},
		{"bad credentials", auth.ErrBadCredentials, http.StatusUnauthorized, "bad credentials"},
		{"disabled", auth.ErrAccountDisabled, http.StatusUnauthorized, "account disabled"},
		{"locked", auth.ErrAccountLocked, http.StatusUnauthorized, "account locked"},
		{"infra", auth.ErrVerifierUnavailable, http.StatusServiceUnavailable, "service temporarily unavailable"},
	}

	g := &Gate{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/doLogin", nil)

			g.writeVerifyError(rec, req, tc.err)

			require.Equal(t, tc.status, rec.Code)
			var body struct {
				Status int    `json:"status"`
				Msg    string `json:"msg"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.status, body.Status)
			require.Equal(t, tc.msg, body.Msg)
		})
	}
}

package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dropDatabas3/gatekeeper/internal/session"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeySession
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID devuelve el request ID del contexto, o "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

func setSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// GetSession devuelve la sesión autenticada del contexto, o nil.
func GetSession(ctx context.Context) *session.Session {
	v, _ := ctx.Value(ctxKeySession).(*session.Session)
	return v
}

// clientIP resuelve la IP de origen. X-Forwarded-For sólo cuenta con
// trustProxy: un cliente directo puede inventar ese header, y con él
// esquivaría el rate limit de login rotando valores.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if i := strings.IndexByte(xff, ','); i > 0 {
				return strings.TrimSpace(xff[:i])
			}
			return strings.TrimSpace(xff)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

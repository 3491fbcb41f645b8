// Package rememberme implementa tokens persistentes rotativos por serie.
//
// Cada cookie lleva el par (serie, valor). En cada uso exitoso el valor rota
// (compare-and-set sobre el hash guardado) y la serie queda. Un valor viejo
// sobre una serie viva es presunto robo de cookie: se revoca toda la cadena
// del usuario y se emite una alerta.
package rememberme

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/gatekeeper/internal/alert"
	"github.com/dropDatabas3/gatekeeper/internal/auth"
	"github.com/dropDatabas3/gatekeeper/internal/domain/repository"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/security/token"
)

// Token es el par que viaja en la cookie. Value es el token crudo; en el
// datastore sólo se guarda su hash.
type Token struct {
	Series string
	Value  string
}

// Encode arma el valor de cookie: base64url(series + ":" + value).
func (t Token) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(t.Series + ":" + t.Value))
}

// Decode parsea un valor de cookie. Error si el formato no cierra.
func Decode(cookie string) (Token, error) {
	b, err := base64.RawURLEncoding.DecodeString(cookie)
	if err != nil {
		return Token{}, fmt.Errorf("rememberme: bad cookie encoding: %w", err)
	}
	series, value, ok := strings.Cut(string(b), ":")
	if !ok || series == "" || value == "" {
		return Token{}, fmt.Errorf("rememberme: bad cookie format")
	}
	return Token{Series: series, Value: value}, nil
}

type Service struct {
	tokens   repository.TokenRepository
	notifier alert.Notifier
	ttl      time.Duration
	now      func() time.Time
}

func NewService(tokens repository.TokenRepository, notifier alert.Notifier, ttl time.Duration) *Service {
	return &Service{tokens: tokens, notifier: notifier, ttl: ttl, now: time.Now}
}

// Issue crea una serie nueva para el principal y devuelve el par crudo.
func (s *Service) Issue(ctx context.Context, principal string) (Token, error) {
	value, err := token.GenerateOpaque(32)
	if err != nil {
		return Token{}, err
	}
	t := Token{Series: uuid.NewString(), Value: value}

	err = s.tokens.Insert(ctx, repository.PersistentToken{
		Series:    t.Series,
		Username:  principal,
		TokenHash: token.SHA256Base64URL(value),
		LastUsed:  s.now().UTC(),
	})
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
	return t, nil
}

// Validate autentica un par (serie, valor).
//
// Serie desconocida => ErrUnknownSeries. Valor viejo sobre serie viva =>
// revocación total + alerta + ErrTokenReuse. Match => rota el valor en un
// paso atómico y devuelve el principal junto al par nuevo para la cookie.
func (s *Service) Validate(ctx context.Context, presented Token) (string, Token, error) {
	stored, err := s.tokens.GetBySeries(ctx, presented.Series)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", Token{}, auth.ErrUnknownSeries
		}
		return "", Token{}, fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}

	// Vencimiento por edad: la serie se cosecha y el cliente re-loguea.
	if s.ttl > 0 && s.now().Sub(stored.LastUsed) > s.ttl {
		if err := s.tokens.DeleteBySeries(ctx, presented.Series); err != nil {
			return "", Token{}, fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
		}
		return "", Token{}, auth.ErrUnknownSeries
	}

	newValue, err := token.GenerateOpaque(32)
	if err != nil {
		return "", Token{}, err
	}
	presentedHash := token.SHA256Base64URL(presented.Value)

	// La rotación es el compare-and-set: si el hash guardado ya no es el
	// presentado, alguien usó el token antes que nosotros.
	err = s.tokens.Rotate(ctx, presented.Series, presentedHash,
		token.SHA256Base64URL(newValue), s.now().UTC())
	switch {
	case err == nil:
		return stored.Username, Token{Series: presented.Series, Value: newValue}, nil
	case errors.Is(err, repository.ErrStaleToken):
		return "", Token{}, s.handleReuse(ctx, stored)
	case errors.Is(err, repository.ErrNotFound):
		// La serie desapareció entre el GET y el UPDATE (revocación concurrente).
		return "", Token{}, auth.ErrUnknownSeries
	default:
		return "", Token{}, fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
}

// RevokeSeries elimina una serie puntual (logout con cookie pero sin sesión).
func (s *Service) RevokeSeries(ctx context.Context, series string) error {
	if err := s.tokens.DeleteBySeries(ctx, series); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}

// Revoke elimina todas las series del usuario. Retorna cuántas cayeron.
func (s *Service) Revoke(ctx context.Context, username string) (int, error) {
	n, err := s.tokens.DeleteByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
	return n, nil
}

func (s *Service) handleReuse(ctx context.Context, stored *repository.PersistentToken) error {
	n, err := s.tokens.DeleteByUsername(ctx, stored.Username)
	if err != nil {
		// Si ni siquiera pudimos revocar, eso manda: el borde responde
		// indisponibilidad y el token sigue quemado para el próximo intento.
		return fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
	logger.From(ctx).Warn("remember-me token reuse",
		logger.Principal(stored.Username),
		logger.Series(stored.Series),
		logger.Count(n),
	)
	s.notifier.Notify(ctx, alert.Event{
		Kind:      "token_reuse",
		Principal: stored.Username,
		Series:    stored.Series,
		Detail:    "a stale remember-me token was presented for a live series",
		Action:    fmt.Sprintf("revoked %d remember-me series for the user", n),
	})
	return auth.ErrTokenReuse
}

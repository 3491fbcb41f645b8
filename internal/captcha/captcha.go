// Package captcha emite y consume códigos de verificación de un solo uso.
//
// El código vive en el cache atado a un ID pre-sesión (cookie vcid) y se
// consume en el primer intento de login, coincida o no. La imagen PNG la
// renderiza dchest/captcha a partir de los mismos dígitos.
package captcha

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	dchest "github.com/dchest/captcha"

	"github.com/dropDatabas3/gatekeeper/internal/cache"
	"github.com/dropDatabas3/gatekeeper/internal/security/token"
)

const keyPrefix = "vc:"

type Service struct {
	cache  cache.Client
	length int
	ttl    time.Duration
	width  int
	height int
}

func NewService(c cache.Client, length int, ttl time.Duration, width, height int) *Service {
	if length <= 0 {
		length = 5
	}
	return &Service{cache: c, length: length, ttl: ttl, width: width, height: height}
}

// Issue genera un código nuevo y devuelve el ID pre-sesión más el PNG.
// Reemplaza cualquier código anterior del mismo ID.
func (s *Service) Issue(ctx context.Context, id string) (string, []byte, error) {
	if id == "" {
		var err error
		id, err = token.GenerateOpaque(16)
		if err != nil {
			return "", nil, err
		}
	}

	digits := dchest.RandomDigits(s.length)
	code := digitsToString(digits)

	if err := s.cache.Set(ctx, keyPrefix+id, hashCode(code), s.ttl); err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	img := dchest.NewImage(id, digits, s.width, s.height)
	if _, err := img.WriteTo(&buf); err != nil {
		return "", nil, err
	}
	return id, buf.Bytes(), nil
}

// Consume valida un código contra el ID y lo quema en el mismo paso.
// Retorna false si no hay código vigente, venció, o no coincide. Lectura y
// borrado son una sola operación (GetDel): un código presentado no se puede
// reintentar y dos logins concurrentes con el mismo código aciertan a lo
// sumo uno.
func (s *Service) Consume(ctx context.Context, id, presented string) (bool, error) {
	if id == "" || presented == "" {
		return false, nil
	}
	stored, err := s.cache.GetDel(ctx, keyPrefix+id)
	if cache.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return token.Equal(stored, hashCode(presented)), nil
}

// hashCode: el código se guarda hasheado y en minúsculas, así la
// comparación es case-insensitive sin guardar el valor crudo.
func hashCode(code string) string {
	return token.SHA256Base64URL(strings.ToLower(strings.TrimSpace(code)))
}

func digitsToString(digits []byte) string {
	var b strings.Builder
	for _, d := range digits {
		fmt.Fprintf(&b, "%d", d)
	}
	return b.String()
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/gatekeeper/internal/domain/repository"
	"github.com/dropDatabas3/gatekeeper/internal/security/password"
)

// Credential es el par usuario/password extraído del request de login.
type Credential struct {
	Username string
	Password string
}

// Principal identifica a un usuario ya autenticado.
type Principal struct {
	UserID   string
	Username string
}

// Verifier valida credenciales contra el repositorio de usuarios.
type Verifier struct {
	users repository.UserRepository
}

func NewVerifier(users repository.UserRepository) *Verifier {
	return &Verifier{users: users}
}

// Verify chequea credenciales y estado de cuenta.
//
// Usuario inexistente y password incorrecto retornan ambos ErrBadCredentials.
// Para usuario inexistente se hace igual una verificación dummy, así el tiempo
// de respuesta no delata si la cuenta existe.
func (v *Verifier) Verify(ctx context.Context, cred Credential) (*Principal, error) {
	u, err := v.users.GetByUsername(ctx, cred.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			password.Verify(cred.Password, dummyPHC)
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}

	if !password.Verify(cred.Password, u.PasswordHash) {
		return nil, ErrBadCredentials
	}

	// El estado de cuenta se evalúa recién con credenciales correctas.
	if u.Disabled() {
		return nil, ErrAccountDisabled
	}
	if u.Locked() {
		return nil, ErrAccountLocked
	}

	return &Principal{UserID: u.ID, Username: u.Username}, nil
}

// dummyPHC es un hash válido de un valor descartable, usado sólo para igualar
// el costo de la rama usuario-inexistente.
const dummyPHC = "$argon2id$v=19$m=65536,t=3,p=1$AAAAAAAAAAAAAAAAAAAAAA$e0Cb6bHUrTDY3dMm7pDgEGCiBaYzUCRDbTCVBJh6dZ0"

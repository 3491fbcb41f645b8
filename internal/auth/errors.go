// Package auth implementa la verificación de credenciales y la taxonomía de
// errores que el borde HTTP traduce a resultados JSON.
package auth

import "errors"

// Errores de autenticación. Son sentinelas: el handler decide status y body
// según cuál sea, nunca expone el texto crudo al cliente.
var (
	// ErrInvalidVerificationCode: el código de verificación no coincide,
	// expiró o nunca se emitió. El código ya fue consumido al llegar acá.
	ErrInvalidVerificationCode = errors.New("auth: invalid verification code")

	// ErrBadCredentials cubre usuario inexistente y password incorrecto.
	// Indistinguibles a propósito.
	ErrBadCredentials = errors.New("auth: bad credentials")

	// ErrAccountDisabled: credenciales correctas pero la cuenta está dada de baja.
	ErrAccountDisabled = errors.New("auth: account disabled")

	// ErrAccountLocked: credenciales correctas pero la cuenta está bloqueada.
	ErrAccountLocked = errors.New("auth: account locked")

	// ErrSessionExpired: la sesión presentada fue desalojada o invalidada.
	ErrSessionExpired = errors.New("auth: session expired")

	// ErrUnknownSeries: la serie remember-me no existe (cosecha normal de
	// tokens viejos ya revocados, no es un incidente).
	ErrUnknownSeries = errors.New("auth: unknown remember-me series")

	// ErrTokenReuse: la serie existe pero el valor presentado es viejo.
	// Presunto robo de cookie; dispara revocación total y alerta.
	ErrTokenReuse = errors.New("auth: remember-me token reuse detected")

	// ErrStoreUnavailable: el datastore de tokens/usuarios no responde.
	ErrStoreUnavailable = errors.New("auth: store unavailable")

	// ErrVerifierUnavailable: el verificador de credenciales no responde.
	ErrVerifierUnavailable = errors.New("auth: verifier unavailable")
)

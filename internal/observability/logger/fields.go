package logger

import "go.uber.org/zap"

// Campos estándar: HTTP

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path del request.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// Campos estándar: negocio

// Principal crea un campo para el identificador del principal autenticado.
func Principal(v string) zap.Field { return zap.String("principal", v) }

// SessionID crea un campo para el ID de sesión.
// Ojo: loguear siempre el ID crudo está bien acá porque las sesiones son
// opacas y de vida corta; nunca loguear el token remember-me.
func SessionID(v string) zap.Field { return zap.String("session_id", v) }

// Series crea un campo para la serie de un token remember-me.
func Series(v string) zap.Field { return zap.String("series", v) }

// Genéricos (atajos de zap)

func String(k, v string) zap.Field  { return zap.String(k, v) }
func Int(k string, v int) zap.Field { return zap.Int(k, v) }

// Campos estándar: sistema

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field { return zap.String("component", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// Count crea un campo para un conteo.
func Count(v int) zap.Field { return zap.Int("count", v) }

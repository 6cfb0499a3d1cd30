package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrKeyPayloadMismatch: la clave de idempotencia ya existe pero con un
	// payload distinto; el reintento no es el mismo request.
	ErrKeyPayloadMismatch = errors.New("clave de idempotencia con payload distinto")
)

package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los casos de uso los envuelven con fmt.Errorf("%w: detalle", ...) y los handlers
// los clasifican con errors.Is.
var (
	ErrValidation          = errors.New("entrada inválida")
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrDuplicateRedemption = errors.New("el código QR ya fue redimido")
	ErrConflict            = errors.New("conflicto con el estado actual")
)

package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound                  = errors.New("recurso no encontrado")
	ErrInvalidInput              = errors.New("entrada inválida")
	ErrDuplicate                 = errors.New("recurso duplicado")
	ErrUnauthorized              = errors.New("no autorizado")
	ErrForbidden                 = errors.New("acceso denegado")
	ErrConflict                  = errors.New("conflicto con el estado actual")
	ErrInsufficientStock         = errors.New("stock insuficiente")
	ErrCancellationWindowExpired = errors.New("venció el plazo de cancelación")
	ErrNotCancellable            = errors.New("el pedido no se puede cancelar en su estado actual")
	ErrOrderFinalized            = errors.New("el pedido está en un estado final")
	ErrInvalidSignature          = errors.New("firma del evento de pago inválida")
)

// Package order contiene las reglas puras del ciclo de vida del pedido:
// estados válidos, estados finales y la política de cancelación.
package order

import "github.com/jhoicas/Tienda-api/internal/domain/entity"

// IsValidStatus indica si s pertenece al vocabulario de estados del pedido.
func IsValidStatus(s string) bool {
	switch s {
	case entity.OrderStatusPending, entity.OrderStatusConfirmed, entity.OrderStatusProcessing,
		entity.OrderStatusShipped, entity.OrderStatusDelivered, entity.OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal indica si el estado ya no admite transiciones.
func IsTerminal(s string) bool {
	return s == entity.OrderStatusDelivered || s == entity.OrderStatusCancelled
}

// TerminalStatuses estados finales (delivered, cancelled).
func TerminalStatuses() []string {
	return []string{entity.OrderStatusDelivered, entity.OrderStatusCancelled}
}

// CancellableStatuses estados desde los que se permite cancelar.
func CancellableStatuses() []string {
	return []string{entity.OrderStatusPending, entity.OrderStatusConfirmed, entity.OrderStatusProcessing}
}

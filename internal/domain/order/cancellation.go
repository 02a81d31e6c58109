package order

import (
	"time"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// CancellationWindow plazo que tiene el cliente para cancelar desde la creación del pedido.
const CancellationWindow = 24 * time.Hour

// IsEligible indica si el pedido puede cancelarse en el instante now.
func IsEligible(o *entity.Order, now time.Time) bool {
	return Check(o, now) == nil
}

// Check devuelve el motivo por el que el pedido no es cancelable, o nil.
// El límite es inclusivo: un pedido con exactamente 24h de antigüedad todavía se puede cancelar.
func Check(o *entity.Order, now time.Time) error {
	if now.Sub(o.CreatedAt) > CancellationWindow {
		return domain.ErrCancellationWindowExpired
	}
	return CheckStatus(o)
}

// CheckStatus aplica solo la regla de estado (shipped, delivered y cancelled no se cancelan).
func CheckStatus(o *entity.Order) error {
	switch o.Status {
	case entity.OrderStatusShipped, entity.OrderStatusDelivered, entity.OrderStatusCancelled:
		return domain.ErrNotCancellable
	}
	return nil
}

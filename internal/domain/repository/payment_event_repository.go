package repository

import (
	"context"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// PaymentEventRepository registro de eventos de pasarela ya procesados.
type PaymentEventRepository interface {
	// Insert registra el evento. inserted=false si (provider, event_id) ya existía.
	Insert(ctx context.Context, event *entity.PaymentEvent) (inserted bool, err error)
}

package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// OrderFilter filtros para el listado administrativo de pedidos.
type OrderFilter struct {
	Status string
	UserID string
	Limit  int
	Offset int
}

// PaymentStamp datos de pasarela a estampar en el pedido. Los campos vacíos no se modifican.
type PaymentStamp struct {
	Provider  string
	PaymentID string
	Status    string
}

// OrderRepository define el puerto de persistencia para pedidos y sus líneas.
type OrderRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, order *entity.Order) error
	// GetByNumber devuelve nil, nil si no existe. Incluye las líneas.
	GetByNumber(ctx context.Context, orderNumber string) (*entity.Order, error)
	// GetByNumberForUpdate igual que GetByNumber pero bloquea la fila del pedido.
	GetByNumberForUpdate(ctx context.Context, orderNumber string) (*entity.Order, error)
	// UpdateStatus cambia el estado solo si el actual está en from (compare-and-set).
	// Devuelve false si ninguna fila cumplió la condición.
	UpdateStatus(ctx context.Context, orderNumber, status string, from []string, now time.Time) (bool, error)
	StampPayment(ctx context.Context, orderNumber string, stamp PaymentStamp, now time.Time) error
	// MarkCancelled deja el pedido en cancelled con fecha y motivo.
	MarkCancelled(ctx context.Context, orderNumber string, at time.Time, reason string) error
	List(ctx context.Context, filter OrderFilter) ([]*entity.Order, error)
}

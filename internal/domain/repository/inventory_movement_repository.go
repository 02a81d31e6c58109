package repository

import (
	"context"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia del libro de movimientos.
// Solo agrega: no existe Update ni Delete.
type InventoryMovementRepository interface {
	// Create persiste el movimiento y asigna ID y Seq.
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	// ListByProduct lista del más reciente al más antiguo (paginado).
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.InventoryMovement, error)
	// ListChain devuelve todos los movimientos del producto en orden de Seq ascendente (para replay).
	ListChain(ctx context.Context, productID string) ([]*entity.InventoryMovement, error)
	ListByReference(ctx context.Context, reference string) ([]*entity.InventoryMovement, error)
}

package orders

import (
	"context"
	"time"

	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(r repository.Repos) error) error
}

// InventoryUseCase interfaz mínima del libro de inventario que necesita el pedido.
// Permite ejecutar movimientos dentro de la misma transacción que el pedido.
type InventoryUseCase interface {
	ApplyMovementInTx(ctx context.Context, r repository.Repos, in inventory.MovementInput, now time.Time) (*inventory.MovementResult, error)
}

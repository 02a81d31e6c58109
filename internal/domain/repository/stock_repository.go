package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar el registro de existencias por producto.
// Las operaciones de escritura se usan dentro de transacciones junto con el libro de movimientos.
type StockRepository interface {
	// Get devuelve nil, nil si el producto no tiene registro de stock.
	Get(ctx context.Context, productID string) (*entity.ProductStock, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID string) (*entity.ProductStock, error)
	Create(ctx context.Context, stock *entity.ProductStock) error
	// Decrement resta qty solo si CurrentStock >= qty, en un único paso atómico.
	// ok=false significa que no había existencias suficientes (o que no existe el registro).
	Decrement(ctx context.Context, productID string, qty int64) (newStock int64, ok bool, err error)
	// Increment suma qty; domain.ErrNotFound si no existe el registro.
	Increment(ctx context.Context, productID string, qty int64) (newStock int64, err error)
	Set(ctx context.Context, productID string, value int64) error
	UpdateUnitCost(ctx context.Context, productID string, cost decimal.Decimal) error
	ListLow(ctx context.Context, limit, offset int) ([]*entity.ProductStock, error)
	ListProductIDs(ctx context.Context) ([]string, error)
}

package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia de ventas manuales.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve nil, nil si no existe. Incluye las líneas.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	MarkCancelled(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, limit, offset int) ([]*entity.Sale, error)
}

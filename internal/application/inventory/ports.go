package inventory

import (
	"context"

	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(r repository.Repos) error) error
}

// Recorder recibe las métricas del libro de inventario.
type Recorder interface {
	MovementApplied(movementType, reason string)
	StockRejected(productID string)
}

type noopRecorder struct{}

func (noopRecorder) MovementApplied(string, string) {}
func (noopRecorder) StockRejected(string)           {}

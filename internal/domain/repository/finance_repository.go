package repository

import (
	"context"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// FinanceRepository puerto hacia el libro de finanzas (colaborador: solo recibe registros).
type FinanceRepository interface {
	Create(ctx context.Context, record *entity.FinanceRecord) error
	ListByReference(ctx context.Context, reference string) ([]*entity.FinanceRecord, error)
}

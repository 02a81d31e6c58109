package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo libro de movimientos sobre PostgreSQL. Solo INSERT y SELECT:
// un trigger en la tabla rechaza UPDATE y DELETE.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

const movementColumns = `id, seq, product_id, type, quantity, previous_stock, new_stock, reason,
	COALESCE(reference, ''), COALESCE(created_by, ''), created_at`

// Create persiste el movimiento; seq lo asigna la secuencia de la tabla.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_movements
			(id, product_id, type, quantity, previous_stock, new_stock, reason, reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.Type, m.Quantity, m.PreviousStock, m.NewStock, m.Reason,
		nullIfEmpty(m.Reference), nullIfEmpty(m.CreatedBy), m.CreatedAt,
	).Scan(&m.Seq)
	if err != nil {
		return fmt.Errorf("insert inventory movement: %w", err)
	}
	return nil
}

func (r *InventoryMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		if err := rows.Scan(&m.ID, &m.Seq, &m.ProductID, &m.Type, &m.Quantity, &m.PreviousStock, &m.NewStock,
			&m.Reason, &m.Reference, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	limit, offset = normalizePage(limit, offset)
	return r.list(ctx, `SELECT `+movementColumns+` FROM inventory_movements
		WHERE product_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`, productID, limit, offset)
}

func (r *InventoryMovementRepo) ListChain(ctx context.Context, productID string) ([]*entity.InventoryMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM inventory_movements
		WHERE product_id = $1 ORDER BY seq ASC`, productID)
}

func (r *InventoryMovementRepo) ListByReference(ctx context.Context, reference string) ([]*entity.InventoryMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM inventory_movements
		WHERE reference = $1 ORDER BY seq ASC`, reference)
}


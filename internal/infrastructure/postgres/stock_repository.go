package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `product_id, current_stock, min_stock, max_stock, unit_cost, updated_at`

func scanStock(row pgx.Row) (*entity.ProductStock, error) {
	var s entity.ProductStock
	if err := row.Scan(&s.ProductID, &s.CurrentStock, &s.MinStock, &s.MaxStock, &s.UnitCost, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene el registro de stock del producto.
func (r *StockRepo) Get(ctx context.Context, productID string) (*entity.ProductStock, error) {
	s, err := scanStock(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM product_stock WHERE product_id = $1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.ProductStock, error) {
	s, err := scanStock(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM product_stock WHERE product_id = $1 FOR UPDATE`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

func (r *StockRepo) Create(ctx context.Context, s *entity.ProductStock) error {
	query := `
		INSERT INTO product_stock (product_id, current_stock, min_stock, max_stock, unit_cost, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, s.ProductID, s.CurrentStock, s.MinStock, s.MaxStock, s.UnitCost, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock: %w", err)
	}
	return nil
}

// Decrement resta en un solo UPDATE condicionado: dos salidas concurrentes nunca dejan stock negativo.
func (r *StockRepo) Decrement(ctx context.Context, productID string, qty int64) (int64, bool, error) {
	query := `
		UPDATE product_stock
		SET current_stock = current_stock - $2, updated_at = now()
		WHERE product_id = $1 AND current_stock >= $2
		RETURNING current_stock`
	var newStock int64
	err := r.q.QueryRow(ctx, query, productID, qty).Scan(&newStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("decrement stock: %w", err)
	}
	return newStock, true, nil
}

func (r *StockRepo) Increment(ctx context.Context, productID string, qty int64) (int64, error) {
	query := `
		UPDATE product_stock
		SET current_stock = current_stock + $2, updated_at = now()
		WHERE product_id = $1
		RETURNING current_stock`
	var newStock int64
	err := r.q.QueryRow(ctx, query, productID, qty).Scan(&newStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("increment stock: %w", err)
	}
	return newStock, nil
}

func (r *StockRepo) Set(ctx context.Context, productID string, value int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE product_stock SET current_stock = $2, updated_at = now() WHERE product_id = $1`, productID, value)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: stock negativo", domain.ErrInvalidInput)
		}
		return fmt.Errorf("set stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StockRepo) UpdateUnitCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE product_stock SET unit_cost = $2, updated_at = now() WHERE product_id = $1`, productID, cost)
	if err != nil {
		return fmt.Errorf("update unit cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListLow productos en o por debajo del mínimo, los más críticos primero.
func (r *StockRepo) ListLow(ctx context.Context, limit, offset int) ([]*entity.ProductStock, error) {
	limit, offset = normalizePage(limit, offset)
	query := `SELECT ` + stockColumns + `
		FROM product_stock
		WHERE min_stock > 0 AND current_stock <= min_stock
		ORDER BY current_stock ASC, product_id ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *StockRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT product_id FROM product_stock ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("list stock products: %w", err)
	}
	defer rows.Close()
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan stock products: %w", err)
	}
	return ids, nil
}

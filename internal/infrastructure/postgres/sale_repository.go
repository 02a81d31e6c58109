package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas manuales sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, sale_number, customer_name, COALESCE(customer_email, ''), COALESCE(customer_phone, ''),
	payment_method, payment_status, status, subtotal, total, created_by, created_at, updated_at, cancelled_at`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.SaleNumber, &s.Customer.Name, &s.Customer.Email, &s.Customer.Phone,
		&s.PaymentMethod, &s.PaymentStatus, &s.Status, &s.Subtotal, &s.Total, &s.CreatedBy,
		&s.CreatedAt, &s.UpdatedAt, &s.CancelledAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (id, sale_number, customer_name, customer_email, customer_phone, payment_method,
			payment_status, status, subtotal, total, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.SaleNumber, s.Customer.Name, nullIfEmpty(s.Customer.Email), nullIfEmpty(s.Customer.Phone),
		s.PaymentMethod, s.PaymentStatus, s.Status, s.Subtotal, s.Total, s.CreatedBy, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	itemQuery := `
		INSERT INTO sale_items (id, sale_id, line_no, product_id, product_name, quantity, unit_price, subtotal, backordered)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i, it := range s.Items {
		if _, err := r.q.Exec(ctx, itemQuery,
			it.ID, s.ID, i+1, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.Subtotal, it.Backordered,
		); err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}
	return nil
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if s.Items, err = r.items(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

func (r *SaleRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) items(ctx context.Context, saleID string) ([]entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, unit_price, subtotal, backordered
		FROM sale_items WHERE sale_id = $1 ORDER BY line_no`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	var items []entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.Quantity,
			&it.UnitPrice, &it.Subtotal, &it.Backordered); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *SaleRepo) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE sales SET status = $2, cancelled_at = $3, updated_at = $3 WHERE id = $1`,
		id, entity.SaleStatusCancelled, at)
	if err != nil {
		return fmt.Errorf("cancel sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SaleRepo) List(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	limit, offset = normalizePage(limit, offset)
	rows, err := r.q.Query(ctx, `SELECT `+saleColumns+` FROM sales
		ORDER BY created_at DESC, sale_number DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	for _, s := range list {
		if s.Items, err = r.items(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

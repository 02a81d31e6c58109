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

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo pedidos y sus líneas sobre PostgreSQL.
type OrderRepo struct {
	q Querier
}

func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, order_number, COALESCE(customer_user_id, ''), customer_name, customer_email,
	COALESCE(customer_phone, ''), COALESCE(customer_address, ''), payment_method, COALESCE(payment_id, ''),
	COALESCE(payment_provider, ''), payment_status, status, subtotal, shipping, tax, discount, total,
	COALESCE(notes, ''), created_at, updated_at, cancelled_at, COALESCE(cancellation_reason, '')`

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Customer.UserID, &o.Customer.Name, &o.Customer.Email,
		&o.Customer.Phone, &o.Customer.Address, &o.PaymentMethod, &o.PaymentID,
		&o.PaymentProvider, &o.PaymentStatus, &o.Status, &o.Subtotal, &o.Shipping, &o.Tax, &o.Discount, &o.Total,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.CancelledAt, &o.CancellationReason)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserta cabecera y líneas. Debe ir dentro de una transacción.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (id, order_number, customer_user_id, customer_name, customer_email, customer_phone,
			customer_address, payment_method, payment_id, payment_provider, payment_status, status,
			subtotal, shipping, tax, discount, total, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.OrderNumber, nullIfEmpty(o.Customer.UserID), o.Customer.Name, o.Customer.Email,
		nullIfEmpty(o.Customer.Phone), nullIfEmpty(o.Customer.Address), o.PaymentMethod, nullIfEmpty(o.PaymentID),
		nullIfEmpty(o.PaymentProvider), o.PaymentStatus, o.Status,
		o.Subtotal, o.Shipping, o.Tax, o.Discount, o.Total, nullIfEmpty(o.Notes), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, line_no, product_id, product_name, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i, it := range o.Items {
		if _, err := r.q.Exec(ctx, itemQuery,
			it.ID, o.ID, i+1, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.Subtotal,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepo) get(ctx context.Context, query, orderNumber string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
}

// GetByNumberForUpdate bloquea la fila del pedido hasta el fin de la transacción.
func (r *OrderRepo) GetByNumberForUpdate(ctx context.Context, orderNumber string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1 FOR UPDATE`, orderNumber)
}

func (r *OrderRepo) items(ctx context.Context, orderID string) ([]entity.OrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY line_no`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	var items []entity.OrderItem
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateStatus compare-and-set: solo cambia si el estado actual está en from.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderNumber, status string, from []string, now time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = $4
		WHERE order_number = $1 AND status = ANY($3::text[])`, orderNumber, status, from, now)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// StampPayment solo sobrescribe los campos no vacíos del stamp.
func (r *OrderRepo) StampPayment(ctx context.Context, orderNumber string, stamp repository.PaymentStamp, now time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET
			payment_provider = COALESCE($2, payment_provider),
			payment_id = COALESCE($3, payment_id),
			payment_status = COALESCE($4, payment_status),
			updated_at = $5
		WHERE order_number = $1`,
		orderNumber, nullIfEmpty(stamp.Provider), nullIfEmpty(stamp.PaymentID), nullIfEmpty(stamp.Status), now)
	if err != nil {
		return fmt.Errorf("stamp order payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepo) MarkCancelled(ctx context.Context, orderNumber string, at time.Time, reason string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET status = $2, cancelled_at = $3, cancellation_reason = $4, updated_at = $3
		WHERE order_number = $1`, orderNumber, entity.OrderStatusCancelled, at, nullIfEmpty(reason))
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List filtra por estado y dueño; más recientes primero. Incluye las líneas.
func (r *OrderRepo) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, error) {
	limit, offset := normalizePage(f.Limit, f.Offset)
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1::text = '' OR status = $1) AND ($2::text = '' OR customer_user_id = $2)
		ORDER BY created_at DESC, order_number DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, f.Status, f.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var list []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	// Las líneas se leen después de cerrar rows: una tx de pgx no admite dos consultas abiertas.
	for _, o := range list {
		if o.Items, err = r.items(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

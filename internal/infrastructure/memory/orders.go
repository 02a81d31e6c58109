package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"time"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

func copyOrder(o *entity.Order) *entity.Order {
	cp := *o
	cp.Items = append([]entity.OrderItem(nil), o.Items...)
	if o.CancelledAt != nil {
		t := *o.CancelledAt
		cp.CancelledAt = &t
	}
	return &cp
}

type OrderRepository struct{ a access }

func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.orders[o.OrderNumber]; ok {
			return domain.ErrDuplicate
		}
		st.orders[o.OrderNumber] = copyOrder(o)
		return nil
	})
}

func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	var out *entity.Order
	err := r.a.read(func(st *state) error {
		if o, ok := st.orders[orderNumber]; ok {
			out = copyOrder(o)
		}
		return nil
	})
	return out, err
}

func (r *OrderRepository) GetByNumberForUpdate(ctx context.Context, orderNumber string) (*entity.Order, error) {
	return r.GetByNumber(ctx, orderNumber)
}

// mutate reemplaza el pedido por una copia modificada.
func (r *OrderRepository) mutate(orderNumber string, fn func(o *entity.Order) bool) (bool, error) {
	var changed bool
	err := r.a.write(func(st *state) error {
		o, ok := st.orders[orderNumber]
		if !ok {
			return domain.ErrNotFound
		}
		cp := copyOrder(o)
		if changed = fn(cp); changed {
			st.orders[orderNumber] = cp
		}
		return nil
	})
	return changed, err
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderNumber, status string, from []string, now time.Time) (bool, error) {
	ok, err := r.mutate(orderNumber, func(o *entity.Order) bool {
		if !slices.Contains(from, o.Status) {
			return false
		}
		o.Status = status
		o.UpdatedAt = now
		return true
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return ok, err
}

func (r *OrderRepository) StampPayment(ctx context.Context, orderNumber string, stamp repository.PaymentStamp, now time.Time) error {
	_, err := r.mutate(orderNumber, func(o *entity.Order) bool {
		if stamp.Provider != "" {
			o.PaymentProvider = stamp.Provider
		}
		if stamp.PaymentID != "" {
			o.PaymentID = stamp.PaymentID
		}
		if stamp.Status != "" {
			o.PaymentStatus = stamp.Status
		}
		o.UpdatedAt = now
		return true
	})
	return err
}

func (r *OrderRepository) MarkCancelled(ctx context.Context, orderNumber string, at time.Time, reason string) error {
	_, err := r.mutate(orderNumber, func(o *entity.Order) bool {
		o.Status = entity.OrderStatusCancelled
		o.CancelledAt = &at
		o.CancellationReason = reason
		o.UpdatedAt = at
		return true
	})
	return err
}

func (r *OrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, error) {
	var out []*entity.Order
	err := r.a.read(func(st *state) error {
		for _, o := range st.orders {
			if f.Status != "" && o.Status != f.Status {
				continue
			}
			if f.UserID != "" && o.Customer.UserID != f.UserID {
				continue
			}
			out = append(out, copyOrder(o))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].OrderNumber > out[j].OrderNumber
	})
	return page(out, f.Limit, f.Offset), err
}

func copySale(s *entity.Sale) *entity.Sale {
	cp := *s
	cp.Items = append([]entity.SaleItem(nil), s.Items...)
	if s.CancelledAt != nil {
		t := *s.CancelledAt
		cp.CancelledAt = &t
	}
	return &cp
}

type SaleRepository struct{ a access }

func (r *SaleRepository) Create(ctx context.Context, s *entity.Sale) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.sales[s.ID]; ok {
			return domain.ErrDuplicate
		}
		st.sales[s.ID] = copySale(s)
		return nil
	})
}

func (r *SaleRepository) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.a.read(func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = copySale(s)
		}
		return nil
	})
	return out, err
}

func (r *SaleRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *SaleRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	return r.a.write(func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return domain.ErrNotFound
		}
		cp := copySale(s)
		cp.Status = entity.SaleStatusCancelled
		cp.CancelledAt = &at
		cp.UpdatedAt = at
		st.sales[id] = cp
		return nil
	})
}

func (r *SaleRepository) List(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.a.read(func(st *state) error {
		for _, s := range st.sales {
			out = append(out, copySale(s))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].SaleNumber > out[j].SaleNumber
	})
	return page(out, limit, offset), err
}

type FinanceRepository struct{ a access }

func (r *FinanceRepository) Create(ctx context.Context, rec *entity.FinanceRecord) error {
	return r.a.write(func(st *state) error {
		cp := *rec
		st.finance = append(st.finance, &cp)
		return nil
	})
}

func (r *FinanceRepository) ListByReference(ctx context.Context, reference string) ([]*entity.FinanceRecord, error) {
	var out []*entity.FinanceRecord
	err := r.a.read(func(st *state) error {
		for _, rec := range st.finance {
			if rec.Reference == reference {
				cp := *rec
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

type PaymentEventRepository struct{ a access }

func (r *PaymentEventRepository) Insert(ctx context.Context, ev *entity.PaymentEvent) (bool, error) {
	var inserted bool
	err := r.a.write(func(st *state) error {
		key := ev.Provider + "|" + ev.EventID
		if _, ok := st.events[key]; ok {
			return nil
		}
		cp := *ev
		st.events[key] = &cp
		inserted = true
		return nil
	})
	return inserted, err
}

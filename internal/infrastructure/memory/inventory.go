package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

type StockRepository struct{ a access }

func (r *StockRepository) Get(ctx context.Context, productID string) (*entity.ProductStock, error) {
	var out *entity.ProductStock
	err := r.a.read(func(st *state) error {
		if s, ok := st.stock[productID]; ok {
			cp := *s
			out = &cp
		}
		return nil
	})
	return out, err
}

// GetForUpdate el bloqueo lo da el mutex de la transacción.
func (r *StockRepository) GetForUpdate(ctx context.Context, productID string) (*entity.ProductStock, error) {
	return r.Get(ctx, productID)
}

func (r *StockRepository) Create(ctx context.Context, stock *entity.ProductStock) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.stock[stock.ProductID]; ok {
			return domain.ErrDuplicate
		}
		cp := *stock
		st.stock[stock.ProductID] = &cp
		return nil
	})
}

func (r *StockRepository) Decrement(ctx context.Context, productID string, qty int64) (int64, bool, error) {
	var newStock int64
	var ok bool
	err := r.a.write(func(st *state) error {
		s, found := st.stock[productID]
		if !found || s.CurrentStock < qty {
			return nil
		}
		cp := *s
		cp.CurrentStock -= qty
		st.stock[productID] = &cp
		newStock, ok = cp.CurrentStock, true
		return nil
	})
	return newStock, ok, err
}

func (r *StockRepository) Increment(ctx context.Context, productID string, qty int64) (int64, error) {
	var newStock int64
	err := r.a.write(func(st *state) error {
		s, found := st.stock[productID]
		if !found {
			return domain.ErrNotFound
		}
		cp := *s
		cp.CurrentStock += qty
		st.stock[productID] = &cp
		newStock = cp.CurrentStock
		return nil
	})
	return newStock, err
}

func (r *StockRepository) Set(ctx context.Context, productID string, value int64) error {
	return r.a.write(func(st *state) error {
		s, found := st.stock[productID]
		if !found {
			return domain.ErrNotFound
		}
		cp := *s
		cp.CurrentStock = value
		st.stock[productID] = &cp
		return nil
	})
}

func (r *StockRepository) UpdateUnitCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	return r.a.write(func(st *state) error {
		s, found := st.stock[productID]
		if !found {
			return domain.ErrNotFound
		}
		cp := *s
		cp.UnitCost = cost
		st.stock[productID] = &cp
		return nil
	})
}

func (r *StockRepository) ListLow(ctx context.Context, limit, offset int) ([]*entity.ProductStock, error) {
	var out []*entity.ProductStock
	err := r.a.read(func(st *state) error {
		for _, s := range st.stock {
			if s.IsLow() {
				cp := *s
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentStock != out[j].CurrentStock {
			return out[i].CurrentStock < out[j].CurrentStock
		}
		return out[i].ProductID < out[j].ProductID
	})
	return page(out, limit, offset), err
}

func (r *StockRepository) ListProductIDs(ctx context.Context) ([]string, error) {
	var out []string
	err := r.a.read(func(st *state) error {
		for id := range st.stock {
			out = append(out, id)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

type MovementRepository struct{ a access }

func (r *MovementRepository) Create(ctx context.Context, m *entity.InventoryMovement) error {
	return r.a.write(func(st *state) error {
		st.seq++
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.Seq = st.seq
		cp := *m
		st.movements = append(st.movements, &cp)
		return nil
	})
}

func (r *MovementRepository) filter(keep func(m *entity.InventoryMovement) bool) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			if keep(m) {
				cp := *m
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (r *MovementRepository) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	out, err := r.filter(func(m *entity.InventoryMovement) bool { return m.ProductID == productID })
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return page(out, limit, offset), nil
}

func (r *MovementRepository) ListChain(ctx context.Context, productID string) ([]*entity.InventoryMovement, error) {
	return r.filter(func(m *entity.InventoryMovement) bool { return m.ProductID == productID })
}

func (r *MovementRepository) ListByReference(ctx context.Context, reference string) ([]*entity.InventoryMovement, error) {
	return r.filter(func(m *entity.InventoryMovement) bool { return m.Reference == reference })
}

type ProductRepository struct{ a access }

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.a.read(func(st *state) error {
		if p, ok := st.products[id]; ok {
			cp := *p
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *ProductRepository) Upsert(ctx context.Context, p *entity.Product) error {
	return r.a.write(func(st *state) error {
		cp := *p
		st.products[p.ID] = &cp
		return nil
	})
}

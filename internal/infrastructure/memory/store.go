// Package memory implementa los repositorios en memoria. Lo usan las pruebas de casos de uso
// y el modo de desarrollo sin base de datos (DB_DRIVER=memory).
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

type state struct {
	products  map[string]*entity.Product
	stock     map[string]*entity.ProductStock
	movements []*entity.InventoryMovement
	seq       int64
	orders    map[string]*entity.Order
	sales     map[string]*entity.Sale
	finance   []*entity.FinanceRecord
	events    map[string]*entity.PaymentEvent
}

func newState() *state {
	return &state{
		products: map[string]*entity.Product{},
		stock:    map[string]*entity.ProductStock{},
		orders:   map[string]*entity.Order{},
		sales:    map[string]*entity.Sale{},
		events:   map[string]*entity.PaymentEvent{},
	}
}

// clone copia superficial de los mapas y slices. Las entidades guardadas nunca se mutan
// en sitio (cada escritura reemplaza el puntero), así que compartirlas entre copias es seguro.
func (st *state) clone() *state {
	c := &state{
		products:  make(map[string]*entity.Product, len(st.products)),
		stock:     make(map[string]*entity.ProductStock, len(st.stock)),
		movements: append([]*entity.InventoryMovement(nil), st.movements...),
		seq:       st.seq,
		orders:    make(map[string]*entity.Order, len(st.orders)),
		sales:     make(map[string]*entity.Sale, len(st.sales)),
		finance:   append([]*entity.FinanceRecord(nil), st.finance...),
		events:    make(map[string]*entity.PaymentEvent, len(st.events)),
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.stock {
		c.stock[k] = v
	}
	for k, v := range st.orders {
		c.orders[k] = v
	}
	for k, v := range st.sales {
		c.sales[k] = v
	}
	for k, v := range st.events {
		c.events[k] = v
	}
	return c
}

// Store estado compartido. Las transacciones se serializan con un mutex global:
// fn trabaja sobre una copia que solo se publica si no retorna error.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// Run implementa TxRunner.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(reposFor(access{s: s, st: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Repos repositorios fuera de transacción (cada llamada toma el mutex).
func (s *Store) Repos() repository.Repos {
	return reposFor(access{s: s})
}

// SeedProduct agrega un producto al catálogo.
func (s *Store) SeedProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.st.products[p.ID] = &cp
}

func reposFor(a access) repository.Repos {
	return repository.Repos{
		Stock:         &StockRepository{a},
		Movements:     &MovementRepository{a},
		Products:      &ProductRepository{a},
		Orders:        &OrderRepository{a},
		Sales:         &SaleRepository{a},
		Finance:       &FinanceRepository{a},
		PaymentEvents: &PaymentEventRepository{a},
	}
}

// access resuelve el estado: el de la transacción si existe, o el publicado bajo mutex.
type access struct {
	s  *Store
	st *state
}

func (a access) read(fn func(st *state) error) error {
	if a.st != nil {
		return fn(a.st)
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return fn(a.s.st)
}

// write fuera de transacción opera sobre una copia para que un error no deje cambios a medias.
func (a access) write(fn func(st *state) error) error {
	if a.st != nil {
		return fn(a.st)
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	work := a.s.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	a.s.st = work
	return nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

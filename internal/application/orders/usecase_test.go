package orders_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/application/orders"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/memory"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store  *memory.Store
	ledger *inventory.LedgerUseCase
	uc     *orders.UseCase
	now    time.Time
}

func (f *fixture) clock() time.Time { return f.now }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	repos := f.store.Repos()
	f.ledger = inventory.NewLedgerUseCase(f.store, repos.Stock, repos.Movements, logger.Nop(), nil).WithClock(f.clock)
	f.uc = orders.NewUseCase(f.store, repos.Orders, repos.Products, f.ledger, orders.Pricing{
		ShippingFee:           decimal.NewFromInt(10000),
		FreeShippingThreshold: decimal.NewFromInt(200000),
		TaxRate:               decimal.RequireFromString("0.19"),
	}, logger.Nop()).WithClock(f.clock)
	return f
}

func (f *fixture) product(t *testing.T, price, stock int64) string {
	t.Helper()
	id := uuid.New().String()
	f.store.SeedProduct(&entity.Product{
		ID:     id,
		SKU:    gofakeit.LetterN(8),
		Name:   gofakeit.ProductName(),
		Price:  decimal.NewFromInt(price),
		Active: true,
	})
	_, err := f.ledger.CreateStockRecord(context.Background(), inventory.CreateStockInput{ProductID: id, InitialStock: stock})
	require.NoError(t, err)
	return id
}

func (f *fixture) stock(t *testing.T, productID string) int64 {
	t.Helper()
	st, err := f.ledger.GetStock(context.Background(), productID)
	require.NoError(t, err)
	return st.CurrentStock
}

func customer(userID string) entity.CustomerInfo {
	return entity.CustomerInfo{
		UserID:  userID,
		Name:    gofakeit.Name(),
		Email:   gofakeit.Email(),
		Phone:   gofakeit.Phone(),
		Address: gofakeit.Street(),
	}
}

func (f *fixture) order(t *testing.T, userID string, items ...orders.ItemInput) *entity.Order {
	t.Helper()
	o, err := f.uc.CreateOrder(context.Background(), orders.CreateOrderInput{
		Customer:      customer(userID),
		Items:         items,
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	return o
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateOrder_DescuentaStockYCalculaTotales(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 20000, 10)
	b := f.product(t, 5000, 10)

	o := f.order(t, "user-1",
		orders.ItemInput{ProductID: a, Quantity: 2},
		orders.ItemInput{ProductID: b, Quantity: 1},
		orders.ItemInput{ProductID: a, Quantity: 1},
	)

	assert.Equal(t, entity.OrderStatusPending, o.Status)
	assert.Regexp(t, `^ORD-20250310-[0-9A-F]{8}$`, o.OrderNumber)
	require.Len(t, o.Items, 2, "las líneas repetidas se agrupan")
	assert.Equal(t, int64(3), o.Items[0].Quantity)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(65000)))
	assert.True(t, o.Shipping.Equal(decimal.NewFromInt(10000)))
	assert.True(t, o.Tax.Equal(decimal.NewFromInt(12350)))
	assert.True(t, o.Total.Equal(decimal.NewFromInt(87350)))

	assert.Equal(t, int64(7), f.stock(t, a))
	assert.Equal(t, int64(9), f.stock(t, b))

	movs, err := f.store.Repos().Movements.ListByReference(context.Background(), o.OrderNumber)
	require.NoError(t, err)
	assert.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementTypeExit, m.Type)
		assert.Equal(t, entity.MovementReasonSale, m.Reason)
	}
}

func TestCreateOrder_EnvioGratisSobreUmbral(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 100000, 5)
	o := f.order(t, "", orders.ItemInput{ProductID: a, Quantity: 2})
	assert.True(t, o.Shipping.IsZero())
}

// Sin stock suficiente en una línea no queda pedido, ni movimientos, ni descuentos.
func TestCreateOrder_StockInsuficienteRevierteTodo(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 1000, 10)
	b := f.product(t, 1000, 1)

	_, err := f.uc.CreateOrder(context.Background(), orders.CreateOrderInput{
		Customer:      customer("user-1"),
		Items:         []orders.ItemInput{{ProductID: a, Quantity: 4}, {ProductID: b, Quantity: 2}},
		PaymentMethod: "pse",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	assert.Equal(t, int64(10), f.stock(t, a))
	assert.Equal(t, int64(1), f.stock(t, b))
	list, err := f.uc.ListOrders(context.Background(), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	movs, err := f.ledger.ListMovements(context.Background(), a, 50, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1, "solo el ajuste inicial")
}

func TestCreateOrder_Validaciones(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 1000, 10)

	cases := []struct {
		name string
		in   orders.CreateOrderInput
		want error
	}{
		{"sin items", orders.CreateOrderInput{Customer: customer(""), PaymentMethod: "card"}, domain.ErrInvalidInput},
		{"cantidad cero", orders.CreateOrderInput{Customer: customer(""), PaymentMethod: "card",
			Items: []orders.ItemInput{{ProductID: a, Quantity: 0}}}, domain.ErrInvalidInput},
		{"sin email", orders.CreateOrderInput{Customer: entity.CustomerInfo{Name: "x"}, PaymentMethod: "card",
			Items: []orders.ItemInput{{ProductID: a, Quantity: 1}}}, domain.ErrInvalidInput},
		{"descuento mayor al subtotal", orders.CreateOrderInput{Customer: customer(""), PaymentMethod: "card",
			Discount: decimal.NewFromInt(5000), Items: []orders.ItemInput{{ProductID: a, Quantity: 1}}}, domain.ErrInvalidInput},
		{"producto inexistente", orders.CreateOrderInput{Customer: customer(""), PaymentMethod: "card",
			Items: []orders.ItemInput{{ProductID: "nope", Quantity: 1}}}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.CreateOrder(context.Background(), tc.in)
			assert.True(t, errors.Is(err, tc.want), "error: %v", err)
		})
	}
	assert.Equal(t, int64(10), f.stock(t, a))
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancel
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_RestauraStock(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 1000, 10)
	o := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 4})
	require.Equal(t, int64(6), f.stock(t, a))

	f.now = f.now.Add(23*time.Hour + 59*time.Minute)
	cancelled, err := f.uc.Cancel(context.Background(), o.OrderNumber, "me arrepentí", "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, "me arrepentí", cancelled.CancellationReason)
	assert.Equal(t, int64(10), f.stock(t, a))

	movs, err := f.store.Repos().Movements.ListByReference(context.Background(), o.OrderNumber)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeEntry, movs[1].Type)
	assert.Equal(t, entity.MovementReasonReturn, movs[1].Reason)

	report, err := f.ledger.VerifyLedger(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestCancel_RevierteIngresoPublicado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, 30000, 5)
	o := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 1})

	finance := f.store.Repos().Finance
	require.NoError(t, finance.Create(ctx, &entity.FinanceRecord{
		ID:        uuid.New().String(),
		Type:      entity.FinanceTypeIncome,
		Amount:    o.Total,
		Category:  entity.FinanceCategoryOnlineSales,
		Source:    entity.FinanceSourceOnlineOrder,
		Reference: o.OrderNumber,
		CreatedAt: f.now,
	}))

	_, err := f.uc.Cancel(ctx, o.OrderNumber, "", "user-1")
	require.NoError(t, err)

	recs, err := finance.ListByReference(ctx, o.OrderNumber)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	var expense *entity.FinanceRecord
	for _, r := range recs {
		if r.Type == entity.FinanceTypeExpense {
			expense = r
		}
	}
	require.NotNil(t, expense)
	assert.True(t, o.Total.Equal(expense.Amount))
	assert.Equal(t, "user-1", expense.CreatedBy)
}

func TestCancel_SinIngresoNoPublicaEgreso(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 30000, 5)
	o := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 1})

	_, err := f.uc.Cancel(context.Background(), o.OrderNumber, "", "user-1")
	require.NoError(t, err)

	recs, err := f.store.Repos().Finance.ListByReference(context.Background(), o.OrderNumber)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCreateOrder_MueveStockEnOrdenDeProducto(t *testing.T) {
	f := newFixture(t)
	ids := []string{f.product(t, 1000, 10), f.product(t, 1000, 10), f.product(t, 1000, 10)}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	// Líneas en orden inverso al de bloqueo.
	o := f.order(t, "user-1",
		orders.ItemInput{ProductID: sorted[2], Quantity: 1},
		orders.ItemInput{ProductID: sorted[0], Quantity: 1},
		orders.ItemInput{ProductID: sorted[1], Quantity: 1},
	)
	assert.Equal(t, sorted[2], o.Items[0].ProductID, "las líneas guardadas conservan el orden del cliente")

	movs, err := f.store.Repos().Movements.ListByReference(context.Background(), o.OrderNumber)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	sort.Slice(movs, func(i, j int) bool { return movs[i].Seq < movs[j].Seq })
	for i, m := range movs {
		assert.Equal(t, sorted[i], m.ProductID)
	}
}

func TestCancel_Ventana(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		want    error
	}{
		{"exactamente 24h", 24 * time.Hour, nil},
		{"24h y un minuto", 24*time.Hour + time.Minute, domain.ErrCancellationWindowExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.product(t, 1000, 3)
			o := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 1})
			f.now = f.now.Add(tc.elapsed)

			_, err := f.uc.Cancel(context.Background(), o.OrderNumber, "", "user-1")
			if tc.want == nil {
				require.NoError(t, err)
				assert.Equal(t, int64(3), f.stock(t, a))
				return
			}
			assert.True(t, errors.Is(err, tc.want), "error: %v", err)
			assert.Equal(t, int64(2), f.stock(t, a), "sin reposición si se rechaza")
		})
	}
}

func TestCancel_OtroUsuarioEsForbidden(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 1000, 3)
	o := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 1})

	_, err := f.uc.Cancel(context.Background(), o.OrderNumber, "", "user-2")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	// Forbidden se evalúa antes que la ventana.
	f.now = f.now.Add(48 * time.Hour)
	_, err = f.uc.Cancel(context.Background(), o.OrderNumber, "", "user-2")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestCancel_EstadosNoCancelables(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 1000, 5)
	ctx := context.Background()

	shipped := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 1})
	_, err := f.uc.UpdateStatus(ctx, shipped.OrderNumber, entity.OrderStatusShipped, "")
	require.NoError(t, err)
	_, err = f.uc.Cancel(ctx, shipped.OrderNumber, "", "user-1")
	assert.True(t, errors.Is(err, domain.ErrNotCancellable))

	twice := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 1})
	_, err = f.uc.Cancel(ctx, twice.OrderNumber, "", "user-1")
	require.NoError(t, err)
	_, err = f.uc.Cancel(ctx, twice.OrderNumber, "", "user-1")
	assert.True(t, errors.Is(err, domain.ErrNotCancellable))

	assert.Equal(t, int64(4), f.stock(t, a), "la segunda cancelación no repone dos veces")
}

func TestCancelBySystem_IgnoraVentana(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 1000, 5)
	o := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 2})
	f.now = f.now.Add(72 * time.Hour)

	cancelled, err := f.uc.CancelBySystem(context.Background(), o.OrderNumber, "pago anulado")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, int64(5), f.stock(t, a))
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateStatus / GetOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateStatus_EstadosFinalesInmutables(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 1000, 5)
	ctx := context.Background()
	o := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 1})

	updated, err := f.uc.UpdateStatus(ctx, o.OrderNumber, entity.OrderStatusConfirmed, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, "pi_123", updated.PaymentID)

	_, err = f.uc.UpdateStatus(ctx, o.OrderNumber, entity.OrderStatusDelivered, "")
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, o.OrderNumber, entity.OrderStatusPending, "")
	assert.True(t, errors.Is(err, domain.ErrOrderFinalized))

	_, err = f.uc.UpdateStatus(ctx, o.OrderNumber, entity.OrderStatusCancelled, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "cancelled solo por Cancel")

	_, err = f.uc.UpdateStatus(ctx, "ORD-NOPE", entity.OrderStatusShipped, "")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetOrder_SoloDueño(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 1000, 5)
	ctx := context.Background()
	o := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 1})

	got, err := f.uc.GetOrder(ctx, o.OrderNumber, "user-1")
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)
	assert.True(t, f.uc.IsCancellable(got))

	_, err = f.uc.GetOrder(ctx, o.OrderNumber, "user-2")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.uc.GetOrder(ctx, o.OrderNumber, "")
	assert.NoError(t, err, "sin usuario (admin) puede ver cualquier pedido")
}

func TestListOrders_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 1000, 5)
	ctx := context.Background()
	o1 := f.order(t, "user-1", orders.ItemInput{ProductID: a, Quantity: 1})
	f.order(t, "user-2", orders.ItemInput{ProductID: a, Quantity: 1})
	_, err := f.uc.Cancel(ctx, o1.OrderNumber, "", "")
	require.NoError(t, err)

	list, err := f.uc.ListOrders(ctx, repository.OrderFilter{Status: entity.OrderStatusCancelled})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, o1.OrderNumber, list[0].OrderNumber)

	_, err = f.uc.ListOrders(ctx, repository.OrderFilter{Status: "perdido"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/application/orders"
	"github.com/jhoicas/Tienda-api/internal/application/payments"
	"github.com/jhoicas/Tienda-api/internal/application/sales"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/lock"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/memory"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/metrics"
	infrapayment "github.com/jhoicas/Tienda-api/internal/infrastructure/payment"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/Tienda-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Tienda-api/pkg/jwt"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Aplicación completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

const testWompiSecret = "test_events_secret_http"

type testServer struct {
	app    *fiber.App
	ledger *inventory.LedgerUseCase
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	store := memory.NewStore()
	repos := store.Repos()
	m := metrics.New()

	ledger := inventory.NewLedgerUseCase(store, repos.Stock, repos.Movements, log, m)
	ordersUC := orders.NewUseCase(store, repos.Orders, repos.Products, ledger, orders.Pricing{
		ShippingFee: decimal.NewFromInt(5000),
		TaxRate:     decimal.RequireFromString("0.19"),
	}, log)
	salesUC := sales.NewUseCase(store, repos.Sales, repos.Products, ledger,
		pdf.NewReceiptGenerator(pdf.StoreInfo{Name: "Tienda de prueba"}), log)
	paymentsUC := payments.NewUseCase(store, ordersUC, lock.NoopLocker{}, log, m,
		infrapayment.NewWompiAdapter(testWompiSecret))

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		OrdersUC:    ordersUC,
		InventoryUC: ledger,
		SalesUC:     salesUC,
		PaymentsUC:  paymentsUC,
		Metrics:     m,
		Log:         log,
		JWTSecret:   testJWTSecret,
		ServiceName: "tienda-api-test",
	})
	return &testServer{app: app, ledger: ledger, store: store}
}

func (s *testServer) seedProduct(t *testing.T, price, stock int64) string {
	t.Helper()
	id := uuid.New().String()
	s.store.SeedProduct(&entity.Product{
		ID:     id,
		SKU:    gofakeit.LetterN(8),
		Name:   gofakeit.ProductName(),
		Price:  decimal.NewFromInt(price),
		Active: true,
	})
	_, err := s.ledger.CreateStockRecord(context.Background(), inventory.CreateStockInput{
		ProductID:    id,
		InitialStock: stock,
		Actor:        "test",
	})
	require.NoError(t, err)
	return id
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s *testServer) do(t *testing.T, method, path, auth string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.([]byte)
		if !ok {
			var err error
			raw, err = json.Marshal(body)
			require.NoError(t, err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func checkoutBody(productID string, qty int64) map[string]any {
	return map[string]any{
		"customer": map[string]any{
			"name":  gofakeit.Name(),
			"email": gofakeit.Email(),
			"phone": gofakeit.Phone(),
		},
		"items":          []map[string]any{{"product_id": productID, "quantity": qty}},
		"payment_method": "pse",
	}
}

type orderBody struct {
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Total         string `json:"total"`
	Cancellable   bool   `json:"cancellable"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestHealthYMetrics(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "tienda_http_requests_total")
}

func TestCheckout_InvitadoCreaYConsulta(t *testing.T) {
	s := newTestServer(t)
	productID := s.seedProduct(t, 20000, 5)

	resp, raw := s.do(t, http.MethodPost, "/api/orders", "", checkoutBody(productID, 2))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var created orderBody
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, entity.OrderStatusPending, created.Status)
	assert.True(t, created.Cancellable)
	// 40000 + 5000 envío + 7600 IVA
	assert.Equal(t, "52600", created.Total)

	resp, raw = s.do(t, http.MethodGet, "/api/orders/"+created.OrderNumber, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	stock, err := s.ledger.GetStock(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stock.CurrentStock)
}

func TestCheckout_StockInsuficiente409(t *testing.T) {
	s := newTestServer(t)
	productID := s.seedProduct(t, 20000, 1)

	resp, raw := s.do(t, http.MethodPost, "/api/orders", "", checkoutBody(productID, 2))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var e errorBody
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
}

func TestCheckout_Validacion400(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{
		"customer":       map[string]any{"name": "Ana", "email": "no-es-email"},
		"items":          []map[string]any{},
		"payment_method": "pse",
	}
	resp, raw := s.do(t, http.MethodPost, "/api/orders", "", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e errorBody
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Contains(t, e.Details, "items")
	assert.Contains(t, e.Details, "customer.email")
}

func TestCancel_ClienteDuenoRestauraStock(t *testing.T) {
	s := newTestServer(t)
	productID := s.seedProduct(t, 10000, 4)
	owner := bearer(t, "cliente-1", pkgjwt.RoleCliente)

	resp, raw := s.do(t, http.MethodPost, "/api/orders", owner, checkoutBody(productID, 3))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var created orderBody
	require.NoError(t, json.Unmarshal(raw, &created))

	// Sin token no se consulta un pedido con dueño.
	resp, _ = s.do(t, http.MethodGet, "/api/orders/"+created.OrderNumber, "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Otro cliente tampoco.
	other := bearer(t, "cliente-2", pkgjwt.RoleCliente)
	resp, _ = s.do(t, http.MethodPost, "/api/orders/"+created.OrderNumber+"/cancel", other, map[string]any{"reason": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/orders/"+created.OrderNumber+"/cancel", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw = s.do(t, http.MethodPost, "/api/orders/"+created.OrderNumber+"/cancel", owner, map[string]any{"reason": "ya no lo necesito"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var cancelled orderBody
	require.NoError(t, json.Unmarshal(raw, &cancelled))
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)

	bodeguero := bearer(t, "bodega-1", pkgjwt.RoleBodeguero)
	resp, raw = s.do(t, http.MethodGet, "/api/inventory/stock/"+productID, bodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stock struct {
		CurrentStock int64 `json:"current_stock"`
	}
	require.NoError(t, json.Unmarshal(raw, &stock))
	assert.Equal(t, int64(4), stock.CurrentStock)

	resp, raw = s.do(t, http.MethodPost, "/api/orders/"+created.OrderNumber+"/cancel", owner, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var e errorBody
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "NOT_CANCELLABLE", e.Code)
}

func TestAdmin_EstadoFinalEsInmutable(t *testing.T) {
	s := newTestServer(t)
	productID := s.seedProduct(t, 10000, 4)
	admin := bearer(t, "admin-1", pkgjwt.RoleAdmin)

	_, raw := s.do(t, http.MethodPost, "/api/orders", "", checkoutBody(productID, 1))
	var created orderBody
	require.NoError(t, json.Unmarshal(raw, &created))

	path := "/api/admin/orders/" + created.OrderNumber + "/status"
	resp, _ := s.do(t, http.MethodPatch, path, bearer(t, "v-1", pkgjwt.RoleVendedor), map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = s.do(t, http.MethodPatch, path, admin, map[string]any{"status": "delivered"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = s.do(t, http.MethodPatch, path, admin, map[string]any{"status": "processing"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var e errorBody
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "ORDER_FINALIZED", e.Code)

	resp, _ = s.do(t, http.MethodPatch, path, admin, map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = s.do(t, http.MethodGet, "/api/admin/orders?status=delivered", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Orders []orderBody `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Orders, 1)
	assert.Equal(t, created.OrderNumber, list.Orders[0].OrderNumber)
}

func TestInventario_MovimientosYVerificacion(t *testing.T) {
	s := newTestServer(t)
	productID := s.seedProduct(t, 10000, 2)
	bodeguero := bearer(t, "bodega-1", pkgjwt.RoleBodeguero)

	resp, raw := s.do(t, http.MethodPost, "/api/inventory/movements", bodeguero, map[string]any{
		"product_id": productID, "type": "entry", "quantity": 8, "reason": "restock",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, _ = s.do(t, http.MethodPost, "/api/inventory/movements", bodeguero, map[string]any{
		"product_id": productID, "type": "exit", "quantity": 50, "reason": "sale",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/inventory/movements", bodeguero, map[string]any{
		"product_id": productID, "type": "teleport", "quantity": 1, "reason": "sale",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = s.do(t, http.MethodGet, "/api/inventory/movements/"+productID, bodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var movs []map[string]any
	require.NoError(t, json.Unmarshal(raw, &movs))
	assert.Len(t, movs, 2)

	resp, raw = s.do(t, http.MethodGet, "/api/inventory/ledger/"+productID+"/verify", bodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rep struct {
		Consistent   bool  `json:"consistent"`
		CurrentStock int64 `json:"current_stock"`
	}
	require.NoError(t, json.Unmarshal(raw, &rep))
	assert.True(t, rep.Consistent)
	assert.Equal(t, int64(10), rep.CurrentStock)

	resp, _ = s.do(t, http.MethodGet, "/api/inventory/stock/"+productID, bearer(t, "c", pkgjwt.RoleCliente), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVentas_RegistrarAnularYComprobante(t *testing.T) {
	s := newTestServer(t)
	productID := s.seedProduct(t, 15000, 3)
	vendedor := bearer(t, "vend-1", pkgjwt.RoleVendedor)

	resp, raw := s.do(t, http.MethodPost, "/api/sales", vendedor, map[string]any{
		"customer_name":  gofakeit.Name(),
		"payment_method": "efectivo",
		"items":          []map[string]any{{"product_id": productID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var sale struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Total  string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(raw, &sale))
	assert.Equal(t, "30000", sale.Total)

	resp, raw = s.do(t, http.MethodGet, "/api/sales/"+sale.ID+"/receipt", vendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	resp, _ = s.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", vendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", vendedor, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	stock, err := s.ledger.GetStock(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stock.CurrentStock)
}

func wompiBody(t *testing.T, reference, status string, amountInCents int64, secret string) []byte {
	t.Helper()
	data := json.RawMessage(fmt.Sprintf(`{"transaction":{"id":"tx-%s","amount_in_cents":%d,"reference":%q,"status":%q}}`,
		reference, amountInCents, reference, status))
	props := []string{"transaction.id", "transaction.status", "transaction.amount_in_cents"}
	ts := int64(1700000000)
	checksum, err := infrapayment.WompiChecksum(data, props, ts, secret)
	require.NoError(t, err)
	raw, err := json.Marshal(map[string]any{
		"event":     "transaction.updated",
		"data":      data,
		"signature": map[string]any{"properties": props, "checksum": checksum},
		"timestamp": ts,
	})
	require.NoError(t, err)
	return raw
}

func TestWebhookWompi_ConfirmaUnaVez(t *testing.T) {
	s := newTestServer(t)
	productID := s.seedProduct(t, 20000, 2)

	_, raw := s.do(t, http.MethodPost, "/api/orders", "", checkoutBody(productID, 1))
	var created orderBody
	require.NoError(t, json.Unmarshal(raw, &created))
	// 20000 + 5000 + 3800
	require.Equal(t, "28800", created.Total)

	resp, _ := s.do(t, http.MethodPost, "/api/webhooks/wompi", "",
		wompiBody(t, created.OrderNumber, "APPROVED", 2880000, "otro-secreto"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := wompiBody(t, created.OrderNumber, "APPROVED", 2880000, testWompiSecret)
	resp, raw = s.do(t, http.MethodPost, "/api/webhooks/wompi", "", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var first struct {
		Action    string `json:"action"`
		Duplicate bool   `json:"duplicate"`
	}
	require.NoError(t, json.Unmarshal(raw, &first))
	assert.Equal(t, payments.ActionConfirmed, first.Action)

	resp, raw = s.do(t, http.MethodPost, "/api/webhooks/wompi", "", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second struct {
		Duplicate bool `json:"duplicate"`
	}
	require.NoError(t, json.Unmarshal(raw, &second))
	assert.True(t, second.Duplicate)

	// Pedido inexistente: se confirma recepción igual.
	resp, _ = s.do(t, http.MethodPost, "/api/webhooks/wompi", "",
		wompiBody(t, "ORD-NO-EXISTE", "APPROVED", 100, testWompiSecret))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = s.do(t, http.MethodGet, "/api/orders/"+created.OrderNumber, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got orderBody
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, entity.OrderStatusConfirmed, got.Status)
	assert.Equal(t, entity.PaymentStatusApproved, got.PaymentStatus)

	finance, err := s.store.Repos().Finance.ListByReference(context.Background(), created.OrderNumber)
	require.NoError(t, err)
	assert.Len(t, finance, 1)
}

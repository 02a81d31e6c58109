package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/infrastructure/metrics"
)

func TestMetrics_ContadoresEnEndpoint(t *testing.T) {
	m := metrics.New()
	m.MovementApplied("exit", "sale")
	m.MovementApplied("exit", "sale")
	m.StockRejected("p-1")
	m.PaymentEvent("stripe", "approved", "confirmed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tienda_inventory_movements_total{reason="sale",type="exit"} 2`)
	assert.Contains(t, string(body), `tienda_inventory_insufficient_stock_total{product_id="p-1"} 1`)
	assert.Contains(t, string(body), `tienda_payments_events_total{action="confirmed",outcome="approved",provider="stripe"} 1`)
}

func TestMetrics_InstanciasIndependientes(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	a.HTTPRequest("GET", "/health", "200")

	recA := httptest.NewRecorder()
	a.Handler().ServeHTTP(recA, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	recB := httptest.NewRecorder()
	b.Handler().ServeHTTP(recB, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Contains(t, recA.Body.String(), `tienda_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.NotContains(t, recB.Body.String(), `tienda_http_requests_total{`)
}

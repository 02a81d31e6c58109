// Package metrics expone contadores Prometheus del libro de inventario y de los webhooks de pago.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tienda"

// Metrics registro propio (no el global) para que las pruebas puedan crear varias instancias.
type Metrics struct {
	registry      *prometheus.Registry
	movements     *prometheus.CounterVec
	stockRejected *prometheus.CounterVec
	paymentEvents *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "movements_total",
			Help:      "Movimientos de inventario aplicados por tipo y motivo.",
		}, []string{"type", "reason"}),
		stockRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "insufficient_stock_total",
			Help:      "Salidas rechazadas por stock insuficiente.",
		}, []string{"product_id"}),
		paymentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "events_total",
			Help:      "Eventos de pasarela reconciliados por proveedor, resultado y acción.",
		}, []string{"provider", "outcome", "action"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Peticiones HTTP por ruta y código de estado.",
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.movements,
		m.stockRejected,
		m.paymentEvents,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) MovementApplied(movementType, reason string) {
	m.movements.WithLabelValues(movementType, reason).Inc()
}

func (m *Metrics) StockRejected(productID string) {
	m.stockRejected.WithLabelValues(productID).Inc()
}

func (m *Metrics) PaymentEvent(provider, outcome, action string) {
	m.paymentEvents.WithLabelValues(provider, outcome, action).Inc()
}

func (m *Metrics) HTTPRequest(method, route, status string) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// Handler endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

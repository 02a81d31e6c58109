package payments

import (
	"context"
	"net/http"
	"time"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/payment"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(r repository.Repos) error) error
}

// ProviderAdapter verifica la firma del webhook y traduce el payload al evento normalizado.
// Parse retorna domain.ErrInvalidSignature antes de cualquier efecto. Un evento que no interesa
// (otro tipo de evento) se devuelve como nil, nil.
type ProviderAdapter interface {
	Provider() string
	Parse(payload []byte, header http.Header) (*payment.NormalizedPaymentEvent, error)
}

// Locker serializa la reconciliación por referencia de pedido entre réplicas.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// OrderCanceller cancelación de sistema dentro de la transacción de reconciliación.
type OrderCanceller interface {
	CancelBySystemInTx(ctx context.Context, r repository.Repos, orderNumber, reason string, now time.Time) (*entity.Order, error)
}

// Recorder métricas de eventos de pago.
type Recorder interface {
	PaymentEvent(provider, outcome, action string)
}

type noopRecorder struct{}

func (noopRecorder) PaymentEvent(string, string, string) {}

// Package payment contiene los adaptadores de las pasarelas: verifican la firma del webhook
// y traducen el payload al evento normalizado del dominio.
package payment

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/payment"
)

// StripeSignatureHeader cabecera con la firma del webhook.
const StripeSignatureHeader = "Stripe-Signature"

// Metadato del PaymentIntent con el número de pedido (lo fija el checkout al crear el intent).
const stripeReferenceKey = "order_reference"

// StripeAdapter pagos con tarjeta (proveedor A) vía webhooks de PaymentIntent.
type StripeAdapter struct {
	webhookSecret string
}

func NewStripeAdapter(webhookSecret string) *StripeAdapter {
	return &StripeAdapter{webhookSecret: webhookSecret}
}

func (a *StripeAdapter) Provider() string { return payment.ProviderStripe }

// Parse verifica la firma y normaliza payment_intent.succeeded / payment_failed / canceled.
// Cualquier otro tipo de evento se ignora (nil, nil).
func (a *StripeAdapter) Parse(payload []byte, header http.Header) (*payment.NormalizedPaymentEvent, error) {
	if a.webhookSecret == "" {
		return nil, fmt.Errorf("%w: secreto de webhook stripe no configurado", domain.ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, header.Get(StripeSignatureHeader), a.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	var outcome payment.Outcome
	switch event.Type {
	case "payment_intent.succeeded":
		outcome = payment.OutcomeApproved
	case "payment_intent.payment_failed", "payment_intent.canceled":
		outcome = payment.OutcomeDeclined
	default:
		return nil, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: evento stripe %s sin datos", domain.ErrInvalidInput, event.ID)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: payment intent: %v", domain.ErrInvalidInput, err)
	}
	reference := pi.Metadata[stripeReferenceKey]
	if reference == "" {
		return nil, fmt.Errorf("%w: payment intent %s sin %s", domain.ErrInvalidInput, pi.ID, stripeReferenceKey)
	}

	ev := &payment.NormalizedPaymentEvent{
		Provider:  payment.ProviderStripe,
		EventID:   event.ID,
		Reference: reference,
		Outcome:   outcome,
		PaymentID: pi.ID,
		// Montos en unidades menores (centavos).
		Amount:    decimal.New(pi.Amount, -2),
		RawStatus: string(pi.Status),
	}
	switch {
	case pi.LastPaymentError != nil:
		ev.FailureReason = pi.LastPaymentError.Msg
	case pi.CancellationReason != "":
		ev.FailureReason = string(pi.CancellationReason)
	}
	return ev, nil
}

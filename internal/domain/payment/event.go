// Package payment define el vocabulario interno al que se normalizan los eventos de las pasarelas.
package payment

import "github.com/shopspring/decimal"

// Outcome resultado normalizado de un evento de pago.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeDeclined Outcome = "declined"
	OutcomePending  Outcome = "pending"
	OutcomeVoided   Outcome = "voided"
)

// Proveedores soportados.
const (
	ProviderStripe = "stripe" // pagos con tarjeta
	ProviderWompi  = "wompi"  // PSE / transferencia bancaria
)

// NormalizedPaymentEvent evento de pasarela ya verificado y traducido al vocabulario interno.
type NormalizedPaymentEvent struct {
	Provider      string
	EventID       string // clave de deduplicación por proveedor
	Reference     string // número de pedido
	Outcome       Outcome
	PaymentID     string // id de la transacción en la pasarela
	Amount        decimal.Decimal
	RawStatus     string
	FailureReason string
}

// IsValid indica si el outcome pertenece al vocabulario.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeApproved, OutcomeDeclined, OutcomePending, OutcomeVoided:
		return true
	}
	return false
}

package entity

import "time"

// PaymentEvent evento de pasarela ya procesado. La pareja (Provider, EventID) es única
// y sirve de deduplicación para reintentos del proveedor.
type PaymentEvent struct {
	Provider   string
	EventID    string
	Reference  string
	Outcome    string
	ReceivedAt time.Time
}

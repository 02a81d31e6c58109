package dto

// WebhookResponse cuerpo de respuesta de los webhooks de pago.
type WebhookResponse struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Action    string `json:"action,omitempty"`
}

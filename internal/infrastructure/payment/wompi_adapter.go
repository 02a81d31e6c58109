package payment

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/payment"
)

// WompiChecksumHeader cabecera alternativa con el checksum del evento.
const WompiChecksumHeader = "X-Event-Checksum"

// WompiEvent cuerpo del webhook de eventos de Wompi.
type WompiEvent struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Signature struct {
		Properties []string `json:"properties"`
		Checksum   string   `json:"checksum"`
	} `json:"signature"`
	Timestamp   int64  `json:"timestamp"`
	Environment string `json:"environment"`
}

type wompiTransaction struct {
	ID            string `json:"id"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	StatusMessage string `json:"status_message"`
	AmountInCents int64  `json:"amount_in_cents"`
}

// WompiAdapter PSE / transferencia bancaria (proveedor B).
type WompiAdapter struct {
	eventsSecret string
}

func NewWompiAdapter(eventsSecret string) *WompiAdapter {
	return &WompiAdapter{eventsSecret: eventsSecret}
}

func (a *WompiAdapter) Provider() string { return payment.ProviderWompi }

// Parse verifica el checksum y normaliza transaction.updated. Otros eventos se ignoran.
func (a *WompiAdapter) Parse(payload []byte, header http.Header) (*payment.NormalizedPaymentEvent, error) {
	if a.eventsSecret == "" {
		return nil, fmt.Errorf("%w: secreto de eventos wompi no configurado", domain.ErrInvalidSignature)
	}
	var body WompiEvent
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: payload wompi: %v", domain.ErrInvalidSignature, err)
	}
	checksum := body.Signature.Checksum
	if checksum == "" {
		checksum = header.Get(WompiChecksumHeader)
	}
	if err := a.verify(body, checksum); err != nil {
		return nil, err
	}
	if body.Event != "transaction.updated" {
		return nil, nil
	}

	var data struct {
		Transaction wompiTransaction `json:"transaction"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: transacción wompi: %v", domain.ErrInvalidInput, err)
	}
	tx := data.Transaction
	if tx.ID == "" || tx.Reference == "" {
		return nil, fmt.Errorf("%w: transacción wompi incompleta", domain.ErrInvalidInput)
	}
	outcome, ok := wompiOutcome(tx.Status)
	if !ok {
		return nil, fmt.Errorf("%w: estado wompi desconocido %q", domain.ErrInvalidInput, tx.Status)
	}
	return &payment.NormalizedPaymentEvent{
		Provider: payment.ProviderWompi,
		// Wompi no envía id de evento: la transacción cambia de estado una vez por estado.
		EventID:       tx.ID + ":" + tx.Status,
		Reference:     tx.Reference,
		Outcome:       outcome,
		PaymentID:     tx.ID,
		Amount:        decimal.New(tx.AmountInCents, -2),
		RawStatus:     tx.Status,
		FailureReason: tx.StatusMessage,
	}, nil
}

func wompiOutcome(status string) (payment.Outcome, bool) {
	switch status {
	case "APPROVED":
		return payment.OutcomeApproved, true
	case "DECLINED", "ERROR":
		return payment.OutcomeDeclined, true
	case "VOIDED":
		return payment.OutcomeVoided, true
	case "PENDING":
		return payment.OutcomePending, true
	}
	return "", false
}

// wompiSignedFields campos que la firma debe cubrir; sin ellos un evento firmado podría
// llevar un estado o un monto alterado.
var wompiSignedFields = []string{"transaction.id", "transaction.status", "transaction.amount_in_cents"}

// verify recalcula SHA256(valores de properties + timestamp + secreto) y compara en tiempo constante.
func (a *WompiAdapter) verify(body WompiEvent, checksum string) error {
	if checksum == "" || len(body.Signature.Properties) == 0 {
		return fmt.Errorf("%w: evento wompi sin firma", domain.ErrInvalidSignature)
	}
	for _, field := range wompiSignedFields {
		if !slices.Contains(body.Signature.Properties, field) {
			return fmt.Errorf("%w: la firma wompi no cubre %s", domain.ErrInvalidSignature, field)
		}
	}
	expected, err := WompiChecksum(body.Data, body.Signature.Properties, body.Timestamp, a.eventsSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToUpper(checksum))) != 1 {
		return fmt.Errorf("%w: checksum wompi no coincide", domain.ErrInvalidSignature)
	}
	return nil
}

// WompiChecksum calcula el checksum de un evento. properties son rutas dentro de data
// (ej. "transaction.amount_in_cents").
func WompiChecksum(data json.RawMessage, properties []string, timestamp int64, secret string) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return "", fmt.Errorf("data: %w", err)
	}
	var sb strings.Builder
	for _, prop := range properties {
		v, err := lookup(root, prop)
		if err != nil {
			return "", err
		}
		sb.WriteString(v)
	}
	sb.WriteString(strconv.FormatInt(timestamp, 10))
	sb.WriteString(secret)
	sum := sha256.Sum256([]byte(sb.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:])), nil
}

func lookup(root map[string]any, path string) (string, error) {
	var cur any = root
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("propiedad %s no encontrada", path)
		}
		if cur, ok = m[key]; !ok {
			return "", fmt.Errorf("propiedad %s no encontrada", path)
		}
	}
	switch v := cur.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("propiedad %s no es escalar", path)
	}
}

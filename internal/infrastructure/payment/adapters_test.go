package payment_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/domain"
	domainpayment "github.com/jhoicas/Tienda-api/internal/domain/payment"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/payment"
)

// ──────────────────────────────────────────────────────────────────────────────
// Stripe
// ──────────────────────────────────────────────────────────────────────────────

const stripeSecret = "whsec_test_secret"

func stripePayload(eventType, reference string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_123",
  "object": "event",
  "type": %q,
  "data": {
    "object": {
      "id": "pi_123",
      "object": "payment_intent",
      "amount": 8735000,
      "currency": "cop",
      "status": "succeeded",
      "metadata": {"order_reference": %q},
      "last_payment_error": {"message": "Your card was declined."}
    }
  }
}`, eventType, reference))
}

func stripeHeader(payload []byte, secret string) http.Header {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	h := http.Header{}
	h.Set(payment.StripeSignatureHeader, fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return h
}

func TestStripeAdapter_Succeeded(t *testing.T) {
	a := payment.NewStripeAdapter(stripeSecret)
	body := stripePayload("payment_intent.succeeded", "ORD-20250101-ABCDEF12")

	ev, err := a.Parse(body, stripeHeader(body, stripeSecret))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, domainpayment.ProviderStripe, ev.Provider)
	assert.Equal(t, "evt_123", ev.EventID)
	assert.Equal(t, "ORD-20250101-ABCDEF12", ev.Reference)
	assert.Equal(t, domainpayment.OutcomeApproved, ev.Outcome)
	assert.Equal(t, "pi_123", ev.PaymentID)
	assert.True(t, ev.Amount.Equal(decimal.NewFromInt(87350)), "monto: %s", ev.Amount)
}

func TestStripeAdapter_FallidoYCancelado(t *testing.T) {
	a := payment.NewStripeAdapter(stripeSecret)
	for _, typ := range []string{"payment_intent.payment_failed", "payment_intent.canceled"} {
		body := stripePayload(typ, "ORD-1")
		ev, err := a.Parse(body, stripeHeader(body, stripeSecret))
		require.NoError(t, err, typ)
		assert.Equal(t, domainpayment.OutcomeDeclined, ev.Outcome, typ)
		assert.Equal(t, "Your card was declined.", ev.FailureReason)
	}
}

func TestStripeAdapter_FirmaInvalida(t *testing.T) {
	a := payment.NewStripeAdapter(stripeSecret)
	body := stripePayload("payment_intent.succeeded", "ORD-1")

	_, err := a.Parse(body, stripeHeader(body, "otro_secreto"))
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))

	_, err = a.Parse(body, http.Header{})
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))

	_, err = payment.NewStripeAdapter("").Parse(body, stripeHeader(body, ""))
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
}

func TestStripeAdapter_EventoNoRelevante(t *testing.T) {
	a := payment.NewStripeAdapter(stripeSecret)
	body := stripePayload("customer.created", "ORD-1")
	ev, err := a.Parse(body, stripeHeader(body, stripeSecret))
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestStripeAdapter_SinReferencia(t *testing.T) {
	a := payment.NewStripeAdapter(stripeSecret)
	body := stripePayload("payment_intent.succeeded", "")
	_, err := a.Parse(body, stripeHeader(body, stripeSecret))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ──────────────────────────────────────────────────────────────────────────────
// Wompi
// ──────────────────────────────────────────────────────────────────────────────

const wompiSecret = "test_events_secret"

func wompiPayload(t *testing.T, status, secret string) []byte {
	t.Helper()
	return wompiPayloadFirmado(t, status, secret, []string{"transaction.id", "transaction.status", "transaction.amount_in_cents"})
}

func wompiPayloadFirmado(t *testing.T, status, secret string, props []string) []byte {
	t.Helper()
	data := json.RawMessage(fmt.Sprintf(`{"transaction":{"id":"1234-1610641025-49201","amount_in_cents":4490000,"reference":"ORD-20250101-0000AAAA","currency":"COP","payment_method_type":"PSE","status":%q,"status_message":"rechazada por el banco"}}`, status))
	ts := int64(1530291411)
	checksum, err := payment.WompiChecksum(data, props, ts, secret)
	require.NoError(t, err)

	body := map[string]any{
		"event":       "transaction.updated",
		"data":        data,
		"environment": "test",
		"signature":   map[string]any{"properties": props, "checksum": checksum},
		"timestamp":   ts,
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

func TestWompiChecksum_ValorConocido(t *testing.T) {
	data := json.RawMessage(`{"transaction":{"id":"tx-1","status":"APPROVED","amount_in_cents":100}}`)
	got, err := payment.WompiChecksum(data, []string{"transaction.id", "transaction.status", "transaction.amount_in_cents"}, 42, "s3cr3t")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("tx-1APPROVED10042s3cr3t"))
	assert.Equal(t, hex.EncodeToString(sum[:]), strings.ToLower(got))
}

func TestWompiAdapter_Estados(t *testing.T) {
	a := payment.NewWompiAdapter(wompiSecret)
	cases := map[string]domainpayment.Outcome{
		"APPROVED": domainpayment.OutcomeApproved,
		"DECLINED": domainpayment.OutcomeDeclined,
		"ERROR":    domainpayment.OutcomeDeclined,
		"VOIDED":   domainpayment.OutcomeVoided,
		"PENDING":  domainpayment.OutcomePending,
	}
	for status, want := range cases {
		t.Run(status, func(t *testing.T) {
			ev, err := a.Parse(wompiPayload(t, status, wompiSecret), http.Header{})
			require.NoError(t, err)
			require.NotNil(t, ev)
			assert.Equal(t, want, ev.Outcome)
			assert.Equal(t, "ORD-20250101-0000AAAA", ev.Reference)
			assert.Equal(t, "1234-1610641025-49201:"+status, ev.EventID)
			assert.Equal(t, "1234-1610641025-49201", ev.PaymentID)
			assert.True(t, ev.Amount.Equal(decimal.NewFromInt(44900)))
		})
	}
}

func TestWompiAdapter_FirmaInvalida(t *testing.T) {
	a := payment.NewWompiAdapter(wompiSecret)

	_, err := a.Parse(wompiPayload(t, "APPROVED", "secreto_falso"), http.Header{})
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))

	_, err = a.Parse([]byte(`{"event":"transaction.updated","data":{}}`), http.Header{})
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))

	_, err = a.Parse([]byte(`no json`), http.Header{})
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
}

func TestWompiAdapter_FirmaSinCamposObligatorios(t *testing.T) {
	a := payment.NewWompiAdapter(wompiSecret)

	// Checksum correcto, pero el monto queda fuera de la firma.
	raw := wompiPayloadFirmado(t, "APPROVED", wompiSecret, []string{"transaction.id", "transaction.status"})
	_, err := a.Parse(raw, http.Header{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
	assert.Contains(t, err.Error(), "transaction.amount_in_cents")

	raw = wompiPayloadFirmado(t, "APPROVED", wompiSecret, []string{"transaction.id", "transaction.amount_in_cents"})
	_, err = a.Parse(raw, http.Header{})
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))

	raw = wompiPayloadFirmado(t, "APPROVED", wompiSecret, []string{"transaction.amount_in_cents", "transaction.status", "transaction.id", "transaction.reference"})
	ev, err := a.Parse(raw, http.Header{})
	require.NoError(t, err, "campos adicionales y en otro orden siguen siendo válidos")
	assert.Equal(t, domainpayment.OutcomeApproved, ev.Outcome)
}

package http

import (
	"errors"
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/payments"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/payment"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// actionRejected se responde cuando el evento es válido pero no aplicable (p. ej. pedido inexistente).
const actionRejected = "rejected"

// WebhookHandler recibe las notificaciones de las pasarelas. Rutas públicas: la autenticidad
// la da la firma de cada proveedor.
type WebhookHandler struct {
	uc  *payments.UseCase
	log *logger.Logger
}

func NewWebhookHandler(uc *payments.UseCase, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{uc: uc, log: log}
}

func requestHeader(c *fiber.Ctx) nethttp.Header {
	h := make(nethttp.Header)
	c.Request().Header.VisitAll(func(key, value []byte) {
		h.Add(string(key), string(value))
	})
	return h
}

func (h *WebhookHandler) handle(c *fiber.Ctx, provider string) (*payments.Result, error) {
	// Body() es del buffer de fasthttp y solo vale durante el handler.
	payload := append([]byte(nil), c.Body()...)
	return h.uc.HandleWebhook(c.UserContext(), provider, payload, requestHeader(c))
}

// Stripe godoc
// @Summary      Webhook de Stripe (PaymentIntent)
// @Description  401 si la firma no es válida; 500 ante fallas de almacenamiento para que Stripe reintente.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header    string  true  "firma del evento"
// @Success      200               {object}  dto.WebhookResponse
// @Failure      401               {object}  dto.ErrorResponse
// @Failure      500               {object}  dto.ErrorResponse
// @Router       /api/webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	res, err := h.handle(c, payment.ProviderStripe)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			return respondError(c, h.log, err)
		}
		if _, _, ok := classify(err); ok {
			h.log.Warn().Err(err).Str("provider", payment.ProviderStripe).Msg("evento de pago descartado")
			return c.JSON(dto.WebhookResponse{Received: true, Action: actionRejected})
		}
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.WebhookResponse{Received: true, Duplicate: res.Duplicate, Action: res.Action})
}

// Wompi godoc
// @Summary      Webhook de Wompi (transaction.updated)
// @Description  401 si el checksum no es válido; 200 en cualquier otro caso (los errores se registran).
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  dto.WebhookResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/webhooks/wompi [post]
func (h *WebhookHandler) Wompi(c *fiber.Ctx) error {
	res, err := h.handle(c, payment.ProviderWompi)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			return respondError(c, h.log, err)
		}
		// Wompi no reintenta de forma útil: se confirma la recepción y el error queda en el log.
		h.log.Error().Err(err).Str("provider", payment.ProviderWompi).Msg("evento de pago no procesado")
		return c.JSON(dto.WebhookResponse{Received: true, Action: actionRejected})
	}
	return c.JSON(dto.WebhookResponse{Received: true, Duplicate: res.Duplicate, Action: res.Action})
}

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Orden de evaluación: el primer sentinel que coincide gana.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidSignature, fiber.StatusUnauthorized, "INVALID_SIGNATURE"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrNotCancellable, fiber.StatusConflict, "NOT_CANCELLABLE"},
	{domain.ErrOrderFinalized, fiber.StatusConflict, "ORDER_FINALIZED"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrCancellationWindowExpired, fiber.StatusUnprocessableEntity, "CANCELLATION_WINDOW_EXPIRED"},
}

// classify devuelve status y código HTTP del error; ok=false para errores no de dominio.
func classify(err error) (status int, code string, ok bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code, true
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL", false
}

// respondError traduce errores de dominio a respuestas HTTP. Los demás se registran y
// se responden como 500 con mensaje genérico.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, code, ok := classify(err)
	if !ok {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("user_id", GetUserID(c)).
			Msg("error interno atendiendo petición")
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

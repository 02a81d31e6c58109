package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/orders"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// OrderHandler checkout, consulta y cancelación de pedidos, más la gestión administrativa.
type OrderHandler struct {
	uc  *orders.UseCase
	log *logger.Logger
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *orders.UseCase, log *logger.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, log: log}
}

func (h *OrderHandler) response(o *entity.Order) dto.OrderResponse {
	return dto.FromOrder(o, h.uc.IsCancellable(o))
}

// Create godoc
// @Summary      Crear pedido (checkout)
// @Description  Valora con precios de catálogo y descuenta stock en una sola transacción. Acepta invitados.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateOrderRequest  true  "cliente, líneas y método de pago"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if handled, err := bindJSON(c, &in); handled {
		return err
	}
	items := make([]orders.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, orders.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	o, err := h.uc.CreateOrder(c.UserContext(), orders.CreateOrderInput{
		Customer: entity.CustomerInfo{
			UserID:  GetUserID(c),
			Name:    in.Customer.Name,
			Email:   in.Customer.Email,
			Phone:   in.Customer.Phone,
			Address: in.Customer.Address,
		},
		Items:         items,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		Discount:      in.Discount,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.response(o))
}

// Get godoc
// @Summary      Consultar pedido
// @Description  Clientes solo ven sus pedidos; los pedidos de invitado se consultan sin token.
// @Tags         orders
// @Produce      json
// @Param        number  path      string  true  "número de pedido"
// @Success      200     {object}  dto.OrderResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/orders/{number} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	requester := GetUserID(c)
	if isAdmin(c) {
		requester = ""
	}
	o, err := h.uc.GetOrder(c.UserContext(), c.Params("number"), requester)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if GetRole(c) == "" && o.Customer.UserID != "" {
		return respondError(c, h.log, domain.ErrForbidden)
	}
	return c.JSON(h.response(o))
}

// Cancel godoc
// @Summary      Cancelar pedido
// @Description  Dentro de las 24h siguientes a la creación y antes del envío. Repone el stock.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        number  path      string                  true   "número de pedido"
// @Param        body    body      dto.CancelOrderRequest  false  "motivo"
// @Success      200     {object}  dto.OrderResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Failure      422     {object}  dto.ErrorResponse
// @Router       /api/orders/{number}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelOrderRequest
	if len(c.Body()) > 0 {
		if handled, err := bindJSON(c, &in); handled {
			return err
		}
	}
	requester := GetUserID(c)
	if isAdmin(c) {
		requester = ""
	}
	o, err := h.uc.Cancel(c.UserContext(), c.Params("number"), in.Reason, requester)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(h.response(o))
}

// List godoc
// @Summary      Listar pedidos (admin)
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        status  query     string  false  "filtrar por estado"
// @Param        limit   query     int     false  "tamaño de página"
// @Param        offset  query     int     false  "desplazamiento"
// @Success      200     {object}  map[string]interface{}
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/admin/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	page, handled, err := bindPage(c)
	if handled {
		return err
	}
	list, err := h.uc.ListOrders(c.UserContext(), repository.OrderFilter{
		Status: c.Query("status"),
		UserID: c.Query("user_id"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, h.response(o))
	}
	return c.JSON(fiber.Map{
		"orders": out,
		"page":   dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Count: len(out)},
	})
}

// UpdateStatus godoc
// @Summary      Cambiar estado de pedido (admin)
// @Description  Pedidos entregados o cancelados no cambian. Para cancelar use /cancel.
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        number  path      string                        true  "número de pedido"
// @Param        body    body      dto.UpdateOrderStatusRequest  true  "nuevo estado"
// @Success      200     {object}  dto.OrderResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/admin/orders/{number}/status [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateOrderStatusRequest
	if handled, err := bindJSON(c, &in); handled {
		return err
	}
	o, err := h.uc.UpdateStatus(c.UserContext(), c.Params("number"), in.Status, in.PaymentID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(h.response(o))
}

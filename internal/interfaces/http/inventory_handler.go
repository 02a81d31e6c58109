package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP del libro de inventario (protegido).
type InventoryHandler struct {
	uc  *inventory.LedgerUseCase
	log *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.LedgerUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, log: log}
}

// GetStock godoc
// @Summary      Existencias de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path      string  true  "ID del producto"
// @Success      200        {object}  dto.StockResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{productId} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	s, err := h.uc.GetStock(c.UserContext(), c.Params("productId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromStock(s))
}

// CreateStock godoc
// @Summary      Alta del registro de existencias
// @Description  El stock inicial queda registrado como ajuste en el libro.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateStockRequest  true  "producto, stock inicial y umbrales"
// @Success      201   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [post]
func (h *InventoryHandler) CreateStock(c *fiber.Ctx) error {
	var in dto.CreateStockRequest
	if handled, err := bindJSON(c, &in); handled {
		return err
	}
	s, err := h.uc.CreateStockRecord(c.UserContext(), inventory.CreateStockInput{
		ProductID:    in.ProductID,
		InitialStock: in.InitialStock,
		MinStock:     in.MinStock,
		MaxStock:     in.MaxStock,
		UnitCost:     in.UnitCost,
		Actor:        GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromStock(s))
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RegisterMovementRequest  true  "product_id, type, quantity, reason, unit_cost (entradas)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if handled, err := bindJSON(c, &in); handled {
		return err
	}
	res, err := h.uc.RegisterMovementFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(res.Movement))
}

// ListMovements godoc
// @Summary      Movimientos de un producto (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path      string  true   "ID del producto"
// @Param        limit      query     int     false  "tamaño de página"
// @Param        offset     query     int     false  "desplazamiento"
// @Success      200        {array}   dto.MovementResponse
// @Router       /api/inventory/movements/{productId} [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	page, handled, err := bindPage(c)
	if handled {
		return err
	}
	list, err := h.uc.ListMovements(c.UserContext(), c.Params("productId"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromMovements(list))
}

// VerifyLedger godoc
// @Summary      Verificar el libro de un producto
// @Description  Reproduce la cadena de movimientos y la compara con el stock registrado.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path      string  true  "ID del producto"
// @Success      200        {object}  dto.LedgerReportResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Router       /api/inventory/ledger/{productId}/verify [get]
func (h *InventoryHandler) VerifyLedger(c *fiber.Ctx) error {
	rep, err := h.uc.VerifyLedger(c.UserContext(), c.Params("productId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.LedgerReportResponse{
		ProductID:     rep.ProductID,
		CurrentStock:  rep.CurrentStock,
		ReplayedStock: rep.ReplayedStock,
		Movements:     rep.Movements,
		Consistent:    rep.Consistent,
		Detail:        rep.Detail,
	})
}

// ListLowStock godoc
// @Summary      Productos en o por debajo del stock mínimo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *fiber.Ctx) error {
	page, handled, err := bindPage(c)
	if handled {
		return err
	}
	list, err := h.uc.ListLowStock(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.FromStock(s))
	}
	return c.JSON(fiber.Map{
		"total": len(out),
		"items": out,
	})
}

package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/application/orders"
	"github.com/jhoicas/Tienda-api/internal/application/payments"
	"github.com/jhoicas/Tienda-api/internal/application/sales"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Tienda-api/pkg/jwt"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	OrdersUC    *orders.UseCase
	InventoryUC *inventory.LedgerUseCase
	SalesUC     *sales.UseCase
	PaymentsUC  *payments.UseCase
	Metrics     *metrics.Metrics
	Log         *logger.Logger
	JWTSecret   string
	ServiceName string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(requestMetrics(deps.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})

	api := app.Group("/api")
	auth := AuthMiddleware(deps.JWTSecret)

	// Pedidos: checkout abierto a invitados
	orderHandler := NewOrderHandler(deps.OrdersUC, deps.Log)
	ordersGroup := api.Group("/orders")
	ordersGroup.Post("/", OptionalAuth(deps.JWTSecret), orderHandler.Create)
	ordersGroup.Get("/:number", OptionalAuth(deps.JWTSecret), orderHandler.Get)
	ordersGroup.Post("/:number/cancel", auth, orderHandler.Cancel)

	// Administración de pedidos
	admin := api.Group("/admin", auth, RequireRole(jwt.RoleAdmin))
	admin.Get("/orders", orderHandler.List)
	admin.Patch("/orders/:number/status", orderHandler.UpdateStatus)

	// Inventario
	invHandler := NewInventoryHandler(deps.InventoryUC, deps.Log)
	inv := api.Group("/inventory", auth, RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero))
	inv.Get("/stock/:productId", invHandler.GetStock)
	inv.Post("/stock", invHandler.CreateStock)
	inv.Post("/movements", invHandler.RegisterMovement)
	inv.Get("/movements/:productId", invHandler.ListMovements)
	inv.Get("/ledger/:productId/verify", invHandler.VerifyLedger)
	inv.Get("/low-stock", invHandler.ListLowStock)

	// Ventas manuales
	saleHandler := NewSaleHandler(deps.SalesUC, deps.Log)
	salesGroup := api.Group("/sales", auth, RequireRole(jwt.RoleAdmin, jwt.RoleVendedor))
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.Get)
	salesGroup.Post("/:id/cancel", saleHandler.Cancel)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)

	// Webhooks de pasarelas (públicos, firmados)
	webhookHandler := NewWebhookHandler(deps.PaymentsUC, deps.Log)
	webhooks := api.Group("/webhooks")
	webhooks.Post("/stripe", webhookHandler.Stripe)
	webhooks.Post("/wompi", webhookHandler.Wompi)
}

// requestMetrics cuenta peticiones por método, ruta registrada y status.
func requestMetrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.HTTPRequest(c.Method(), c.Route().Path, strconv.Itoa(status))
		return err
	}
}

package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/order"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// UseCase casos de uso del pedido en línea. Todo cambio de stock ocurre en la misma
// transacción que el cambio de estado del pedido.
type UseCase struct {
	txRunner    TxRunner
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	inventoryUC InventoryUseCase
	pricing     Pricing
	log         *logger.Logger
	now         func() time.Time
}

func NewUseCase(
	txRunner TxRunner,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	inventoryUC InventoryUseCase,
	pricing Pricing,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		inventoryUC: inventoryUC,
		pricing:     pricing,
		log:         log,
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj usado para la ventana de cancelación y las fechas.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// ItemInput línea solicitada por el cliente.
type ItemInput struct {
	ProductID string
	Quantity  int64
}

// CreateOrderInput datos del checkout. Los precios nunca vienen del cliente.
type CreateOrderInput struct {
	Customer      entity.CustomerInfo
	Items         []ItemInput
	PaymentMethod string
	Notes         string
	Discount      decimal.Decimal
}

// CreateOrder valida, valora con precios de catálogo y en una sola transacción descuenta
// el stock de cada línea y persiste el pedido en pending. Si alguna línea no tiene stock
// no queda pedido, ni movimientos, ni descuentos.
func (uc *UseCase) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	if strings.TrimSpace(in.Customer.Name) == "" || strings.TrimSpace(in.Customer.Email) == "" {
		return nil, fmt.Errorf("%w: nombre y email del cliente son obligatorios", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, fmt.Errorf("%w: método de pago obligatorio", domain.ErrInvalidInput)
	}
	lines, err := mergeItems(in.Items)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	o := &entity.Order{
		ID:            uuid.New().String(),
		OrderNumber:   newOrderNumber(now),
		Customer:      in.Customer,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: entity.PaymentStatusPending,
		Status:        entity.OrderStatusPending,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, l := range lines {
		p, err := uc.productRepo.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.Active {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, l.ProductID)
		}
		qty := decimal.NewFromInt(l.Quantity)
		o.Items = append(o.Items, entity.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   p.Price,
			Subtotal:    p.Price.Mul(qty),
		})
	}
	totals, err := uc.pricing.Compute(o.Items, in.Discount)
	if err != nil {
		return nil, err
	}
	o.Subtotal, o.Shipping, o.Tax, o.Discount, o.Total =
		totals.Subtotal, totals.Shipping, totals.Tax, totals.Discount, totals.Total

	actor := in.Customer.UserID
	if actor == "" {
		actor = "checkout"
	}
	err = uc.txRunner.Run(ctx, func(r repository.Repos) error {
		for _, i := range inventory.ByProduct(len(o.Items), func(i int) string { return o.Items[i].ProductID }) {
			it := o.Items[i]
			if _, err := uc.inventoryUC.ApplyMovementInTx(ctx, r, inventory.MovementInput{
				ProductID: it.ProductID,
				Type:      entity.MovementTypeExit,
				Quantity:  it.Quantity,
				Reason:    entity.MovementReasonSale,
				Reference: o.OrderNumber,
				Actor:     actor,
			}, now); err != nil {
				return err
			}
		}
		return r.Orders.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("order_number", o.OrderNumber).
		Str("total", o.Total.String()).
		Int("items", len(o.Items)).
		Msg("pedido creado")
	return o, nil
}

// mergeItems valida cantidades y agrupa líneas repetidas del mismo producto conservando el orden.
func mergeItems(items []ItemInput) ([]ItemInput, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: el pedido no tiene productos", domain.ErrInvalidInput)
	}
	idx := make(map[string]int, len(items))
	out := make([]ItemInput, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: línea de pedido inválida", domain.ErrInvalidInput)
		}
		if i, ok := idx[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out, nil
}

// GetOrder devuelve el pedido. Si requestingUserID no está vacío debe ser el dueño.
func (uc *UseCase) GetOrder(ctx context.Context, orderNumber, requestingUserID string) (*entity.Order, error) {
	o, err := uc.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if requestingUserID != "" && requestingUserID != o.Customer.UserID {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

// ListOrders listado administrativo.
func (uc *UseCase) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*entity.Order, error) {
	if filter.Status != "" && !order.IsValidStatus(filter.Status) {
		return nil, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.orderRepo.List(ctx, filter)
}

// UpdateStatus cambia el estado de un pedido no final y opcionalmente estampa el id de pago.
// cancelled solo se alcanza por Cancel o CancelBySystem porque debe reponer stock.
func (uc *UseCase) UpdateStatus(ctx context.Context, orderNumber, status, paymentID string) (*entity.Order, error) {
	if !order.IsValidStatus(status) || status == entity.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: estado %q no permitido", domain.ErrInvalidInput, status)
	}
	now := uc.now()
	var updated *entity.Order
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		o, err := r.Orders.GetByNumberForUpdate(ctx, orderNumber)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		if order.IsTerminal(o.Status) {
			return fmt.Errorf("%w: pedido %s en estado %s", domain.ErrOrderFinalized, orderNumber, o.Status)
		}
		if o.Status != status {
			ok, err := r.Orders.UpdateStatus(ctx, orderNumber, status, nonTerminal(), now)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrOrderFinalized
			}
		}
		if paymentID != "" {
			if err := r.Orders.StampPayment(ctx, orderNumber, repository.PaymentStamp{PaymentID: paymentID}, now); err != nil {
				return err
			}
		}
		updated, err = r.Orders.GetByNumber(ctx, orderNumber)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_number", orderNumber).Str("status", status).Msg("estado de pedido actualizado")
	return updated, nil
}

func nonTerminal() []string {
	return []string{
		entity.OrderStatusPending, entity.OrderStatusConfirmed,
		entity.OrderStatusProcessing, entity.OrderStatusShipped,
	}
}

// Cancel cancela a petición del cliente (o de un administrador si requestingUserID está vacío).
// Orden de validación: dueño, ventana de 24h, estado. El pedido queda bloqueado durante la
// transacción, así que el estado se evalúa en el momento de escribir.
func (uc *UseCase) Cancel(ctx context.Context, orderNumber, reason, requestingUserID string) (*entity.Order, error) {
	now := uc.now()
	var cancelled *entity.Order
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		o, err := r.Orders.GetByNumberForUpdate(ctx, orderNumber)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		if requestingUserID != "" && requestingUserID != o.Customer.UserID {
			return domain.ErrForbidden
		}
		if err := order.Check(o, now); err != nil {
			return err
		}
		actor := requestingUserID
		if actor == "" {
			actor = "admin"
		}
		cancelled, err = uc.cancelInTx(ctx, r, o, reason, actor, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_number", orderNumber).Str("reason", reason).Msg("pedido cancelado")
	return cancelled, nil
}

// CancelBySystem cancela sin validar dueño ni ventana (ej. pago anulado por la pasarela).
func (uc *UseCase) CancelBySystem(ctx context.Context, orderNumber, reason string) (*entity.Order, error) {
	var cancelled *entity.Order
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var err error
		cancelled, err = uc.CancelBySystemInTx(ctx, r, orderNumber, reason, uc.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// CancelBySystemInTx igual que CancelBySystem dentro de la transacción del caller.
// Mantiene la validación de estado: retorna ErrNotCancellable si ya fue enviado, entregado o cancelado.
func (uc *UseCase) CancelBySystemInTx(ctx context.Context, r repository.Repos, orderNumber, reason string, now time.Time) (*entity.Order, error) {
	o, err := r.Orders.GetByNumberForUpdate(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if err := order.CheckStatus(o); err != nil {
		return nil, err
	}
	return uc.cancelInTx(ctx, r, o, reason, "system", now)
}

func (uc *UseCase) cancelInTx(ctx context.Context, r repository.Repos, o *entity.Order, reason, actor string, now time.Time) (*entity.Order, error) {
	for _, i := range inventory.ByProduct(len(o.Items), func(i int) string { return o.Items[i].ProductID }) {
		it := o.Items[i]
		if _, err := uc.inventoryUC.ApplyMovementInTx(ctx, r, inventory.MovementInput{
			ProductID: it.ProductID,
			Type:      entity.MovementTypeEntry,
			Quantity:  it.Quantity,
			Reason:    entity.MovementReasonReturn,
			Reference: o.OrderNumber,
			Actor:     actor,
		}, now); err != nil {
			return nil, err
		}
	}
	if err := r.Orders.MarkCancelled(ctx, o.OrderNumber, now, reason); err != nil {
		return nil, err
	}
	if err := reverseIncome(ctx, r, o.OrderNumber, actor, now); err != nil {
		return nil, err
	}
	o.Status = entity.OrderStatusCancelled
	o.CancelledAt = &now
	o.CancellationReason = reason
	o.UpdatedAt = now
	return o, nil
}

// reverseIncome publica un egreso por el saldo de ingresos del pedido (si el pago ya se había
// confirmado). Repetirlo no duplica: el saldo queda en cero tras el primer egreso.
func reverseIncome(ctx context.Context, r repository.Repos, orderNumber, actor string, now time.Time) error {
	records, err := r.Finance.ListByReference(ctx, orderNumber)
	if err != nil {
		return err
	}
	net := decimal.Zero
	for _, rec := range records {
		switch rec.Type {
		case entity.FinanceTypeIncome:
			net = net.Add(rec.Amount)
		case entity.FinanceTypeExpense:
			net = net.Sub(rec.Amount)
		}
	}
	if !net.IsPositive() {
		return nil
	}
	return r.Finance.Create(ctx, &entity.FinanceRecord{
		ID:          uuid.New().String(),
		Type:        entity.FinanceTypeExpense,
		Description: "Anulación pedido " + orderNumber,
		Amount:      net,
		Category:    entity.FinanceCategoryOnlineSales,
		Source:      entity.FinanceSourceOnlineOrder,
		Reference:   orderNumber,
		CreatedBy:   actor,
		CreatedAt:   now,
	})
}

// IsCancellable atajo para las respuestas HTTP.
func (uc *UseCase) IsCancellable(o *entity.Order) bool {
	return order.IsEligible(o, uc.now())
}

package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

const (
	financeCategorySales = "ventas"
	financeSourceManual  = "manual_sale"
)

// UseCase ventas manuales del punto de venta.
type UseCase struct {
	txRunner    TxRunner
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	inventoryUC InventoryUseCase
	generator   ReceiptGenerator
	log         *logger.Logger
	now         func() time.Time
}

func NewUseCase(
	txRunner TxRunner,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	inventoryUC InventoryUseCase,
	generator ReceiptGenerator,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		saleRepo:    saleRepo,
		productRepo: productRepo,
		inventoryUC: inventoryUC,
		generator:   generator,
		log:         log,
		now:         time.Now,
	}
}

func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// ItemInput línea de venta. UnitPrice nil toma el precio de catálogo.
// AllowBackorder permite vender sin existencias: la línea queda marcada y no mueve inventario.
type ItemInput struct {
	ProductID      string
	Quantity       int64
	UnitPrice      *decimal.Decimal
	AllowBackorder bool
}

// RecordSaleInput datos de la venta manual. Total nil usa el subtotal calculado.
type RecordSaleInput struct {
	Customer      entity.CustomerInfo
	Items         []ItemInput
	PaymentMethod string
	Total         *decimal.Decimal
	Actor         string
}

// RecordSale registra la venta, descuenta inventario y publica el ingreso, todo en una transacción.
// Falta de stock en una línea sin AllowBackorder rechaza la venta completa.
func (uc *UseCase) RecordSale(ctx context.Context, in RecordSaleInput) (*entity.Sale, error) {
	if err := validateSale(in); err != nil {
		return nil, err
	}
	now := uc.now()
	s := &entity.Sale{
		ID:            uuid.New().String(),
		SaleNumber:    newSaleNumber(now),
		Customer:      in.Customer,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: entity.SaleStatusCompleted,
		Status:        entity.SaleStatusCompleted,
		CreatedBy:     in.Actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	subtotal := decimal.Zero
	for _, it := range in.Items {
		p, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, it.ProductID)
		}
		price := p.Price
		if it.UnitPrice != nil && !it.UnitPrice.IsZero() {
			price = *it.UnitPrice
		}
		line := price.Mul(decimal.NewFromInt(it.Quantity))
		subtotal = subtotal.Add(line)
		s.Items = append(s.Items, entity.SaleItem{
			ID:          uuid.New().String(),
			SaleID:      s.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitPrice:   price,
			Subtotal:    line,
		})
	}
	s.Subtotal = subtotal
	s.Total = subtotal
	if in.Total != nil {
		s.Total = *in.Total
	}

	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		for _, i := range inventory.ByProduct(len(s.Items), func(i int) string { return s.Items[i].ProductID }) {
			item := &s.Items[i]
			_, err := uc.inventoryUC.ApplyMovementInTx(ctx, r, inventory.MovementInput{
				ProductID: item.ProductID,
				Type:      entity.MovementTypeExit,
				Quantity:  item.Quantity,
				Reason:    entity.MovementReasonSale,
				Reference: s.SaleNumber,
				Actor:     in.Actor,
			}, now)
			if errors.Is(err, domain.ErrInsufficientStock) && in.Items[i].AllowBackorder {
				item.Backordered = true
				uc.log.Warn().
					Str("sale_number", s.SaleNumber).
					Str("product_id", item.ProductID).
					Int64("cantidad", item.Quantity).
					Msg("línea vendida sin existencias (backorder)")
				continue
			}
			if err != nil {
				return err
			}
		}
		if err := r.Sales.Create(ctx, s); err != nil {
			return err
		}
		return r.Finance.Create(ctx, &entity.FinanceRecord{
			ID:          uuid.New().String(),
			Type:        entity.FinanceTypeIncome,
			Description: "Venta " + s.SaleNumber,
			Amount:      s.Total,
			Category:    financeCategorySales,
			Source:      financeSourceManual,
			Reference:   s.SaleNumber,
			CreatedBy:   in.Actor,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("sale_number", s.SaleNumber).Str("total", s.Total.String()).Msg("venta registrada")
	return s, nil
}

func validateSale(in RecordSaleInput) error {
	if strings.TrimSpace(in.Customer.Name) == "" || strings.TrimSpace(in.PaymentMethod) == "" {
		return fmt.Errorf("%w: cliente y método de pago son obligatorios", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: la venta no tiene productos", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return fmt.Errorf("%w: línea de venta inválida", domain.ErrInvalidInput)
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: precio unitario negativo", domain.ErrInvalidInput)
		}
		if seen[it.ProductID] {
			return fmt.Errorf("%w: producto %s repetido", domain.ErrInvalidInput, it.ProductID)
		}
		seen[it.ProductID] = true
	}
	if in.Total != nil && !in.Total.IsPositive() {
		return fmt.Errorf("%w: el total debe ser mayor a cero", domain.ErrInvalidInput)
	}
	return nil
}

// CancelSale anula la venta: repone las líneas que movieron inventario y revierte el ingreso.
// No aplica ventana de tiempo.
func (uc *UseCase) CancelSale(ctx context.Context, saleID, actor string) (*entity.Sale, error) {
	now := uc.now()
	var cancelled *entity.Sale
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		s, err := r.Sales.GetByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		if s.Status == entity.SaleStatusCancelled {
			return fmt.Errorf("%w: la venta %s ya está anulada", domain.ErrNotCancellable, s.SaleNumber)
		}
		for _, i := range inventory.ByProduct(len(s.Items), func(i int) string { return s.Items[i].ProductID }) {
			it := s.Items[i]
			if it.Backordered {
				continue
			}
			if _, err := uc.inventoryUC.ApplyMovementInTx(ctx, r, inventory.MovementInput{
				ProductID: it.ProductID,
				Type:      entity.MovementTypeEntry,
				Quantity:  it.Quantity,
				Reason:    entity.MovementReasonRestock,
				Reference: s.SaleNumber,
				Actor:     actor,
			}, now); err != nil {
				return err
			}
		}
		if err := r.Sales.MarkCancelled(ctx, s.ID, now); err != nil {
			return err
		}
		if err := r.Finance.Create(ctx, &entity.FinanceRecord{
			ID:          uuid.New().String(),
			Type:        entity.FinanceTypeExpense,
			Description: "Anulación venta " + s.SaleNumber,
			Amount:      s.Total,
			Category:    financeCategorySales,
			Source:      financeSourceManual,
			Reference:   s.SaleNumber,
			CreatedBy:   actor,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		s.Status = entity.SaleStatusCancelled
		s.CancelledAt = &now
		s.UpdatedAt = now
		cancelled = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("sale_number", cancelled.SaleNumber).Str("actor", actor).Msg("venta anulada")
	return cancelled, nil
}

func (uc *UseCase) GetSale(ctx context.Context, saleID string) (*entity.Sale, error) {
	s, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (uc *UseCase) ListSales(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.saleRepo.List(ctx, limit, offset)
}

// Receipt genera el comprobante PDF de la venta.
// Retorna (pdfBytes, filename, nil) o domain.ErrNotFound si la venta no existe.
func (uc *UseCase) Receipt(ctx context.Context, saleID string) ([]byte, string, error) {
	s, err := uc.GetSale(ctx, saleID)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := uc.generator.GenerateSaleReceipt(ctx, s)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("comprobante_%s.pdf", s.SaleNumber), nil
}

// newSaleNumber formato VTA-YYYYMMDD-XXXXXXXX.
func newSaleNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("VTA-%s-%s", now.Format("20060102"), suffix)
}

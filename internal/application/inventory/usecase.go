package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Tienda-api/internal/domain/inventory"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// LedgerUseCase es el libro de inventario: único camino para modificar existencias.
// Cada movimiento escribe una fila en inventory_movements y actualiza product_stock en la misma transacción.
type LedgerUseCase struct {
	txRunner  TxRunner
	stockRepo repository.StockRepository
	movRepo   repository.InventoryMovementRepository
	log       *logger.Logger
	metrics   Recorder
	now       func() time.Time
}

// NewLedgerUseCase construye el caso de uso. metrics puede ser nil.
func NewLedgerUseCase(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	movRepo repository.InventoryMovementRepository,
	log *logger.Logger,
	metrics Recorder,
) *LedgerUseCase {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &LedgerUseCase{
		txRunner:  txRunner,
		stockRepo: stockRepo,
		movRepo:   movRepo,
		log:       log,
		metrics:   metrics,
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *LedgerUseCase) WithClock(now func() time.Time) *LedgerUseCase {
	uc.now = now
	return uc
}

// MovementInput entrada para aplicar un movimiento.
// Quantity: entry/exit > 0; adjustment >= 0 y representa el nuevo stock absoluto.
// UnitCost es opcional y solo aplica a entradas (recalcula el costo promedio).
type MovementInput struct {
	ProductID string
	Type      string
	Quantity  int64
	Reason    string
	Reference string
	Actor     string
	UnitCost  *decimal.Decimal
}

// MovementResult foto del stock antes y después del movimiento.
type MovementResult struct {
	PreviousStock int64
	NewStock      int64
	Movement      *entity.InventoryMovement
}

// GetStock devuelve el registro de existencias del producto.
func (uc *LedgerUseCase) GetStock(ctx context.Context, productID string) (*entity.ProductStock, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	st, err := uc.stockRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return st, nil
}

// ApplyMovement aplica un movimiento en su propia transacción (Commit si todo ok, Rollback si algo falla).
func (uc *LedgerUseCase) ApplyMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	var res *MovementResult
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var err error
		res, err = uc.ApplyMovementInTx(ctx, r, in, uc.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ApplyMovementInTx ejecuta el movimiento con los repositorios del caller (misma transacción).
// Si retorna error (ej: ErrInsufficientStock) el caller debe hacer rollback.
func (uc *LedgerUseCase) ApplyMovementInTx(ctx context.Context, r repository.Repos, in MovementInput, now time.Time) (*MovementResult, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}

	var prev, next int64
	switch in.Type {
	case entity.MovementTypeExit:
		// Decremento condicional: dos salidas concurrentes sobre la última unidad se serializan en la fila.
		newStock, ok, err := r.Stock.Decrement(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, uc.rejectExit(ctx, r, in)
		}
		prev, next = newStock+in.Quantity, newStock

	case entity.MovementTypeEntry:
		// Bloquea la fila en product_stock (SELECT FOR UPDATE) para recalcular el costo promedio
		st, err := r.Stock.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, fmt.Errorf("%w: stock del producto %s", domain.ErrNotFound, in.ProductID)
		}
		newStock, err := r.Stock.Increment(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return nil, err
		}
		prev, next = newStock-in.Quantity, newStock
		if in.UnitCost != nil {
			cost := domaininv.CostCalculator(prev, st.UnitCost, in.Quantity, *in.UnitCost)
			if err := r.Stock.UpdateUnitCost(ctx, in.ProductID, cost); err != nil {
				return nil, err
			}
		}

	case entity.MovementTypeAdjustment:
		st, err := r.Stock.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, fmt.Errorf("%w: stock del producto %s", domain.ErrNotFound, in.ProductID)
		}
		next, err = domaininv.NextStock(in.Type, st.CurrentStock, in.Quantity)
		if err != nil {
			return nil, err
		}
		if err := r.Stock.Set(ctx, in.ProductID, next); err != nil {
			return nil, err
		}
		prev = st.CurrentStock
	}

	mov := &entity.InventoryMovement{
		ProductID:     in.ProductID,
		Type:          in.Type,
		Quantity:      in.Quantity,
		PreviousStock: prev,
		NewStock:      next,
		Reason:        in.Reason,
		Reference:     in.Reference,
		CreatedBy:     in.Actor,
		CreatedAt:     now,
	}
	if err := r.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	uc.metrics.MovementApplied(in.Type, in.Reason)
	return &MovementResult{PreviousStock: prev, NewStock: next, Movement: mov}, nil
}

// rejectExit distingue producto sin registro de stock de stock insuficiente.
func (uc *LedgerUseCase) rejectExit(ctx context.Context, r repository.Repos, in MovementInput) error {
	st, err := r.Stock.Get(ctx, in.ProductID)
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("%w: stock del producto %s", domain.ErrNotFound, in.ProductID)
	}
	uc.metrics.StockRejected(in.ProductID)
	uc.log.Warn().
		Str("product_id", in.ProductID).
		Int64("disponible", st.CurrentStock).
		Int64("solicitado", in.Quantity).
		Str("reference", in.Reference).
		Msg("salida rechazada por stock insuficiente")
	return fmt.Errorf("%w: producto %s (disponible %d, solicitado %d)",
		domain.ErrInsufficientStock, in.ProductID, st.CurrentStock, in.Quantity)
}

func validateMovement(in MovementInput) error {
	if in.ProductID == "" || !isValidReason(in.Reason) {
		return domain.ErrInvalidInput
	}
	switch in.Type {
	case entity.MovementTypeEntry, entity.MovementTypeExit:
		if in.Quantity <= 0 {
			return domain.ErrInvalidInput
		}
	case entity.MovementTypeAdjustment:
		if in.Quantity < 0 {
			return domain.ErrInvalidInput
		}
	default:
		return domain.ErrInvalidInput
	}
	if in.UnitCost != nil && (in.Type != entity.MovementTypeEntry || in.UnitCost.IsNegative()) {
		return domain.ErrInvalidInput
	}
	return nil
}

func isValidReason(reason string) bool {
	switch reason {
	case entity.MovementReasonSale, entity.MovementReasonReturn,
		entity.MovementReasonRestock, entity.MovementReasonCorrection:
		return true
	}
	return false
}

// CreateStockInput alta del registro de existencias de un producto del catálogo.
type CreateStockInput struct {
	ProductID    string
	InitialStock int64
	MinStock     int64
	MaxStock     int64
	UnitCost     decimal.Decimal
	Actor        string
}

// CreateStockRecord crea el registro en cero y registra el stock inicial como un ajuste,
// de modo que el libro reproduzca el stock desde el primer movimiento.
func (uc *LedgerUseCase) CreateStockRecord(ctx context.Context, in CreateStockInput) (*entity.ProductStock, error) {
	if in.ProductID == "" || in.InitialStock < 0 || in.MinStock < 0 || in.MaxStock < 0 || in.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if in.MaxStock > 0 && in.MinStock > in.MaxStock {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	var created *entity.ProductStock
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		product, err := r.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
		}
		created = &entity.ProductStock{
			ProductID: in.ProductID,
			MinStock:  in.MinStock,
			MaxStock:  in.MaxStock,
			UnitCost:  in.UnitCost,
			UpdatedAt: now,
		}
		if err := r.Stock.Create(ctx, created); err != nil {
			return err
		}
		res, err := uc.ApplyMovementInTx(ctx, r, MovementInput{
			ProductID: in.ProductID,
			Type:      entity.MovementTypeAdjustment,
			Quantity:  in.InitialStock,
			Reason:    entity.MovementReasonCorrection,
			Reference: "stock inicial",
			Actor:     in.Actor,
		}, now)
		if err != nil {
			return err
		}
		created.CurrentStock = res.NewStock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListMovements lista los movimientos de un producto, del más reciente al más antiguo.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.movRepo.ListByProduct(ctx, productID, limit, offset)
}

// ListLowStock productos en o por debajo de su stock mínimo.
func (uc *LedgerUseCase) ListLowStock(ctx context.Context, limit, offset int) ([]*entity.ProductStock, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.stockRepo.ListLow(ctx, limit, offset)
}

// LedgerReport resultado de reconstruir el stock a partir del libro.
type LedgerReport struct {
	ProductID     string
	CurrentStock  int64
	ReplayedStock int64
	Movements     int
	Consistent    bool
	Detail        string
}

// VerifyLedger reproduce la cadena de movimientos del producto y la compara con CurrentStock.
// La fila de stock se bloquea durante la lectura para que la cadena y el stock sean de la misma foto.
func (uc *LedgerUseCase) VerifyLedger(ctx context.Context, productID string) (*LedgerReport, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	var report *LedgerReport
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		st, err := r.Stock.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("%w: stock del producto %s", domain.ErrNotFound, productID)
		}
		chain, err := r.Movements.ListChain(ctx, productID)
		if err != nil {
			return err
		}
		report = &LedgerReport{ProductID: productID, CurrentStock: st.CurrentStock, Movements: len(chain)}
		replayed, err := domaininv.Replay(chain)
		report.ReplayedStock = replayed
		switch {
		case errors.Is(err, domaininv.ErrLedgerMismatch):
			report.Detail = err.Error()
		case err != nil:
			return err
		case replayed != st.CurrentStock:
			report.Detail = fmt.Sprintf("el libro reconstruye %d y el stock registrado es %d", replayed, st.CurrentStock)
		default:
			report.Consistent = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !report.Consistent {
		uc.log.Error().Str("product_id", productID).Str("detalle", report.Detail).Msg("libro de inventario inconsistente")
	}
	return report, nil
}

// VerifyAll verifica el libro de todos los productos con registro de stock.
func (uc *LedgerUseCase) VerifyAll(ctx context.Context) ([]*LedgerReport, error) {
	ids, err := uc.stockRepo.ListProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]*LedgerReport, 0, len(ids))
	for _, id := range ids {
		rep, err := uc.VerifyLedger(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("verificar %s: %w", id, err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

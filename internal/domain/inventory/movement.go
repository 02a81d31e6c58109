package inventory

import (
	"errors"
	"fmt"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// ErrLedgerMismatch indica que la cadena de movimientos no reproduce el stock registrado.
var ErrLedgerMismatch = errors.New("el libro de inventario no cuadra con el stock")

// NextStock calcula el stock resultante de aplicar un movimiento sobre current.
// entry suma, exit resta (nunca por debajo de cero) y adjustment fija el valor absoluto.
func NextStock(movementType string, current, quantity int64) (int64, error) {
	switch movementType {
	case entity.MovementTypeEntry:
		if quantity <= 0 {
			return 0, domain.ErrInvalidInput
		}
		return current + quantity, nil
	case entity.MovementTypeExit:
		if quantity <= 0 {
			return 0, domain.ErrInvalidInput
		}
		if current < quantity {
			return 0, domain.ErrInsufficientStock
		}
		return current - quantity, nil
	case entity.MovementTypeAdjustment:
		if quantity < 0 {
			return 0, domain.ErrInvalidInput
		}
		return quantity, nil
	}
	return 0, domain.ErrInvalidInput
}

// Replay recorre los movimientos de un producto ordenados por Seq y devuelve el stock reconstruido.
// Falla con ErrLedgerMismatch si algún eslabón no encadena (PreviousStock distinto al NewStock anterior)
// o si NewStock no corresponde al tipo y cantidad del movimiento.
func Replay(movements []*entity.InventoryMovement) (int64, error) {
	var stock int64
	for i, m := range movements {
		if m.PreviousStock != stock {
			return stock, fmt.Errorf("%w: movimiento %d (seq %d) parte de %d, se esperaba %d",
				ErrLedgerMismatch, i, m.Seq, m.PreviousStock, stock)
		}
		next, err := NextStock(m.Type, m.PreviousStock, m.Quantity)
		if err != nil || next != m.NewStock {
			return stock, fmt.Errorf("%w: movimiento %d (seq %d) %s %d no lleva a %d",
				ErrLedgerMismatch, i, m.Seq, m.Type, m.Quantity, m.NewStock)
		}
		stock = next
	}
	return stock, nil
}

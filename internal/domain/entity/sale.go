package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la venta manual.
const (
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// Sale venta registrada por un administrador en punto de venta. Nace con el pago completado.
type Sale struct {
	ID            string
	SaleNumber    string
	Customer      CustomerInfo
	PaymentMethod string
	PaymentStatus string
	Status        string
	Subtotal      decimal.Decimal
	Total         decimal.Decimal
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CancelledAt   *time.Time
	Items         []SaleItem
}

// SaleItem línea de la venta. Backordered marca una línea vendida sin existencias:
// no generó salida de inventario y tampoco se repone al anular.
type SaleItem struct {
	ID          string
	SaleID      string
	ProductID   string
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	Backordered bool
}

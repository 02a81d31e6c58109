package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStock es el registro de existencias de un producto (una fila por producto vendible).
// CurrentStock nunca es negativo y solo lo modifica el libro de inventario.
type ProductStock struct {
	ProductID    string
	CurrentStock int64
	MinStock     int64 // umbral informativo (alerta de stock bajo)
	MaxStock     int64
	UnitCost     decimal.Decimal
	UpdatedAt    time.Time
}

// IsLow indica si el stock está en o por debajo del mínimo configurado.
func (s *ProductStock) IsLow() bool {
	return s.MinStock > 0 && s.CurrentStock <= s.MinStock
}

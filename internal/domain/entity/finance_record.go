package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de registro financiero.
const (
	FinanceTypeIncome  = "income"
	FinanceTypeExpense = "expense"
)

// Pedidos en línea: el ingreso lo publica la conciliación del pago y el egreso la cancelación.
const (
	FinanceCategoryOnlineSales = "ventas_online"
	FinanceSourceOnlineOrder   = "online_order"
)

// FinanceRecord ingreso o egreso publicado al libro de finanzas.
type FinanceRecord struct {
	ID          string
	Type        string
	Description string
	Amount      decimal.Decimal
	Category    string
	Source      string // manual_sale, online_order
	Reference   string // número de venta o pedido
	CreatedBy   string
	CreatedAt   time.Time
}

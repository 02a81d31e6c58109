package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeEntry      = "entry"      // entrada: suma Quantity
	MovementTypeExit       = "exit"       // salida: resta Quantity
	MovementTypeAdjustment = "adjustment" // ajuste: Quantity es el nuevo stock absoluto
)

// Motivos de movimiento.
const (
	MovementReasonSale       = "sale"
	MovementReasonReturn     = "return"
	MovementReasonRestock    = "restock"
	MovementReasonCorrection = "correction"
)

// InventoryMovement es un registro inmutable del libro de inventario.
// PreviousStock/NewStock son la foto del stock al momento de escribir: encadenados por Seq
// reproducen exactamente el CurrentStock del producto.
type InventoryMovement struct {
	ID            string
	Seq           int64
	ProductID     string
	Type          string
	Quantity      int64
	PreviousStock int64
	NewStock      int64
	Reason        string
	Reference     string // número de pedido o venta, texto libre
	CreatedBy     string
	CreatedAt     time.Time
}

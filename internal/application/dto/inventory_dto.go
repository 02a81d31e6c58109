package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Para "adjustment" quantity es el nuevo stock absoluto.
type RegisterMovementRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Type      string           `json:"type" validate:"required,oneof=entry exit adjustment"`
	Quantity  int64            `json:"quantity" validate:"min=0"`
	Reason    string           `json:"reason" validate:"required,oneof=sale return restock correction"`
	Reference string           `json:"reference,omitempty" validate:"max=120"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// CreateStockRequest body para POST /api/inventory/stock.
type CreateStockRequest struct {
	ProductID    string          `json:"product_id" validate:"required"`
	InitialStock int64           `json:"initial_stock" validate:"min=0"`
	MinStock     int64           `json:"min_stock" validate:"min=0"`
	MaxStock     int64           `json:"max_stock" validate:"min=0"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// StockResponse existencias de un producto.
type StockResponse struct {
	ProductID    string          `json:"product_id"`
	CurrentStock int64           `json:"current_stock"`
	MinStock     int64           `json:"min_stock"`
	MaxStock     int64           `json:"max_stock"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Low          bool            `json:"low"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MovementResponse fila del libro de inventario.
type MovementResponse struct {
	ID            string    `json:"id"`
	Seq           int64     `json:"seq"`
	ProductID     string    `json:"product_id"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	PreviousStock int64     `json:"previous_stock"`
	NewStock      int64     `json:"new_stock"`
	Reason        string    `json:"reason"`
	Reference     string    `json:"reference,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// LedgerReportResponse resultado de GET /api/inventory/ledger/:productId/verify.
type LedgerReportResponse struct {
	ProductID     string `json:"product_id"`
	CurrentStock  int64  `json:"current_stock"`
	ReplayedStock int64  `json:"replayed_stock"`
	Movements     int    `json:"movements"`
	Consistent    bool   `json:"consistent"`
	Detail        string `json:"detail,omitempty"`
}

func FromStock(s *entity.ProductStock) StockResponse {
	return StockResponse{
		ProductID:    s.ProductID,
		CurrentStock: s.CurrentStock,
		MinStock:     s.MinStock,
		MaxStock:     s.MaxStock,
		UnitCost:     s.UnitCost,
		Low:          s.IsLow(),
		UpdatedAt:    s.UpdatedAt,
	}
}

func FromMovement(m *entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		Seq:           m.Seq,
		ProductID:     m.ProductID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reason:        m.Reason,
		Reference:     m.Reference,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

func FromMovements(list []*entity.InventoryMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromMovement(m))
	}
	return out
}

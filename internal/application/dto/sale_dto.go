package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// SaleItemRequest línea de venta manual. unit_price vacío toma el precio de catálogo.
type SaleItemRequest struct {
	ProductID      string           `json:"product_id" validate:"required"`
	Quantity       int64            `json:"quantity" validate:"required,gt=0"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	AllowBackorder bool             `json:"allow_backorder,omitempty"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	CustomerName  string            `json:"customer_name" validate:"required,max=120"`
	CustomerEmail string            `json:"customer_email,omitempty" validate:"omitempty,email"`
	CustomerPhone string            `json:"customer_phone,omitempty" validate:"max=40"`
	PaymentMethod string            `json:"payment_method" validate:"required,max=40"`
	Total         *decimal.Decimal  `json:"total,omitempty"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// SaleItemResponse línea de venta en respuestas.
type SaleItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Backordered bool            `json:"backordered,omitempty"`
}

// SaleResponse venta en respuestas.
type SaleResponse struct {
	ID            string             `json:"id"`
	SaleNumber    string             `json:"sale_number"`
	Status        string             `json:"status"`
	CustomerName  string             `json:"customer_name"`
	PaymentMethod string             `json:"payment_method"`
	PaymentStatus string             `json:"payment_status"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Total         decimal.Decimal    `json:"total"`
	CreatedBy     string             `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
	Items         []SaleItemResponse `json:"items"`
}

func FromSale(s *entity.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, SaleItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
			Backordered: it.Backordered,
		})
	}
	return SaleResponse{
		ID:            s.ID,
		SaleNumber:    s.SaleNumber,
		Status:        s.Status,
		CustomerName:  s.Customer.Name,
		PaymentMethod: s.PaymentMethod,
		PaymentStatus: s.PaymentStatus,
		Subtotal:      s.Subtotal,
		Total:         s.Total,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
		CancelledAt:   s.CancelledAt,
		Items:         items,
	}
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// CustomerRequest datos del cliente en el checkout.
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty" validate:"max=40"`
	Address string `json:"address,omitempty" validate:"max=255"`
}

// OrderItemRequest línea del pedido.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	Customer      CustomerRequest    `json:"customer" validate:"required"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string             `json:"payment_method" validate:"required,max=40"`
	Discount      decimal.Decimal    `json:"discount"`
	Notes         string             `json:"notes,omitempty" validate:"max=500"`
}

// CancelOrderRequest body para POST /api/orders/:number/cancel.
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// UpdateOrderStatusRequest body para PATCH /api/admin/orders/:number/status.
type UpdateOrderStatusRequest struct {
	Status    string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered"`
	PaymentID string `json:"payment_id,omitempty" validate:"max=120"`
}

// OrderItemResponse línea del pedido en respuestas.
type OrderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderResponse pedido en respuestas.
type OrderResponse struct {
	ID                 string              `json:"id"`
	OrderNumber        string              `json:"order_number"`
	Status             string              `json:"status"`
	PaymentStatus      string              `json:"payment_status"`
	PaymentMethod      string              `json:"payment_method"`
	PaymentProvider    string              `json:"payment_provider,omitempty"`
	PaymentID          string              `json:"payment_id,omitempty"`
	CustomerName       string              `json:"customer_name"`
	CustomerEmail      string              `json:"customer_email"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	Shipping           decimal.Decimal     `json:"shipping"`
	Tax                decimal.Decimal     `json:"tax"`
	Discount           decimal.Decimal     `json:"discount"`
	Total              decimal.Decimal     `json:"total"`
	Notes              string              `json:"notes,omitempty"`
	Cancellable        bool                `json:"cancellable"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Items              []OrderItemResponse `json:"items"`
}

// FromOrder convierte la entidad; cancellable se calcula con la hora dada.
func FromOrder(o *entity.Order, cancellable bool) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return OrderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		PaymentMethod:      o.PaymentMethod,
		PaymentProvider:    o.PaymentProvider,
		PaymentID:          o.PaymentID,
		CustomerName:       o.Customer.Name,
		CustomerEmail:      o.Customer.Email,
		Subtotal:           o.Subtotal,
		Shipping:           o.Shipping,
		Tax:                o.Tax,
		Discount:           o.Discount,
		Total:              o.Total,
		Notes:              o.Notes,
		Cancellable:        cancellable,
		CancelledAt:        o.CancelledAt,
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		Items:              items,
	}
}

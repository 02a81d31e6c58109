package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del pedido.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Estados del pago asociados al pedido (vocabulario interno normalizado).
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusDeclined = "declined"
	PaymentStatusVoided   = "voided"
)

// CustomerInfo datos del comprador copiados tal cual en el pedido.
// UserID es la identidad dueña del pedido (vacío para compras como invitado).
type CustomerInfo struct {
	UserID  string
	Name    string
	Email   string
	Phone   string
	Address string
}

// Order pedido de la tienda en línea.
type Order struct {
	ID                 string
	OrderNumber        string
	Customer           CustomerInfo
	PaymentMethod      string
	PaymentID          string
	PaymentProvider    string
	PaymentStatus      string
	Status             string
	Subtotal           decimal.Decimal
	Shipping           decimal.Decimal
	Tax                decimal.Decimal
	Discount           decimal.Decimal
	Total              decimal.Decimal
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancelledAt        *time.Time
	CancellationReason string
	Items              []OrderItem
}

// OrderItem línea del pedido. ProductName y UnitPrice son la foto del catálogo al crear el pedido.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

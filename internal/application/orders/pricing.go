package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// Pricing parámetros de la tienda para calcular totales del pedido.
type Pricing struct {
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal // cero = sin envío gratis
	TaxRate               decimal.Decimal // ej. 0.19
}

// Totals desglose del pedido.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Compute calcula los totales a partir de las líneas ya valoradas con precio de catálogo.
func (p Pricing) Compute(items []entity.OrderItem, discount decimal.Decimal) (Totals, error) {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
	}
	if discount.IsNegative() || discount.GreaterThan(subtotal) {
		return Totals{}, fmt.Errorf("%w: el descuento debe estar entre 0 y el subtotal", domain.ErrInvalidInput)
	}
	shipping := p.ShippingFee
	if p.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate).Round(2)
	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    total,
	}, nil
}

// newOrderNumber formato ORD-YYYYMMDD-XXXXXXXX.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

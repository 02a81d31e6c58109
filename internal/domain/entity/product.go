package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es la vista de catálogo que necesita el núcleo de pedidos: identidad, nombre y precio vigente.
// El catálogo es dueño de la tabla; aquí solo se lee al crear pedidos y ventas.
type Product struct {
	ID        string
	SKU       string
	Name      string
	Price     decimal.Decimal // precio de venta vigente
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

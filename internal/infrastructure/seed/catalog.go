// Package seed carga catálogos iniciales: ficticios (gofakeit) o desde un CSV exportado del ERP.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// ProductWriter destino del catálogo (memory.ProductRepository o postgres.ProductRepo).
type ProductWriter interface {
	Upsert(ctx context.Context, p *entity.Product) error
}

// StockCreator alta de existencias; la implementa inventory.LedgerUseCase.
type StockCreator interface {
	CreateStockRecord(ctx context.Context, in inventory.CreateStockInput) (*entity.ProductStock, error)
}

// Item fila de catálogo con su stock inicial.
type Item struct {
	SKU      string
	Name     string
	Price    decimal.Decimal
	UnitCost decimal.Decimal
	Stock    int64
	MinStock int64
}

// Options parámetros del catálogo ficticio. Seed fijo = mismo catálogo en cada ejecución.
type Options struct {
	Products int
	Seed     uint64
}

// Fake genera n ítems con gofakeit.
func Fake(opts Options) []Item {
	if opts.Products <= 0 {
		opts.Products = 20
	}
	f := gofakeit.New(opts.Seed)
	items := make([]Item, 0, opts.Products)
	for i := 0; i < opts.Products; i++ {
		price := decimal.NewFromInt(int64(f.IntRange(5, 400)) * 1000)
		items = append(items, Item{
			SKU:      fmt.Sprintf("DEMO-%s-%03d", strings.ToUpper(f.LetterN(4)), i+1),
			Name:     f.ProductName(),
			Price:    price,
			UnitCost: price.Mul(decimal.RequireFromString("0.6")).Round(0),
			Stock:    int64(f.IntRange(0, 60)),
			MinStock: int64(f.IntRange(2, 10)),
		})
	}
	return items
}

// Load crea cada producto y su registro de stock (el stock inicial queda en el libro como ajuste).
// Devuelve los IDs creados hasta el primer error.
func Load(ctx context.Context, products ProductWriter, stock StockCreator, items []Item) ([]string, error) {
	now := time.Now().UTC()
	ids := make([]string, 0, len(items))
	for _, it := range items {
		p := &entity.Product{
			ID:        uuid.NewString(),
			SKU:       it.SKU,
			Name:      it.Name,
			Price:     it.Price,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := products.Upsert(ctx, p); err != nil {
			return ids, fmt.Errorf("producto %s: %w", it.SKU, err)
		}
		if _, err := stock.CreateStockRecord(ctx, inventory.CreateStockInput{
			ProductID:    p.ID,
			InitialStock: it.Stock,
			MinStock:     it.MinStock,
			MaxStock:     it.MinStock * 10,
			UnitCost:     it.UnitCost,
			Actor:        "seed",
		}); err != nil {
			return ids, fmt.Errorf("stock %s: %w", it.SKU, err)
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// Catalog genera y carga un catálogo ficticio.
func Catalog(ctx context.Context, products ProductWriter, stock StockCreator, opts Options) ([]string, error) {
	return Load(ctx, products, stock, Fake(opts))
}

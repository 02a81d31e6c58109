// ledger_audit reproduce el libro de movimientos de cada producto y lo compara con el stock actual.
// Sale con código 1 si algún producto no cuadra (apto para cron o CI).
//
// Uso: go run ./cmd/ledger_audit
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Tienda-api/pkg/config"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

var errInconsistent = errors.New("hay productos con el libro inconsistente")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ledger_audit:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "ledger_audit"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	repos := postgres.NewRepos(pool)
	ledger := inventory.NewLedgerUseCase(postgres.NewTxRunner(pool), repos.Stock, repos.Movements, log, nil)

	reports, err := ledger.VerifyAll(ctx)
	if err != nil {
		return fmt.Errorf("auditoría del libro: %w", err)
	}

	mismatches := 0
	for _, r := range reports {
		if r.Consistent {
			continue
		}
		mismatches++
		log.Error().
			Str("product_id", r.ProductID).
			Int64("current_stock", r.CurrentStock).
			Int64("replayed_stock", r.ReplayedStock).
			Int("movements", r.Movements).
			Str("detail", r.Detail).
			Msg("libro inconsistente")
	}
	log.Info().Int("productos", len(reports)).Int("inconsistentes", mismatches).Msg("auditoría terminada")
	if mismatches > 0 {
		return fmt.Errorf("%w: %d", errInconsistent, mismatches)
	}
	return nil
}

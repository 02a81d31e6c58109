// seed carga el catálogo inicial en PostgreSQL: productos y su stock, con el stock inicial
// registrado en el libro de movimientos.
//
// Uso: go run ./cmd/seed [ruta/catalogo.csv]
// Sin archivo genera SEED_PRODUCTS productos ficticios (20 por defecto).
// El CSV usa ';' y se lee como ISO-8859-1 salvo SEED_UTF8=true.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/seed"
	"github.com/jhoicas/Tienda-api/pkg/config"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	items, err := readItems()
	if err != nil {
		return fmt.Errorf("leer catálogo: %w", err)
	}

	if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
		return fmt.Errorf("migraciones: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	repos := postgres.NewRepos(pool)
	ledger := inventory.NewLedgerUseCase(postgres.NewTxRunner(pool), repos.Stock, repos.Movements, log, nil)

	ids, err := seed.Load(ctx, postgres.NewProductRepository(pool), ledger, items)
	if err != nil {
		return fmt.Errorf("carga interrumpida tras %d productos: %w", len(ids), err)
	}
	log.Info().Int("productos", len(ids)).Msg("catálogo cargado")
	return nil
}

func readItems() ([]seed.Item, error) {
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return seed.ReadCSV(f, os.Getenv("SEED_UTF8") != "true")
	}
	n := 20
	if s := os.Getenv("SEED_PRODUCTS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("SEED_PRODUCTS: %w", err)
		}
		n = v
	}
	return seed.Fake(seed.Options{Products: n}), nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/application/orders"
	"github.com/jhoicas/Tienda-api/internal/application/payments"
	"github.com/jhoicas/Tienda-api/internal/application/sales"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/lock"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/memory"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/metrics"
	infrapayment "github.com/jhoicas/Tienda-api/internal/infrastructure/payment"
	infrapdf "github.com/jhoicas/Tienda-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/seed"
	httpRouter "github.com/jhoicas/Tienda-api/internal/interfaces/http"
	"github.com/jhoicas/Tienda-api/pkg/config"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

type txRunner interface {
	Run(ctx context.Context, fn func(repository.Repos) error) error
}

// storage backend elegido por DB_DRIVER.
type storage struct {
	tx       txRunner
	repos    repository.Repos
	products seed.ProductWriter
	close    func()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tienda-api:", err)
		os.Exit(1)
	}
}

// run arma las dependencias y atiende hasta recibir SIGINT/SIGTERM. Los errores se devuelven
// para que los defer (pool, Redis) se ejecuten antes de salir.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("inicializar almacenamiento: %w", err)
	}
	defer st.close()

	m := metrics.New()
	ledgerUC := inventory.NewLedgerUseCase(st.tx, st.repos.Stock, st.repos.Movements, log.Named("inventory"), m)
	ordersUC := orders.NewUseCase(st.tx, st.repos.Orders, st.repos.Products, ledgerUC, orders.Pricing{
		ShippingFee:           cfg.Store.ShippingFee,
		FreeShippingThreshold: cfg.Store.FreeShippingThreshold,
		TaxRate:               cfg.Store.TaxRate,
	}, log.Named("orders"))

	receipts := infrapdf.NewReceiptGenerator(infrapdf.StoreInfo{
		Name:    cfg.Store.Name,
		TaxID:   cfg.Store.TaxID,
		Address: cfg.Store.Address,
		Phone:   cfg.Store.Phone,
	})
	salesUC := sales.NewUseCase(st.tx, st.repos.Sales, st.repos.Products, ledgerUC, receipts, log.Named("sales"))

	// Sin Redis el bloqueo por orden queda en la restricción única de payment_events.
	var locker payments.Locker = lock.NoopLocker{}
	if cfg.Redis.Addr != "" {
		rdb := lock.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("conexión a Redis %s: %w", cfg.Redis.Addr, err)
		}
		locker = lock.NewRedisLocker(rdb, log.Named("lock"))
	}

	paymentsUC := payments.NewUseCase(st.tx, ordersUC, locker, log.Named("payments"), m,
		infrapayment.NewStripeAdapter(cfg.Payments.StripeWebhookSecret),
		infrapayment.NewWompiAdapter(cfg.Payments.WompiEventsSecret),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Tienda API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		OrdersUC:    ordersUC,
		InventoryUC: ledgerUC,
		SalesUC:     salesUC,
		PaymentsUC:  paymentsUC,
		Metrics:     m,
		Log:         log.Named("http"),
		JWTSecret:   cfg.JWT.Secret,
		ServiceName: cfg.App.Name,
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.HTTP.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("servidor HTTP: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("apagado del servidor: %w", err)
	}

	log.Info().Msg("aplicación detenida")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DB.Driver == "memory" {
		store := memory.NewStore()
		repos := store.Repos()
		st := &storage{
			tx:       store,
			repos:    repos,
			products: repos.Products.(*memory.ProductRepository),
			close:    func() {},
		}
		// En memoria no hay datos previos: se carga un catálogo de demostración.
		ledger := inventory.NewLedgerUseCase(store, repos.Stock, repos.Movements, log, nil)
		ids, err := seed.Catalog(ctx, st.products, ledger, seed.Options{Products: 20})
		if err != nil {
			return nil, err
		}
		log.Warn().Int("productos", len(ids)).Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return st, nil
	}

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
			return nil, err
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &storage{
		tx:       postgres.NewTxRunner(pool),
		repos:    postgres.NewRepos(pool),
		products: postgres.NewProductRepository(pool),
		close:    pool.Close,
	}, nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/pos-inventory/internal/application/catalog"
	"github.com/jhoicas/pos-inventory/internal/application/cyclecount"
	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/application/jobs"
	"github.com/jhoicas/pos-inventory/internal/application/transfer"
	"github.com/jhoicas/pos-inventory/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pos-inventory/internal/interfaces/http"
	"github.com/jhoicas/pos-inventory/pkg/config"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	ledgerRepo := postgres.NewLedgerRepository(pool)
	counterRepo := postgres.NewStockCounterRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	countRepo := postgres.NewCycleCountRepository(pool)
	jobRepo := postgres.NewJobRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	branchRepo := postgres.NewBranchRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledgerUC := inventory.NewLedgerUseCase(txRunner, log.Component("ledger"))
	balanceUC := inventory.NewBalanceUseCase(ledgerRepo, counterRepo)
	reconcileUC := inventory.NewReconcileUseCase(txRunner, ledgerUC, counterRepo, log.Component("reconcile"))
	transferUC := transfer.NewUseCase(txRunner, ledgerUC, transferRepo, productRepo, branchRepo, log.Component("transfer"))
	cycleCountUC := cyclecount.NewUseCase(txRunner, ledgerUC, balanceUC, countRepo, branchRepo, counterRepo, log.Component("cyclecount"))
	catalogUC := catalog.NewUseCase(productRepo, branchRepo)
	queue := jobs.NewQueue(jobRepo, cfg.Jobs.BackoffBase, log.Component("jobs"))

	// Worker de tareas asíncronas en la misma instancia. Con
	// JOBS_WORKER_ENABLED=false la instancia solo sirve HTTP (el worker
	// corre en otra).
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.Jobs.WorkerEnabled {
		worker := jobs.NewWorker(queue, jobs.WorkerConfig{
			PollInterval:  cfg.Jobs.PollInterval,
			SweepInterval: cfg.Jobs.SweepInterval,
			OrphanTimeout: cfg.Jobs.OrphanTimeout,
		}, log.Component("worker"))
		jobs.RegisterInventoryHandlers(worker, reconcileUC, balanceUC, log.Component("worker"))
		go worker.Run(workerCtx)
	}

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
		Title:    "POS Inventory API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:     ledgerUC,
		BalanceUC:    balanceUC,
		ReconcileUC:  reconcileUC,
		TransferUC:   transferUC,
		CycleCountUC: cycleCountUC,
		CatalogUC:    catalogUC,
		JobQueue:     queue,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

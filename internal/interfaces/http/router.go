package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-inventory/internal/application/catalog"
	"github.com/jhoicas/pos-inventory/internal/application/cyclecount"
	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/application/jobs"
	"github.com/jhoicas/pos-inventory/internal/application/transfer"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC     *inventory.LedgerUseCase
	BalanceUC    *inventory.BalanceUseCase
	ReconcileUC  *inventory.ReconcileUseCase
	TransferUC   *transfer.UseCase
	CycleCountUC *cyclecount.UseCase
	CatalogUC    *catalog.UseCase
	JobQueue     *jobs.Queue
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Inventario: libro, balances y reconciliación (protegido)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.LedgerUC, deps.BalanceUC, deps.ReconcileUC)
	invGroup.Post("/stock", inventoryHandler.UpdateStock)
	invGroup.Post("/stock/bulk", inventoryHandler.BulkUpdateStock)
	invGroup.Get("/balance/:productId", inventoryHandler.GetBalance)
	invGroup.Get("/history/:productId", inventoryHandler.GetHistory)
	invGroup.Get("/low-stock", inventoryHandler.GetLowStock)
	invGroup.Get("/alerts", inventoryHandler.GetAlerts)
	// La reconciliación emite entradas correctivas: solo admin y bodeguero.
	invGroup.Post("/reconcile/:productId", RequireRole("admin", "bodeguero"), inventoryHandler.ReconcileProduct)
	invGroup.Post("/reconcile", RequireRole("admin", "bodeguero"), inventoryHandler.ReconcileAll)

	// Traslados entre sucursales (protegido)
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Post("/", transferHandler.Request)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Post("/:id/ship", transferHandler.Ship)
	transfers.Post("/:id/receive", transferHandler.Receive)
	transfers.Post("/:id/cancel", transferHandler.Cancel)

	// Conteos físicos (protegido)
	counts := protected.Group("/cycle-counts")
	cycleCountHandler := NewCycleCountHandler(deps.CycleCountUC)
	counts.Post("/", cycleCountHandler.Create)
	counts.Get("/", cycleCountHandler.List)
	counts.Get("/:id", cycleCountHandler.GetByID)
	counts.Post("/:id/preload", cycleCountHandler.Preload)
	counts.Post("/:id/start", cycleCountHandler.Start)
	counts.Put("/:id/items/:itemId", cycleCountHandler.SetItemCount)
	counts.Post("/:id/complete", cycleCountHandler.Complete)
	counts.Post("/:id/cancel", cycleCountHandler.Cancel)

	// Cola de tareas (protegido). /health va antes de /:id para que Fiber
	// no lo capture como parámetro.
	jobsGroup := protected.Group("/jobs")
	jobsHandler := NewJobsHandler(deps.JobQueue)
	jobsGroup.Post("/", jobsHandler.Enqueue)
	jobsGroup.Get("/", jobsHandler.List)
	jobsGroup.Get("/health", jobsHandler.Health)
	jobsGroup.Get("/:id", jobsHandler.GetByID)
	jobsGroup.Post("/:id/retry", jobsHandler.Retry)

	// Catálogo mínimo (protegido)
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	products := protected.Group("/products")
	products.Post("/", catalogHandler.CreateProduct)
	products.Get("/", catalogHandler.ListProducts)
	products.Get("/:id", catalogHandler.GetProduct)
	branches := protected.Group("/branches")
	branches.Post("/", catalogHandler.CreateBranch)
	branches.Get("/", catalogHandler.ListBranches)
}

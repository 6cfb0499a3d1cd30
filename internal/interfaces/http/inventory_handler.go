package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-inventory/internal/application/dto"
	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP del libro de inventario
// (protegido).
type InventoryHandler struct {
	ledgerUC    *inventory.LedgerUseCase
	balanceUC   *inventory.BalanceUseCase
	reconcileUC *inventory.ReconcileUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledgerUC *inventory.LedgerUseCase, balanceUC *inventory.BalanceUseCase, reconcileUC *inventory.ReconcileUseCase) *InventoryHandler {
	return &InventoryHandler{ledgerUC: ledgerUC, balanceUC: balanceUC, reconcileUC: reconcileUC}
}

func toUpdateStockInput(in dto.UpdateStockRequest, userID string) inventory.UpdateStockInput {
	return inventory.UpdateStockInput{
		ProductID:      in.ProductID,
		BranchID:       in.BranchID,
		Type:           entity.MovementType(in.Type),
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		Reason:         in.Reason,
		Reference:      in.Reference,
		IdempotencyKey: in.IdempotencyKey,
		UserID:         userID,
	}
}

// UpdateStock godoc
// @Summary      Registrar movimiento de stock (in/out/adjustment)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateStockRequest  true  "Movimiento"
// @Success      201   {object}  dto.StockMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [post]
func (h *InventoryHandler) UpdateStock(c *fiber.Ctx) error {
	var in dto.UpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.ledgerUC.UpdateStock(c.Context(), toUpdateStockInput(in, GetUserID(c)))
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusCreated
	if res.Deduplicated {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.FromAppendResult(res))
}

// BulkUpdateStock godoc
// @Summary      Registrar un lote de movimientos en una sola transacción
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkUpdateStockRequest  true  "Lote de movimientos"
// @Success      201   {array}   dto.StockMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/bulk [post]
func (h *InventoryHandler) BulkUpdateStock(c *fiber.Ctx) error {
	var in dto.BulkUpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "updates no puede estar vacío"})
	}
	userID := GetUserID(c)
	updates := make([]inventory.UpdateStockInput, 0, len(in.Updates))
	for _, u := range in.Updates {
		updates = append(updates, toUpdateStockInput(u, userID))
	}
	results, err := h.ledgerUC.BulkUpdateStock(c.Context(), updates, in.BatchKey)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.StockMovementResponse, 0, len(results))
	for _, r := range results {
		out = append(out, dto.FromAppendResult(r))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetBalance godoc
// @Summary      Balance de un producto: contador y proyección desde el libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        branch_id  query  string  false  "ID de la sucursal"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/balance/{productId} [get]
func (h *InventoryHandler) GetBalance(c *fiber.Ctx) error {
	productID := c.Params("productId")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "productId es requerido"})
	}
	b, err := h.balanceUC.GetProductBalance(c.Context(), productID, c.Query("branch_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BalanceResponse{
		ProductID: b.ProductID,
		BranchID:  b.BranchID,
		Counter:   b.Counter,
		Projected: b.Projected,
	})
}

// GetHistory godoc
// @Summary      Historial paginado de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        page       query  int     false  "Página (1-based)"  default(1)
// @Param        limit      query  int     false  "Tamaño de página"  default(50)
// @Success      200  {object}  dto.StockHistoryResponse
// @Router       /api/inventory/history/{productId} [get]
func (h *InventoryHandler) GetHistory(c *fiber.Ctx) error {
	productID := c.Params("productId")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "productId es requerido"})
	}
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	hist, err := h.balanceUC.GetStockHistory(c.Context(), productID, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.StockHistoryResponse{
		Entries: make([]dto.LedgerEntryResponse, 0, len(hist.Entries)),
		Total:   hist.Total,
		Page:    hist.Page,
		Limit:   hist.Limit,
	}
	for _, e := range hist.Entries {
		out.Entries = append(out.Entries, dto.FromLedgerEntry(e))
	}
	return c.JSON(out)
}

// GetLowStock godoc
// @Summary      Productos en o bajo su punto de reorden
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockAlertResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	alerts, err := h.balanceUC.GetLowStockProducts(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toAlertResponses(alerts))
}

// GetAlerts godoc
// @Summary      Alertas de stock agotado o negativo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockAlertResponse
// @Router       /api/inventory/alerts [get]
func (h *InventoryHandler) GetAlerts(c *fiber.Ctx) error {
	alerts, err := h.balanceUC.GetStockAlerts(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toAlertResponses(alerts))
}

func toAlertResponses(alerts []*entity.StockAlert) []dto.StockAlertResponse {
	out := make([]dto.StockAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, dto.FromStockAlert(a))
	}
	return out
}

// ReconcileProduct godoc
// @Summary      Reconciliar contadores de un producto contra el libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {array}  dto.ReconcileDiffResponse
// @Router       /api/inventory/reconcile/{productId} [post]
func (h *InventoryHandler) ReconcileProduct(c *fiber.Ctx) error {
	productID := c.Params("productId")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "productId es requerido"})
	}
	diffs, err := h.reconcileUC.ReconcileProduct(c.Context(), productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDiffResponses(diffs))
}

// ReconcileAll godoc
// @Summary      Reconciliar todos los contadores contra el libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReconcileDiffResponse
// @Router       /api/inventory/reconcile [post]
func (h *InventoryHandler) ReconcileAll(c *fiber.Ctx) error {
	diffs, err := h.reconcileUC.ReconcileAll(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDiffResponses(diffs))
}

func toDiffResponses(diffs []*inventory.ReconcileDiff) []dto.ReconcileDiffResponse {
	out := make([]dto.ReconcileDiffResponse, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, dto.FromReconcileDiff(d))
	}
	return out
}

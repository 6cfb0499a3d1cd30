package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-inventory/internal/application/cyclecount"
	"github.com/jhoicas/pos-inventory/internal/application/dto"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// CycleCountHandler maneja las peticiones HTTP de conteos físicos
// (protegido).
type CycleCountHandler struct {
	uc *cyclecount.UseCase
}

// NewCycleCountHandler construye el handler.
func NewCycleCountHandler(uc *cyclecount.UseCase) *CycleCountHandler {
	return &CycleCountHandler{uc: uc}
}

// Create godoc
// @Summary      Crear conteo físico
// @Tags         cycle-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCycleCountRequest  true  "Datos del conteo"
// @Success      201   {object}  dto.CycleCountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/cycle-counts [post]
func (h *CycleCountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCycleCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	cc, err := h.uc.Create(c.Context(), cyclecount.CreateInput{
		BranchID:     in.BranchID,
		Type:         in.Type,
		TolerancePct: in.TolerancePct,
		CreatedBy:    GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromCycleCount(cc))
}

// Preload godoc
// @Summary      Precargar ítems con las cantidades esperadas (snapshot)
// @Tags         cycle-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del conteo"
// @Param        body  body  dto.PreloadCycleCountRequest  true  "Productos a contar (vacío = toda la sucursal)"
// @Success      200   {object}  dto.CycleCountResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cycle-counts/{id}/preload [post]
func (h *CycleCountHandler) Preload(c *fiber.Ctx) error {
	var in dto.PreloadCycleCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	cc, err := h.uc.Preload(c.Context(), c.Params("id"), in.ProductIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCycleCount(cc))
}

// Start godoc
// @Summary      Iniciar conteo (pending → in_progress)
// @Tags         cycle-counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CycleCountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cycle-counts/{id}/start [post]
func (h *CycleCountHandler) Start(c *fiber.Ctx) error {
	cc, err := h.uc.Start(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCycleCount(cc))
}

// SetItemCount godoc
// @Summary      Registrar cantidad contada de un ítem
// @Tags         cycle-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string  true  "ID del conteo"
// @Param        itemId  path  string  true  "ID del ítem"
// @Param        body    body  dto.SetItemCountRequest  true  "Cantidad contada"
// @Success      200     {object}  dto.CycleCountItemResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/cycle-counts/{id}/items/{itemId} [put]
func (h *CycleCountHandler) SetItemCount(c *fiber.Ctx) error {
	var in dto.SetItemCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.uc.SetItemCount(c.Context(), c.Params("id"), c.Params("itemId"), in.CountedQty, GetUserID(c), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.CycleCountItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ExpectedQty: item.ExpectedQty,
		CountedQty:  item.CountedQty,
		Variance:    item.Variance(),
		CountedBy:   item.CountedBy,
		Reason:      item.Reason,
	})
}

// Complete godoc
// @Summary      Completar conteo y aplicar ajustes fuera de tolerancia
// @Tags         cycle-counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CycleCountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cycle-counts/{id}/complete [post]
func (h *CycleCountHandler) Complete(c *fiber.Ctx) error {
	cc, err := h.uc.Complete(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCycleCount(cc))
}

// Cancel godoc
// @Summary      Cancelar conteo
// @Tags         cycle-counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CycleCountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cycle-counts/{id}/cancel [post]
func (h *CycleCountHandler) Cancel(c *fiber.Ctx) error {
	cc, err := h.uc.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCycleCount(cc))
}

// GetByID godoc
// @Summary      Obtener conteo por ID (con ítems)
// @Tags         cycle-counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CycleCountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cycle-counts/{id} [get]
func (h *CycleCountHandler) GetByID(c *fiber.Ctx) error {
	cc, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCycleCount(cc))
}

// List godoc
// @Summary      Listar conteos
// @Tags         cycle-counts
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Filtrar por sucursal"
// @Param        status     query  string  false  "Filtrar por estado"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.CycleCountListResponse
// @Router       /api/cycle-counts [get]
func (h *CycleCountHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválida"})
	}
	page.DefaultPage()
	counts, err := h.uc.List(c.Context(), c.Query("branch_id"), entity.CycleCountStatus(c.Query("status")), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.CycleCountListResponse{
		CycleCounts: make([]dto.CycleCountResponse, 0, len(counts)),
		Page:        dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, cc := range counts {
		out.CycleCounts = append(out.CycleCounts, dto.FromCycleCount(cc))
	}
	return c.JSON(out)
}

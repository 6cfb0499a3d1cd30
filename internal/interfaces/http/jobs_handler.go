package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-inventory/internal/application/dto"
	"github.com/jhoicas/pos-inventory/internal/application/jobs"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// JobsHandler maneja las peticiones HTTP de la cola de tareas (protegido).
type JobsHandler struct {
	queue *jobs.Queue
}

// NewJobsHandler construye el handler.
func NewJobsHandler(queue *jobs.Queue) *JobsHandler {
	return &JobsHandler{queue: queue}
}

// Enqueue godoc
// @Summary      Encolar tarea asíncrona
// @Tags         jobs
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EnqueueJobRequest  true  "Tarea"
// @Success      201   {object}  dto.JobResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/jobs [post]
func (h *JobsHandler) Enqueue(c *fiber.Ctx) error {
	var in dto.EnqueueJobRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	job, err := h.queue.Enqueue(c.Context(), in.Type, in.Payload, jobs.EnqueueOptions{
		ScheduledAt: in.ScheduledAt,
		MaxAttempts: in.MaxAttempts,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromJob(job))
}

// GetByID godoc
// @Summary      Obtener tarea por ID
// @Tags         jobs
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.JobResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/jobs/{id} [get]
func (h *JobsHandler) GetByID(c *fiber.Ctx) error {
	job, err := h.queue.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromJob(job))
}

// List godoc
// @Summary      Listar tareas
// @Tags         jobs
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.JobResponse
// @Router       /api/jobs [get]
func (h *JobsHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválida"})
	}
	page.DefaultPage()
	list, err := h.queue.List(c.Context(), entity.JobStatus(c.Query("status")), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.JobResponse, 0, len(list))
	for _, j := range list {
		out = append(out, dto.FromJob(j))
	}
	return c.JSON(out)
}

// Retry godoc
// @Summary      Reintentar tarea failed (reinicia intentos)
// @Tags         jobs
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.JobResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/jobs/{id}/retry [post]
func (h *JobsHandler) Retry(c *fiber.Ctx) error {
	job, err := h.queue.Retry(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromJob(job))
}

// Health godoc
// @Summary      Salud de la cola: conteos por estado y antigüedad
// @Tags         jobs
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.JobHealthResponse
// @Router       /api/jobs/health [get]
func (h *JobsHandler) Health(c *fiber.Ctx) error {
	health, err := h.queue.Health(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromJobHealth(health))
}

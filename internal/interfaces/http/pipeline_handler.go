package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/application/validation"
)

// defaultStatsPeriodDays ventana por defecto de /stats; period=0 no filtra por fecha.
const defaultStatsPeriodDays = 30

// PipelineHandler maneja el embudo de ventas.
type PipelineHandler struct {
	uc *crm.PipelineUseCase
}

// NewPipelineHandler construye el handler.
func NewPipelineHandler(uc *crm.PipelineUseCase) *PipelineHandler {
	return &PipelineHandler{uc: uc}
}

// List godoc
// @Summary      Listar oportunidades
// @Tags         pipeline
// @Produce      json
// @Security     BearerAuth
// @Param        status        query  string  false  "estado"
// @Param        priority      query  string  false  "ALTA, MEDIA o BAJA"
// @Param        assignedToId  query  string  false  "responsable"
// @Param        clientId      query  string  false  "cliente"
// @Param        search        query  string  false  "datos del cliente o notas"
// @Param        page          query  int     false  "página"
// @Param        limit         query  int     false  "tamaño de página (máx. 100)"
// @Success      200  {object}  dto.PipelineListResponse
// @Router       /api/pipeline [get]
func (h *PipelineHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetUser(c), pipelineListParams(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Kanban godoc
// @Summary      Tablero kanban
// @Description  Siempre devuelve las 12 columnas, aunque estén vacías.
// @Tags         pipeline
// @Produce      json
// @Security     BearerAuth
// @Param        assignedTo  query  string  false  "responsable"
// @Success      200  {object}  dto.KanbanResponse
// @Router       /api/pipeline/kanban [get]
func (h *PipelineHandler) Kanban(c *fiber.Ctx) error {
	p := pipelineListParams(c)
	if p.AssignedToID == "" {
		p.AssignedToID = c.Query("assignedTo")
	}
	out, err := h.uc.Kanban(c.UserContext(), GetUser(c), p)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas del embudo
// @Tags         pipeline
// @Produce      json
// @Security     BearerAuth
// @Param        period      query  int     false  "días hacia atrás (30 por defecto, 0 = todo)"
// @Param        assignedTo  query  string  false  "responsable (solo roles privilegiados)"
// @Success      200  {object}  dto.PipelineStatsResponse
// @Router       /api/pipeline/stats [get]
func (h *PipelineHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext(), GetUser(c), c.QueryInt("period", defaultStatsPeriodDays), c.Query("assignedTo"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Search godoc
// @Summary      Búsqueda rápida de oportunidades
// @Tags         pipeline
// @Produce      json
// @Security     BearerAuth
// @Param        q         query  string  true   "término (mínimo 2 caracteres)"
// @Param        status    query  string  false  "estado"
// @Param        priority  query  string  false  "prioridad"
// @Param        limit     query  int     false  "máximo 20"
// @Success      200  {array}   dto.PipelineItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/pipeline/search [get]
func (h *PipelineHandler) Search(c *fiber.Ctx) error {
	out, err := h.uc.Search(c.UserContext(), GetUser(c), c.Query("q"), c.Query("status"), c.Query("priority"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear oportunidad
// @Tags         pipeline
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreatePipelineItemRequest  true  "datos de la oportunidad"
// @Success      201   {object}  dto.PipelineItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/pipeline [post]
func (h *PipelineHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePipelineItemRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetUser(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// BulkUpdate godoc
// @Summary      Actualización masiva de oportunidades
// @Tags         pipeline
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.PipelineBulkUpdateRequest  true  "itemIds y updates"
// @Success      200   {object}  dto.BulkResult
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/pipeline/bulk-update [post]
func (h *PipelineHandler) BulkUpdate(c *fiber.Ctx) error {
	var in dto.PipelineBulkUpdateRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.BulkUpdate(c.UserContext(), GetUser(c), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener oportunidad con historial
// @Tags         pipeline
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      200  {object}  dto.PipelineItemResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pipeline/{id} [get]
func (h *PipelineHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de una oportunidad
// @Tags         pipeline
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      200  {array}  dto.HistoryResponse
// @Router       /api/pipeline/{id}/history [get]
func (h *PipelineHandler) History(c *fiber.Ctx) error {
	out, err := h.uc.History(c.UserContext(), GetUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar oportunidad
// @Tags         pipeline
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                         true  "ID de la oportunidad"
// @Param        body  body  dto.UpdatePipelineItemRequest  true  "campos a modificar"
// @Success      200   {object}  dto.PipelineItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/pipeline/{id} [put]
func (h *PipelineHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePipelineItemRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), GetUser(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ChangeStatus godoc
// @Summary      Cambiar estado
// @Tags         pipeline
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true  "ID de la oportunidad"
// @Param        body  body  dto.StatusRequest  true  "nuevo estado"
// @Success      200   {object}  dto.PipelineItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/pipeline/{id}/status [patch]
func (h *PipelineHandler) ChangeStatus(c *fiber.Ctx) error {
	var in dto.StatusRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	out, err := h.uc.ChangeStatus(c.UserContext(), GetUser(c), c.Params("id"), in.Status)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Duplicate godoc
// @Summary      Duplicar oportunidad
// @Tags         pipeline
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      201  {object}  dto.PipelineItemResponse
// @Router       /api/pipeline/{id}/duplicate [post]
func (h *PipelineHandler) Duplicate(c *fiber.Ctx) error {
	out, err := h.uc.Duplicate(c.UserContext(), GetUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Delete godoc
// @Summary      Eliminar oportunidad
// @Tags         pipeline
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      200  {object}  dto.MessageResponse
// @Router       /api/pipeline/{id} [delete]
func (h *PipelineHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "oportunidad eliminada exitosamente"})
}

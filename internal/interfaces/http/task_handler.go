package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/application/validation"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
)

// TaskHandler maneja las tareas.
type TaskHandler struct {
	uc *crm.TaskUseCase
}

// NewTaskHandler construye el handler.
func NewTaskHandler(uc *crm.TaskUseCase) *TaskHandler {
	return &TaskHandler{uc: uc}
}

// List godoc
// @Summary      Listar tareas
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status        query  string  false  "PENDING, IN_PROGRESS, COMPLETED o CANCELLED"
// @Param        priority      query  string  false  "ALTA, MEDIA o BAJA"
// @Param        type          query  string  false  "tipo"
// @Param        clientId      query  string  false  "cliente"
// @Param        assignedToId  query  string  false  "responsable"
// @Param        search        query  string  false  "título o descripción"
// @Param        dateFrom      query  string  false  "vencimiento desde (YYYY-MM-DD o RFC3339)"
// @Param        dateTo        query  string  false  "vencimiento hasta"
// @Param        overdue       query  bool    false  "solo vencidas"
// @Success      200  {object}  dto.TaskListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c *fiber.Ctx) error {
	p, err := taskListParams(c)
	if err != nil {
		return err
	}
	out, err := h.uc.List(c.UserContext(), GetUser(c), p)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// MyTasks godoc
// @Summary      Mis tareas
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status    query  string  false  "estado"
// @Param        priority  query  string  false  "prioridad"
// @Param        limit     query  int     false  "máximo"
// @Success      200  {array}  dto.TaskResponse
// @Router       /api/tasks/my-tasks [get]
func (h *TaskHandler) MyTasks(c *fiber.Ctx) error {
	out, err := h.uc.MyTasks(c.UserContext(), GetUser(c), c.Query("status"), c.Query("priority"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas de tareas
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        period  query  int  false  "días hacia atrás (30 por defecto, 0 = todo)"
// @Success      200  {object}  dto.TaskStatsResponse
// @Router       /api/tasks/stats [get]
func (h *TaskHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext(), GetUser(c), c.QueryInt("period", defaultStatsPeriodDays))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Search godoc
// @Summary      Búsqueda rápida de tareas
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        q         query  string  true   "término (mínimo 2 caracteres)"
// @Param        status    query  string  false  "estado"
// @Param        priority  query  string  false  "prioridad"
// @Param        type      query  string  false  "tipo"
// @Param        limit     query  int     false  "máximo 20"
// @Success      200  {array}   dto.TaskResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/tasks/search [get]
func (h *TaskHandler) Search(c *fiber.Ctx) error {
	out, err := h.uc.Search(c.UserContext(), GetUser(c), c.Query("q"), c.Query("status"), c.Query("priority"), c.Query("type"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Overdue godoc
// @Summary      Tareas vencidas
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query  int  false  "máximo"
// @Success      200  {array}  dto.TaskResponse
// @Router       /api/tasks/overdue [get]
func (h *TaskHandler) Overdue(c *fiber.Ctx) error {
	out, err := h.uc.Overdue(c.UserContext(), GetUser(c), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Upcoming godoc
// @Summary      Próximas tareas
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        days   query  int  false  "días hacia adelante (3 por defecto)"
// @Param        limit  query  int  false  "máximo"
// @Success      200  {array}  dto.TaskResponse
// @Router       /api/tasks/upcoming [get]
func (h *TaskHandler) Upcoming(c *fiber.Ctx) error {
	out, err := h.uc.Upcoming(c.UserContext(), GetUser(c), c.QueryInt("days", 0), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear tarea
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateTaskRequest  true  "datos de la tarea"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTaskRequest
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
// @Summary      Actualización masiva de tareas
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.TaskBulkUpdateRequest  true  "taskIds y updates"
// @Success      200   {object}  dto.BulkResult
// @Router       /api/tasks/bulk-update [post]
func (h *TaskHandler) BulkUpdate(c *fiber.Ctx) error {
	var in dto.TaskBulkUpdateRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.BulkUpdate(c.UserContext(), GetUser(c), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// BulkComplete godoc
// @Summary      Completar varias tareas
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.IDsRequest  true  "taskIds"
// @Success      200   {object}  dto.BulkResult
// @Router       /api/tasks/bulk-complete [post]
func (h *TaskHandler) BulkComplete(c *fiber.Ctx) error {
	var in dto.IDsRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.BulkComplete(c.UserContext(), GetUser(c), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// BulkAssign godoc
// @Summary      Reasignar varias tareas
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.TaskBulkAssignRequest  true  "taskIds y assignedToId"
// @Success      200   {object}  dto.BulkResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/tasks/bulk-assign [post]
func (h *TaskHandler) BulkAssign(c *fiber.Ctx) error {
	var in dto.TaskBulkAssignRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.BulkAssign(c.UserContext(), GetUser(c), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// BulkDelete godoc
// @Summary      Eliminar varias tareas
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.IDsRequest  true  "taskIds"
// @Success      200   {object}  dto.BulkResult
// @Router       /api/tasks/bulk-delete [delete]
func (h *TaskHandler) BulkDelete(c *fiber.Ctx) error {
	var in dto.IDsRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.BulkDelete(c.UserContext(), GetUser(c), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener tarea
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.TaskResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar tarea
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "ID de la tarea"
// @Param        body  body  dto.UpdateTaskRequest  true  "campos a modificar"
// @Success      200   {object}  dto.TaskResponse
// @Router       /api/tasks/{id} [put]
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateTaskRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), GetUser(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar tarea
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.MessageResponse
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "tarea eliminada exitosamente"})
}

// ChangeStatus godoc
// @Summary      Cambiar estado de la tarea
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true  "ID de la tarea"
// @Param        body  body  dto.StatusRequest  true  "nuevo estado"
// @Success      200   {object}  dto.TaskResponse
// @Router       /api/tasks/{id}/status [patch]
func (h *TaskHandler) ChangeStatus(c *fiber.Ctx) error {
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

// Complete godoc
// @Summary      Completar tarea
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.TaskResponse
// @Router       /api/tasks/{id}/complete [patch]
func (h *TaskHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Complete)
}

// Start godoc
// @Summary      Iniciar tarea
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.TaskResponse
// @Router       /api/tasks/{id}/start [patch]
func (h *TaskHandler) Start(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Start)
}

// Cancel godoc
// @Summary      Cancelar tarea
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.TaskResponse
// @Router       /api/tasks/{id}/cancel [patch]
func (h *TaskHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Cancel)
}

// SetPriority godoc
// @Summary      Cambiar prioridad
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string               true  "ID de la tarea"
// @Param        body  body  dto.PriorityRequest  true  "prioridad"
// @Success      200   {object}  dto.TaskResponse
// @Router       /api/tasks/{id}/priority [put]
func (h *TaskHandler) SetPriority(c *fiber.Ctx) error {
	var in dto.PriorityRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	out, err := h.uc.SetPriority(c.UserContext(), GetUser(c), c.Params("id"), in.Priority)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Duplicate godoc
// @Summary      Duplicar tarea
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la tarea"
// @Success      201  {object}  dto.TaskResponse
// @Router       /api/tasks/{id}/duplicate [post]
func (h *TaskHandler) Duplicate(c *fiber.Ctx) error {
	out, err := h.uc.Duplicate(c.UserContext(), GetUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// SetReminder godoc
// @Summary      Activar recordatorio
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string               true  "ID de la tarea"
// @Param        body  body  dto.ReminderRequest  true  "reminderTime"
// @Success      200   {object}  dto.TaskResponse
// @Router       /api/tasks/{id}/reminder [post]
func (h *TaskHandler) SetReminder(c *fiber.Ctx) error {
	var in dto.ReminderRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	out, err := h.uc.SetReminder(c.UserContext(), GetUser(c), c.Params("id"), in.ReminderTime)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ClearReminder godoc
// @Summary      Desactivar recordatorio
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.TaskResponse
// @Router       /api/tasks/{id}/reminder [delete]
func (h *TaskHandler) ClearReminder(c *fiber.Ctx) error {
	return h.transition(c, h.uc.ClearReminder)
}

type taskAction func(ctx context.Context, actor *entity.User, id string) (*dto.TaskResponse, error)

func (h *TaskHandler) transition(c *fiber.Ctx, fn taskAction) error {
	out, err := fn(c.UserContext(), GetUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

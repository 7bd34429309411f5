package http

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/application/validation"
)

// TemplateWriter escribe la plantilla xlsx de importación.
type TemplateWriter func(w io.Writer) error

// ClientHandler maneja las peticiones HTTP de clientes.
type ClientHandler struct {
	uc       *crm.ClientUseCase
	imports  *crm.ImportUseCase
	exports  *crm.ExportUseCase
	parser   crm.ContactSheetParser
	template TemplateWriter
}

// NewClientHandler construye el handler.
func NewClientHandler(
	uc *crm.ClientUseCase,
	imports *crm.ImportUseCase,
	exports *crm.ExportUseCase,
	parser crm.ContactSheetParser,
	template TemplateWriter,
) *ClientHandler {
	return &ClientHandler{uc: uc, imports: imports, exports: exports, parser: parser, template: template}
}

// List godoc
// @Summary      Listar clientes
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        page          query  int     false  "página"
// @Param        limit         query  int     false  "tamaño de página (máx. 100)"
// @Param        search        query  string  false  "nombre, apellido, email, teléfono o empresa"
// @Param        source        query  string  false  "origen"
// @Param        estado        query  string  false  "ACTIVO o INACTIVO"
// @Param        etapa         query  string  false  "etapa"
// @Param        tags          query  string  false  "etiquetas separadas por coma"
// @Param        assignedToId  query  string  false  "responsable"
// @Param        sortBy        query  string  false  "campo de orden"
// @Param        sortOrder     query  string  false  "asc o desc"
// @Success      200  {object}  dto.ClientListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/clients [get]
func (h *ClientHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetUser(c), clientListParams(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas de clientes
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        period  query  string  false  "7d, 30d, 90d o 1y"
// @Success      200  {object}  dto.ClientStatsResponse
// @Router       /api/clients/stats [get]
func (h *ClientHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext(), GetUser(c), c.Query("period"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Search godoc
// @Summary      Búsqueda rápida de clientes
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        q      query  string  true   "término (mínimo 2 caracteres)"
// @Param        limit  query  int     false  "máximo 20"
// @Success      200  {array}   dto.ClientResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/clients/search [get]
func (h *ClientHandler) Search(c *fiber.Ctx) error {
	out, err := h.uc.Search(c.UserContext(), GetUser(c), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Export godoc
// @Summary      Exportar clientes
// @Description  Aplica los mismos filtros del listado. xlsx por defecto.
// @Tags         clients
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        format  query  string  false  "xlsx o pdf"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/clients/export [get]
func (h *ClientHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	file, err := h.exports.Export(c.UserContext(), GetUser(c), strings.ToLower(c.Query("format")), clientListParams(c), &buf)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Attachment(file.Filename)
	return c.Send(buf.Bytes())
}

// ImportTemplate godoc
// @Summary      Plantilla de importación
// @Tags         clients
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200
// @Router       /api/clients/import-template [get]
func (h *ClientHandler) ImportTemplate(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.template(&buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment("plantilla_clientes.xlsx")
	return c.Send(buf.Bytes())
}

// Create godoc
// @Summary      Crear cliente
// @Description  Teléfono o email ya registrados devuelven 400 CONFLICT con details.existingClient.
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateClientRequest  true  "datos del cliente"
// @Success      201   {object}  dto.ClientResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.RateLimitResponse
// @Router       /api/clients [post]
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateClientRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetUser(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Import godoc
// @Summary      Importar clientes desde Excel
// @Tags         clients
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "archivo .xlsx"
// @Success      200   {object}  dto.ImportResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.RateLimitResponse
// @Router       /api/clients/import [post]
func (h *ClientHandler) Import(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest("MISSING_FILE", "se requiere el archivo en el campo file")
	}
	if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext != ".xlsx" {
		return badRequest("INVALID_FILE", "solo se aceptan archivos .xlsx")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest("INVALID_FILE", "no se pudo leer el archivo")
	}
	defer f.Close()

	rows, unreadable, err := h.parser.ParseContacts(f)
	if err != nil {
		return badRequest("INVALID_FILE", err.Error())
	}
	return c.JSON(h.imports.Reconcile(c.UserContext(), GetUser(c), rows, unreadable))
}

// ImportContacts godoc
// @Summary      Importar contactos (JSON)
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.ImportContactsRequest  true  "contactos"
// @Success      200   {object}  dto.ImportResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.RateLimitResponse
// @Router       /api/clients/import-contacts [post]
func (h *ClientHandler) ImportContacts(c *fiber.Ctx) error {
	var in dto.ImportContactsRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	return c.JSON(h.imports.Reconcile(c.UserContext(), GetUser(c), crm.ContactsFromDTO(in.Contacts), nil))
}

// CheckDuplicates godoc
// @Summary      Verificar duplicados antes de importar
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CheckDuplicatesRequest  true  "contactos"
// @Success      200   {object}  dto.CheckDuplicatesResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/clients/check-duplicates [post]
func (h *ClientHandler) CheckDuplicates(c *fiber.Ctx) error {
	var in dto.CheckDuplicatesRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	out, err := h.imports.CheckDuplicates(c.UserContext(), GetUser(c), crm.ContactsFromDTO(in.Contacts))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// BulkUpdate godoc
// @Summary      Actualización masiva de clientes
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.ClientBulkUpdateRequest  true  "clientIds y updates"
// @Success      200   {object}  dto.BulkResult
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.RateLimitResponse
// @Router       /api/clients/bulk-update [post]
func (h *ClientHandler) BulkUpdate(c *fiber.Ctx) error {
	var in dto.ClientBulkUpdateRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.BulkUpdate(c.UserContext(), GetUser(c), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// MySummary godoc
// @Summary      Resumen de mis clientes
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.ClientSummaryResponse
// @Router       /api/clients/my/summary [get]
func (h *ClientHandler) MySummary(c *fiber.Ctx) error {
	out, err := h.uc.MySummary(c.UserContext(), GetUser(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Recent godoc
// @Summary      Clientes recientes
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query  int  false  "por defecto 10"
// @Success      200  {array}  dto.ClientResponse
// @Router       /api/clients/my/recent [get]
func (h *ClientHandler) Recent(c *fiber.Ctx) error {
	out, err := h.uc.Recent(c.UserContext(), GetUser(c), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ByUser godoc
// @Summary      Clientes de un usuario
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path  string  true  "ID del usuario"
// @Success      200  {object}  dto.ClientListResponse
// @Failure      403  {object}  dto.RoleErrorResponse
// @Router       /api/clients/user/{userId} [get]
func (h *ClientHandler) ByUser(c *fiber.Ctx) error {
	out, err := h.uc.ByUser(c.UserContext(), GetUser(c), c.Params("userId"), clientListParams(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener cliente
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del cliente"
// @Success      200  {object}  dto.ClientResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/clients/{id} [get]
func (h *ClientHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar cliente
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                   true  "ID del cliente"
// @Param        body  body  dto.UpdateClientRequest  true  "campos a modificar"
// @Success      200   {object}  dto.ClientResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/clients/{id} [put]
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateClientRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), GetUser(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Duplicate godoc
// @Summary      Duplicar cliente
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del cliente"
// @Success      201  {object}  dto.ClientResponse
// @Router       /api/clients/{id}/duplicate [post]
func (h *ClientHandler) Duplicate(c *fiber.Ctx) error {
	out, err := h.uc.Duplicate(c.UserContext(), GetUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Delete godoc
// @Summary      Eliminar cliente
// @Description  Bloqueado con 400 DEPENDENCY si tiene ventas, tareas u oportunidades.
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del cliente"
// @Success      200  {object}  dto.MessageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/clients/{id} [delete]
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "cliente eliminado exitosamente"})
}

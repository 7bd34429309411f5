package dto

import "github.com/jhoicas/CRM-api/internal/domain/query"

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// RoleErrorResponse 403 por rol insuficiente.
type RoleErrorResponse struct {
	Error         string   `json:"error"`
	Code          string   `json:"code"`
	RequiredRoles []string `json:"requiredRoles"`
	UserRole      string   `json:"userRole"`
}

// RateLimitResponse 429 con segundos de espera.
type RateLimitResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retryAfter"`
}

// MessageResponse respuesta genérica con mensaje.
type MessageResponse struct {
	Message string `json:"message"`
}

// Pagination metadatos de página en respuestas.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// NewPagination calcula pages = ceil(total/limit).
func NewPagination(total int64, p query.Page) Pagination {
	return Pagination{
		Total: total,
		Page:  p.Number,
		Limit: p.Limit,
		Pages: query.Pages(total, p.Limit),
	}
}

// ListParams parámetros comunes de listados (query string).
type ListParams struct {
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
	Search    string `query:"search"`
	SortBy    string `query:"sortBy"`
	SortOrder string `query:"sortOrder"`
	// HasSearch el parámetro search vino en la petición (aunque esté vacío).
	HasSearch bool `query:"-"`
}

// CountItem par clave/cantidad para estadísticas.
type CountItem struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Count int64  `json:"count"`
}

// BulkResult resultado de una operación masiva (sin rollback entre filas).
type BulkResult struct {
	Requested int             `json:"requested"`
	Updated   int             `json:"updated"`
	Failed    []BulkRowFailed `json:"failed"`
}

// BulkRowFailed fila que no se pudo aplicar.
type BulkRowFailed struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// IDsRequest lista de tareas para bulk-complete y bulk-delete.
type IDsRequest struct {
	IDs []string `json:"taskIds" validate:"required,min=1,dive,required"`
}

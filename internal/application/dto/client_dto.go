package dto

import "time"

// CreateClientRequest alta de cliente.
type CreateClientRequest struct {
	Nombre       string         `json:"nombre" validate:"required,min=2,max=50"`
	Apellido     string         `json:"apellido" validate:"required,min=2,max=50"`
	Email        string         `json:"email" validate:"omitempty,email,max=100"`
	Telefono     string         `json:"telefono" validate:"required,min=6,max=30"`
	Empresa      string         `json:"empresa" validate:"omitempty,max=100"`
	Cargo        string         `json:"cargo" validate:"omitempty,max=50"`
	Direccion    string         `json:"direccion" validate:"omitempty,max=200"`
	Source       string         `json:"source" validate:"omitempty,oneof=LANDING REFERIDO DERIVADO STAND CONVENIO URNA EMBAJADOR ANUNCIO GOOGLE_CONTACTS OTRO"`
	Estado       string         `json:"estado" validate:"omitempty,oneof=ACTIVO INACTIVO"`
	Etapa        string         `json:"etapa" validate:"omitempty,max=30"`
	Tags         []string       `json:"tags" validate:"omitempty,dive,min=1,max=20"`
	Notas        string         `json:"notas" validate:"omitempty,max=1000"`
	CustomFields map[string]any `json:"customFields"`
	AssignedToID string         `json:"assignedToId"`
	ReferredByID string         `json:"referredById"`
}

// UpdateClientRequest edición parcial de cliente.
type UpdateClientRequest struct {
	Nombre       *string        `json:"nombre" validate:"omitempty,min=2,max=50"`
	Apellido     *string        `json:"apellido" validate:"omitempty,min=2,max=50"`
	Email        *string        `json:"email" validate:"omitempty,email,max=100"`
	Telefono     *string        `json:"telefono" validate:"omitempty,min=6,max=30"`
	Empresa      *string        `json:"empresa" validate:"omitempty,max=100"`
	Cargo        *string        `json:"cargo" validate:"omitempty,max=50"`
	Direccion    *string        `json:"direccion" validate:"omitempty,max=200"`
	Source       *string        `json:"source" validate:"omitempty,oneof=LANDING REFERIDO DERIVADO STAND CONVENIO URNA EMBAJADOR ANUNCIO GOOGLE_CONTACTS OTRO"`
	Estado       *string        `json:"estado" validate:"omitempty,oneof=ACTIVO INACTIVO"`
	Etapa        *string        `json:"etapa" validate:"omitempty,max=30"`
	Tags         []string       `json:"tags" validate:"omitempty,dive,min=1,max=20"`
	Notas        *string        `json:"notas" validate:"omitempty,max=1000"`
	CustomFields map[string]any `json:"customFields"`
	AssignedToID *string        `json:"assignedToId"`
	ReferredByID *string        `json:"referredById"`
}

// ClientResponse salida de un cliente.
type ClientResponse struct {
	ID           string         `json:"id"`
	Nombre       string         `json:"nombre"`
	Apellido     string         `json:"apellido"`
	Email        *string        `json:"email"`
	Telefono     string         `json:"telefono"`
	Empresa      string         `json:"empresa"`
	Cargo        string         `json:"cargo"`
	Direccion    string         `json:"direccion"`
	Source       string         `json:"source"`
	Estado       string         `json:"estado"`
	Etapa        string         `json:"etapa"`
	Tags         []string       `json:"tags"`
	Notas        string         `json:"notas"`
	CustomFields map[string]any `json:"customFields,omitempty"`
	CreatedByID  string         `json:"createdById"`
	AssignedToID string         `json:"assignedToId"`
	ReferredByID *string        `json:"referredById"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ClientListParams filtros de GET /clients.
type ClientListParams struct {
	ListParams
	Source       string `query:"source"`
	Estado       string `query:"estado"`
	Etapa        string `query:"etapa"`
	Tags         string `query:"tags"` // separados por coma, basta con uno
	AssignedToID string `query:"assignedToId"`
}

// ClientListResponse página de clientes.
type ClientListResponse struct {
	Clients    []ClientResponse `json:"clients"`
	Pagination Pagination       `json:"pagination"`
}

// ClientStatsResponse estadísticas de clientes visibles.
type ClientStatsResponse struct {
	Total     int64       `json:"total"`
	Activos   int64       `json:"activos"`
	Inactivos int64       `json:"inactivos"`
	Recientes int64       `json:"recientes"`
	BySource  []CountItem `json:"bySource"`
	ByEtapa   []CountItem `json:"byEtapa"`
	ByEstado  []CountItem `json:"byEstado"`
	ByUser    []CountItem `json:"byUser,omitempty"`
	Period    string      `json:"period,omitempty"`
}

// ClientBulkUpdate campos permitidos en la actualización masiva.
type ClientBulkUpdate struct {
	Source       *string  `json:"source" validate:"omitempty,oneof=LANDING REFERIDO DERIVADO STAND CONVENIO URNA EMBAJADOR ANUNCIO GOOGLE_CONTACTS OTRO"`
	Estado       *string  `json:"estado" validate:"omitempty,oneof=ACTIVO INACTIVO"`
	Etapa        *string  `json:"etapa" validate:"omitempty,max=30"`
	AssignedToID *string  `json:"assignedToId"`
	Tags         []string `json:"tags" validate:"omitempty,dive,min=1,max=20"`
}

// ClientBulkUpdateRequest POST /clients/bulk-update.
type ClientBulkUpdateRequest struct {
	ClientIDs []string         `json:"clientIds" validate:"required,min=1,dive,required"`
	Updates   ClientBulkUpdate `json:"updates"`
}

// ContactRow contacto candidato de una importación (Excel o JSON).
type ContactRow struct {
	Row          int      `json:"row,omitempty"`
	Nombre       string   `json:"nombre"`
	Apellido     string   `json:"apellido"`
	Email        string   `json:"email"`
	Telefono     string   `json:"telefono"`
	Empresa      string   `json:"empresa"`
	Cargo        string   `json:"cargo"`
	Source       string   `json:"source"`
	Estado       string   `json:"estado"`
	Etapa        string   `json:"etapa"`
	Direccion    string   `json:"direccion"`
	Tags         []string `json:"tags"`
	Notas        string   `json:"notas"`
	AssignedToID string   `json:"assignedToId"` // se ignora: la importación siempre asigna al importador
}

// ImportContactsRequest POST /clients/import-contacts.
type ImportContactsRequest struct {
	Contacts []ContactRow `json:"contacts" validate:"required,min=1"`
}

// ImportSummary totales de una importación.
type ImportSummary struct {
	Total      int `json:"total"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// ImportDuplicate fila omitida por coincidir con un cliente existente.
type ImportDuplicate struct {
	Row        int    `json:"row"`
	Nombre     string `json:"nombre"`
	Field      string `json:"field"`
	ExistingID string `json:"existingId"`
	Existing   string `json:"existingName"`
}

// ImportError fila rechazada.
type ImportError struct {
	Row    int    `json:"row"`
	Nombre string `json:"nombre,omitempty"`
	Reason string `json:"reason"`
}

// ImportResponse resultado de la importación: created + duplicates + errors = total.
type ImportResponse struct {
	Summary    ImportSummary     `json:"summary"`
	Created    []ClientResponse  `json:"created"`
	Duplicates []ImportDuplicate `json:"duplicates"`
	Errors     []ImportError     `json:"errors"`
}

// CheckDuplicatesRequest POST /clients/check-duplicates.
type CheckDuplicatesRequest struct {
	Contacts []ContactRow `json:"contacts" validate:"required,min=1"`
}

// CheckDuplicatesResponse resultado del chequeo previo a una importación.
type CheckDuplicatesResponse struct {
	TotalChecked    int               `json:"totalChecked"`
	DuplicatesFound int               `json:"duplicatesFound"`
	Duplicates      []ImportDuplicate `json:"duplicates"`
	CanProceed      bool              `json:"canProceed"`
}

// ClientSummaryResponse GET /clients/my/summary.
type ClientSummaryResponse struct {
	Total     int64            `json:"total"`
	Activos   int64            `json:"activos"`
	Inactivos int64            `json:"inactivos"`
	Recent    []ClientResponse `json:"recent"`
}

package dto

import "time"

// CreatePipelineItemRequest alta de oportunidad. Value acepta string o número.
type CreatePipelineItemRequest struct {
	ClientID     string     `json:"clientId" validate:"required"`
	Products     []string   `json:"products" validate:"required,min=1,dive,min=1,max=100"`
	Value        any        `json:"value"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=ALTA MEDIA BAJA"`
	Status       string     `json:"status" validate:"omitempty,oneof=NUEVO CONTACTADO CITA_AGENDADA SIN_RESPUESTA REPROGRAMAR NO_VENTA IRRELEVANTE NO_QUIERE_SPV NO_QUIERE_DEMO VENTA_AGREGADO VENTA_NUEVA VENTA_CAIDA"`
	LastContact  *time.Time `json:"lastContact" validate:"required"`
	DemoDate     *time.Time `json:"demoDate"`
	DeliveryDate *time.Time `json:"deliveryDate"`
	PaymentPlan  string     `json:"paymentPlan" validate:"omitempty,max=200"`
	Notes        string     `json:"notes" validate:"omitempty,max=1000"`
	Tags         []string   `json:"tags" validate:"omitempty,dive,min=1,max=20"`
	AssignedToID string     `json:"assignedToId"`
}

// UpdatePipelineItemRequest edición parcial; clientId no se puede cambiar.
type UpdatePipelineItemRequest struct {
	ClientID     *string    `json:"clientId"`
	Products     []string   `json:"products" validate:"omitempty,min=1,dive,min=1,max=100"`
	Value        any        `json:"value"`
	Priority     *string    `json:"priority" validate:"omitempty,oneof=ALTA MEDIA BAJA"`
	Status       *string    `json:"status" validate:"omitempty,oneof=NUEVO CONTACTADO CITA_AGENDADA SIN_RESPUESTA REPROGRAMAR NO_VENTA IRRELEVANTE NO_QUIERE_SPV NO_QUIERE_DEMO VENTA_AGREGADO VENTA_NUEVA VENTA_CAIDA"`
	LastContact  *time.Time `json:"lastContact"`
	DemoDate     *time.Time `json:"demoDate"`
	DeliveryDate *time.Time `json:"deliveryDate"`
	PaymentPlan  *string    `json:"paymentPlan" validate:"omitempty,max=200"`
	Notes        *string    `json:"notes" validate:"omitempty,max=1000"`
	Tags         []string   `json:"tags" validate:"omitempty,dive,min=1,max=20"`
	AssignedToID *string    `json:"assignedToId"`
}

// StatusRequest PATCH /pipeline/:id/status y /tasks/:id/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PipelineClientResponse datos del cliente embebidos.
type PipelineClientResponse struct {
	ID       string  `json:"id"`
	Nombre   string  `json:"nombre"`
	Apellido string  `json:"apellido"`
	Email    *string `json:"email"`
	Telefono string  `json:"telefono"`
	Empresa  string  `json:"empresa"`
	Etapa    string  `json:"etapa"`
}

// PipelineItemResponse salida de una oportunidad. Value es un decimal en texto.
type PipelineItemResponse struct {
	ID           string                  `json:"id"`
	ClientID     string                  `json:"clientId"`
	Client       *PipelineClientResponse `json:"client,omitempty"`
	Products     []string                `json:"products"`
	Value        string                  `json:"value"`
	Priority     string                  `json:"priority"`
	Status       string                  `json:"status"`
	LastContact  time.Time               `json:"lastContact"`
	DemoDate     *time.Time              `json:"demoDate"`
	DeliveryDate *time.Time              `json:"deliveryDate"`
	PaymentPlan  string                  `json:"paymentPlan"`
	Notes        string                  `json:"notes"`
	Tags         []string                `json:"tags"`
	AssignedToID string                  `json:"assignedToId"`
	CreatedByID  string                  `json:"createdById"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
	History      []HistoryResponse       `json:"history,omitempty"`
}

// HistoryResponse entrada del historial.
type HistoryResponse struct {
	ID             string         `json:"id"`
	PipelineItemID string         `json:"pipelineItemId"`
	Action         string         `json:"action"`
	OldData        map[string]any `json:"oldData"`
	NewData        map[string]any `json:"newData"`
	ChangedByID    string         `json:"changedById"`
	ChangedByName  string         `json:"changedByName,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// PipelineListParams filtros de GET /pipeline.
type PipelineListParams struct {
	ListParams
	Status       string `query:"status"`
	Priority     string `query:"priority"`
	AssignedToID string `query:"assignedToId"`
	ClientID     string `query:"clientId"`
}

// PipelineListResponse página de oportunidades.
type PipelineListResponse struct {
	Items      []PipelineItemResponse `json:"items"`
	Pagination Pagination             `json:"pagination"`
}

// KanbanColumn columna del tablero.
type KanbanColumn struct {
	Status string                 `json:"status"`
	Count  int                    `json:"count"`
	Value  string                 `json:"value"`
	Items  []PipelineItemResponse `json:"items"`
}

// KanbanResponse todas las columnas, siempre las 12 aunque estén vacías.
type KanbanResponse struct {
	Columns map[string]KanbanColumn `json:"columns"`
	Order   []string                `json:"order"`
	Total   int                     `json:"total"`
}

// StatusStat conteo y valor por estado.
type StatusStat struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Value  string `json:"value"`
}

// PipelineStatsResponse estadísticas del embudo.
type PipelineStatsResponse struct {
	Total          int64        `json:"total"`
	ByStatus       []StatusStat `json:"byStatus"`
	ByPriority     []CountItem  `json:"byPriority"`
	Converted      int64        `json:"converted"`
	ConversionRate string       `json:"conversionRate"`
	TotalValue     string       `json:"totalValue"`
	UniqueClients  int64        `json:"uniqueClients"`
	ByUser         []CountItem  `json:"byUser,omitempty"`
}

// PipelineBulkUpdate campos permitidos en la actualización masiva.
type PipelineBulkUpdate struct {
	Status       *string `json:"status" validate:"omitempty,oneof=NUEVO CONTACTADO CITA_AGENDADA SIN_RESPUESTA REPROGRAMAR NO_VENTA IRRELEVANTE NO_QUIERE_SPV NO_QUIERE_DEMO VENTA_AGREGADO VENTA_NUEVA VENTA_CAIDA"`
	Priority     *string `json:"priority" validate:"omitempty,oneof=ALTA MEDIA BAJA"`
	AssignedToID *string `json:"assignedToId"`
}

// PipelineBulkUpdateRequest POST /pipeline/bulk-update.
type PipelineBulkUpdateRequest struct {
	ItemIDs []string           `json:"itemIds" validate:"required,min=1,dive,required"`
	Updates PipelineBulkUpdate `json:"updates"`
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PipelineStatus estado de una oportunidad en el embudo.
type PipelineStatus string

const (
	StatusNuevo         PipelineStatus = "NUEVO"
	StatusContactado    PipelineStatus = "CONTACTADO"
	StatusCitaAgendada  PipelineStatus = "CITA_AGENDADA"
	StatusSinRespuesta  PipelineStatus = "SIN_RESPUESTA"
	StatusReprogramar   PipelineStatus = "REPROGRAMAR"
	StatusNoVenta       PipelineStatus = "NO_VENTA"
	StatusIrrelevante   PipelineStatus = "IRRELEVANTE"
	StatusNoQuiereSPV   PipelineStatus = "NO_QUIERE_SPV"
	StatusNoQuiereDemo  PipelineStatus = "NO_QUIERE_DEMO"
	StatusVentaAgregado PipelineStatus = "VENTA_AGREGADO"
	StatusVentaNueva    PipelineStatus = "VENTA_NUEVA"
	StatusVentaCaida    PipelineStatus = "VENTA_CAIDA"
)

// Priority prioridad compartida por oportunidades y tareas.
type Priority string

const (
	PriorityAlta  Priority = "ALTA"
	PriorityMedia Priority = "MEDIA"
	PriorityBaja  Priority = "BAJA"
)

// Priorities vocabulario de prioridades.
var Priorities = []Priority{PriorityAlta, PriorityMedia, PriorityBaja}

// Valid indica si la prioridad es conocida.
func (p Priority) Valid() bool {
	return p == PriorityAlta || p == PriorityMedia || p == PriorityBaja
}

// ClientRef datos del cliente desnormalizados junto a la oportunidad (JOIN).
type ClientRef struct {
	ID       string
	Nombre   string
	Apellido string
	Email    *string
	Telefono string
	Empresa  string
	Etapa    string
}

// FullName nombre y apellido.
func (c *ClientRef) FullName() string {
	if c.Apellido == "" {
		return c.Nombre
	}
	return c.Nombre + " " + c.Apellido
}

// PipelineItem oportunidad de venta ligada a un cliente.
type PipelineItem struct {
	ID           string
	ClientID     string
	Products     []string
	Value        decimal.Decimal
	Priority     Priority
	Status       PipelineStatus
	LastContact  time.Time
	DemoDate     *time.Time
	DeliveryDate *time.Time
	PaymentPlan  string
	Notes        string
	Tags         []string
	AssignedToID string
	CreatedByID  string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Client *ClientRef // solo lectura
}

// Field implementa query.Record; los campos client.* vienen del cliente asociado.
func (p *PipelineItem) Field(name string) any {
	switch name {
	case "id":
		return p.ID
	case "clientId":
		return p.ClientID
	case "products":
		return p.Products
	case "value":
		return p.Value
	case "priority":
		return string(p.Priority)
	case "status":
		return string(p.Status)
	case "lastContact":
		return p.LastContact
	case "demoDate":
		return p.DemoDate
	case "deliveryDate":
		return p.DeliveryDate
	case "paymentPlan":
		return p.PaymentPlan
	case "notes":
		return p.Notes
	case "tags":
		return p.Tags
	case "assignedToId":
		return p.AssignedToID
	case "createdById":
		return p.CreatedByID
	case "createdAt":
		return p.CreatedAt
	case "updatedAt":
		return p.UpdatedAt
	}
	if p.Client == nil {
		return nil
	}
	switch name {
	case "client.nombre":
		return p.Client.Nombre
	case "client.apellido":
		return p.Client.Apellido
	case "client.email":
		return p.Client.Email
	case "client.telefono":
		return p.Client.Telefono
	case "client.empresa":
		return p.Client.Empresa
	}
	return nil
}

// HistoryAction tipo de entrada del historial.
type HistoryAction string

const (
	ActionCreated       HistoryAction = "CREATED"
	ActionUpdated       HistoryAction = "UPDATED"
	ActionStatusChanged HistoryAction = "STATUS_CHANGED"
	ActionAssigned      HistoryAction = "ASSIGNED"
	ActionBulkUpdated   HistoryAction = "BULK_UPDATED"
	ActionDeleted       HistoryAction = "DELETED"
)

// PipelineHistory entrada inmutable del historial de una oportunidad.
type PipelineHistory struct {
	ID             string
	PipelineItemID string
	Action         HistoryAction
	OldData        map[string]any
	NewData        map[string]any
	ChangedByID    string
	CreatedAt      time.Time

	ChangedBy *UserRef // solo lectura
}

// UserRef datos mínimos de un usuario para mostrar.
type UserRef struct {
	ID        string
	Firstname string
	Lastname  string
	Email     string
}

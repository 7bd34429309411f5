package entity

import "time"

// ClientSource origen de un contacto.
type ClientSource string

const (
	SourceLanding        ClientSource = "LANDING"
	SourceReferido       ClientSource = "REFERIDO"
	SourceDerivado       ClientSource = "DERIVADO"
	SourceStand          ClientSource = "STAND"
	SourceConvenio       ClientSource = "CONVENIO"
	SourceUrna           ClientSource = "URNA"
	SourceEmbajador      ClientSource = "EMBAJADOR"
	SourceAnuncio        ClientSource = "ANUNCIO"
	SourceGoogleContacts ClientSource = "GOOGLE_CONTACTS"
	SourceOtro           ClientSource = "OTRO"
)

// ClientSources vocabulario completo de orígenes.
var ClientSources = []ClientSource{
	SourceLanding, SourceReferido, SourceDerivado, SourceStand, SourceConvenio,
	SourceUrna, SourceEmbajador, SourceAnuncio, SourceGoogleContacts, SourceOtro,
}

// Valid indica si el origen es conocido.
func (s ClientSource) Valid() bool {
	for _, v := range ClientSources {
		if v == s {
			return true
		}
	}
	return false
}

// ClientStatus estado comercial del contacto.
type ClientStatus string

const (
	ClientActivo   ClientStatus = "ACTIVO"
	ClientInactivo ClientStatus = "INACTIVO"
)

// Valid indica si el estado es conocido.
func (s ClientStatus) Valid() bool { return s == ClientActivo || s == ClientInactivo }

// StageCliente etapa que se asigna al cerrar una venta.
const StageCliente = "Cliente"

// Client contacto / lead / cliente.
type Client struct {
	ID           string
	Nombre       string
	Apellido     string
	Email        *string
	Telefono     string
	Empresa      string
	Cargo        string
	Direccion    string
	Source       ClientSource
	Estado       ClientStatus
	Etapa        string
	Tags         []string
	Notas        string
	CustomFields map[string]any
	CreatedByID  string
	AssignedToID string
	ReferredByID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName nombre y apellido.
func (c *Client) FullName() string {
	if c.Apellido == "" {
		return c.Nombre
	}
	return c.Nombre + " " + c.Apellido
}

// Field implementa query.Record.
func (c *Client) Field(name string) any {
	switch name {
	case "id":
		return c.ID
	case "nombre":
		return c.Nombre
	case "apellido":
		return c.Apellido
	case "email":
		return c.Email
	case "telefono":
		return c.Telefono
	case "empresa":
		return c.Empresa
	case "cargo":
		return c.Cargo
	case "direccion":
		return c.Direccion
	case "source":
		return string(c.Source)
	case "estado":
		return string(c.Estado)
	case "etapa":
		return c.Etapa
	case "tags":
		return c.Tags
	case "notas":
		return c.Notas
	case "createdById":
		return c.CreatedByID
	case "assignedToId":
		return c.AssignedToID
	case "referredById":
		return c.ReferredByID
	case "createdAt":
		return c.CreatedAt
	case "updatedAt":
		return c.UpdatedAt
	}
	return nil
}

// RelatedCounts registros que referencian a un cliente.
type RelatedCounts struct {
	Sales         int64
	Tasks         int64
	PipelineItems int64
}

// Any hay al menos un registro relacionado.
func (c RelatedCounts) Any() bool {
	return c.Sales > 0 || c.Tasks > 0 || c.PipelineItems > 0
}

package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/application/validation"
	"github.com/jhoicas/CRM-api/internal/domain/access"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
	"github.com/jhoicas/CRM-api/pkg/phone"
)

// Resultados de una fila importada (etiqueta de métricas).
const (
	ImportCreated   = "created"
	ImportDuplicate = "duplicate"
	ImportError     = "error"
)

// ImportUseCase reconcilia contactos entrantes contra los clientes existentes.
// Las filas se procesan en orden, una a la vez: una fila creada ya cuenta como
// existente para las siguientes.
type ImportUseCase struct {
	clients repository.ClientRepository
	phones  *phone.Normalizer
	log     zerolog.Logger
	rec     Recorder
	opts    []access.Option
	now     func() time.Time
}

// NewImportUseCase construye el caso de uso. rec puede ser nil.
func NewImportUseCase(
	clients repository.ClientRepository,
	phones *phone.Normalizer,
	log zerolog.Logger,
	rec Recorder,
	opts ...access.Option,
) *ImportUseCase {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &ImportUseCase{clients: clients, phones: phones, log: log, rec: rec, opts: opts, now: time.Now}
}

// ContactsFromDTO convierte el cuerpo JSON de import-contacts. assignedToId se descarta.
func ContactsFromDTO(rows []dto.ContactRow) []ContactInput {
	out := make([]ContactInput, 0, len(rows))
	for i, r := range rows {
		n := r.Row
		if n == 0 {
			n = i + 1
		}
		out = append(out, ContactInput{
			Row:       n,
			Nombre:    r.Nombre,
			Apellido:  r.Apellido,
			Email:     r.Email,
			Telefono:  r.Telefono,
			Empresa:   r.Empresa,
			Cargo:     r.Cargo,
			Source:    r.Source,
			Estado:    r.Estado,
			Etapa:     r.Etapa,
			Direccion: r.Direccion,
			Tags:      r.Tags,
			Notas:     r.Notas,
		})
	}
	return out
}

// Reconcile importa las filas. Cada fila termina en exactamente uno de created,
// duplicates o errors; las filas que no se pudieron leer (unreadable) van a errors.
// Los clientes creados quedan asignados al importador.
func (uc *ImportUseCase) Reconcile(ctx context.Context, actor *entity.User, rows []ContactInput, unreadable []RowError) *dto.ImportResponse {
	res := &dto.ImportResponse{
		Created:    []dto.ClientResponse{},
		Duplicates: []dto.ImportDuplicate{},
		Errors:     []dto.ImportError{},
	}
	for _, e := range unreadable {
		res.Errors = append(res.Errors, dto.ImportError{Row: e.Row, Reason: e.Reason})
		uc.rec.Imported(ImportError)
	}

	scope := uc.scope(actor)
	for _, row := range rows {
		c, err := uc.toClient(actor, row)
		if err != nil {
			res.Errors = append(res.Errors, dto.ImportError{Row: row.Row, Nombre: row.Nombre, Reason: err.Error()})
			uc.rec.Imported(ImportError)
			continue
		}
		dup, err := uc.lookup(ctx, scope, c.Telefono, c.Email)
		if err != nil {
			uc.log.Warn().Err(err).Int("row", row.Row).Msg("importación: error buscando duplicados")
			res.Errors = append(res.Errors, dto.ImportError{Row: row.Row, Nombre: row.Nombre, Reason: "error verificando duplicados"})
			uc.rec.Imported(ImportError)
			continue
		}
		if dup != nil {
			dup.Row = row.Row
			dup.Nombre = row.Nombre
			res.Duplicates = append(res.Duplicates, *dup)
			uc.rec.Imported(ImportDuplicate)
			continue
		}
		// Una colisión con contactos que el importador no ve no bloquea el alta.
		if err := uc.clients.Create(ctx, c); err != nil {
			uc.log.Warn().Err(err).Int("row", row.Row).Msg("importación: error creando cliente")
			res.Errors = append(res.Errors, dto.ImportError{Row: row.Row, Nombre: row.Nombre, Reason: "no se pudo crear el contacto"})
			uc.rec.Imported(ImportError)
			continue
		}
		res.Created = append(res.Created, *ToClientResponse(c))
		uc.rec.Imported(ImportCreated)
	}

	res.Summary = dto.ImportSummary{
		Total:      len(rows) + len(unreadable),
		Created:    len(res.Created),
		Duplicates: len(res.Duplicates),
		Errors:     len(res.Errors),
	}
	uc.log.Info().
		Str("user_id", actor.ID).
		Int("total", res.Summary.Total).
		Int("created", res.Summary.Created).
		Int("duplicates", res.Summary.Duplicates).
		Int("errors", res.Summary.Errors).
		Msg("importación de clientes completada")
	return res
}

// CheckDuplicates informa qué contactos ya existen, con el mismo alcance que Reconcile.
func (uc *ImportUseCase) CheckDuplicates(ctx context.Context, actor *entity.User, rows []ContactInput) (*dto.CheckDuplicatesResponse, error) {
	scope := uc.scope(actor)
	out := &dto.CheckDuplicatesResponse{TotalChecked: len(rows), Duplicates: []dto.ImportDuplicate{}}
	for _, row := range rows {
		tel := uc.phones.Normalize(row.Telefono)
		email := strPtr(strings.ToLower(strings.TrimSpace(row.Email)))
		if tel == "" && email == nil {
			continue
		}
		dup, err := uc.lookup(ctx, scope, tel, email)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			dup.Row = row.Row
			dup.Nombre = row.Nombre
			out.Duplicates = append(out.Duplicates, *dup)
		}
	}
	out.DuplicatesFound = len(out.Duplicates)
	out.CanProceed = out.DuplicatesFound < out.TotalChecked
	return out, nil
}

// scope visibilidad del importador: los roles no privilegiados solo chocan con sus
// propios contactos.
func (uc *ImportUseCase) scope(actor *entity.User) query.Predicate {
	return access.For(actor, uc.opts...).Visibility(access.Client)
}

func (uc *ImportUseCase) lookup(ctx context.Context, scope query.Predicate, telefono string, email *string) (*dto.ImportDuplicate, error) {
	var keys []query.Predicate
	if telefono != "" {
		keys = append(keys, query.Eq("telefono", telefono))
	}
	if email != nil {
		keys = append(keys, query.Eq("email", *email))
	}
	existing, err := uc.clients.FindFirst(ctx, query.And(scope, query.Or(keys...)))
	if err != nil || existing == nil {
		return nil, err
	}
	field := "telefono"
	if existing.Telefono != telefono {
		field = "email"
	}
	return &dto.ImportDuplicate{Field: field, ExistingID: existing.ID, Existing: existing.FullName()}, nil
}

func (uc *ImportUseCase) toClient(actor *entity.User, row ContactInput) (*entity.Client, error) {
	nombre := strings.TrimSpace(row.Nombre)
	apellido := strings.TrimSpace(row.Apellido)
	telefono := uc.phones.Normalize(row.Telefono)
	if nombre == "" || apellido == "" || telefono == "" {
		return nil, fmt.Errorf("nombre, apellido y teléfono son obligatorios")
	}
	source := entity.ClientSource(strings.ToUpper(strings.TrimSpace(row.Source)))
	if source == "" {
		source = entity.SourceOtro
	}
	if !source.Valid() {
		return nil, fmt.Errorf("origen inválido: %q", row.Source)
	}
	estado := entity.ClientStatus(strings.ToUpper(strings.TrimSpace(row.Estado)))
	if estado == "" {
		estado = entity.ClientActivo
	}
	if !estado.Valid() {
		return nil, fmt.Errorf("estado inválido: %q", row.Estado)
	}
	email := strPtr(strings.ToLower(strings.TrimSpace(row.Email)))
	if email != nil && !validation.Email(*email) {
		return nil, fmt.Errorf("email inválido: %q", row.Email)
	}
	tags := make([]string, 0, len(row.Tags))
	for _, t := range row.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, truncate(t, 20))
		}
	}
	now := uc.now().UTC()
	return &entity.Client{
		ID:           uuid.New().String(),
		Nombre:       truncate(nombre, 50),
		Apellido:     truncate(apellido, 50),
		Email:        email,
		Telefono:     telefono,
		Empresa:      strings.TrimSpace(row.Empresa),
		Cargo:        strings.TrimSpace(row.Cargo),
		Direccion:    strings.TrimSpace(row.Direccion),
		Source:       source,
		Estado:       estado,
		Etapa:        truncate(strings.TrimSpace(row.Etapa), 30),
		Tags:         tags,
		Notas:        truncate(row.Notas, 1000),
		CreatedByID:  actor.ID,
		AssignedToID: actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

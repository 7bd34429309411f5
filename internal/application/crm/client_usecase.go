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
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/access"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
	"github.com/jhoicas/CRM-api/pkg/phone"
)

// ClientSearchFields campos de la búsqueda libre de clientes.
var ClientSearchFields = []string{"nombre", "apellido", "email", "telefono", "empresa"}

var clientSortFields = query.Columns{
	"nombre": "nombre", "apellido": "apellido", "email": "email", "empresa": "empresa",
	"source": "source", "estado": "estado", "etapa": "etapa",
	"createdAt": "createdAt", "updatedAt": "updatedAt",
}

const (
	recentWindow       = 7 * 24 * time.Hour
	defaultRecentLimit = 10
	maxRecentLimit     = 50
	summaryRecent      = 5
)

// ClientUseCase casos de uso de clientes.
type ClientUseCase struct {
	clients repository.ClientRepository
	users   repository.UserRepository
	tx      TxRunner
	phones  *phone.Normalizer
	log     zerolog.Logger
	opts    []access.Option
	now     func() time.Time
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(
	clients repository.ClientRepository,
	users repository.UserRepository,
	tx TxRunner,
	phones *phone.Normalizer,
	log zerolog.Logger,
	opts ...access.Option,
) *ClientUseCase {
	return &ClientUseCase{
		clients: clients,
		users:   users,
		tx:      tx,
		phones:  phones,
		log:     log,
		opts:    opts,
		now:     time.Now,
	}
}

func (uc *ClientUseCase) policy(actor *entity.User) access.Policy {
	return access.For(actor, uc.opts...)
}

func (uc *ClientUseCase) normalizeEmail(s string) *string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strPtr(s)
}

// filters predicados de los parámetros de listado.
func (uc *ClientUseCase) filters(p dto.ClientListParams) []query.Predicate {
	f := []query.Predicate{
		eqIf("source", strings.ToUpper(p.Source)),
		eqIf("estado", strings.ToUpper(p.Estado)),
		eqIf("etapa", p.Etapa),
		eqIf("assignedToId", p.AssignedToID),
	}
	if tags := splitCSV(p.Tags); len(tags) > 0 {
		f = append(f, query.HasAny("tags", tags...))
	}
	return f
}

func (uc *ClientUseCase) listQuery(actor *entity.User, p dto.ClientListParams, extra ...query.Predicate) (query.Query, error) {
	search, err := searchFrom(p.ListParams, ClientSearchFields...)
	if err != nil {
		return query.Query{}, err
	}
	filters := append(uc.filters(p), extra...)
	return query.Build(
		uc.policy(actor).Visibility(access.Client),
		filters,
		search,
		query.NewPage(p.Page, p.Limit),
		query.NewSort(p.SortBy, p.SortOrder, clientSortFields, query.DefaultSort),
	), nil
}

// List página de clientes visibles.
func (uc *ClientUseCase) List(ctx context.Context, actor *entity.User, p dto.ClientListParams) (*dto.ClientListResponse, error) {
	q, err := uc.listQuery(actor, p)
	if err != nil {
		return nil, err
	}
	return uc.page(ctx, q)
}

// ByUser clientes asignados a (o creados por) otro usuario. Solo roles privilegiados.
func (uc *ClientUseCase) ByUser(ctx context.Context, actor *entity.User, userID string, p dto.ClientListParams) (*dto.ClientListResponse, error) {
	if !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}
	q, err := uc.listQuery(actor, p, ownerFilter(userID))
	if err != nil {
		return nil, err
	}
	return uc.page(ctx, q)
}

func (uc *ClientUseCase) page(ctx context.Context, q query.Query) (*dto.ClientListResponse, error) {
	rows, err := uc.clients.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := uc.clients.Count(ctx, q.Where)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClientResponse, 0, len(rows))
	for _, c := range rows {
		out = append(out, *ToClientResponse(c))
	}
	return &dto.ClientListResponse{Clients: out, Pagination: dto.NewPagination(total, q.Page)}, nil
}

// Get detalle de un cliente: 404 si no existe, 403 si no es visible.
func (uc *ClientUseCase) Get(ctx context.Context, actor *entity.User, id string) (*dto.ClientResponse, error) {
	c, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return ToClientResponse(c), nil
}

func (uc *ClientUseCase) load(ctx context.Context, actor *entity.User, id string) (*entity.Client, error) {
	c, err := uc.clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(uc.policy(actor), access.Client, c, c != nil); err != nil {
		return nil, err
	}
	return c, nil
}

// findCollision busca otro cliente con el mismo teléfono o email dentro de scope.
func (uc *ClientUseCase) findCollision(ctx context.Context, scope query.Predicate, telefono string, email *string, exceptID string) (*domain.ConflictError, error) {
	keys := []query.Predicate{query.Eq("telefono", telefono)}
	if email != nil {
		keys = append(keys, query.Eq("email", *email))
	}
	where := query.And(scope, query.Or(keys...))
	if exceptID != "" {
		where = query.And(where, query.Not(query.Eq("id", exceptID)))
	}
	existing, err := uc.clients.FindFirst(ctx, where)
	if err != nil || existing == nil {
		return nil, err
	}
	field := "telefono"
	if existing.Telefono != telefono {
		field = "email"
	}
	return &domain.ConflictError{Field: field, ExistingID: existing.ID, Nombre: existing.Nombre, Apellido: existing.Apellido}, nil
}

// Create alta de cliente. Teléfono o email repetidos en cualquier fila devuelven ConflictError.
func (uc *ClientUseCase) Create(ctx context.Context, actor *entity.User, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	c := &entity.Client{
		ID:           uuid.New().String(),
		Nombre:       strings.TrimSpace(in.Nombre),
		Apellido:     strings.TrimSpace(in.Apellido),
		Email:        uc.normalizeEmail(in.Email),
		Telefono:     uc.phones.Normalize(in.Telefono),
		Empresa:      strings.TrimSpace(in.Empresa),
		Cargo:        strings.TrimSpace(in.Cargo),
		Direccion:    strings.TrimSpace(in.Direccion),
		Source:       entity.ClientSource(in.Source),
		Estado:       entity.ClientStatus(in.Estado),
		Etapa:        strings.TrimSpace(in.Etapa),
		Tags:         in.Tags,
		Notas:        in.Notas,
		CustomFields: in.CustomFields,
		CreatedByID:  actor.ID,
		AssignedToID: in.AssignedToID,
		ReferredByID: strPtr(in.ReferredByID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if c.Source == "" {
		c.Source = entity.SourceOtro
	}
	if c.Estado == "" {
		c.Estado = entity.ClientActivo
	}
	if c.AssignedToID == "" {
		c.AssignedToID = actor.ID
	} else if err := resolveAssignee(ctx, uc.users, "assignedToId", c.AssignedToID); err != nil {
		return nil, err
	}
	if c.ReferredByID != nil {
		if err := resolveAssignee(ctx, uc.users, "referredById", *c.ReferredByID); err != nil {
			return nil, err
		}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}

	conflict, err := uc.findCollision(ctx, query.All(), c.Telefono, c.Email, "")
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, conflict
	}
	if err := uc.clients.Create(ctx, c); err != nil {
		return nil, err
	}
	return ToClientResponse(c), nil
}

// Update edición parcial. Cambiar teléfono o email a uno ya usado devuelve ConflictError.
func (uc *ClientUseCase) Update(ctx context.Context, actor *entity.User, id string, in dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	c, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	keysChanged := false
	if in.Nombre != nil {
		c.Nombre = strings.TrimSpace(*in.Nombre)
	}
	if in.Apellido != nil {
		c.Apellido = strings.TrimSpace(*in.Apellido)
	}
	if in.Email != nil {
		email := uc.normalizeEmail(*in.Email)
		keysChanged = keysChanged || !sameString(email, c.Email)
		c.Email = email
	}
	if in.Telefono != nil {
		tel := uc.phones.Normalize(*in.Telefono)
		keysChanged = keysChanged || tel != c.Telefono
		c.Telefono = tel
	}
	if in.Empresa != nil {
		c.Empresa = strings.TrimSpace(*in.Empresa)
	}
	if in.Cargo != nil {
		c.Cargo = strings.TrimSpace(*in.Cargo)
	}
	if in.Direccion != nil {
		c.Direccion = strings.TrimSpace(*in.Direccion)
	}
	if in.Source != nil {
		c.Source = entity.ClientSource(*in.Source)
	}
	if in.Estado != nil {
		c.Estado = entity.ClientStatus(*in.Estado)
	}
	if in.Etapa != nil {
		c.Etapa = strings.TrimSpace(*in.Etapa)
	}
	if in.Tags != nil {
		c.Tags = in.Tags
	}
	if in.Notas != nil {
		c.Notas = *in.Notas
	}
	if in.CustomFields != nil {
		c.CustomFields = in.CustomFields
	}
	if in.AssignedToID != nil && *in.AssignedToID != c.AssignedToID {
		if err := resolveAssignee(ctx, uc.users, "assignedToId", *in.AssignedToID); err != nil {
			return nil, err
		}
		c.AssignedToID = *in.AssignedToID
	}
	if in.ReferredByID != nil {
		c.ReferredByID = strPtr(*in.ReferredByID)
	}
	if keysChanged {
		conflict, err := uc.findCollision(ctx, query.All(), c.Telefono, c.Email, c.ID)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			return nil, conflict
		}
	}
	c.UpdatedAt = uc.now().UTC()
	if err := uc.clients.Update(ctx, c); err != nil {
		return nil, err
	}
	return ToClientResponse(c), nil
}

// Delete elimina el cliente si no tiene ventas, tareas ni oportunidades asociadas.
// El conteo y el borrado corren en la misma transacción.
func (uc *ClientUseCase) Delete(ctx context.Context, actor *entity.User, id string) error {
	return uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.load(ctx, actor, id); err != nil {
			return err
		}
		related, err := uc.clients.CountRelated(ctx, id)
		if err != nil {
			return err
		}
		if related.Any() {
			return &domain.DependencyError{
				Resource: "cliente",
				Counts: map[string]int64{
					"sales":         related.Sales,
					"tasks":         related.Tasks,
					"pipelineItems": related.PipelineItems,
				},
			}
		}
		return uc.clients.Delete(ctx, id)
	})
}

// Duplicate copia el cliente con " (Copia)" en el nombre. Teléfono y email reciben un
// sufijo para no chocar con el cliente de origen.
func (uc *ClientUseCase) Duplicate(ctx context.Context, actor *entity.User, id string) (*dto.ClientResponse, error) {
	src, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	stamp := now.UnixMilli()
	cp := *src
	cp.ID = uuid.New().String()
	cp.Nombre = truncate(src.Nombre+copySuffix, 60)
	cp.Telefono = fmt.Sprintf("%s-copia-%d", src.Telefono, stamp)
	if src.Email != nil {
		e := fmt.Sprintf("copia_%d_%s", stamp, *src.Email)
		cp.Email = &e
	}
	cp.Tags = append([]string(nil), src.Tags...)
	cp.CreatedByID = actor.ID
	cp.AssignedToID = actor.ID
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if err := uc.clients.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return ToClientResponse(&cp), nil
}

// Search búsqueda rápida (máximo 20 resultados).
func (uc *ClientUseCase) Search(ctx context.Context, actor *entity.User, term string, limit int) ([]dto.ClientResponse, error) {
	search, err := query.NewSearch(term, ClientSearchFields...)
	if err != nil {
		return nil, err
	}
	q := query.Build(uc.policy(actor).Visibility(access.Client), nil, search, searchLimit(limit), query.Sort{Field: "nombre"})
	rows, err := uc.clients.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return toClientResponses(rows), nil
}

// Recent clientes visibles más recientes.
func (uc *ClientUseCase) Recent(ctx context.Context, actor *entity.User, limit int) ([]dto.ClientResponse, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	q := query.Build(uc.policy(actor).Visibility(access.Client), nil, nil,
		query.Page{Number: 1, Limit: limit}, query.Sort{Field: "createdAt", Desc: true})
	rows, err := uc.clients.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return toClientResponses(rows), nil
}

// MySummary totales de los clientes propios del usuario y los 5 más recientes.
func (uc *ClientUseCase) MySummary(ctx context.Context, actor *entity.User) (*dto.ClientSummaryResponse, error) {
	mine := ownerFilter(actor.ID)
	total, err := uc.clients.Count(ctx, mine)
	if err != nil {
		return nil, err
	}
	activos, err := uc.clients.Count(ctx, query.And(mine, query.Eq("estado", string(entity.ClientActivo))))
	if err != nil {
		return nil, err
	}
	recent, err := uc.clients.Find(ctx, query.Query{
		Where: mine,
		Sort:  query.Sort{Field: "createdAt", Desc: true},
		Page:  query.Page{Number: 1, Limit: summaryRecent},
	})
	if err != nil {
		return nil, err
	}
	return &dto.ClientSummaryResponse{
		Total:     total,
		Activos:   activos,
		Inactivos: total - activos,
		Recent:    toClientResponses(recent),
	}, nil
}

// Stats estadísticas de los clientes visibles. Las consultas corren en paralelo.
func (uc *ClientUseCase) Stats(ctx context.Context, actor *entity.User, period string) (*dto.ClientStatsResponse, error) {
	pol := uc.policy(actor)
	now := uc.now().UTC()
	where := pol.Visibility(access.Client)
	if d, ok := periodDuration(period); ok {
		where = query.And(where, query.AtOrAfter("createdAt", now.Add(-d)))
	} else if period != "" {
		return nil, domain.NewValidationError("period", "debe ser uno de: 7d, 30d, 90d, 1y", period)
	}

	type countResult struct {
		n   int64
		err error
	}
	type groupResult struct {
		groups []query.Group
		err    error
	}
	count := func(p query.Predicate) <-chan countResult {
		ch := make(chan countResult, 1)
		go func() {
			n, err := uc.clients.Count(ctx, p)
			ch <- countResult{n, err}
		}()
		return ch
	}
	group := func(field string) <-chan groupResult {
		ch := make(chan groupResult, 1)
		go func() {
			g, err := uc.clients.GroupBy(ctx, where, field)
			ch <- groupResult{g, err}
		}()
		return ch
	}

	totalCh := count(where)
	activosCh := count(query.And(where, query.Eq("estado", string(entity.ClientActivo))))
	recentCh := count(query.And(where, query.AtOrAfter("createdAt", now.Add(-recentWindow))))
	sourceCh := group("source")
	etapaCh := group("etapa")
	estadoCh := group("estado")
	var userCh <-chan groupResult
	if pol.Privileged() {
		userCh = group("assignedToId")
	}

	total, activos, recent := <-totalCh, <-activosCh, <-recentCh
	source, etapa, estado := <-sourceCh, <-etapaCh, <-estadoCh
	for _, err := range []error{total.err, activos.err, recent.err, source.err, etapa.err, estado.err} {
		if err != nil {
			return nil, fmt.Errorf("estadísticas de clientes: %w", err)
		}
	}

	out := &dto.ClientStatsResponse{
		Total:     total.n,
		Activos:   activos.n,
		Inactivos: total.n - activos.n,
		Recientes: recent.n,
		BySource:  countItems(source.groups),
		ByEtapa:   countItems(etapa.groups),
		ByEstado:  countItems(estado.groups),
		Period:    period,
	}
	if userCh != nil {
		users := <-userCh
		if users.err != nil {
			return nil, fmt.Errorf("estadísticas de clientes: %w", users.err)
		}
		names, err := byUser(ctx, uc.users, users.groups)
		if err != nil {
			return nil, err
		}
		out.ByUser = names
	}
	return out, nil
}

// BulkUpdate aplica los mismos cambios a varios clientes. Si alguno no es accesible
// se rechaza el lote completo sin modificar ninguna fila.
func (uc *ClientUseCase) BulkUpdate(ctx context.Context, actor *entity.User, in dto.ClientBulkUpdateRequest) (*dto.BulkResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u := in.Updates
	if u.Source == nil && u.Estado == nil && u.Etapa == nil && u.AssignedToID == nil && u.Tags == nil {
		return nil, domain.NewValidationError("updates", "no hay campos para actualizar", nil)
	}
	accessible, err := uc.clients.FindIDs(ctx, query.And(
		query.In("id", in.ClientIDs...),
		uc.policy(actor).Visibility(access.Client),
	))
	if err != nil {
		return nil, err
	}
	if err := access.CheckBatch(in.ClientIDs, accessible); err != nil {
		return nil, err
	}
	if u.AssignedToID != nil {
		if err := resolveAssignee(ctx, uc.users, "updates.assignedToId", *u.AssignedToID); err != nil {
			return nil, err
		}
	}

	res := &dto.BulkResult{Requested: len(accessible), Failed: []dto.BulkRowFailed{}}
	for _, id := range accessible {
		err := uc.applyBulk(ctx, id, u)
		if err != nil {
			uc.log.Warn().Err(err).Str("client_id", id).Msg("actualización masiva: fila fallida")
			res.Failed = append(res.Failed, dto.BulkRowFailed{ID: id, Error: err.Error()})
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (uc *ClientUseCase) applyBulk(ctx context.Context, id string, u dto.ClientBulkUpdate) error {
	c, err := uc.clients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrNotFound
	}
	if u.Source != nil {
		c.Source = entity.ClientSource(*u.Source)
	}
	if u.Estado != nil {
		c.Estado = entity.ClientStatus(*u.Estado)
	}
	if u.Etapa != nil {
		c.Etapa = *u.Etapa
	}
	if u.AssignedToID != nil {
		c.AssignedToID = *u.AssignedToID
	}
	if u.Tags != nil {
		c.Tags = u.Tags
	}
	c.UpdatedAt = uc.now().UTC()
	return uc.clients.Update(ctx, c)
}

// Rows filas visibles sin paginar (exportación).
func (uc *ClientUseCase) Rows(ctx context.Context, actor *entity.User, p dto.ClientListParams) ([]*entity.Client, error) {
	q, err := uc.listQuery(actor, p)
	if err != nil {
		return nil, err
	}
	q.Page = query.Unpaged()
	return uc.clients.Find(ctx, q)
}

func periodDuration(period string) (time.Duration, bool) {
	switch period {
	case "7d":
		return 7 * 24 * time.Hour, true
	case "30d":
		return 30 * 24 * time.Hour, true
	case "90d":
		return 90 * 24 * time.Hour, true
	case "1y":
		return 365 * 24 * time.Hour, true
	}
	return 0, false
}

func toClientResponses(rows []*entity.Client) []dto.ClientResponse {
	out := make([]dto.ClientResponse, 0, len(rows))
	for _, c := range rows {
		out = append(out, *ToClientResponse(c))
	}
	return out
}

// ToClientResponse proyección de salida.
func ToClientResponse(c *entity.Client) *dto.ClientResponse {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return &dto.ClientResponse{
		ID:           c.ID,
		Nombre:       c.Nombre,
		Apellido:     c.Apellido,
		Email:        c.Email,
		Telefono:     c.Telefono,
		Empresa:      c.Empresa,
		Cargo:        c.Cargo,
		Direccion:    c.Direccion,
		Source:       string(c.Source),
		Estado:       string(c.Estado),
		Etapa:        c.Etapa,
		Tags:         tags,
		Notas:        c.Notas,
		CustomFields: c.CustomFields,
		CreatedByID:  c.CreatedByID,
		AssignedToID: c.AssignedToID,
		ReferredByID: c.ReferredByID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

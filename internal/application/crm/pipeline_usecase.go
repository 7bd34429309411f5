package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/application/validation"
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/access"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/pipeline"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

// PipelineSearchFields búsqueda libre sobre el cliente asociado y las notas.
var PipelineSearchFields = []string{
	"client.nombre", "client.apellido", "client.telefono", "client.email", "client.empresa", "notes",
}

var pipelineSortFields = query.Columns{
	"status": "status", "priority": "priority", "value": "value", "lastContact": "lastContact",
	"demoDate": "demoDate", "deliveryDate": "deliveryDate", "createdAt": "createdAt", "updatedAt": "updatedAt",
	"client.nombre": "client.nombre",
}

const maxDuplicateNotes = 500

// PipelineUseCase casos de uso del embudo de ventas. Cada mutación deja su entrada en
// el historial a través del ledger.
type PipelineUseCase struct {
	items   repository.PipelineRepository
	clients repository.ClientRepository
	users   repository.UserRepository
	ledger  *HistoryLedger
	log     zerolog.Logger
	rec     Recorder
	opts    []access.Option
	now     func() time.Time
}

// NewPipelineUseCase construye el caso de uso. rec puede ser nil.
func NewPipelineUseCase(
	items repository.PipelineRepository,
	clients repository.ClientRepository,
	users repository.UserRepository,
	ledger *HistoryLedger,
	log zerolog.Logger,
	rec Recorder,
	opts ...access.Option,
) *PipelineUseCase {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &PipelineUseCase{
		items:   items,
		clients: clients,
		users:   users,
		ledger:  ledger,
		log:     log,
		rec:     rec,
		opts:    opts,
		now:     time.Now,
	}
}

func (uc *PipelineUseCase) policy(actor *entity.User) access.Policy {
	return access.For(actor, uc.opts...)
}

func (uc *PipelineUseCase) filters(p dto.PipelineListParams) ([]query.Predicate, error) {
	var f []query.Predicate
	if p.Status != "" {
		st, err := pipeline.ParseStatus(p.Status)
		if err != nil {
			return nil, domain.NewValidationError("status", err.Error(), p.Status)
		}
		f = append(f, query.Eq("status", string(st)))
	}
	f = append(f,
		eqIf("priority", strings.ToUpper(p.Priority)),
		eqIf("assignedToId", p.AssignedToID),
		eqIf("clientId", p.ClientID),
	)
	return f, nil
}

// List página de oportunidades visibles.
func (uc *PipelineUseCase) List(ctx context.Context, actor *entity.User, p dto.PipelineListParams) (*dto.PipelineListResponse, error) {
	filters, err := uc.filters(p)
	if err != nil {
		return nil, err
	}
	search, err := searchFrom(p.ListParams, PipelineSearchFields...)
	if err != nil {
		return nil, err
	}
	q := query.Build(
		uc.policy(actor).Visibility(access.PipelineItem),
		filters,
		search,
		query.NewPage(p.Page, p.Limit),
		query.NewSort(p.SortBy, p.SortOrder, pipelineSortFields, query.DefaultSort),
	)
	rows, err := uc.items.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := uc.items.Count(ctx, q.Where)
	if err != nil {
		return nil, err
	}
	return &dto.PipelineListResponse{Items: toItemResponses(rows), Pagination: dto.NewPagination(total, q.Page)}, nil
}

// Kanban todas las oportunidades visibles agrupadas por estado. Siempre trae las 12 columnas.
func (uc *PipelineUseCase) Kanban(ctx context.Context, actor *entity.User, p dto.PipelineListParams) (*dto.KanbanResponse, error) {
	p.Status = ""
	filters, err := uc.filters(p)
	if err != nil {
		return nil, err
	}
	search, err := searchFrom(p.ListParams, PipelineSearchFields...)
	if err != nil {
		return nil, err
	}
	q := query.Build(uc.policy(actor).Visibility(access.PipelineItem), filters, search, query.Unpaged(), query.DefaultSort)
	rows, err := uc.items.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal, len(pipeline.Statuses))
	out := &dto.KanbanResponse{
		Columns: make(map[string]dto.KanbanColumn, len(pipeline.Statuses)),
		Order:   make([]string, 0, len(pipeline.Statuses)),
		Total:   len(rows),
	}
	for _, st := range pipeline.Statuses {
		key := string(st)
		out.Order = append(out.Order, key)
		out.Columns[key] = dto.KanbanColumn{Status: key, Value: "0", Items: []dto.PipelineItemResponse{}}
	}
	for _, it := range rows {
		key := string(it.Status)
		col, ok := out.Columns[key]
		if !ok {
			continue
		}
		col.Items = append(col.Items, *ToItemResponse(it))
		col.Count++
		sums[key] = sums[key].Add(it.Value)
		col.Value = sums[key].String()
		out.Columns[key] = col
	}
	return out, nil
}

func (uc *PipelineUseCase) load(ctx context.Context, actor *entity.User, id string) (*entity.PipelineItem, error) {
	it, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(uc.policy(actor), access.PipelineItem, it, it != nil); err != nil {
		return nil, err
	}
	return it, nil
}

// Get detalle con historial.
func (uc *PipelineUseCase) Get(ctx context.Context, actor *entity.User, id string) (*dto.PipelineItemResponse, error) {
	it, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	history, err := uc.ledger.List(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToItemResponse(it)
	out.History = toHistoryResponses(history)
	return out, nil
}

// History historial de una oportunidad visible, más reciente primero.
func (uc *PipelineUseCase) History(ctx context.Context, actor *entity.User, id string) ([]dto.HistoryResponse, error) {
	if _, err := uc.load(ctx, actor, id); err != nil {
		return nil, err
	}
	history, err := uc.ledger.List(ctx, id)
	if err != nil {
		return nil, err
	}
	return toHistoryResponses(history), nil
}

// Create alta de oportunidad: 404 si el cliente no existe, 403 si no es accesible.
func (uc *PipelineUseCase) Create(ctx context.Context, actor *entity.User, in dto.CreatePipelineItemRequest) (*dto.PipelineItemResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	value, err := ParseValue("value", in.Value)
	if err != nil {
		return nil, err
	}
	client, err := uc.clients.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(uc.policy(actor), access.Client, client, client != nil); err != nil {
		return nil, err
	}

	status := pipeline.InitialStatus
	if in.Status != "" {
		if status, err = pipeline.ParseStatus(in.Status); err != nil {
			return nil, domain.NewValidationError("status", err.Error(), in.Status)
		}
	}
	priority := entity.Priority(in.Priority)
	if priority == "" {
		priority = entity.PriorityMedia
	}
	assignee := in.AssignedToID
	if assignee == "" {
		assignee = actor.ID
	} else if err := resolveAssignee(ctx, uc.users, "assignedToId", assignee); err != nil {
		return nil, err
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	now := uc.now().UTC()
	it := &entity.PipelineItem{
		ID:           uuid.New().String(),
		ClientID:     client.ID,
		Products:     in.Products,
		Value:        value,
		Priority:     priority,
		Status:       status,
		LastContact:  in.LastContact.UTC(),
		DemoDate:     in.DemoDate,
		DeliveryDate: in.DeliveryDate,
		PaymentPlan:  in.PaymentPlan,
		Notes:        in.Notes,
		Tags:         tags,
		AssignedToID: assignee,
		CreatedByID:  actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.items.Create(ctx, it); err != nil {
		return nil, err
	}
	uc.ledger.Record(ctx, it.ID, entity.ActionCreated, nil, pipeline.Snapshot(it), actor.ID)
	it.Client = clientRef(client)
	return ToItemResponse(it), nil
}

// Update edición parcial. Solo escribe historial si algo cambió; si el único cambio es
// el responsable la entrada es ASSIGNED.
func (uc *PipelineUseCase) Update(ctx context.Context, actor *entity.User, id string, in dto.UpdatePipelineItemRequest) (*dto.PipelineItemResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	before, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.ClientID != nil && *in.ClientID != before.ClientID {
		return nil, domain.NewValidationError("clientId", "el cliente de una oportunidad no se puede cambiar", *in.ClientID)
	}
	after := *before
	after.Products = append([]string(nil), before.Products...)
	after.Tags = append([]string(nil), before.Tags...)

	if in.Products != nil {
		after.Products = in.Products
	}
	if in.Value != nil {
		v, err := ParseValue("value", in.Value)
		if err != nil {
			return nil, err
		}
		after.Value = v
	}
	if in.Priority != nil {
		after.Priority = entity.Priority(*in.Priority)
	}
	if in.Status != nil {
		st, err := pipeline.ParseStatus(*in.Status)
		if err != nil {
			return nil, domain.NewValidationError("status", err.Error(), *in.Status)
		}
		after.Status = st
	}
	if in.LastContact != nil {
		after.LastContact = in.LastContact.UTC()
	}
	if in.DemoDate != nil {
		after.DemoDate = in.DemoDate
	}
	if in.DeliveryDate != nil {
		after.DeliveryDate = in.DeliveryDate
	}
	if in.PaymentPlan != nil {
		after.PaymentPlan = *in.PaymentPlan
	}
	if in.Notes != nil {
		after.Notes = *in.Notes
	}
	if in.Tags != nil {
		after.Tags = in.Tags
	}
	if in.AssignedToID != nil && *in.AssignedToID != before.AssignedToID {
		if err := resolveAssignee(ctx, uc.users, "assignedToId", *in.AssignedToID); err != nil {
			return nil, err
		}
		after.AssignedToID = *in.AssignedToID
	}

	diff := pipeline.Diff(before, &after)
	if len(diff) == 0 {
		return ToItemResponse(before), nil
	}
	after.UpdatedAt = uc.now().UTC()
	if err := uc.items.Update(ctx, &after); err != nil {
		return nil, err
	}
	action := entity.ActionUpdated
	if pipeline.OnlyAssignment(diff) {
		action = entity.ActionAssigned
	}
	oldData, newData := pipeline.DiffData(diff)
	uc.ledger.Record(ctx, id, action, oldData, newData, actor.ID)
	if after.Status != before.Status {
		uc.rec.StatusChanged(string(after.Status))
		uc.promoteIfWon(ctx, &after)
	}
	return ToItemResponse(&after), nil
}

// ChangeStatus mueve la oportunidad de columna. Siempre escribe STATUS_CHANGED, incluso
// si el estado no cambia; un estado ganado pasa al cliente a etapa "Cliente".
func (uc *PipelineUseCase) ChangeStatus(ctx context.Context, actor *entity.User, id, status string) (*dto.PipelineItemResponse, error) {
	next, err := pipeline.ParseStatus(status)
	if err != nil {
		return nil, domain.NewValidationError("status", err.Error(), status)
	}
	it, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	prev := it.Status
	it.Status = next
	it.UpdatedAt = uc.now().UTC()
	if err := uc.items.Update(ctx, it); err != nil {
		return nil, err
	}
	oldData, newData := pipeline.StatusChange(prev, next)
	uc.ledger.Record(ctx, id, entity.ActionStatusChanged, oldData, newData, actor.ID)
	uc.rec.StatusChanged(string(next))
	uc.promoteIfWon(ctx, it)
	return ToItemResponse(it), nil
}

// promoteIfWon actualiza la etapa del cliente. Un fallo no revierte el cambio de estado.
func (uc *PipelineUseCase) promoteIfWon(ctx context.Context, it *entity.PipelineItem) {
	if !pipeline.IsWon(it.Status) {
		return
	}
	if err := uc.clients.SetStage(ctx, it.ClientID, entity.StageCliente); err != nil {
		uc.rec.PromotionFailed()
		uc.log.Warn().Err(err).
			Str("pipeline_item_id", it.ID).
			Str("client_id", it.ClientID).
			Msg("no se pudo actualizar la etapa del cliente tras la venta")
		return
	}
	if it.Client != nil {
		it.Client.Etapa = entity.StageCliente
	}
}

// Delete registra DELETED con una instantánea (incluye el nombre del cliente) y elimina.
func (uc *PipelineUseCase) Delete(ctx context.Context, actor *entity.User, id string) error {
	it, err := uc.load(ctx, actor, id)
	if err != nil {
		return err
	}
	clientName := ""
	if it.Client != nil {
		clientName = it.Client.FullName()
	}
	// La instantánea se toma antes de borrar y se persiste después: un borrado
	// fallido no deja entrada DELETED y el historial no tiene FK al ítem.
	if err := uc.items.Delete(ctx, id); err != nil {
		return err
	}
	uc.ledger.Record(ctx, id, entity.ActionDeleted, pipeline.DeletionSnapshot(it, clientName), nil, actor.ID)
	return nil
}

// Duplicate copia la oportunidad en estado NUEVO.
func (uc *PipelineUseCase) Duplicate(ctx context.Context, actor *entity.User, id string) (*dto.PipelineItemResponse, error) {
	src, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	cp := *src
	cp.ID = uuid.New().String()
	cp.Status = pipeline.InitialStatus
	cp.Products = append([]string(nil), src.Products...)
	cp.Tags = append([]string(nil), src.Tags...)
	cp.Notes = truncate(src.Notes+copySuffix, maxDuplicateNotes)
	cp.CreatedByID = actor.ID
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if err := uc.items.Create(ctx, &cp); err != nil {
		return nil, err
	}
	snap := pipeline.Snapshot(&cp)
	snap["duplicatedFrom"] = src.ID
	uc.ledger.Record(ctx, cp.ID, entity.ActionCreated, nil, snap, actor.ID)
	return ToItemResponse(&cp), nil
}

// Search búsqueda rápida sobre las oportunidades visibles.
func (uc *PipelineUseCase) Search(ctx context.Context, actor *entity.User, term, status, priority string, limit int) ([]dto.PipelineItemResponse, error) {
	search, err := query.NewSearch(term, PipelineSearchFields...)
	if err != nil {
		return nil, err
	}
	filters, err := uc.filters(dto.PipelineListParams{Status: status, Priority: priority})
	if err != nil {
		return nil, err
	}
	q := query.Build(uc.policy(actor).Visibility(access.PipelineItem), filters, search, searchLimit(limit), query.DefaultSort)
	rows, err := uc.items.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return toItemResponses(rows), nil
}

// Stats estadísticas del embudo visible. periodDays <= 0 no filtra por fecha; assignedTo
// solo se aplica a roles privilegiados.
func (uc *PipelineUseCase) Stats(ctx context.Context, actor *entity.User, periodDays int, assignedTo string) (*dto.PipelineStatsResponse, error) {
	pol := uc.policy(actor)
	where := pol.Visibility(access.PipelineItem)
	if pol.Privileged() && assignedTo != "" {
		where = query.And(where, query.Eq("assignedToId", assignedTo))
	}
	if periodDays > 0 {
		from := uc.now().UTC().AddDate(0, 0, -periodDays)
		where = query.And(where, query.AtOrAfter("createdAt", from))
	}
	won := make([]string, 0, len(pipeline.WonStatuses))
	for _, s := range pipeline.WonStatuses {
		won = append(won, string(s))
	}

	type groupResult struct {
		groups []query.Group
		err    error
	}
	type countResult struct {
		n   int64
		err error
	}
	group := func(field string) <-chan groupResult {
		ch := make(chan groupResult, 1)
		go func() {
			g, err := uc.items.GroupBy(ctx, where, field)
			ch <- groupResult{g, err}
		}()
		return ch
	}
	statusCh := group("status")
	priorityCh := group("priority")
	convertedCh := make(chan countResult, 1)
	go func() {
		n, err := uc.items.Count(ctx, query.And(where, query.In("status", won...)))
		convertedCh <- countResult{n, err}
	}()
	uniqueCh := make(chan countResult, 1)
	go func() {
		n, err := uc.items.CountDistinct(ctx, where, "clientId")
		uniqueCh <- countResult{n, err}
	}()
	var userCh <-chan groupResult
	if pol.Privileged() {
		userCh = group("assignedToId")
	}

	byStatus, byPriority, converted, unique := <-statusCh, <-priorityCh, <-convertedCh, <-uniqueCh
	for _, err := range []error{byStatus.err, byPriority.err, converted.err, unique.err} {
		if err != nil {
			return nil, fmt.Errorf("estadísticas del pipeline: %w", err)
		}
	}

	var total int64
	totalValue := decimal.Zero
	statuses := make([]dto.StatusStat, 0, len(byStatus.groups))
	for _, g := range byStatus.groups {
		total += g.Count
		totalValue = totalValue.Add(g.Sum)
		statuses = append(statuses, dto.StatusStat{Status: g.Key, Count: g.Count, Value: g.Sum.String()})
	}
	rate := decimal.Zero
	if total > 0 {
		rate = decimal.NewFromInt(converted.n).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(total))
	}
	out := &dto.PipelineStatsResponse{
		Total:          total,
		ByStatus:       statuses,
		ByPriority:     countItems(byPriority.groups),
		Converted:      converted.n,
		ConversionRate: rate.StringFixed(2),
		TotalValue:     totalValue.String(),
		UniqueClients:  unique.n,
	}
	if userCh != nil {
		users := <-userCh
		if users.err != nil {
			return nil, fmt.Errorf("estadísticas del pipeline: %w", users.err)
		}
		names, err := byUser(ctx, uc.users, users.groups)
		if err != nil {
			return nil, err
		}
		out.ByUser = names
	}
	return out, nil
}

// BulkUpdate aplica cambios a varias oportunidades. Un id inaccesible rechaza el lote
// completo; cada fila modificada recibe su entrada BULK_UPDATED.
func (uc *PipelineUseCase) BulkUpdate(ctx context.Context, actor *entity.User, in dto.PipelineBulkUpdateRequest) (*dto.BulkResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u := in.Updates
	if u.Status == nil && u.Priority == nil && u.AssignedToID == nil {
		return nil, domain.NewValidationError("updates", "no hay campos para actualizar", nil)
	}
	accessible, err := uc.items.FindIDs(ctx, query.And(
		query.In("id", in.ItemIDs...),
		uc.policy(actor).Visibility(access.PipelineItem),
	))
	if err != nil {
		return nil, err
	}
	if err := access.CheckBatch(in.ItemIDs, accessible); err != nil {
		return nil, err
	}
	if u.AssignedToID != nil {
		if err := resolveAssignee(ctx, uc.users, "updates.assignedToId", *u.AssignedToID); err != nil {
			return nil, err
		}
	}

	res := &dto.BulkResult{Requested: len(accessible), Failed: []dto.BulkRowFailed{}}
	for _, id := range accessible {
		if err := uc.applyBulk(ctx, actor, id, u); err != nil {
			uc.log.Warn().Err(err).Str("pipeline_item_id", id).Msg("actualización masiva: fila fallida")
			res.Failed = append(res.Failed, dto.BulkRowFailed{ID: id, Error: err.Error()})
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (uc *PipelineUseCase) applyBulk(ctx context.Context, actor *entity.User, id string, u dto.PipelineBulkUpdate) error {
	before, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if before == nil {
		return domain.ErrNotFound
	}
	after := *before
	if u.Status != nil {
		after.Status = entity.PipelineStatus(*u.Status)
	}
	if u.Priority != nil {
		after.Priority = entity.Priority(*u.Priority)
	}
	if u.AssignedToID != nil {
		after.AssignedToID = *u.AssignedToID
	}
	diff := pipeline.Diff(before, &after)
	if len(diff) == 0 {
		return nil
	}
	after.UpdatedAt = uc.now().UTC()
	if err := uc.items.Update(ctx, &after); err != nil {
		return err
	}
	oldData, newData := pipeline.DiffData(diff)
	uc.ledger.Record(ctx, id, entity.ActionBulkUpdated, oldData, newData, actor.ID)
	if after.Status != before.Status {
		uc.rec.StatusChanged(string(after.Status))
		uc.promoteIfWon(ctx, &after)
	}
	return nil
}

func clientRef(c *entity.Client) *entity.ClientRef {
	return &entity.ClientRef{
		ID:       c.ID,
		Nombre:   c.Nombre,
		Apellido: c.Apellido,
		Email:    c.Email,
		Telefono: c.Telefono,
		Empresa:  c.Empresa,
		Etapa:    c.Etapa,
	}
}

func toItemResponses(rows []*entity.PipelineItem) []dto.PipelineItemResponse {
	out := make([]dto.PipelineItemResponse, 0, len(rows))
	for _, it := range rows {
		out = append(out, *ToItemResponse(it))
	}
	return out
}

// ToItemResponse proyección de salida.
func ToItemResponse(it *entity.PipelineItem) *dto.PipelineItemResponse {
	out := &dto.PipelineItemResponse{
		ID:           it.ID,
		ClientID:     it.ClientID,
		Products:     it.Products,
		Value:        it.Value.String(),
		Priority:     string(it.Priority),
		Status:       string(it.Status),
		LastContact:  it.LastContact,
		DemoDate:     it.DemoDate,
		DeliveryDate: it.DeliveryDate,
		PaymentPlan:  it.PaymentPlan,
		Notes:        it.Notes,
		Tags:         it.Tags,
		AssignedToID: it.AssignedToID,
		CreatedByID:  it.CreatedByID,
		CreatedAt:    it.CreatedAt,
		UpdatedAt:    it.UpdatedAt,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if c := it.Client; c != nil {
		out.Client = &dto.PipelineClientResponse{
			ID:       c.ID,
			Nombre:   c.Nombre,
			Apellido: c.Apellido,
			Email:    c.Email,
			Telefono: c.Telefono,
			Empresa:  c.Empresa,
			Etapa:    c.Etapa,
		}
	}
	return out
}

func toHistoryResponses(rows []*entity.PipelineHistory) []dto.HistoryResponse {
	out := make([]dto.HistoryResponse, 0, len(rows))
	for _, h := range rows {
		r := dto.HistoryResponse{
			ID:             h.ID,
			PipelineItemID: h.PipelineItemID,
			Action:         string(h.Action),
			OldData:        h.OldData,
			NewData:        h.NewData,
			ChangedByID:    h.ChangedByID,
			CreatedAt:      h.CreatedAt,
		}
		if h.ChangedBy != nil {
			r.ChangedByName = strings.TrimSpace(h.ChangedBy.Firstname + " " + h.ChangedBy.Lastname)
		}
		out = append(out, r)
	}
	return out
}

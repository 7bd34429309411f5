package crm

import (
	"context"
	"fmt"
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
)

// TaskSearchFields búsqueda libre de tareas.
var TaskSearchFields = []string{"title", "description"}

var taskSortFields = query.Columns{
	"title": "title", "type": "type", "status": "status", "priority": "priority",
	"dueDate": "dueDate", "createdAt": "createdAt", "updatedAt": "updatedAt",
}

// TaskDefaultSort próximas a vencer primero.
var TaskDefaultSort = query.Sort{Field: "dueDate"}

const (
	defaultTaskListLimit = 50
	defaultUpcomingDays  = 3
)

// TaskUseCase casos de uso de tareas.
type TaskUseCase struct {
	tasks   repository.TaskRepository
	clients repository.ClientRepository
	users   repository.UserRepository
	log     zerolog.Logger
	opts    []access.Option
	now     func() time.Time
}

// NewTaskUseCase construye el caso de uso.
func NewTaskUseCase(
	tasks repository.TaskRepository,
	clients repository.ClientRepository,
	users repository.UserRepository,
	log zerolog.Logger,
	opts ...access.Option,
) *TaskUseCase {
	return &TaskUseCase{tasks: tasks, clients: clients, users: users, log: log, opts: opts, now: time.Now}
}

func (uc *TaskUseCase) policy(actor *entity.User) access.Policy {
	return access.For(actor, uc.opts...)
}

func openStatuses() query.Predicate {
	return query.In("status", string(entity.TaskPending), string(entity.TaskInProgress))
}

// List página de tareas visibles; por defecto ordenadas por vencimiento ascendente.
func (uc *TaskUseCase) List(ctx context.Context, actor *entity.User, p dto.TaskListParams) (*dto.TaskListResponse, error) {
	search, err := searchFrom(p.ListParams, TaskSearchFields...)
	if err != nil {
		return nil, err
	}
	filters := []query.Predicate{
		eqIf("status", p.Status),
		eqIf("priority", p.Priority),
		eqIf("type", p.Type),
		eqIf("clientId", p.ClientID),
		eqIf("assignedToId", p.AssignedToID),
	}
	if p.DateFrom != nil {
		filters = append(filters, query.AtOrAfter("dueDate", *p.DateFrom))
	}
	if p.DateTo != nil {
		filters = append(filters, query.AtOrBefore("dueDate", *p.DateTo))
	}
	if p.Overdue {
		filters = append(filters, query.Before("dueDate", uc.now().UTC()), openStatuses())
	}
	q := query.Build(
		uc.policy(actor).Visibility(access.Task),
		filters,
		search,
		query.NewPage(p.Page, p.Limit),
		query.NewSort(p.SortBy, p.SortOrder, taskSortFields, TaskDefaultSort),
	)
	return uc.page(ctx, q)
}

func (uc *TaskUseCase) page(ctx context.Context, q query.Query) (*dto.TaskListResponse, error) {
	rows, err := uc.tasks.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := uc.tasks.Count(ctx, q.Where)
	if err != nil {
		return nil, err
	}
	return &dto.TaskListResponse{Tasks: uc.toResponses(rows), Pagination: dto.NewPagination(total, q.Page)}, nil
}

// MyTasks tareas asignadas al usuario.
func (uc *TaskUseCase) MyTasks(ctx context.Context, actor *entity.User, status, priority string, limit int) ([]dto.TaskResponse, error) {
	if limit <= 0 {
		limit = defaultTaskListLimit
	}
	q := query.Build(
		query.Eq(access.FieldAssignedTo, actor.ID),
		[]query.Predicate{eqIf("status", status), eqIf("priority", priority)},
		nil,
		query.NewPage(1, limit),
		TaskDefaultSort,
	)
	rows, err := uc.tasks.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return uc.toResponses(rows), nil
}

func (uc *TaskUseCase) load(ctx context.Context, actor *entity.User, id string) (*entity.Task, error) {
	t, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(uc.policy(actor), access.Task, t, t != nil); err != nil {
		return nil, err
	}
	return t, nil
}

// Get detalle de una tarea visible.
func (uc *TaskUseCase) Get(ctx context.Context, actor *entity.User, id string) (*dto.TaskResponse, error) {
	t, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return uc.toResponse(t), nil
}

// checkClient el cliente debe existir y ser accesible para el usuario.
func (uc *TaskUseCase) checkClient(ctx context.Context, actor *entity.User, clientID *string) error {
	if clientID == nil || *clientID == "" {
		return nil
	}
	c, err := uc.clients.GetByID(ctx, *clientID)
	if err != nil {
		return err
	}
	return checkAccess(uc.policy(actor), access.Client, c, c != nil)
}

// Create alta de tarea. El responsable por defecto es el creador.
func (uc *TaskUseCase) Create(ctx context.Context, actor *entity.User, in dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	clientID := in.ClientID
	if clientID != nil && *clientID == "" {
		clientID = nil
	}
	if err := uc.checkClient(ctx, actor, clientID); err != nil {
		return nil, err
	}
	assignee := in.AssignedToID
	if assignee == "" {
		assignee = actor.ID
	} else if err := resolveAssignee(ctx, uc.users, "assignedToId", assignee); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	t := &entity.Task{
		ID:              uuid.New().String(),
		Title:           in.Title,
		Description:     in.Description,
		Type:            entity.TaskType(in.Type),
		Status:          entity.TaskStatus(in.Status),
		Priority:        entity.Priority(in.Priority),
		DueDate:         in.DueDate.UTC(),
		ReminderEnabled: in.ReminderEnabled,
		ReminderTime:    in.ReminderTime,
		ClientID:        clientID,
		CreatedByID:     actor.ID,
		AssignedToID:    assignee,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if t.Type == "" {
		t.Type = entity.TaskSeguimiento
	}
	if t.Status == "" {
		t.Status = entity.TaskPending
	}
	if t.Priority == "" {
		t.Priority = entity.PriorityMedia
	}
	if t.Status == entity.TaskCompleted {
		t.CompletedAt = &now
	}
	if err := uc.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	return uc.toResponse(t), nil
}

// Update edición parcial.
func (uc *TaskUseCase) Update(ctx context.Context, actor *entity.User, id string, in dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	t, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Type != nil {
		t.Type = entity.TaskType(*in.Type)
	}
	if in.Priority != nil {
		t.Priority = entity.Priority(*in.Priority)
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate.UTC()
	}
	if in.ReminderEnabled != nil {
		t.ReminderEnabled = *in.ReminderEnabled
	}
	if in.ReminderTime != nil {
		t.ReminderTime = in.ReminderTime
	}
	if in.ClientID != nil && !sameString(in.ClientID, t.ClientID) {
		if *in.ClientID == "" {
			t.ClientID = nil
		} else {
			if err := uc.checkClient(ctx, actor, in.ClientID); err != nil {
				return nil, err
			}
			t.ClientID = in.ClientID
		}
	}
	if in.AssignedToID != nil && *in.AssignedToID != t.AssignedToID {
		if err := resolveAssignee(ctx, uc.users, "assignedToId", *in.AssignedToID); err != nil {
			return nil, err
		}
		t.AssignedToID = *in.AssignedToID
	}
	if in.Status != nil {
		uc.setStatus(t, entity.TaskStatus(*in.Status))
	}
	t.UpdatedAt = uc.now().UTC()
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return uc.toResponse(t), nil
}

// setStatus COMPLETED marca completedAt; cualquier otro estado lo limpia.
func (uc *TaskUseCase) setStatus(t *entity.Task, status entity.TaskStatus) {
	if status == t.Status {
		return
	}
	t.Status = status
	if status == entity.TaskCompleted {
		now := uc.now().UTC()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
}

// ChangeStatus PATCH /tasks/:id/status.
func (uc *TaskUseCase) ChangeStatus(ctx context.Context, actor *entity.User, id, status string) (*dto.TaskResponse, error) {
	st := entity.TaskStatus(status)
	if !st.Valid() {
		return nil, domain.NewValidationError("status", "estado de tarea inválido", status)
	}
	t, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	uc.setStatus(t, st)
	t.UpdatedAt = uc.now().UTC()
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return uc.toResponse(t), nil
}

// Complete atajo a COMPLETED.
func (uc *TaskUseCase) Complete(ctx context.Context, actor *entity.User, id string) (*dto.TaskResponse, error) {
	return uc.ChangeStatus(ctx, actor, id, string(entity.TaskCompleted))
}

// Start atajo a IN_PROGRESS.
func (uc *TaskUseCase) Start(ctx context.Context, actor *entity.User, id string) (*dto.TaskResponse, error) {
	return uc.ChangeStatus(ctx, actor, id, string(entity.TaskInProgress))
}

// Cancel atajo a CANCELLED.
func (uc *TaskUseCase) Cancel(ctx context.Context, actor *entity.User, id string) (*dto.TaskResponse, error) {
	return uc.ChangeStatus(ctx, actor, id, string(entity.TaskCancelled))
}

// SetPriority PUT /tasks/:id/priority.
func (uc *TaskUseCase) SetPriority(ctx context.Context, actor *entity.User, id, priority string) (*dto.TaskResponse, error) {
	p := entity.Priority(priority)
	if !p.Valid() {
		return nil, domain.NewValidationError("priority", "prioridad inválida", priority)
	}
	t, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	t.Priority = p
	t.UpdatedAt = uc.now().UTC()
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return uc.toResponse(t), nil
}

// SetReminder activa el recordatorio.
func (uc *TaskUseCase) SetReminder(ctx context.Context, actor *entity.User, id, reminderTime string) (*dto.TaskResponse, error) {
	if reminderTime == "" {
		return nil, domain.NewValidationError("reminderTime", "es obligatorio", nil)
	}
	t, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	t.ReminderEnabled = true
	t.ReminderTime = &reminderTime
	t.UpdatedAt = uc.now().UTC()
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return uc.toResponse(t), nil
}

// ClearReminder desactiva el recordatorio.
func (uc *TaskUseCase) ClearReminder(ctx context.Context, actor *entity.User, id string) (*dto.TaskResponse, error) {
	t, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	t.ReminderEnabled = false
	t.ReminderTime = nil
	t.UpdatedAt = uc.now().UTC()
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return uc.toResponse(t), nil
}

// Delete elimina una tarea visible.
func (uc *TaskUseCase) Delete(ctx context.Context, actor *entity.User, id string) error {
	if _, err := uc.load(ctx, actor, id); err != nil {
		return err
	}
	return uc.tasks.Delete(ctx, id)
}

// Duplicate copia la tarea: vence un día después, queda PENDING y sin recordatorio ni evento.
func (uc *TaskUseCase) Duplicate(ctx context.Context, actor *entity.User, id string) (*dto.TaskResponse, error) {
	src, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	cp := *src
	cp.ID = uuid.New().String()
	cp.Title = truncate(src.Title+copySuffix, 100)
	cp.DueDate = src.DueDate.AddDate(0, 0, 1)
	cp.Status = entity.TaskPending
	cp.ReminderEnabled = false
	cp.ReminderTime = nil
	cp.EventID = nil
	cp.CalendarID = nil
	cp.CompletedAt = nil
	cp.CreatedByID = actor.ID
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if err := uc.tasks.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return uc.toResponse(&cp), nil
}

// Search búsqueda rápida por título y descripción.
func (uc *TaskUseCase) Search(ctx context.Context, actor *entity.User, term, status, priority, taskType string, limit int) ([]dto.TaskResponse, error) {
	search, err := query.NewSearch(term, TaskSearchFields...)
	if err != nil {
		return nil, err
	}
	q := query.Build(
		uc.policy(actor).Visibility(access.Task),
		[]query.Predicate{eqIf("status", status), eqIf("priority", priority), eqIf("type", taskType)},
		search,
		searchLimit(limit),
		TaskDefaultSort,
	)
	rows, err := uc.tasks.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return uc.toResponses(rows), nil
}

// Overdue vencidas sin cerrar, la más reciente primero.
func (uc *TaskUseCase) Overdue(ctx context.Context, actor *entity.User, limit int) ([]dto.TaskResponse, error) {
	if limit <= 0 {
		limit = defaultTaskListLimit
	}
	q := query.Build(
		uc.policy(actor).Visibility(access.Task),
		[]query.Predicate{query.Before("dueDate", uc.now().UTC()), openStatuses()},
		nil,
		query.NewPage(1, limit),
		query.Sort{Field: "dueDate", Desc: true},
	)
	rows, err := uc.tasks.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return uc.toResponses(rows), nil
}

// Upcoming abiertas que vencen entre ahora y ahora+days.
func (uc *TaskUseCase) Upcoming(ctx context.Context, actor *entity.User, days, limit int) ([]dto.TaskResponse, error) {
	if days <= 0 {
		days = defaultUpcomingDays
	}
	if limit <= 0 {
		limit = defaultTaskListLimit
	}
	now := uc.now().UTC()
	q := query.Build(
		uc.policy(actor).Visibility(access.Task),
		[]query.Predicate{
			query.AtOrAfter("dueDate", now),
			query.AtOrBefore("dueDate", now.AddDate(0, 0, days)),
			openStatuses(),
		},
		nil,
		query.NewPage(1, limit),
		TaskDefaultSort,
	)
	rows, err := uc.tasks.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return uc.toResponses(rows), nil
}

// CountOverdue total de tareas vencidas sin cerrar (barrido programado).
func (uc *TaskUseCase) CountOverdue(ctx context.Context) (int64, error) {
	return uc.tasks.Count(ctx, query.And(query.Before("dueDate", uc.now().UTC()), openStatuses()))
}

// Stats estadísticas de las tareas visibles. periodDays > 0 filtra por fecha de creación.
func (uc *TaskUseCase) Stats(ctx context.Context, actor *entity.User, periodDays int) (*dto.TaskStatsResponse, error) {
	pol := uc.policy(actor)
	where := pol.Visibility(access.Task)
	now := uc.now().UTC()
	if periodDays > 0 {
		where = query.And(where, query.AtOrAfter("createdAt", now.AddDate(0, 0, -periodDays)))
	}
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	type countResult struct {
		n   int64
		err error
	}
	type groupResult struct {
		groups []query.Group
		err    error
	}
	count := func(extra ...query.Predicate) <-chan countResult {
		ch := make(chan countResult, 1)
		pred := query.And(append([]query.Predicate{where}, extra...)...)
		go func() {
			n, err := uc.tasks.Count(ctx, pred)
			ch <- countResult{n, err}
		}()
		return ch
	}
	group := func(field string) <-chan groupResult {
		ch := make(chan groupResult, 1)
		go func() {
			g, err := uc.tasks.GroupBy(ctx, where, field)
			ch <- groupResult{g, err}
		}()
		return ch
	}

	overdueCh := count(query.Before("dueDate", now), openStatuses())
	todayCh := count(query.AtOrAfter("dueDate", startOfDay), query.Before("dueDate", startOfDay.AddDate(0, 0, 1)))
	weekCh := count(query.AtOrAfter("dueDate", startOfDay), query.Before("dueDate", startOfDay.AddDate(0, 0, 7)))
	statusCh := group("status")
	typeCh := group("type")
	priorityCh := group("priority")
	var userCh <-chan groupResult
	if pol.Privileged() {
		userCh = group("assignedToId")
	}

	overdue, today, week := <-overdueCh, <-todayCh, <-weekCh
	byStatus, byType, byPriority := <-statusCh, <-typeCh, <-priorityCh
	for _, err := range []error{overdue.err, today.err, week.err, byStatus.err, byType.err, byPriority.err} {
		if err != nil {
			return nil, fmt.Errorf("estadísticas de tareas: %w", err)
		}
	}

	out := &dto.TaskStatsResponse{
		Overdue:    overdue.n,
		Today:      today.n,
		ThisWeek:   week.n,
		ByType:     countItems(byType.groups),
		ByPriority: countItems(byPriority.groups),
		ByStatus:   countItems(byStatus.groups),
	}
	for _, g := range byStatus.groups {
		out.Total += g.Count
		switch entity.TaskStatus(g.Key) {
		case entity.TaskPending:
			out.Pending = g.Count
		case entity.TaskInProgress:
			out.InProgress = g.Count
		case entity.TaskCompleted:
			out.Completed = g.Count
		case entity.TaskCancelled:
			out.Cancelled = g.Count
		}
	}
	if userCh != nil {
		users := <-userCh
		if users.err != nil {
			return nil, fmt.Errorf("estadísticas de tareas: %w", users.err)
		}
		names, err := byUser(ctx, uc.users, users.groups)
		if err != nil {
			return nil, err
		}
		out.ByUser = names
	}
	return out, nil
}

// accessible ids visibles dentro del lote; si falta alguno se rechaza completo.
func (uc *TaskUseCase) accessible(ctx context.Context, actor *entity.User, ids []string) ([]string, error) {
	found, err := uc.tasks.FindIDs(ctx, query.And(
		query.In("id", ids...),
		uc.policy(actor).Visibility(access.Task),
	))
	if err != nil {
		return nil, err
	}
	if err := access.CheckBatch(ids, found); err != nil {
		return nil, err
	}
	return found, nil
}

// bulk aplica fn a cada tarea del lote; los fallos por fila no revierten las demás.
func (uc *TaskUseCase) bulk(ctx context.Context, actor *entity.User, ids []string, fn func(t *entity.Task)) (*dto.BulkResult, error) {
	found, err := uc.accessible(ctx, actor, ids)
	if err != nil {
		return nil, err
	}
	res := &dto.BulkResult{Requested: len(found), Failed: []dto.BulkRowFailed{}}
	for _, id := range found {
		if err := uc.applyOne(ctx, id, fn); err != nil {
			uc.log.Warn().Err(err).Str("task_id", id).Msg("operación masiva de tareas: fila fallida")
			res.Failed = append(res.Failed, dto.BulkRowFailed{ID: id, Error: err.Error()})
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (uc *TaskUseCase) applyOne(ctx context.Context, id string, fn func(t *entity.Task)) error {
	t, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return domain.ErrNotFound
	}
	fn(t)
	t.UpdatedAt = uc.now().UTC()
	return uc.tasks.Update(ctx, t)
}

// BulkUpdate estado, prioridad o responsable de varias tareas.
func (uc *TaskUseCase) BulkUpdate(ctx context.Context, actor *entity.User, in dto.TaskBulkUpdateRequest) (*dto.BulkResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u := in.Updates
	if u.Status == nil && u.Priority == nil && u.AssignedToID == nil {
		return nil, domain.NewValidationError("updates", "no hay campos para actualizar", nil)
	}
	if u.AssignedToID != nil {
		if err := resolveAssignee(ctx, uc.users, "updates.assignedToId", *u.AssignedToID); err != nil {
			return nil, err
		}
	}
	return uc.bulk(ctx, actor, in.TaskIDs, func(t *entity.Task) {
		if u.Status != nil {
			uc.setStatus(t, entity.TaskStatus(*u.Status))
		}
		if u.Priority != nil {
			t.Priority = entity.Priority(*u.Priority)
		}
		if u.AssignedToID != nil {
			t.AssignedToID = *u.AssignedToID
		}
	})
}

// BulkComplete marca varias tareas como completadas.
func (uc *TaskUseCase) BulkComplete(ctx context.Context, actor *entity.User, in dto.IDsRequest) (*dto.BulkResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return uc.bulk(ctx, actor, in.IDs, func(t *entity.Task) {
		uc.setStatus(t, entity.TaskCompleted)
	})
}

// BulkAssign reasigna varias tareas; el usuario destino debe existir.
func (uc *TaskUseCase) BulkAssign(ctx context.Context, actor *entity.User, in dto.TaskBulkAssignRequest) (*dto.BulkResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := resolveAssignee(ctx, uc.users, "assignedToId", in.AssignedToID); err != nil {
		return nil, err
	}
	return uc.bulk(ctx, actor, in.TaskIDs, func(t *entity.Task) {
		t.AssignedToID = in.AssignedToID
	})
}

// BulkDelete elimina varias tareas.
func (uc *TaskUseCase) BulkDelete(ctx context.Context, actor *entity.User, in dto.IDsRequest) (*dto.BulkResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	found, err := uc.accessible(ctx, actor, in.IDs)
	if err != nil {
		return nil, err
	}
	res := &dto.BulkResult{Requested: len(found), Failed: []dto.BulkRowFailed{}}
	for _, id := range found {
		if err := uc.tasks.Delete(ctx, id); err != nil {
			uc.log.Warn().Err(err).Str("task_id", id).Msg("borrado masivo de tareas: fila fallida")
			res.Failed = append(res.Failed, dto.BulkRowFailed{ID: id, Error: err.Error()})
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (uc *TaskUseCase) toResponses(rows []*entity.Task) []dto.TaskResponse {
	out := make([]dto.TaskResponse, 0, len(rows))
	for _, t := range rows {
		out = append(out, *uc.toResponse(t))
	}
	return out
}

func (uc *TaskUseCase) toResponse(t *entity.Task) *dto.TaskResponse {
	return ToTaskResponse(t, uc.now())
}

// ToTaskResponse proyección de salida; overdue se calcula contra now.
func ToTaskResponse(t *entity.Task, now time.Time) *dto.TaskResponse {
	return &dto.TaskResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Type:            string(t.Type),
		Status:          string(t.Status),
		Priority:        string(t.Priority),
		DueDate:         t.DueDate,
		ReminderEnabled: t.ReminderEnabled,
		ReminderTime:    t.ReminderTime,
		ClientID:        t.ClientID,
		CreatedByID:     t.CreatedByID,
		AssignedToID:    t.AssignedToID,
		EventID:         t.EventID,
		CalendarID:      t.CalendarID,
		CompletedAt:     t.CompletedAt,
		Overdue:         t.Overdue(now),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

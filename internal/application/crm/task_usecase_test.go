package crm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
)

func (e *env) newTask(t *testing.T, actor *entity.User, title string, due time.Time) *dto.TaskResponse {
	t.Helper()
	out, err := e.task.Create(context.Background(), actor, dto.CreateTaskRequest{Title: title, DueDate: &due})
	require.NoError(t, err)
	return out
}

func TestTaskCreate_ValoresPorDefecto(t *testing.T) {
	e := newEnv(t)
	tk := e.newTask(t, e.ana, "Llamar a Carla", time.Now().Add(time.Hour))

	assert.Equal(t, "PENDING", tk.Status)
	assert.Equal(t, "MEDIA", tk.Priority)
	assert.Equal(t, "SEGUIMIENTO", tk.Type)
	assert.Equal(t, e.ana.ID, tk.AssignedToID)
	assert.Equal(t, e.ana.ID, tk.CreatedByID)
	assert.False(t, tk.Overdue)
}

func TestTaskCreate_ClienteDebeSerAccesible(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ajeno := e.newClient(t, e.beto, "Bruno", "+12025550101")
	due := time.Now()

	_, err := e.task.Create(ctx, e.ana, dto.CreateTaskRequest{Title: "Visita", DueDate: &due, ClientID: &ajeno.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.task.Create(ctx, e.ana, dto.CreateTaskRequest{Title: "Visita", DueDate: &due, ClientID: strp("no-existe")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.task.Create(ctx, e.ana, dto.CreateTaskRequest{Title: "Visita", DueDate: &due, AssignedToID: "fantasma"})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestTaskStatus_CompletedAt(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tk := e.newTask(t, e.ana, "Enviar propuesta", time.Now().Add(-time.Hour))
	assert.True(t, tk.Overdue)

	done, err := e.task.Complete(ctx, e.ana, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.False(t, done.Overdue)

	again, err := e.task.Start(ctx, e.ana, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", again.Status)
	assert.Nil(t, again.CompletedAt)

	_, err = e.task.ChangeStatus(ctx, e.ana, tk.ID, "ARCHIVADA")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTaskGet_ProhibidoParaAjenos(t *testing.T) {
	e := newEnv(t)
	tk := e.newTask(t, e.beto, "Reunión", time.Now())

	_, err := e.task.Get(context.Background(), e.ana, tk.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.task.Get(context.Background(), e.admin, tk.ID)
	assert.NoError(t, err)
}

func TestTaskDuplicate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	due := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	src, err := e.task.Create(ctx, e.ana, dto.CreateTaskRequest{
		Title: "Demo", DueDate: &due, Status: "COMPLETED", ReminderEnabled: true, ReminderTime: strp("15m"),
	})
	require.NoError(t, err)

	cp, err := e.task.Duplicate(ctx, e.ana, src.ID)
	require.NoError(t, err)
	assert.Equal(t, "Demo (Copia)", cp.Title)
	assert.Equal(t, due.AddDate(0, 0, 1), cp.DueDate)
	assert.Equal(t, "PENDING", cp.Status)
	assert.False(t, cp.ReminderEnabled)
	assert.Nil(t, cp.ReminderTime)
	assert.Nil(t, cp.EventID)
	assert.Nil(t, cp.CompletedAt)
}

func TestTaskReminder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tk := e.newTask(t, e.ana, "Seguimiento", time.Now().Add(24*time.Hour))

	on, err := e.task.SetReminder(ctx, e.ana, tk.ID, "30m")
	require.NoError(t, err)
	assert.True(t, on.ReminderEnabled)
	require.NotNil(t, on.ReminderTime)
	assert.Equal(t, "30m", *on.ReminderTime)

	off, err := e.task.ClearReminder(ctx, e.ana, tk.ID)
	require.NoError(t, err)
	assert.False(t, off.ReminderEnabled)
	assert.Nil(t, off.ReminderTime)
}

func TestTaskOverdueYUpcoming(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Now()
	vencida := e.newTask(t, e.ana, "Vencida", now.Add(-2*time.Hour))
	cerrada := e.newTask(t, e.ana, "Vencida cerrada", now.Add(-3*time.Hour))
	_, err := e.task.Cancel(ctx, e.ana, cerrada.ID)
	require.NoError(t, err)
	pronto := e.newTask(t, e.ana, "Mañana", now.Add(24*time.Hour))
	e.newTask(t, e.ana, "Lejana", now.Add(10*24*time.Hour))
	e.newTask(t, e.beto, "Vencida ajena", now.Add(-time.Hour))

	overdue, err := e.task.Overdue(ctx, e.ana, 0)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, vencida.ID, overdue[0].ID)

	upcoming, err := e.task.Upcoming(ctx, e.ana, 0, 0)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, pronto.ID, upcoming[0].ID)

	n, err := e.task.CountOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := e.task.List(ctx, e.ana, dto.TaskListParams{Overdue: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Pagination.Total)
}

func TestTaskList_OrdenPorVencimientoYBusqueda(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Now()
	tarde := e.newTask(t, e.ana, "Llamar proveedor", now.Add(48*time.Hour))
	temprano := e.newTask(t, e.ana, "Llamar cliente", now.Add(time.Hour))
	e.newTask(t, e.beto, "Llamar socio", now)

	list, err := e.task.List(ctx, e.ana, dto.TaskListParams{})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 2)
	assert.Equal(t, temprano.ID, list.Tasks[0].ID)
	assert.Equal(t, tarde.ID, list.Tasks[1].ID)

	found, err := e.task.Search(ctx, e.ana, "llamar", "", "", "", 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = e.task.Search(ctx, e.ana, "l", "", "", "", 0)
	assert.ErrorIs(t, err, domain.ErrSearchTooShort)
}

func TestTaskMyTasks_SoloAsignadas(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	due := time.Now()
	_, err := e.task.Create(ctx, e.ana, dto.CreateTaskRequest{Title: "Para beto", DueDate: &due, AssignedToID: e.beto.ID})
	require.NoError(t, err)
	mia := e.newTask(t, e.ana, "Mía", due)

	mine, err := e.task.MyTasks(ctx, e.ana, "", "", 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, mia.ID, mine[0].ID)
}

func TestTaskStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()
	e.newTask(t, e.ana, "Vencida", now.Add(-48*time.Hour))
	hecha := e.newTask(t, e.ana, "Hecha", now.Add(72*time.Hour))
	_, err := e.task.Complete(ctx, e.ana, hecha.ID)
	require.NoError(t, err)
	e.newTask(t, e.beto, "Ajena", now)

	st, err := e.task.Stats(ctx, e.ana, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Total)
	assert.Equal(t, int64(1), st.Pending)
	assert.Equal(t, int64(1), st.Completed)
	assert.Equal(t, int64(1), st.Overdue)
	assert.Equal(t, int64(1), st.ThisWeek)
	assert.Nil(t, st.ByUser)

	adm, err := e.task.Stats(ctx, e.admin, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), adm.Total)
	assert.Len(t, adm.ByUser, 2)
}

func TestTaskBulk_LoteMixtoSeRechaza(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mine := e.newTask(t, e.ana, "Propia", time.Now())
	other := e.newTask(t, e.beto, "Ajena", time.Now())
	ids := []string{mine.ID, other.ID}

	_, err := e.task.BulkComplete(ctx, e.ana, dto.IDsRequest{IDs: ids})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.task.BulkDelete(ctx, e.ana, dto.IDsRequest{IDs: ids})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := e.task.Get(ctx, e.ana, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", got.Status)
}

func TestTaskBulk_Privilegiado(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newTask(t, e.ana, "Una", time.Now())
	b := e.newTask(t, e.beto, "Otra", time.Now())
	ids := []string{a.ID, b.ID}

	res, err := e.task.BulkAssign(ctx, e.admin, dto.TaskBulkAssignRequest{TaskIDs: ids, AssignedToID: e.distributor.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)

	_, err = e.task.BulkAssign(ctx, e.admin, dto.TaskBulkAssignRequest{TaskIDs: ids, AssignedToID: "fantasma"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	res, err = e.task.BulkUpdate(ctx, e.admin, dto.TaskBulkUpdateRequest{TaskIDs: ids, Updates: dto.TaskBulkUpdate{Priority: strp("ALTA")}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)

	res, err = e.task.BulkComplete(ctx, e.admin, dto.IDsRequest{IDs: ids})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	got, err := e.task.Get(ctx, e.admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", got.Status)
	assert.Equal(t, "ALTA", got.Priority)
	assert.Equal(t, e.distributor.ID, got.AssignedToID)

	res, err = e.task.BulkDelete(ctx, e.admin, dto.IDsRequest{IDs: ids})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	_, err = e.task.Get(ctx, e.admin, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

var _ repository.TaskRepository = (*TaskRepo)(nil)

// TaskColumns campos filtrables y ordenables de tasks.
var TaskColumns = query.Columns{
	"id":              "t.id",
	"title":           "t.title",
	"description":     "t.description",
	"type":            "t.type",
	"status":          "t.status",
	"priority":        "t.priority",
	"dueDate":         "t.due_date",
	"reminderEnabled": "t.reminder_enabled",
	"clientId":        "t.client_id",
	"createdById":     "t.created_by_id",
	"assignedToId":    "t.assigned_to_id",
	"completedAt":     "t.completed_at",
	"createdAt":       "t.created_at",
	"updatedAt":       "t.updated_at",
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.type, t.status, t.priority, t.due_date,
		t.reminder_enabled, t.reminder_time, t.client_id, t.created_by_id, t.assigned_to_id,
		t.event_id, t.calendar_id, t.completed_at, t.created_at, t.updated_at
	FROM tasks t`

// TaskRepo implementación de TaskRepository sobre PostgreSQL.
type TaskRepo struct {
	pool Querier
}

// NewTaskRepository construye el adaptador.
func NewTaskRepository(pool Querier) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var t entity.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Type, &t.Status, &t.Priority, &t.DueDate,
		&t.ReminderEnabled, &t.ReminderTime, &t.ClientID, &t.CreatedByID, &t.AssignedToID,
		&t.EventID, &t.CalendarID, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persiste una tarea.
func (r *TaskRepo) Create(ctx context.Context, t *entity.Task) error {
	sql := `
		INSERT INTO tasks (id, title, description, type, status, priority, due_date, reminder_enabled,
			reminder_time, client_id, created_by_id, assigned_to_id, event_id, calendar_id, completed_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := conn(ctx, r.pool).Exec(ctx, sql,
		t.ID, t.Title, t.Description, t.Type, t.Status, t.Priority, t.DueDate, t.ReminderEnabled,
		t.ReminderTime, t.ClientID, t.CreatedByID, t.AssignedToID, t.EventID, t.CalendarID, t.CompletedAt,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID tarea por ID; nil si no existe.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	t, err := scanTask(conn(ctx, r.pool).QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *TaskRepo) Find(ctx context.Context, q query.Query) ([]*entity.Task, error) {
	c := query.NewCompiler(TaskColumns)
	sql, err := selectSQL(c, taskSelect, "t.id", q)
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, sql, c.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	list := []*entity.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *TaskRepo) FindIDs(ctx context.Context, where query.Predicate) ([]string, error) {
	return idsSQL(ctx, conn(ctx, r.pool), TaskColumns, "tasks t", "t.id", where)
}

func (r *TaskRepo) Count(ctx context.Context, where query.Predicate) (int64, error) {
	return countSQL(ctx, conn(ctx, r.pool), TaskColumns, "tasks t", where)
}

func (r *TaskRepo) GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error) {
	return groupSQL(ctx, conn(ctx, r.pool), TaskColumns, "tasks t", where, field, "")
}

// Update reemplaza los campos editables.
func (r *TaskRepo) Update(ctx context.Context, t *entity.Task) error {
	sql := `
		UPDATE tasks SET title = $2, description = $3, type = $4, status = $5, priority = $6, due_date = $7,
			reminder_enabled = $8, reminder_time = $9, client_id = $10, assigned_to_id = $11,
			event_id = $12, calendar_id = $13, completed_at = $14, updated_at = $15
		WHERE id = $1`
	tag, err := conn(ctx, r.pool).Exec(ctx, sql,
		t.ID, t.Title, t.Description, t.Type, t.Status, t.Priority, t.DueDate,
		t.ReminderEnabled, t.ReminderTime, t.ClientID, t.AssignedToID,
		t.EventID, t.CalendarID, t.CompletedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina una tarea por ID.
func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package memory

import (
	"context"

	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

var _ repository.TaskRepository = (*TaskRepo)(nil)

type taskRow struct {
	*entity.Task
	seq int64
}

// TaskRepo tareas en memoria.
type TaskRepo struct {
	s *Store
}

// NewTaskRepository construye el repositorio sobre el almacén.
func NewTaskRepository(s *Store) *TaskRepo {
	return &TaskRepo{s: s}
}

func cloneTask(t *entity.Task) *entity.Task {
	out := *t
	out.ReminderTime = ptrCopy(t.ReminderTime)
	out.ClientID = ptrCopy(t.ClientID)
	out.EventID = ptrCopy(t.EventID)
	out.CalendarID = ptrCopy(t.CalendarID)
	out.CompletedAt = ptrCopy(t.CompletedAt)
	return &out
}

func (r *TaskRepo) rows() []*taskRow {
	out := make([]*taskRow, 0, len(r.s.tasks))
	for _, row := range r.s.tasks {
		out = append(out, row)
	}
	return out
}

func taskSeq(t *taskRow) int64 { return t.seq }

func (r *TaskRepo) Create(ctx context.Context, task *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if task.ClientID != nil {
		if _, ok := r.s.clients[*task.ClientID]; !ok {
			return domain.ErrNotFound
		}
	}
	r.s.tasks[task.ID] = &taskRow{Task: cloneTask(task), seq: r.s.next()}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.tasks[id]
	if !ok {
		return nil, nil
	}
	return cloneTask(row.Task), nil
}

func (r *TaskRepo) Find(ctx context.Context, q query.Query) ([]*entity.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.rows(), q, taskSeq)
	out := make([]*entity.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneTask(row.Task))
	}
	return out, nil
}

func (r *TaskRepo) FindIDs(ctx context.Context, where query.Predicate) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.rows(), query.Query{Where: where, Sort: query.Sort{Field: "createdAt"}}, taskSeq)
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *TaskRepo) Count(ctx context.Context, where query.Predicate) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return count(r.rows(), where), nil
}

func (r *TaskRepo) GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return groupBy(r.rows(), where, field, nil), nil
}

func (r *TaskRepo) Update(ctx context.Context, task *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.tasks[task.ID]
	if !ok {
		return domain.ErrNotFound
	}
	row.Task = cloneTask(task)
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

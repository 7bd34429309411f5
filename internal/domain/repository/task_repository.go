package repository

import (
	"context"

	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
)

// TaskRepository define el puerto de persistencia para Task.
type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	GetByID(ctx context.Context, id string) (*entity.Task, error)
	Find(ctx context.Context, q query.Query) ([]*entity.Task, error)
	FindIDs(ctx context.Context, where query.Predicate) ([]string, error)
	Count(ctx context.Context, where query.Predicate) (int64, error)
	GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error)
	Update(ctx context.Context, task *entity.Task) error
	Delete(ctx context.Context, id string) error
}

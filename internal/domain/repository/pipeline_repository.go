package repository

import (
	"context"

	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
)

// PipelineRepository define el puerto de persistencia para PipelineItem.
// Las lecturas incluyen el ClientRef del cliente asociado.
type PipelineRepository interface {
	Create(ctx context.Context, item *entity.PipelineItem) error
	GetByID(ctx context.Context, id string) (*entity.PipelineItem, error)
	Find(ctx context.Context, q query.Query) ([]*entity.PipelineItem, error)
	FindIDs(ctx context.Context, where query.Predicate) ([]string, error)
	Count(ctx context.Context, where query.Predicate) (int64, error)
	// CountDistinct cantidad de valores distintos de un campo (ej. clientId).
	CountDistinct(ctx context.Context, where query.Predicate, field string) (int64, error)
	// GroupBy agrupa por campo; Sum acumula el valor monetario.
	GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error)
	Update(ctx context.Context, item *entity.PipelineItem) error
	Delete(ctx context.Context, id string) error
}

// PipelineHistoryRepository historial append-only: no expone actualización ni borrado.
type PipelineHistoryRepository interface {
	Append(ctx context.Context, entry *entity.PipelineHistory) error
	// ListByItem entradas de una oportunidad, más recientes primero.
	ListByItem(ctx context.Context, itemID string) ([]*entity.PipelineHistory, error)
}

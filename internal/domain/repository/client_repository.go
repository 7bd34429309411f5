package repository

import (
	"context"

	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
)

// ClientRepository define el puerto de persistencia para Client.
// Los filtros llegan como query.Predicate ya combinados con la visibilidad.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	Find(ctx context.Context, q query.Query) ([]*entity.Client, error)
	FindFirst(ctx context.Context, where query.Predicate) (*entity.Client, error)
	FindIDs(ctx context.Context, where query.Predicate) ([]string, error)
	Count(ctx context.Context, where query.Predicate) (int64, error)
	GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error)
	Update(ctx context.Context, client *entity.Client) error
	// SetStage actualiza solo la etapa (promoción por venta ganada).
	SetStage(ctx context.Context, id, stage string) error
	CountRelated(ctx context.Context, id string) (entity.RelatedCounts, error)
	Delete(ctx context.Context, id string) error
}

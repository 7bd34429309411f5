package repository

import (
	"context"

	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByIDs resuelve varios usuarios a la vez (nombres para estadísticas).
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, q query.Query) ([]*entity.User, error)
	Count(ctx context.Context, where query.Predicate) (int64, error)
	GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error)
	// CountOwned registros que referencian al usuario.
	CountOwned(ctx context.Context, id string) (entity.OwnedCounts, error)
	Delete(ctx context.Context, id string) error
}

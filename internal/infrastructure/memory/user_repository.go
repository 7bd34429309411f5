package memory

import (
	"context"
	"strings"

	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type userRow struct {
	*entity.User
	seq int64
}

// UserRepo usuarios en memoria.
type UserRepo struct {
	s *Store
}

// NewUserRepository construye el repositorio sobre el almacén.
func NewUserRepository(s *Store) *UserRepo {
	return &UserRepo{s: s}
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.SubRole = ptrCopy(u.SubRole)
	return &c
}

func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.users {
		if strings.EqualFold(row.Email, user.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.users[user.ID] = &userRow{User: cloneUser(user), seq: r.s.next()}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(row.User), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, row := range r.s.users {
		if strings.EqualFold(row.Email, email) {
			return cloneUser(row.User), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]*entity.User, len(ids))
	for _, id := range ids {
		if row, ok := r.s.users[id]; ok {
			out[id] = cloneUser(row.User)
		}
	}
	return out, nil
}

func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for id, other := range r.s.users {
		if id != user.ID && strings.EqualFold(other.Email, user.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	row.User = cloneUser(user)
	return nil
}

func (r *UserRepo) rows() []*userRow {
	out := make([]*userRow, 0, len(r.s.users))
	for _, row := range r.s.users {
		out = append(out, row)
	}
	return out
}

func (r *UserRepo) Find(ctx context.Context, q query.Query) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.rows(), q, func(u *userRow) int64 { return u.seq })
	out := make([]*entity.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneUser(row.User))
	}
	return out, nil
}

func (r *UserRepo) Count(ctx context.Context, where query.Predicate) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return count(r.rows(), where), nil
}

func (r *UserRepo) GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return groupBy(r.rows(), where, field, nil), nil
}

func (r *UserRepo) CountOwned(ctx context.Context, id string) (entity.OwnedCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var c entity.OwnedCounts
	for _, row := range r.s.clients {
		if row.CreatedByID == id || row.AssignedToID == id {
			c.Clients++
		}
	}
	for _, row := range r.s.items {
		if row.CreatedByID == id || row.AssignedToID == id {
			c.PipelineItems++
		}
	}
	for _, row := range r.s.tasks {
		if row.CreatedByID == id || row.AssignedToID == id {
			c.Tasks++
		}
	}
	for _, h := range r.s.history {
		if h.ChangedByID == id {
			c.History++
		}
	}
	return c, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

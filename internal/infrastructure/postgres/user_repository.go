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

var _ repository.UserRepository = (*UserRepo)(nil)

// UserColumns campos filtrables y ordenables de users.
var UserColumns = query.Columns{
	"id":        "u.id",
	"email":     "u.email",
	"firstname": "u.firstname",
	"lastname":  "u.lastname",
	"role":      "u.role",
	"subRole":   "u.sub_role",
	"phone":     "u.phone",
	"isActive":  "u.is_active",
	"createdAt": "u.created_at",
	"updatedAt": "u.updated_at",
}

const userSelect = `
	SELECT u.id, u.email, u.password_hash, u.firstname, u.lastname, u.role, u.sub_role,
		u.phone, u.is_active, u.created_at, u.updated_at
	FROM users u`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	pool Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(pool Querier) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Firstname, &u.Lastname, &u.Role, &u.SubRole,
		&u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	sql := `
		INSERT INTO users (id, email, password_hash, firstname, lastname, role, sub_role, phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := conn(ctx, r.pool).Exec(ctx, sql,
		u.ID, u.Email, u.PasswordHash, u.Firstname, u.Lastname, u.Role, u.SubRole,
		u.Phone, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) one(ctx context.Context, where string, arg any) (*entity.User, error) {
	u, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, userSelect+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.one(ctx, "u.id = $1", id)
}

// GetByEmail obtiene un usuario por email (sin distinguir mayúsculas).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.one(ctx, "lower(u.email) = lower($1)", email)
}

// GetByIDs resuelve varios usuarios en una sola consulta.
func (r *UserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	out := make(map[string]*entity.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := conn(ctx, r.pool).Query(ctx, userSelect+" WHERE u.id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// Update actualiza un usuario.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	sql := `
		UPDATE users SET email = $2, password_hash = $3, firstname = $4, lastname = $5, role = $6,
			sub_role = $7, phone = $8, is_active = $9, updated_at = $10
		WHERE id = $1`
	tag, err := conn(ctx, r.pool).Exec(ctx, sql,
		u.ID, u.Email, u.PasswordHash, u.Firstname, u.Lastname, u.Role,
		u.SubRole, u.Phone, u.IsActive, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Find lista usuarios según la consulta compilada.
func (r *UserRepo) Find(ctx context.Context, q query.Query) ([]*entity.User, error) {
	c := query.NewCompiler(UserColumns)
	sql, err := selectSQL(c, userSelect, "u.id", q)
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, sql, c.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	list := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *UserRepo) Count(ctx context.Context, where query.Predicate) (int64, error) {
	return countSQL(ctx, conn(ctx, r.pool), UserColumns, "users u", where)
}

func (r *UserRepo) GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error) {
	return groupSQL(ctx, conn(ctx, r.pool), UserColumns, "users u", where, field, "")
}

// CountOwned registros que referencian al usuario.
func (r *UserRepo) CountOwned(ctx context.Context, id string) (entity.OwnedCounts, error) {
	sql := `
		SELECT
			(SELECT COUNT(*) FROM clients WHERE created_by_id = $1 OR assigned_to_id = $1),
			(SELECT COUNT(*) FROM pipeline_items WHERE created_by_id = $1 OR assigned_to_id = $1),
			(SELECT COUNT(*) FROM tasks WHERE created_by_id = $1 OR assigned_to_id = $1),
			(SELECT COUNT(*) FROM pipeline_history WHERE changed_by_id = $1)`
	var c entity.OwnedCounts
	if err := conn(ctx, r.pool).QueryRow(ctx, sql, id).Scan(&c.Clients, &c.PipelineItems, &c.Tasks, &c.History); err != nil {
		return c, fmt.Errorf("count owned records: %w", err)
	}
	return c, nil
}

// Delete elimina un usuario por ID.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/CRM-api/internal/application/auth"
	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/application/validation"
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

// UserSearchFields campos de la búsqueda libre de usuarios.
var UserSearchFields = []string{"firstname", "lastname", "email"}

var userSortFields = query.Columns{
	"firstname": "firstname", "lastname": "lastname", "email": "email", "role": "role",
	"createdAt": "createdAt", "updatedAt": "updatedAt",
}

// UserUseCase administración de usuarios.
type UserUseCase struct {
	repo   repository.UserRepository
	auth   *auth.AuthUseCase
	hasher *auth.Hasher
	now    func() time.Time
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, authUC *auth.AuthUseCase, hasher *auth.Hasher) *UserUseCase {
	return &UserUseCase{repo: repo, auth: authUC, hasher: hasher, now: time.Now}
}

// List página de usuarios. Solo roles privilegiados.
func (uc *UserUseCase) List(ctx context.Context, actor *entity.User, p dto.UserListParams) (*dto.UserListResponse, error) {
	if !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}
	var search query.Predicate
	if p.HasSearch || p.Search != "" {
		s, err := query.NewSearch(p.Search, UserSearchFields...)
		if err != nil {
			return nil, err
		}
		search = s
	}
	filters := []query.Predicate{}
	if p.Role != "" {
		filters = append(filters, query.Eq("role", strings.ToUpper(p.Role)))
	}
	if p.IsActive != "" {
		active, err := strconv.ParseBool(p.IsActive)
		if err != nil {
			return nil, domain.NewValidationError("isActive", "debe ser true o false", p.IsActive)
		}
		filters = append(filters, query.Eq("isActive", active))
	}
	q := query.Build(
		query.All(),
		filters,
		search,
		query.NewPage(p.Page, p.Limit),
		query.NewSort(p.SortBy, p.SortOrder, userSortFields, query.DefaultSort),
	)
	rows, err := uc.repo.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.Count(ctx, q.Where)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(rows))
	for _, u := range rows {
		out = append(out, *auth.ToUserResponse(u))
	}
	return &dto.UserListResponse{Users: out, Pagination: dto.NewPagination(total, q.Page)}, nil
}

// Stats conteos globales por estado y rol.
func (uc *UserUseCase) Stats(ctx context.Context, actor *entity.User) (*dto.UserStatsResponse, error) {
	if !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}
	total, err := uc.repo.Count(ctx, query.All())
	if err != nil {
		return nil, err
	}
	active, err := uc.repo.Count(ctx, query.Eq("isActive", true))
	if err != nil {
		return nil, err
	}
	groups, err := uc.repo.GroupBy(ctx, query.All(), "role")
	if err != nil {
		return nil, err
	}
	byRole := make([]dto.CountItem, 0, len(groups))
	for _, g := range groups {
		byRole = append(byRole, dto.CountItem{Key: g.Key, Count: g.Count})
	}
	return &dto.UserStatsResponse{Total: total, Active: active, Inactive: total - active, ByRole: byRole}, nil
}

// GetByID el propio usuario o un rol privilegiado.
func (uc *UserUseCase) GetByID(ctx context.Context, actor *entity.User, id string) (*dto.UserResponse, error) {
	if actor.ID != id && !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}
	user, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

func (uc *UserUseCase) load(ctx context.Context, id string) (*entity.User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// Create alta administrativa; a diferencia del registro acepta cualquier rol.
func (uc *UserUseCase) Create(ctx context.Context, actor *entity.User, in dto.RegisterRequest) (*dto.UserResponse, error) {
	if !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	role := entity.Role(in.Role)
	if role == "" {
		role = entity.RoleEmprendedor
	}
	// solo SUPER_ADMIN crea otros SUPER_ADMIN
	if role == entity.RoleSuperAdmin && actor.Role != entity.RoleSuperAdmin {
		return nil, domain.ErrForbidden
	}
	user, err := uc.auth.NewUser(ctx, in, role)
	if err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

// Update role, subRole e isActive solo los cambia un rol privilegiado.
func (uc *UserUseCase) Update(ctx context.Context, actor *entity.User, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	privileged := actor.Role.Privileged()
	if actor.ID != id && !privileged {
		return nil, domain.ErrForbidden
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !privileged && (in.Role != nil || in.SubRole != nil || in.IsActive != nil) {
		return nil, domain.ErrForbidden
	}
	user, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != user.Email {
			other, err := uc.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, domain.ErrEmailAlreadyExists
			}
			user.Email = email
		}
	}
	if in.Firstname != nil {
		user.Firstname = strings.TrimSpace(*in.Firstname)
	}
	if in.Lastname != nil {
		user.Lastname = strings.TrimSpace(*in.Lastname)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Role != nil {
		role := entity.Role(*in.Role)
		if role == entity.RoleSuperAdmin && actor.Role != entity.RoleSuperAdmin {
			return nil, domain.ErrForbidden
		}
		user.Role = role
		if role != entity.RoleAsistente {
			user.SubRole = nil
		}
	}
	if in.SubRole != nil && user.Role == entity.RoleAsistente {
		sub := strings.TrimSpace(*in.SubRole)
		user.SubRole = &sub
	}
	if in.IsActive != nil {
		if !*in.IsActive && user.ID == actor.ID {
			return nil, domain.NewValidationError("isActive", "no puede desactivarse a sí mismo", false)
		}
		user.IsActive = *in.IsActive
	}
	user.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

// SetPassword cambio administrativo sin contraseña actual.
func (uc *UserUseCase) SetPassword(ctx context.Context, actor *entity.User, id string, in dto.SetPasswordRequest) error {
	if !actor.Role.Privileged() {
		return domain.ErrForbidden
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	user, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	hash, err := uc.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = uc.now().UTC()
	return uc.repo.Update(ctx, user)
}

// Activate reactiva la cuenta.
func (uc *UserUseCase) Activate(ctx context.Context, actor *entity.User, id string) (*dto.UserResponse, error) {
	return uc.setActive(ctx, actor, id, true)
}

// Deactivate bloquea el acceso; los tokens vigentes dejan de valer en la siguiente petición.
func (uc *UserUseCase) Deactivate(ctx context.Context, actor *entity.User, id string) (*dto.UserResponse, error) {
	if actor.ID == id {
		return nil, domain.NewValidationError("id", "no puede desactivarse a sí mismo", id)
	}
	return uc.setActive(ctx, actor, id, false)
}

func (uc *UserUseCase) setActive(ctx context.Context, actor *entity.User, id string, active bool) (*dto.UserResponse, error) {
	if !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}
	user, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	user.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

// Delete solo SUPER_ADMIN. Bloqueado mientras el usuario tenga registros asociados.
func (uc *UserUseCase) Delete(ctx context.Context, actor *entity.User, id string) error {
	if actor.Role != entity.RoleSuperAdmin {
		return domain.ErrForbidden
	}
	if actor.ID == id {
		return domain.NewValidationError("id", "no puede eliminarse a sí mismo", id)
	}
	if _, err := uc.load(ctx, id); err != nil {
		return err
	}
	owned, err := uc.repo.CountOwned(ctx, id)
	if err != nil {
		return err
	}
	if owned.Total() > 0 {
		return &domain.DependencyError{Resource: "usuario", Counts: map[string]int64{
			"clients":       owned.Clients,
			"pipelineItems": owned.PipelineItems,
			"tasks":         owned.Tasks,
			"history":       owned.History,
		}}
	}
	return uc.repo.Delete(ctx, id)
}

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/CRM-api/internal/application/auth"
	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/application/usecase"
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/infrastructure/memory"
)

type userEnv struct {
	store *memory.Store
	users *memory.UserRepo
	auth  *auth.AuthUseCase
	uc    *usecase.UserUseCase
	admin *entity.User
	dist  *entity.User
	emp   *entity.User
}

func newUserEnv(t *testing.T) *userEnv {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	hasher := auth.NewHasher(bcrypt.MinCost)
	authUC := auth.NewAuthUseCase(users, hasher, auth.JWTConfig{Secret: "s", ExpMinutes: 60, Issuer: "t"}, nil)
	e := &userEnv{store: store, users: users, auth: authUC, uc: usecase.NewUserUseCase(users, authUC, hasher)}
	e.admin = e.add(t, "admin@crm.test", entity.RoleSuperAdmin)
	e.dist = e.add(t, "dist@crm.test", entity.RoleDistribuidor)
	e.emp = e.add(t, "emp@crm.test", entity.RoleEmprendedor)
	return e
}

func (e *userEnv) add(t *testing.T, email string, role entity.Role) *entity.User {
	t.Helper()
	u, err := e.auth.NewUser(context.Background(), dto.RegisterRequest{
		Email: email, Password: "secreto1", Firstname: "Nombre", Lastname: "Apellido",
	}, role)
	require.NoError(t, err)
	return u
}

func TestUserList_SoloPrivilegiadosYFiltros(t *testing.T) {
	e := newUserEnv(t)
	ctx := context.Background()

	_, err := e.uc.List(ctx, e.emp, dto.UserListParams{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := e.uc.List(ctx, e.dist, dto.UserListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Pagination.Total)

	byRole, err := e.uc.List(ctx, e.admin, dto.UserListParams{Role: "emprendedor"})
	require.NoError(t, err)
	require.Len(t, byRole.Users, 1)
	assert.Equal(t, e.emp.ID, byRole.Users[0].ID)

	_, err = e.uc.Deactivate(ctx, e.admin, e.emp.ID)
	require.NoError(t, err)
	inactive, err := e.uc.List(ctx, e.admin, dto.UserListParams{IsActive: "false"})
	require.NoError(t, err)
	require.Len(t, inactive.Users, 1)
	assert.False(t, inactive.Users[0].IsActive)

	_, err = e.uc.List(ctx, e.admin, dto.UserListParams{IsActive: "quizás"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	found, err := e.uc.List(ctx, e.admin, dto.UserListParams{ListParams: dto.ListParams{Search: "DIST@"}})
	require.NoError(t, err)
	require.Len(t, found.Users, 1)
	assert.Equal(t, e.dist.ID, found.Users[0].ID)

	_, err = e.uc.List(ctx, e.admin, dto.UserListParams{ListParams: dto.ListParams{Search: "d", HasSearch: true}})
	assert.ErrorIs(t, err, domain.ErrSearchTooShort)
}

func TestUserStats(t *testing.T) {
	e := newUserEnv(t)
	ctx := context.Background()
	_, err := e.uc.Deactivate(ctx, e.admin, e.emp.ID)
	require.NoError(t, err)

	st, err := e.uc.Stats(ctx, e.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Total)
	assert.Equal(t, int64(2), st.Active)
	assert.Equal(t, int64(1), st.Inactive)
	assert.Len(t, st.ByRole, 3)

	_, err = e.uc.Stats(ctx, e.emp)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUserGet_PropioOPrivilegiado(t *testing.T) {
	e := newUserEnv(t)
	ctx := context.Background()

	me, err := e.uc.GetByID(ctx, e.emp, e.emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "emp@crm.test", me.Email)

	_, err = e.uc.GetByID(ctx, e.emp, e.admin.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.uc.GetByID(ctx, e.admin, "no-existe")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserCreate(t *testing.T) {
	e := newUserEnv(t)
	ctx := context.Background()
	req := dto.RegisterRequest{Email: "nuevo@crm.test", Password: "secreto1", Firstname: "Nu", Lastname: "Evo", Role: "DISTRIBUIDOR"}

	_, err := e.uc.Create(ctx, e.emp, req)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	u, err := e.uc.Create(ctx, e.dist, req)
	require.NoError(t, err)
	assert.Equal(t, "DISTRIBUIDOR", u.Role)

	req.Email, req.Role = "root2@crm.test", "SUPER_ADMIN"
	_, err = e.uc.Create(ctx, e.dist, req)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.uc.Create(ctx, e.admin, req)
	assert.NoError(t, err)

	_, err = e.uc.Create(ctx, e.admin, req)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestUserUpdate_CamposPrivilegiados(t *testing.T) {
	e := newUserEnv(t)
	ctx := context.Background()
	role := "DISTRIBUIDOR"
	active := false

	_, err := e.uc.Update(ctx, e.emp, e.emp.ID, dto.UpdateUserRequest{Role: &role})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.uc.Update(ctx, e.emp, e.emp.ID, dto.UpdateUserRequest{IsActive: &active})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.uc.Update(ctx, e.emp, e.dist.ID, dto.UpdateUserRequest{Firstname: strp("Otro")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	out, err := e.uc.Update(ctx, e.emp, e.emp.ID, dto.UpdateUserRequest{Firstname: strp("Emilia"), Email: strp("EMILIA@crm.test")})
	require.NoError(t, err)
	assert.Equal(t, "Emilia", out.Firstname)
	assert.Equal(t, "emilia@crm.test", out.Email)

	_, err = e.uc.Update(ctx, e.emp, e.emp.ID, dto.UpdateUserRequest{Email: strp("admin@crm.test")})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	sub := "COMERCIAL"
	asistente := "ASISTENTE"
	out, err = e.uc.Update(ctx, e.admin, e.emp.ID, dto.UpdateUserRequest{Role: &asistente, SubRole: &sub})
	require.NoError(t, err)
	assert.Equal(t, "ASISTENTE", out.Role)
	require.NotNil(t, out.SubRole)
	assert.Equal(t, "COMERCIAL", *out.SubRole)

	_, err = e.uc.Update(ctx, e.admin, e.admin.ID, dto.UpdateUserRequest{IsActive: &active})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserSetPasswordYActivacion(t *testing.T) {
	e := newUserEnv(t)
	ctx := context.Background()

	require.NoError(t, e.uc.SetPassword(ctx, e.admin, e.emp.ID, dto.SetPasswordRequest{NewPassword: "cambiada1"}))
	_, err := e.auth.Login(ctx, dto.LoginRequest{Email: "emp@crm.test", Password: "cambiada1"})
	require.NoError(t, err)

	assert.ErrorIs(t, e.uc.SetPassword(ctx, e.emp, e.dist.ID, dto.SetPasswordRequest{NewPassword: "cambiada1"}), domain.ErrForbidden)

	_, err = e.uc.Deactivate(ctx, e.dist, e.emp.ID)
	require.NoError(t, err)
	_, err = e.auth.Login(ctx, dto.LoginRequest{Email: "emp@crm.test", Password: "cambiada1"})
	assert.ErrorIs(t, err, domain.ErrUserDisabled)

	out, err := e.uc.Activate(ctx, e.dist, e.emp.ID)
	require.NoError(t, err)
	assert.True(t, out.IsActive)

	_, err = e.uc.Deactivate(ctx, e.dist, e.dist.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserDelete_BloqueadoPorRegistros(t *testing.T) {
	e := newUserEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.uc.Delete(ctx, e.dist, e.emp.ID), domain.ErrForbidden)

	clients := memory.NewClientRepository(e.store)
	require.NoError(t, clients.Create(ctx, &entity.Client{
		ID: "c1", Nombre: "Ana", Telefono: "+5491155550000",
		CreatedByID: e.emp.ID, AssignedToID: e.emp.ID,
	}))

	err := e.uc.Delete(ctx, e.admin, e.emp.ID)
	var dep *domain.DependencyError
	require.True(t, errors.As(err, &dep))
	assert.Equal(t, int64(1), dep.Counts["clients"])
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, clients.Delete(ctx, "c1"))
	require.NoError(t, e.uc.Delete(ctx, e.admin, e.emp.ID))
	_, err = e.uc.GetByID(ctx, e.admin, e.emp.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func strp(s string) *string { return &s }

package access_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/access"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
)

func user(id string, role entity.Role) *entity.User {
	return &entity.User{ID: id, Role: role, IsActive: true}
}

func TestFor_VariantesPorRol(t *testing.T) {
	tests := []struct {
		role       entity.Role
		privileged bool
	}{
		{entity.RoleSuperAdmin, true},
		{entity.RoleDistribuidor, true},
		{entity.RoleEmprendedor, false},
		{entity.RoleAsistente, false},
		{entity.Role("DESCONOCIDO"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			p := access.For(user("u1", tt.role))
			assert.Equal(t, tt.privileged, p.Privileged())
			assert.Equal(t, "u1", p.UserID())
			if tt.privileged {
				assert.Equal(t, query.All(), p.Visibility(access.Client))
			}
		})
	}
}

func TestOwner_ReglaDePropiedad(t *testing.T) {
	p := access.For(user("u1", entity.RoleEmprendedor))
	ref := "u1"

	assert.True(t, p.CanAccess(access.Client, &entity.Client{AssignedToID: "u1", CreatedByID: "x"}))
	assert.True(t, p.CanAccess(access.Client, &entity.Client{AssignedToID: "x", CreatedByID: "u1"}))
	assert.True(t, p.CanAccess(access.Client, &entity.Client{AssignedToID: "x", CreatedByID: "x", ReferredByID: &ref}))
	assert.False(t, p.CanAccess(access.Client, &entity.Client{AssignedToID: "x", CreatedByID: "x"}))

	// referredById solo cuenta para clientes
	assert.True(t, p.CanAccess(access.PipelineItem, &entity.PipelineItem{AssignedToID: "u1", CreatedByID: "x"}))
	assert.False(t, p.CanAccess(access.PipelineItem, &entity.PipelineItem{AssignedToID: "x", CreatedByID: "x"}))
	assert.True(t, p.CanAccess(access.Task, &entity.Task{AssignedToID: "x", CreatedByID: "u1"}))
	assert.False(t, p.CanAccess(access.Task, nil))
}

func TestVisibilidad_IgualAlDetalle(t *testing.T) {
	ref := "u1"
	rows := []*entity.Client{
		{ID: "a", AssignedToID: "u1", CreatedByID: "u2"},
		{ID: "b", AssignedToID: "u2", CreatedByID: "u2", ReferredByID: &ref},
		{ID: "c", AssignedToID: "u2", CreatedByID: "u2"},
	}
	for _, role := range entity.Roles {
		p := access.For(user("u1", role))
		vis := p.Visibility(access.Client)
		for _, c := range rows {
			assert.Equal(t, vis.Eval(c), p.CanAccess(access.Client, c), "%s/%s", role, c.ID)
		}
	}
}

func TestDistribuidor_Scope(t *testing.T) {
	scoped := access.WithDistributorScope(func(u *entity.User, kind access.Resource) query.Predicate {
		if kind == access.Task {
			return nil
		}
		return query.Eq("assignedToId", "equipo-"+u.ID)
	})
	p := access.For(user("d1", entity.RoleDistribuidor), scoped)

	assert.True(t, p.Privileged())
	assert.True(t, p.CanAccess(access.Client, &entity.Client{AssignedToID: "equipo-d1"}))
	assert.False(t, p.CanAccess(access.Client, &entity.Client{AssignedToID: "otro"}))
	assert.Equal(t, query.All(), p.Visibility(access.Task))

	// la opción no afecta a otros roles
	admin := access.For(user("a1", entity.RoleSuperAdmin), scoped)
	assert.True(t, admin.CanAccess(access.Client, &entity.Client{AssignedToID: "otro"}))
}

func TestCheckBatch(t *testing.T) {
	assert.NoError(t, access.CheckBatch([]string{"a", "b", "a"}, []string{"a", "b", "c"}))

	err := access.CheckBatch([]string{"a", "x", "y", "x"}, []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	var batch *domain.BatchAccessError
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, []string{"x", "y"}, batch.Missing)
}

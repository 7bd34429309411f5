package crm_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
)

func TestClientCreate_ValoresPorDefecto(t *testing.T) {
	e := newEnv(t)

	c, err := e.client.Create(context.Background(), e.ana, dto.CreateClientRequest{
		Nombre:   "Carla",
		Apellido: "Gómez",
		Telefono: "(202) 555-0101",
		Email:    "  Carla@Example.COM ",
	})
	require.NoError(t, err)
	assert.Equal(t, e.ana.ID, c.CreatedByID)
	assert.Equal(t, e.ana.ID, c.AssignedToID)
	assert.Equal(t, "OTRO", c.Source)
	assert.Equal(t, "ACTIVO", c.Estado)
	assert.Equal(t, "+12025550101", c.Telefono)
	require.NotNil(t, c.Email)
	assert.Equal(t, "carla@example.com", *c.Email)
	assert.NotNil(t, c.Tags)
}

func TestClientCreate_ColisionReferenciaAlExistente(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	orig, err := e.client.Create(ctx, e.beto, dto.CreateClientRequest{
		Nombre: "Bruno", Apellido: "Díaz", Telefono: "+12025550101", Email: "bruno@example.com",
	})
	require.NoError(t, err)

	cases := []struct {
		name  string
		in    dto.CreateClientRequest
		field string
	}{
		{"mismo teléfono con otro formato", dto.CreateClientRequest{Nombre: "Otro", Apellido: "Más", Telefono: "202-555-0101"}, "telefono"},
		{"mismo email en mayúsculas", dto.CreateClientRequest{Nombre: "Otro", Apellido: "Más", Telefono: "+12025550199", Email: "BRUNO@example.com"}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// ana no ve al cliente de beto, pero la unicidad es global
			_, err := e.client.Create(ctx, e.ana, tc.in)
			var conflict *domain.ConflictError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, tc.field, conflict.Field)
			assert.Equal(t, orig.ID, conflict.ExistingID)
			assert.Equal(t, "Bruno Díaz", conflict.ExistingName())
			assert.ErrorIs(t, err, domain.ErrDuplicate)
		})
	}
}

func TestClientCreate_ResponsableInexistente(t *testing.T) {
	e := newEnv(t)
	_, err := e.client.Create(context.Background(), e.admin, dto.CreateClientRequest{
		Nombre: "Carla", Apellido: "Gómez", Telefono: "+12025550101", AssignedToID: "fantasma",
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "assignedToId", verr.Details[0].Field)
}

func TestClientGet_NoEncontradoYProhibido(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ajeno := e.newClient(t, e.beto, "Bruno", "+12025550101")

	_, err := e.client.Get(ctx, e.ana, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.client.Get(ctx, e.ana, ajeno.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.client.Get(ctx, e.distributor, ajeno.ID)
	assert.NoError(t, err)
}

func TestClientList_EquivaleAlDetalle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.newClient(t, e.ana, "Carla", "+12025550101")
	e.newClient(t, e.beto, "Bruno", "+12025550102")
	// referido por ana: visible aunque lo haya creado beto
	_, err := e.client.Create(ctx, e.beto, dto.CreateClientRequest{
		Nombre: "Rita", Apellido: "Ref", Telefono: "+12025550103", ReferredByID: e.ana.ID,
	})
	require.NoError(t, err)

	all, err := e.client.List(ctx, e.admin, dto.ClientListParams{})
	require.NoError(t, err)
	require.Len(t, all.Clients, 3)

	visible, err := e.client.List(ctx, e.ana, dto.ClientListParams{})
	require.NoError(t, err)
	inList := map[string]bool{}
	for _, c := range visible.Clients {
		inList[c.ID] = true
	}
	assert.Len(t, inList, 2)
	for _, c := range all.Clients {
		_, err := e.client.Get(ctx, e.ana, c.ID)
		assert.Equal(t, inList[c.ID], err == nil, "cliente %s", c.Nombre)
	}
}

func TestClientSearch_NoAmpliaVisibilidad(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.newClient(t, e.ana, "Lucía", "+12025550101")
	e.newClient(t, e.beto, "Lucas", "+12025550102")

	rows, err := e.client.Search(ctx, e.ana, "luc", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Lucía", rows[0].Nombre)

	list, err := e.client.List(ctx, e.ana, dto.ClientListParams{ListParams: dto.ListParams{Search: "555", HasSearch: true}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Pagination.Total)

	_, err = e.client.Search(ctx, e.ana, "l", 0)
	assert.ErrorIs(t, err, domain.ErrSearchTooShort)
	_, err = e.client.List(ctx, e.ana, dto.ClientListParams{ListParams: dto.ListParams{HasSearch: true}})
	assert.ErrorIs(t, err, domain.ErrSearchTooShort)
}

func TestClientList_Paginacion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	const n = 23
	for i := 0; i < n; i++ {
		e.newClient(t, e.ana, fmt.Sprintf("Cliente %02d", i), fmt.Sprintf("+120255501%02d", i))
	}

	for _, limit := range []int{1, 5, 10, 23, 50} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			seen := map[string]int{}
			first, err := e.client.List(ctx, e.ana, dto.ClientListParams{ListParams: dto.ListParams{Page: 1, Limit: limit}})
			require.NoError(t, err)
			assert.Equal(t, int64(n), first.Pagination.Total)
			assert.Equal(t, (n+limit-1)/limit, first.Pagination.Pages)

			for page := 1; page <= first.Pagination.Pages; page++ {
				res, err := e.client.List(ctx, e.ana, dto.ClientListParams{ListParams: dto.ListParams{
					Page: page, Limit: limit, SortBy: "nombre", SortOrder: "asc",
				}})
				require.NoError(t, err)
				for _, c := range res.Clients {
					seen[c.ID]++
				}
			}
			assert.Len(t, seen, n)
			for id, times := range seen {
				assert.Equal(t, 1, times, id)
			}
		})
	}
}

func TestClientList_Filtros(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.client.Create(ctx, e.ana, dto.CreateClientRequest{
		Nombre: "Carla", Apellido: "Gómez", Telefono: "+12025550101", Source: "REFERIDO", Tags: []string{"vip", "norte"},
	})
	require.NoError(t, err)
	_, err = e.client.Create(ctx, e.ana, dto.CreateClientRequest{
		Nombre: "Dario", Apellido: "Paz", Telefono: "+12025550102", Estado: "INACTIVO", Tags: []string{"sur"},
	})
	require.NoError(t, err)

	res, err := e.client.List(ctx, e.ana, dto.ClientListParams{Tags: "sur, vip"})
	require.NoError(t, err)
	assert.Len(t, res.Clients, 2)

	res, err = e.client.List(ctx, e.ana, dto.ClientListParams{Source: "referido"})
	require.NoError(t, err)
	require.Len(t, res.Clients, 1)
	assert.Equal(t, "Carla", res.Clients[0].Nombre)

	res, err = e.client.List(ctx, e.ana, dto.ClientListParams{Estado: "INACTIVO"})
	require.NoError(t, err)
	require.Len(t, res.Clients, 1)
	assert.Equal(t, "Dario", res.Clients[0].Nombre)
}

func TestClientUpdate_ColisionYAcceso(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newClient(t, e.ana, "Carla", "+12025550101")
	e.newClient(t, e.ana, "Dario", "+12025550102")
	ajeno := e.newClient(t, e.beto, "Bruno", "+12025550103")

	_, err := e.client.Update(ctx, e.ana, a.ID, dto.UpdateClientRequest{Telefono: strp("+1 202 555 0102")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = e.client.Update(ctx, e.ana, ajeno.ID, dto.UpdateClientRequest{Notas: strp("x")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	out, err := e.client.Update(ctx, e.ana, a.ID, dto.UpdateClientRequest{Telefono: strp("+12025550101"), Empresa: strp("ACME")})
	require.NoError(t, err)
	assert.Equal(t, "ACME", out.Empresa)
}

func TestClientDelete_BloqueadoPorDependencias(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.newClient(t, e.ana, "Carla", "+12025550101")
	it := e.newItem(t, e.ana, c.ID, nil)
	_, err := e.task.Create(ctx, e.ana, dto.CreateTaskRequest{Title: "Llamar", DueDate: timePtr(), ClientID: &c.ID})
	require.NoError(t, err)
	e.store.AddSale(c.ID)

	err = e.client.Delete(ctx, e.ana, c.ID)
	var dep *domain.DependencyError
	require.True(t, errors.As(err, &dep))
	assert.Equal(t, map[string]int64{"sales": 1, "tasks": 1, "pipelineItems": 1}, dep.Counts)

	_, err = e.client.Get(ctx, e.ana, c.ID)
	require.NoError(t, err)
	require.NoError(t, e.pipeline.Delete(ctx, e.ana, it.ID))
}

func TestClientDelete_ExitosoLuego404(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.newClient(t, e.ana, "Carla", "+12025550101")

	require.NoError(t, e.client.Delete(ctx, e.ana, c.ID))
	_, err := e.client.Get(ctx, e.ana, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, e.client.Delete(ctx, e.ana, c.ID), domain.ErrNotFound)
}

func TestClientDuplicate_RespetaUnicidad(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	src, err := e.client.Create(ctx, e.beto, dto.CreateClientRequest{
		Nombre: "Bruno", Apellido: "Díaz", Telefono: "+12025550101", Email: "bruno@example.com",
	})
	require.NoError(t, err)

	cp, err := e.client.Duplicate(ctx, e.admin, src.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bruno (Copia)", cp.Nombre)
	assert.NotEqual(t, src.Telefono, cp.Telefono)
	require.NotNil(t, cp.Email)
	assert.NotEqual(t, *src.Email, *cp.Email)
	assert.Equal(t, e.admin.ID, cp.AssignedToID)
}

func TestClientStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.newClient(t, e.ana, "Carla", "+12025550101")
	_, err := e.client.Create(ctx, e.ana, dto.CreateClientRequest{
		Nombre: "Dario", Apellido: "Paz", Telefono: "+12025550102", Estado: "INACTIVO",
	})
	require.NoError(t, err)
	e.newClient(t, e.beto, "Bruno", "+12025550103")

	st, err := e.client.Stats(ctx, e.ana, "30d")
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Total)
	assert.Equal(t, int64(1), st.Activos)
	assert.Equal(t, int64(1), st.Inactivos)
	assert.Equal(t, int64(2), st.Recientes)
	assert.Nil(t, st.ByUser)

	adm, err := e.client.Stats(ctx, e.admin, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), adm.Total)
	assert.Len(t, adm.ByUser, 2)

	_, err = e.client.Stats(ctx, e.ana, "2w")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClientBulkUpdate_LoteMixtoSinMutaciones(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mine := e.newClient(t, e.ana, "Carla", "+12025550101")
	other := e.newClient(t, e.beto, "Bruno", "+12025550102")

	_, err := e.client.BulkUpdate(ctx, e.ana, dto.ClientBulkUpdateRequest{
		ClientIDs: []string{mine.ID, other.ID},
		Updates:   dto.ClientBulkUpdate{Estado: strp("INACTIVO")},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := e.client.Get(ctx, e.ana, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ClientActivo), got.Estado)

	res, err := e.client.BulkUpdate(ctx, e.admin, dto.ClientBulkUpdateRequest{
		ClientIDs: []string{mine.ID, other.ID},
		Updates:   dto.ClientBulkUpdate{Estado: strp("INACTIVO")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
}

func TestClientMySummary(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 7; i++ {
		e.newClient(t, e.ana, fmt.Sprintf("Cliente %d", i), fmt.Sprintf("+1202555010%d", i))
	}
	s, err := e.client.MySummary(context.Background(), e.ana)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.Total)
	assert.Len(t, s.Recent, 5)
}

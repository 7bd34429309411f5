package crm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/domain"
)

func TestImportReconcile_CadaFilaEnUnSoloGrupo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	existente := e.newClient(t, e.ana, "Carla", "+12025550101")
	e.newClient(t, e.beto, "Bruno", "+12025550102")

	rows := []crm.ContactInput{
		{Row: 2, Nombre: "Nueva", Apellido: "Fila", Telefono: "202 555 0110", Email: "nueva@example.com"},
		{Row: 3, Nombre: "Repetida", Apellido: "Propia", Telefono: "(202) 555-0101"},
		{Row: 4, Nombre: "Incompleta", Telefono: "+12025550111"},
		{Row: 5, Nombre: "Ajena", Apellido: "Oculta", Telefono: "+12025550102"},
		{Row: 6, Nombre: "Mismo", Apellido: "Email", Telefono: "+12025550112", Email: "NUEVA@example.com"},
		{Row: 7, Nombre: "Origen", Apellido: "Raro", Telefono: "+12025550113", Source: "TELEPATIA"},
	}
	unreadable := []crm.RowError{{Row: 8, Reason: "fila ilegible"}}

	res := e.imports.Reconcile(ctx, e.ana, rows, unreadable)

	s := res.Summary
	assert.Equal(t, 7, s.Total)
	assert.Equal(t, s.Total, s.Created+s.Duplicates+s.Errors)
	assert.Equal(t, 2, s.Created)
	assert.Equal(t, 2, s.Duplicates)
	assert.Equal(t, 3, s.Errors)

	// La fila 5 solo choca con un contacto de Beto, que Ana no ve: se crea.
	require.Len(t, res.Created, 2)
	assert.Equal(t, e.ana.ID, res.Created[0].AssignedToID)
	assert.Equal(t, "+12025550110", res.Created[0].Telefono)
	assert.Equal(t, "Ajena", res.Created[1].Nombre)
	assert.Equal(t, "+12025550102", res.Created[1].Telefono)

	require.Len(t, res.Duplicates, 2)
	assert.Equal(t, 3, res.Duplicates[0].Row)
	assert.Equal(t, existente.ID, res.Duplicates[0].ExistingID)
	assert.Equal(t, "telefono", res.Duplicates[0].Field)
	assert.Equal(t, 6, res.Duplicates[1].Row)
	assert.Equal(t, "email", res.Duplicates[1].Field)

	reasons := map[int]string{}
	for _, er := range res.Errors {
		reasons[er.Row] = er.Reason
	}
	assert.NotContains(t, reasons, 5)
	assert.Equal(t, "fila ilegible", reasons[8])
	assert.Contains(t, reasons, 4)
	assert.Contains(t, reasons, 7)

	assert.Equal(t, 2, e.rec.imported[crm.ImportCreated])
	assert.Equal(t, 2, e.rec.imported[crm.ImportDuplicate])
	assert.Equal(t, 3, e.rec.imported[crm.ImportError])
}

func TestImportReconcile_ContactoAjenoNoBloquea(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ajeno := e.newClient(t, e.beto, "Bruno", "+12025550102")

	res := e.imports.Reconcile(ctx, e.ana, []crm.ContactInput{
		{Row: 1, Nombre: "Bruno", Apellido: "Copia", Telefono: "+12025550102"},
	}, nil)
	assert.Equal(t, dto.ImportSummary{Total: 1, Created: 1}, res.Summary)
	require.Len(t, res.Created, 1)
	assert.NotEqual(t, ajeno.ID, res.Created[0].ID)

	// Ana ve solo su copia; el original de Beto sigue intacto y oculto.
	mine, err := e.client.List(ctx, e.ana, dto.ClientListParams{})
	require.NoError(t, err)
	require.Len(t, mine.Clients, 1)
	assert.Equal(t, res.Created[0].ID, mine.Clients[0].ID)

	// El alta manual sigue exigiendo unicidad global.
	_, err = e.client.Create(ctx, e.beto, dto.CreateClientRequest{
		Nombre: "Otro", Apellido: "Más", Telefono: "+12025550102",
	})
	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "telefono", conflict.Field)
}

func TestImportReconcile_PrivilegiadoVeDuplicadosDeTodos(t *testing.T) {
	e := newEnv(t)
	e.newClient(t, e.beto, "Bruno", "+12025550102")

	res := e.imports.Reconcile(context.Background(), e.admin, []crm.ContactInput{
		{Row: 1, Nombre: "Bruno", Apellido: "Otra", Telefono: "+12025550102"},
	}, nil)
	assert.Equal(t, 1, res.Summary.Duplicates)
	assert.Empty(t, res.Errors)
}

func TestImportContactsFromDTO_DescartaResponsable(t *testing.T) {
	rows := crm.ContactsFromDTO([]dto.ContactRow{
		{Nombre: "A", AssignedToID: "otro"},
		{Row: 10, Nombre: "B"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Row)
	assert.Equal(t, 10, rows[1].Row)
}

func TestCheckDuplicates(t *testing.T) {
	e := newEnv(t)
	e.newClient(t, e.ana, "Carla", "+12025550101")
	e.newClient(t, e.beto, "Bruno", "+12025550102")

	res, err := e.imports.CheckDuplicates(context.Background(), e.ana, []crm.ContactInput{
		{Row: 1, Nombre: "Carla", Telefono: "202-555-0101"},
		{Row: 2, Nombre: "Bruno", Telefono: "+12025550102"},
		{Row: 3, Nombre: "Nadie", Telefono: "+12025550199"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalChecked)
	assert.Equal(t, 1, res.DuplicatesFound)
	assert.True(t, res.CanProceed)
	assert.Equal(t, 1, res.Duplicates[0].Row)
}

package excel_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/infrastructure/excel"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Teléfono":         "TELEFONO",
		" google contacts": "GOOGLE_CONTACTS",
		"Dirección":        "DIRECCION",
		"e-mail":           "E_MAIL",
		"referído":         "REFERIDO",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, excel.Fold(in), in)
	}
}

func TestParseContacts(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Nombre", "Apellido", "TELÉFONO", "Correo", "Origen", "Estado", "Etiquetas", "Columna extra"},
		{"Ana", "López", "11 5555 0000", "ana@example.com", "Referído", "activo", "vip; feria", "x"},
		{},
		{"", "", "", "", "", "", "", "solo extra"},
		{"Beto", "Díaz", "11 5555 0001", "", "google contacts"},
	})

	rows, bad, err := excel.NewContactParser().ParseContacts(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "López", rows[0].Apellido)
	assert.Equal(t, "ana@example.com", rows[0].Email)
	assert.Equal(t, "REFERIDO", rows[0].Source)
	assert.Equal(t, "ACTIVO", rows[0].Estado)
	assert.Equal(t, []string{"vip", "feria"}, rows[0].Tags)
	assert.Equal(t, 5, rows[1].Row)
	assert.Equal(t, "GOOGLE_CONTACTS", rows[1].Source)
	assert.Empty(t, rows[1].Estado)

	require.Len(t, bad, 1)
	assert.Equal(t, 4, bad[0].Row)
}

func TestParseContacts_ArchivoInvalido(t *testing.T) {
	_, _, err := excel.NewContactParser().ParseContacts(bytes.NewBufferString("no es un xlsx"))
	assert.Error(t, err)

	_, _, err = excel.NewContactParser().ParseContacts(workbook(t, [][]any{{"Apellido", "Email"}, {"x", "y"}}))
	assert.Error(t, err)
}

func TestTemplate_SeLeeConElParser(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, excel.WriteTemplate(&buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"Contactos", "Instrucciones"}, f.GetSheetList())

	rows, bad, err := excel.NewContactParser().ParseContacts(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, bad)
	require.Len(t, rows, 1)
	assert.Equal(t, "Juan", rows[0].Nombre)
	assert.Equal(t, "Av. Siempre Viva 742", rows[0].Direccion)
}

func TestClientReport(t *testing.T) {
	email := "ana@example.com"
	clients := []*entity.Client{
		{Nombre: "Ana", Apellido: "López", Telefono: "+5491155550000", Email: &email, Source: entity.SourceReferido,
			Estado: entity.ClientActivo, Etapa: "Cliente", Tags: []string{"vip", "feria"},
			CreatedAt: time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)},
		{Nombre: "Beto", Telefono: "+5491155550001", Source: entity.SourceOtro, Estado: entity.ClientInactivo},
	}
	r := excel.NewClientReport()
	assert.Equal(t, "xlsx", r.Extension())

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "Clientes", clients))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Clientes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, excel.ReportHeaders, rows[0])
	assert.Equal(t, "ana@example.com", rows[1][3])
	assert.Equal(t, "vip, feria", rows[1][9])
	assert.Equal(t, "2026-02-01 10:30", rows[1][10])
	assert.Equal(t, "INACTIVO", rows[2][7])
}

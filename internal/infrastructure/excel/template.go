package excel

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/CRM-api/internal/domain/entity"
)

// TemplateHeaders columnas de la plantilla de importación (reconocidas por ContactParser).
var TemplateHeaders = []string{
	"Nombre", "Apellido", "Teléfono", "Email", "Empresa", "Cargo",
	"Origen", "Estado", "Etapa", "Dirección", "Etiquetas", "Notas",
}

// TemplateContentType tipo MIME de la plantilla.
const TemplateContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteTemplate plantilla con una fila de ejemplo y una hoja de instrucciones.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Contactos"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, TemplateHeaders); err != nil {
		return err
	}
	example := []any{
		"Juan", "Pérez", "+54 9 11 5555-0000", "juan@ejemplo.com", "Acme", "Gerente",
		"REFERIDO", "ACTIVO", "Prospecto", "Av. Siempre Viva 742", "vip, feria", "Llamar por la tarde",
	}
	if err := f.SetSheetRow(sheet, "A2", &example); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "L", 20); err != nil {
		return err
	}

	const help = "Instrucciones"
	if _, err := f.NewSheet(help); err != nil {
		return err
	}
	sources := make([]string, 0, len(entity.ClientSources))
	for _, s := range entity.ClientSources {
		sources = append(sources, string(s))
	}
	lines := [][]any{
		{"Campo", "Detalle"},
		{"Nombre, Apellido, Teléfono", "Obligatorios"},
		{"Teléfono / Email", "No pueden repetirse; las filas duplicadas se informan y no se importan"},
		{"Origen", strings.Join(sources, ", ")},
		{"Estado", "ACTIVO o INACTIVO (por defecto ACTIVO)"},
		{"Etiquetas", "Separadas por coma"},
	}
	for i, l := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(help, cell, &l); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(help, "A", "B", 40); err != nil {
		return err
	}
	return f.Write(w)
}

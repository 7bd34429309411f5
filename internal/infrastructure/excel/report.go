package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
)

var _ crm.ClientReportRenderer = (*ClientReport)(nil)

// ReportHeaders columnas de la exportación de clientes.
var ReportHeaders = []string{
	"Nombre", "Apellido", "Teléfono", "Email", "Empresa", "Cargo",
	"Origen", "Estado", "Etapa", "Etiquetas", "Creado",
}

// ClientReport exportación xlsx de clientes.
type ClientReport struct{}

// NewClientReport construye el renderer.
func NewClientReport() *ClientReport { return &ClientReport{} }

func (ClientReport) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (ClientReport) Extension() string { return "xlsx" }

// Render una fila por cliente bajo la hoja title.
func (ClientReport) Render(w io.Writer, title string, clients []*entity.Client) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, ReportHeaders); err != nil {
		return err
	}
	for i, c := range clients {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		email := ""
		if c.Email != nil {
			email = *c.Email
		}
		row := []any{
			c.Nombre, c.Apellido, c.Telefono, email, c.Empresa, c.Cargo,
			string(c.Source), string(c.Estado), c.Etapa, strings.Join(c.Tags, ", "),
			c.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("excel: fila %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "K", 18); err != nil {
		return err
	}
	return f.Write(w)
}

// writeHeader fila 1 en negrita con fondo.
func writeHeader(f *excelize.File, sheet string, headers []string) error {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#00467F"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

// sheetName Excel limita el nombre de hoja a 31 caracteres.
func sheetName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Hoja1"
	}
	r := []rune(title)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}

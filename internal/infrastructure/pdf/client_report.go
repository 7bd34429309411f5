// Package pdf genera el listado de clientes en PDF con Maroto v2.
//
// Layout de la página A4 apaisada:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + cantidad   │  Fecha de emisión            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Nombre | Teléfono | Email | Empresa | Origen | ...  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: totales por estado                                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"io"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Renderer ──────────────────────────────────────────────────────────────────

var _ crm.ClientReportRenderer = (*ClientReport)(nil)

// ClientReport implementa crm.ClientReportRenderer usando Maroto v2.
type ClientReport struct {
	now func() time.Time
}

// NewClientReport construye el generador.
func NewClientReport() *ClientReport { return &ClientReport{now: time.Now} }

func (g *ClientReport) ContentType() string { return "application/pdf" }

func (g *ClientReport) Extension() string { return "pdf" }

// Render escribe el PDF completo en w.
func (g *ClientReport) Render(w io.Writer, title string, clients []*entity.Client) error {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(title, len(clients), g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(clients)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(footerRow(clients))

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("pdf: generar documento: %w", err)
	}
	_, err = w.Write(doc.GetBytes())
	return err
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título y cantidad (izq) y fecha de emisión (der).
func headerRow(title string, total int, at time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%d registro(s)", total), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Emitido: "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

type column struct {
	label string
	size  int
	value func(c *entity.Client) string
}

var columns = []column{
	{"Nombre", 3, func(c *entity.Client) string { return c.FullName() }},
	{"Teléfono", 2, func(c *entity.Client) string { return c.Telefono }},
	{"Email", 3, func(c *entity.Client) string { return nonEmpty(deref(c.Email), "-") }},
	{"Empresa", 2, func(c *entity.Client) string { return nonEmpty(c.Empresa, "-") }},
	{"Estado", 1, func(c *entity.Client) string { return string(c.Estado) }},
	{"Etapa", 1, func(c *entity.Client) string { return nonEmpty(c.Etapa, "-") }},
}

// tableHeaderRow: cabecera de la tabla con fondo azul.
func tableHeaderRow() core.Row {
	cols := make([]core.Col, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(cols...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableRows: una fila por cliente.
func tableRows(clients []*entity.Client) []core.Row {
	result := make([]core.Row, 0, len(clients))
	for _, c := range clients {
		cols := make([]core.Col, 0, len(columns))
		for _, def := range columns {
			cols = append(cols, col.New(def.size).Add(text.New(def.value(c), props.Text{
				Size: 7.5, Top: 1, Left: 1, Right: 1,
			})))
		}
		result = append(result, row.New(6).Add(cols...))
	}
	return result
}

// footerRow: totales por estado.
func footerRow(clients []*entity.Client) core.Row {
	var activos, inactivos int
	for _, c := range clients {
		if c.Estado == entity.ClientInactivo {
			inactivos++
		} else {
			activos++
		}
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Activos: %d   |   Inactivos: %d", activos, inactivos), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 2,
		}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package crm

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
)

// ExportUseCase exporta los clientes visibles con los mismos filtros del listado.
type ExportUseCase struct {
	clients   *ClientUseCase
	renderers map[string]ClientReportRenderer
	now       func() time.Time
}

// NewExportUseCase registra los formatos disponibles por extensión (xlsx, pdf).
func NewExportUseCase(clients *ClientUseCase, renderers ...ClientReportRenderer) *ExportUseCase {
	m := make(map[string]ClientReportRenderer, len(renderers))
	for _, r := range renderers {
		m[r.Extension()] = r
	}
	return &ExportUseCase{clients: clients, renderers: m, now: time.Now}
}

// ExportFile metadatos del archivo generado.
type ExportFile struct {
	ContentType string
	Filename    string
}

// Export escribe el reporte en w. Un formato vacío equivale a xlsx.
func (uc *ExportUseCase) Export(ctx context.Context, actor *entity.User, format string, p dto.ClientListParams, w io.Writer) (*ExportFile, error) {
	if format == "" {
		format = "xlsx"
	}
	r, ok := uc.renderers[format]
	if !ok {
		return nil, domain.NewValidationError("format", "formato no soportado", format)
	}
	rows, err := uc.clients.Rows(ctx, actor, p)
	if err != nil {
		return nil, err
	}
	if err := r.Render(w, "Clientes", rows); err != nil {
		return nil, fmt.Errorf("exportar clientes: %w", err)
	}
	return &ExportFile{
		ContentType: r.ContentType(),
		Filename:    fmt.Sprintf("clientes_%s.%s", uc.now().Format("20060102_150405"), r.Extension()),
	}, nil
}

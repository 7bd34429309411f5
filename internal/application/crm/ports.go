// Package crm contiene los casos de uso de clientes, pipeline y tareas. Toda lectura y
// escritura pasa por la política de acceso del usuario que llama.
package crm

import (
	"context"
	"io"

	"github.com/jhoicas/CRM-api/internal/domain/entity"
)

// TxRunner ejecuta fn dentro de una transacción; los repositorios toman la transacción
// del contexto.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Recorder contadores operativos de los casos de uso.
type Recorder interface {
	HistoryWriteFailed()
	PromotionFailed()
	Imported(result string)
	StatusChanged(status string)
}

type nopRecorder struct{}

func (nopRecorder) HistoryWriteFailed()  {}
func (nopRecorder) PromotionFailed()     {}
func (nopRecorder) Imported(string)      {}
func (nopRecorder) StatusChanged(string) {}

// ClientReportRenderer genera el archivo de exportación de clientes (xlsx o pdf).
type ClientReportRenderer interface {
	ContentType() string
	Extension() string
	Render(w io.Writer, title string, clients []*entity.Client) error
}

// ContactSheetParser convierte una planilla subida en filas de importación.
type ContactSheetParser interface {
	ParseContacts(r io.Reader) ([]ContactInput, []RowError, error)
}

// ContactInput fila candidata de importación, ya leída de Excel o JSON.
type ContactInput struct {
	Row       int
	Nombre    string
	Apellido  string
	Email     string
	Telefono  string
	Empresa   string
	Cargo     string
	Source    string
	Estado    string
	Etapa     string
	Direccion string
	Tags      []string
	Notas     string
}

// RowError fila que no se pudo leer.
type RowError struct {
	Row    int
	Reason string
}

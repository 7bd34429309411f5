// Package pipeline contiene las reglas del embudo de ventas: vocabulario de estados,
// estados ganados y las instantáneas/diferencias que alimentan el historial.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/CRM-api/internal/domain/entity"
)

// Statuses los 12 estados en el orden de las columnas del kanban.
var Statuses = []entity.PipelineStatus{
	entity.StatusNuevo,
	entity.StatusContactado,
	entity.StatusCitaAgendada,
	entity.StatusSinRespuesta,
	entity.StatusReprogramar,
	entity.StatusNoVenta,
	entity.StatusIrrelevante,
	entity.StatusNoQuiereSPV,
	entity.StatusNoQuiereDemo,
	entity.StatusVentaAgregado,
	entity.StatusVentaNueva,
	entity.StatusVentaCaida,
}

// InitialStatus estado de toda oportunidad nueva o duplicada.
const InitialStatus = entity.StatusNuevo

// WonStatuses estados que cierran una venta.
var WonStatuses = []entity.PipelineStatus{entity.StatusVentaNueva, entity.StatusVentaAgregado}

// ParseStatus valida contra el vocabulario. Cualquier estado es alcanzable desde
// cualquier otro; solo se rechazan valores desconocidos.
func ParseStatus(s string) (entity.PipelineStatus, error) {
	up := entity.PipelineStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if st == up {
			return st, nil
		}
	}
	return "", fmt.Errorf("estado de pipeline inválido: %q", s)
}

// IsWon VENTA_NUEVA o VENTA_AGREGADO.
func IsWon(s entity.PipelineStatus) bool {
	for _, w := range WonStatuses {
		if w == s {
			return true
		}
	}
	return false
}

// Snapshot estado relevante de una oportunidad para el historial.
func Snapshot(item *entity.PipelineItem) map[string]any {
	return map[string]any{
		"status":       string(item.Status),
		"priority":     string(item.Priority),
		"products":     append([]string(nil), item.Products...),
		"value":        item.Value.String(),
		"assignedToId": item.AssignedToID,
	}
}

// DeletionSnapshot instantánea previa a la eliminación, con el nombre del cliente.
func DeletionSnapshot(item *entity.PipelineItem, clientName string) map[string]any {
	s := Snapshot(item)
	s["clientId"] = item.ClientID
	s["clientName"] = clientName
	return s
}

// StatusChange datos del historial para un cambio de estado.
func StatusChange(from, to entity.PipelineStatus) (oldData, newData map[string]any) {
	return map[string]any{"status": string(from)}, map[string]any{"status": string(to)}
}

// Change valor anterior y nuevo de un campo.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Diff cambios campo a campo entre dos versiones. Vacío si nada cambió.
func Diff(before, after *entity.PipelineItem) map[string]Change {
	out := map[string]Change{}
	cmp := func(field string, a, b any) {
		if fmt.Sprint(a) != fmt.Sprint(b) {
			out[field] = Change{From: a, To: b}
		}
	}
	cmp("products", strings.Join(before.Products, ", "), strings.Join(after.Products, ", "))
	if !before.Value.Equal(after.Value) {
		out["value"] = Change{From: before.Value.String(), To: after.Value.String()}
	}
	cmp("priority", string(before.Priority), string(after.Priority))
	cmp("status", string(before.Status), string(after.Status))
	cmp("lastContact", timeValue(&before.LastContact), timeValue(&after.LastContact))
	cmp("demoDate", timeValue(before.DemoDate), timeValue(after.DemoDate))
	cmp("deliveryDate", timeValue(before.DeliveryDate), timeValue(after.DeliveryDate))
	cmp("paymentPlan", before.PaymentPlan, after.PaymentPlan)
	cmp("notes", before.Notes, after.Notes)
	cmp("tags", strings.Join(before.Tags, ", "), strings.Join(after.Tags, ", "))
	cmp("assignedToId", before.AssignedToID, after.AssignedToID)
	return out
}

// OnlyAssignment el único cambio es el responsable.
func OnlyAssignment(diff map[string]Change) bool {
	_, ok := diff["assignedToId"]
	return ok && len(diff) == 1
}

// DiffData convierte el diff en los snapshots old/new del historial.
func DiffData(diff map[string]Change) (oldData, newData map[string]any) {
	oldData = make(map[string]any, len(diff))
	newData = make(map[string]any, len(diff))
	for field, ch := range diff {
		oldData[field] = ch.From
		newData[field] = ch.To
	}
	return oldData, newData
}

func timeValue(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// Package metrics expone las métricas Prometheus del servicio.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa los colectores; cada instancia usa su propio registro.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	HistoryWriteFailures     prometheus.Counter
	ClientPromotionFailures  prometheus.Counter
	ClientsImported          *prometheus.CounterVec
	PipelineStatusTransition *prometheus.CounterVec
	RateLimited              *prometheus.CounterVec
	TasksOverdue             prometheus.Gauge
}

// New registra todos los colectores en un registro nuevo.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total de peticiones HTTP",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de las peticiones HTTP en segundos",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		HistoryWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "crm_history_write_failures_total",
			Help: "Entradas de historial de pipeline que no se pudieron escribir",
		}),
		ClientPromotionFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "crm_client_promotion_failures_total",
			Help: "Fallos al promover la etapa del cliente tras una venta",
		}),
		ClientsImported: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_clients_imported_total",
			Help: "Filas de importación de clientes por resultado",
		}, []string{"result"}),
		PipelineStatusTransition: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_pipeline_status_changes_total",
			Help: "Cambios de estado del pipeline por estado destino",
		}, []string{"status"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_rate_limited_total",
			Help: "Peticiones rechazadas por límite de tasa",
		}, []string{"rule"}),
		TasksOverdue: f.NewGauge(prometheus.GaugeOpts{
			Name: "crm_tasks_overdue",
			Help: "Tareas vencidas sin cerrar en el último barrido",
		}),
	}
}

// HistoryWriteFailed una entrada del historial no se pudo escribir.
func (m *Metrics) HistoryWriteFailed() { m.HistoryWriteFailures.Inc() }

// PromotionFailed no se pudo pasar el cliente a etapa Cliente.
func (m *Metrics) PromotionFailed() { m.ClientPromotionFailures.Inc() }

// Imported resultado de una fila de importación (created, duplicate, error).
func (m *Metrics) Imported(result string) { m.ClientsImported.WithLabelValues(result).Inc() }

// StatusChanged transición de pipeline hacia status.
func (m *Metrics) StatusChanged(status string) {
	m.PipelineStatusTransition.WithLabelValues(status).Inc()
}

// OverdueTasks actualiza el gauge de tareas vencidas.
func (m *Metrics) OverdueTasks(n int64) { m.TasksOverdue.Set(float64(n)) }

// RateLimitHit petición rechazada por la regla indicada.
func (m *Metrics) RateLimitHit(rule string) { m.RateLimited.WithLabelValues(rule).Inc() }

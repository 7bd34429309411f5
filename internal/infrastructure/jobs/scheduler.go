// Package jobs tareas programadas del servicio.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// OverdueCounter cuenta tareas vencidas sin cerrar.
type OverdueCounter interface {
	CountOverdue(ctx context.Context) (int64, error)
}

// OverdueGauge publica el último conteo.
type OverdueGauge interface {
	OverdueTasks(n int64)
}

// OverdueSweep cuenta las tareas vencidas, actualiza el gauge y deja un resumen en el log.
type OverdueSweep struct {
	tasks   OverdueCounter
	gauge   OverdueGauge
	log     zerolog.Logger
	timeout time.Duration
}

// NewOverdueSweep construye el job. gauge puede ser nil.
func NewOverdueSweep(tasks OverdueCounter, gauge OverdueGauge, log zerolog.Logger) *OverdueSweep {
	return &OverdueSweep{tasks: tasks, gauge: gauge, log: log, timeout: time.Minute}
}

// Run ejecuta un barrido y devuelve el conteo.
func (j *OverdueSweep) Run(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	n, err := j.tasks.CountOverdue(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("barrido de tareas vencidas falló")
		return 0, err
	}
	if j.gauge != nil {
		j.gauge.OverdueTasks(n)
	}
	j.log.Info().Int64("overdue", n).Dur("took", time.Since(start)).Msg("barrido de tareas vencidas")
	return n, nil
}

// Scheduler envuelve cron con el logger del servicio.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler cron con resolución de minutos.
func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		log:  log,
	}
}

// AddOverdueSweep registra el barrido. Un spec vacío deja el job deshabilitado.
func (s *Scheduler) AddOverdueSweep(spec string, job *OverdueSweep) error {
	if spec == "" {
		s.log.Info().Msg("barrido de tareas vencidas deshabilitado")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { _, _ = job.Run(context.Background()) }); err != nil {
		return fmt.Errorf("jobs: spec %q: %w", spec, err)
	}
	s.log.Info().Str("spec", spec).Msg("barrido de tareas vencidas programado")
	return nil
}

// Entries cantidad de jobs registrados.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// Start arranca en segundo plano.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop detiene el cron y espera a que terminen los jobs en curso.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

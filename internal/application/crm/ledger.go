package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

// HistoryLedger escribe el historial de pipeline después de cada mutación. Un fallo
// de escritura se registra y se cuenta, pero no revierte la mutación.
type HistoryLedger struct {
	repo repository.PipelineHistoryRepository
	log  zerolog.Logger
	rec  Recorder
	now  func() time.Time
}

// NewHistoryLedger construye el ledger. rec puede ser nil.
func NewHistoryLedger(repo repository.PipelineHistoryRepository, log zerolog.Logger, rec Recorder) *HistoryLedger {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &HistoryLedger{repo: repo, log: log, rec: rec, now: time.Now}
}

// Record agrega una entrada. Devuelve la entrada o nil si no se pudo escribir.
func (l *HistoryLedger) Record(ctx context.Context, itemID string, action entity.HistoryAction, oldData, newData map[string]any, actorID string) *entity.PipelineHistory {
	entry := &entity.PipelineHistory{
		ID:             uuid.New().String(),
		PipelineItemID: itemID,
		Action:         action,
		OldData:        oldData,
		NewData:        newData,
		ChangedByID:    actorID,
		CreatedAt:      l.now().UTC(),
	}
	if err := l.repo.Append(ctx, entry); err != nil {
		l.rec.HistoryWriteFailed()
		l.log.Warn().Err(err).
			Str("pipeline_item_id", itemID).
			Str("action", string(action)).
			Str("changed_by", actorID).
			Msg("no se pudo registrar el historial del pipeline")
		return nil
	}
	return entry
}

// List historial de una oportunidad, más reciente primero.
func (l *HistoryLedger) List(ctx context.Context, itemID string) ([]*entity.PipelineHistory, error) {
	return l.repo.ListByItem(ctx, itemID)
}

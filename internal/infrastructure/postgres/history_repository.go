package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

var _ repository.PipelineHistoryRepository = (*HistoryRepo)(nil)

// HistoryRepo historial append-only de oportunidades. pipeline_item_id no tiene FK:
// las entradas sobreviven a la eliminación de la oportunidad.
type HistoryRepo struct {
	pool Querier
}

// NewHistoryRepository construye el adaptador.
func NewHistoryRepository(pool Querier) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// Append inserta una entrada; seq desempata entradas del mismo instante.
func (r *HistoryRepo) Append(ctx context.Context, h *entity.PipelineHistory) error {
	sql := `
		INSERT INTO pipeline_history (id, pipeline_item_id, action, old_data, new_data, changed_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := conn(ctx, r.pool).Exec(ctx, sql,
		h.ID, h.PipelineItemID, h.Action, h.OldData, h.NewData, h.ChangedByID, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pipeline history: %w", err)
	}
	return nil
}

// ListByItem entradas más recientes primero, con el autor resuelto.
func (r *HistoryRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.PipelineHistory, error) {
	sql := `
		SELECT h.id, h.pipeline_item_id, h.action, h.old_data, h.new_data, h.changed_by_id, h.created_at,
			u.id, u.firstname, u.lastname, u.email
		FROM pipeline_history h
		LEFT JOIN users u ON u.id = h.changed_by_id
		WHERE h.pipeline_item_id = $1
		ORDER BY h.created_at DESC, h.seq DESC`
	rows, err := conn(ctx, r.pool).Query(ctx, sql, itemID)
	if err != nil {
		return nil, fmt.Errorf("list pipeline history: %w", err)
	}
	defer rows.Close()
	list := []*entity.PipelineHistory{}
	for rows.Next() {
		var (
			h                       entity.PipelineHistory
			uid, first, last, email *string
		)
		if err := rows.Scan(&h.ID, &h.PipelineItemID, &h.Action, &h.OldData, &h.NewData, &h.ChangedByID, &h.CreatedAt,
			&uid, &first, &last, &email); err != nil {
			return nil, fmt.Errorf("scan pipeline history: %w", err)
		}
		if uid != nil {
			h.ChangedBy = &entity.UserRef{ID: *uid, Firstname: deref(first), Lastname: deref(last), Email: deref(email)}
		}
		list = append(list, &h)
	}
	return list, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

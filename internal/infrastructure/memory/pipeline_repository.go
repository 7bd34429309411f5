package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

var (
	_ repository.PipelineRepository        = (*PipelineRepo)(nil)
	_ repository.PipelineHistoryRepository = (*HistoryRepo)(nil)
)

type itemRow struct {
	*entity.PipelineItem
	seq int64
}

type historyRow struct {
	*entity.PipelineHistory
	seq int64
}

// PipelineRepo oportunidades en memoria; las lecturas adjuntan el cliente como el JOIN de SQL.
type PipelineRepo struct {
	s *Store
}

// NewPipelineRepository construye el repositorio sobre el almacén.
func NewPipelineRepository(s *Store) *PipelineRepo {
	return &PipelineRepo{s: s}
}

func cloneItem(it *entity.PipelineItem) *entity.PipelineItem {
	out := *it
	out.Products = cloneStrings(it.Products)
	out.Tags = cloneStrings(it.Tags)
	out.DemoDate = ptrCopy(it.DemoDate)
	out.DeliveryDate = ptrCopy(it.DeliveryDate)
	out.Client = nil
	return &out
}

// view copia con el cliente actual adjunto. Con el lock tomado.
func (r *PipelineRepo) view(row *itemRow) *itemRow {
	it := cloneItem(row.PipelineItem)
	if c, ok := r.s.clients[it.ClientID]; ok {
		it.Client = &entity.ClientRef{
			ID:       c.ID,
			Nombre:   c.Nombre,
			Apellido: c.Apellido,
			Email:    ptrCopy(c.Email),
			Telefono: c.Telefono,
			Empresa:  c.Empresa,
			Etapa:    c.Etapa,
		}
	}
	return &itemRow{PipelineItem: it, seq: row.seq}
}

func (r *PipelineRepo) rows() []*itemRow {
	out := make([]*itemRow, 0, len(r.s.items))
	for _, row := range r.s.items {
		out = append(out, r.view(row))
	}
	return out
}

func itemSeq(it *itemRow) int64 { return it.seq }

func (r *PipelineRepo) Create(ctx context.Context, item *entity.PipelineItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[item.ClientID]; !ok {
		return domain.ErrNotFound
	}
	r.s.items[item.ID] = &itemRow{PipelineItem: cloneItem(item), seq: r.s.next()}
	return nil
}

func (r *PipelineRepo) GetByID(ctx context.Context, id string) (*entity.PipelineItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	return r.view(row).PipelineItem, nil
}

func (r *PipelineRepo) Find(ctx context.Context, q query.Query) ([]*entity.PipelineItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.rows(), q, itemSeq)
	out := make([]*entity.PipelineItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.PipelineItem)
	}
	return out, nil
}

func (r *PipelineRepo) FindIDs(ctx context.Context, where query.Predicate) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.rows(), query.Query{Where: where, Sort: query.Sort{Field: "createdAt"}}, itemSeq)
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *PipelineRepo) Count(ctx context.Context, where query.Predicate) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return count(r.rows(), where), nil
}

func (r *PipelineRepo) CountDistinct(ctx context.Context, where query.Predicate, field string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(groupBy(r.rows(), where, field, nil))), nil
}

func (r *PipelineRepo) GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return groupBy(r.rows(), where, field, func(it *itemRow) decimal.Decimal { return it.Value }), nil
}

func (r *PipelineRepo) Update(ctx context.Context, item *entity.PipelineItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.items[item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	row.PipelineItem = cloneItem(item)
	return nil
}

func (r *PipelineRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

// HistoryRepo historial append-only en memoria. Sobrevive a la eliminación de la oportunidad.
type HistoryRepo struct {
	s *Store
}

// NewHistoryRepository construye el repositorio sobre el almacén.
func NewHistoryRepository(s *Store) *HistoryRepo {
	return &HistoryRepo{s: s}
}

func (r *HistoryRepo) Append(ctx context.Context, entry *entity.PipelineHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := *entry
	e.OldData = cloneMap(entry.OldData)
	e.NewData = cloneMap(entry.NewData)
	e.ChangedBy = nil
	r.s.history = append(r.s.history, &historyRow{PipelineHistory: &e, seq: r.s.next()})
	return nil
}

func (r *HistoryRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.PipelineHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var rows []*historyRow
	for _, h := range r.s.history {
		if h.PipelineItemID == itemID {
			rows = append(rows, h)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]*entity.PipelineHistory, 0, len(rows))
	for _, h := range rows {
		e := *h.PipelineHistory
		e.OldData = cloneMap(h.OldData)
		e.NewData = cloneMap(h.NewData)
		if u, ok := r.s.users[e.ChangedByID]; ok {
			e.ChangedBy = &entity.UserRef{ID: u.ID, Firstname: u.Firstname, Lastname: u.Lastname, Email: u.Email}
		}
		out = append(out, &e)
	}
	return out, nil
}

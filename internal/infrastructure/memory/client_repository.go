package memory

import (
	"context"
	"time"

	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

type clientRow struct {
	*entity.Client
	seq int64
}

// ClientRepo clientes en memoria. Email y teléfono son únicos como en la base de datos.
type ClientRepo struct {
	s *Store
}

// NewClientRepository construye el repositorio sobre el almacén.
func NewClientRepository(s *Store) *ClientRepo {
	return &ClientRepo{s: s}
}

func cloneClient(c *entity.Client) *entity.Client {
	out := *c
	out.Email = ptrCopy(c.Email)
	out.ReferredByID = ptrCopy(c.ReferredByID)
	out.Tags = cloneStrings(c.Tags)
	out.CustomFields = cloneMap(c.CustomFields)
	return &out
}

func (r *ClientRepo) Create(ctx context.Context, client *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clients[client.ID] = &clientRow{Client: cloneClient(client), seq: r.s.next()}
	return nil
}

func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.clients[id]
	if !ok {
		return nil, nil
	}
	return cloneClient(row.Client), nil
}

func (r *ClientRepo) rows() []*clientRow {
	out := make([]*clientRow, 0, len(r.s.clients))
	for _, row := range r.s.clients {
		out = append(out, row)
	}
	return out
}

func clientSeq(c *clientRow) int64 { return c.seq }

func (r *ClientRepo) Find(ctx context.Context, q query.Query) ([]*entity.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.rows(), q, clientSeq)
	out := make([]*entity.Client, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneClient(row.Client))
	}
	return out, nil
}

func (r *ClientRepo) FindFirst(ctx context.Context, where query.Predicate) (*entity.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.rows(), query.Query{Where: where, Sort: query.Sort{Field: "createdAt"}, Page: query.Page{Number: 1, Limit: 1}}, clientSeq)
	if len(rows) == 0 {
		return nil, nil
	}
	return cloneClient(rows[0].Client), nil
}

func (r *ClientRepo) FindIDs(ctx context.Context, where query.Predicate) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.rows(), query.Query{Where: where, Sort: query.Sort{Field: "createdAt"}}, clientSeq)
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *ClientRepo) Count(ctx context.Context, where query.Predicate) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return count(r.rows(), where), nil
}

func (r *ClientRepo) GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return groupBy(r.rows(), where, field, nil), nil
}

func (r *ClientRepo) Update(ctx context.Context, client *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.clients[client.ID]
	if !ok {
		return domain.ErrNotFound
	}
	row.Client = cloneClient(client)
	return nil
}

func (r *ClientRepo) SetStage(ctx context.Context, id, stage string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.clients[id]
	if !ok {
		return domain.ErrNotFound
	}
	c := cloneClient(row.Client)
	c.Etapa = stage
	c.UpdatedAt = time.Now().UTC()
	row.Client = c
	return nil
}

func (r *ClientRepo) CountRelated(ctx context.Context, id string) (entity.RelatedCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c := entity.RelatedCounts{Sales: r.s.sales[id]}
	for _, t := range r.s.tasks {
		if t.ClientID != nil && *t.ClientID == id {
			c.Tasks++
		}
	}
	for _, it := range r.s.items {
		if it.ClientID == id {
			c.PipelineItems++
		}
	}
	return c, nil
}

func (r *ClientRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.clients, id)
	delete(r.s.sales, id)
	return nil
}

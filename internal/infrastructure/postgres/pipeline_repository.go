package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

var _ repository.PipelineRepository = (*PipelineRepo)(nil)

// PipelineColumns campos de pipeline_items más los del cliente asociado (client.*).
var PipelineColumns = query.Columns{
	"id":              "p.id",
	"clientId":        "p.client_id",
	"products":        "p.products",
	"value":           "p.value",
	"priority":        "p.priority",
	"status":          "p.status",
	"lastContact":     "p.last_contact",
	"demoDate":        "p.demo_date",
	"deliveryDate":    "p.delivery_date",
	"paymentPlan":     "p.payment_plan",
	"notes":           "p.notes",
	"tags":            "p.tags",
	"assignedToId":    "p.assigned_to_id",
	"createdById":     "p.created_by_id",
	"createdAt":       "p.created_at",
	"updatedAt":       "p.updated_at",
	"client.nombre":   "c.nombre",
	"client.apellido": "c.apellido",
	"client.email":    "c.email",
	"client.telefono": "c.telefono",
	"client.empresa":  "c.empresa",
}

const (
	pipelineFrom   = "pipeline_items p JOIN clients c ON c.id = p.client_id"
	pipelineSelect = `
	SELECT p.id, p.client_id, COALESCE(p.products, '{}'), p.value, p.priority, p.status,
		p.last_contact, p.demo_date, p.delivery_date, p.payment_plan, p.notes, COALESCE(p.tags, '{}'),
		p.assigned_to_id, p.created_by_id, p.created_at, p.updated_at,
		c.id, c.nombre, c.apellido, c.email, c.telefono, c.empresa, c.etapa
	FROM ` + pipelineFrom
)

// PipelineRepo implementación de PipelineRepository sobre PostgreSQL.
type PipelineRepo struct {
	pool Querier
}

// NewPipelineRepository construye el adaptador.
func NewPipelineRepository(pool Querier) *PipelineRepo {
	return &PipelineRepo{pool: pool}
}

func scanItem(row pgx.Row) (*entity.PipelineItem, error) {
	var (
		p  entity.PipelineItem
		cr entity.ClientRef
	)
	err := row.Scan(
		&p.ID, &p.ClientID, &p.Products, &p.Value, &p.Priority, &p.Status,
		&p.LastContact, &p.DemoDate, &p.DeliveryDate, &p.PaymentPlan, &p.Notes, &p.Tags,
		&p.AssignedToID, &p.CreatedByID, &p.CreatedAt, &p.UpdatedAt,
		&cr.ID, &cr.Nombre, &cr.Apellido, &cr.Email, &cr.Telefono, &cr.Empresa, &cr.Etapa,
	)
	if err != nil {
		return nil, err
	}
	p.Client = &cr
	return &p, nil
}

// Create persiste una oportunidad.
func (r *PipelineRepo) Create(ctx context.Context, p *entity.PipelineItem) error {
	sql := `
		INSERT INTO pipeline_items (id, client_id, products, value, priority, status, last_contact,
			demo_date, delivery_date, payment_plan, notes, tags, assigned_to_id, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := conn(ctx, r.pool).Exec(ctx, sql,
		p.ID, p.ClientID, p.Products, p.Value, p.Priority, p.Status, p.LastContact,
		p.DemoDate, p.DeliveryDate, p.PaymentPlan, p.Notes, p.Tags, p.AssignedToID, p.CreatedByID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pipeline item: %w", err)
	}
	return nil
}

// GetByID oportunidad con su cliente; nil si no existe.
func (r *PipelineRepo) GetByID(ctx context.Context, id string) (*entity.PipelineItem, error) {
	p, err := scanItem(conn(ctx, r.pool).QueryRow(ctx, pipelineSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pipeline item: %w", err)
	}
	return p, nil
}

func (r *PipelineRepo) Find(ctx context.Context, q query.Query) ([]*entity.PipelineItem, error) {
	c := query.NewCompiler(PipelineColumns)
	sql, err := selectSQL(c, pipelineSelect, "p.id", q)
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, sql, c.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list pipeline items: %w", err)
	}
	defer rows.Close()
	list := []*entity.PipelineItem{}
	for rows.Next() {
		p, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pipeline item: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PipelineRepo) FindIDs(ctx context.Context, where query.Predicate) ([]string, error) {
	return idsSQL(ctx, conn(ctx, r.pool), PipelineColumns, pipelineFrom, "p.id", where)
}

func (r *PipelineRepo) Count(ctx context.Context, where query.Predicate) (int64, error) {
	return countSQL(ctx, conn(ctx, r.pool), PipelineColumns, pipelineFrom, where)
}

// CountDistinct COUNT(DISTINCT field).
func (r *PipelineRepo) CountDistinct(ctx context.Context, where query.Predicate, field string) (int64, error) {
	c := query.NewCompiler(PipelineColumns)
	col, err := c.Column(field)
	if err != nil {
		return 0, err
	}
	cond, err := c.Where(where)
	if err != nil {
		return 0, err
	}
	var n int64
	sql := "SELECT COUNT(DISTINCT " + col + ") FROM " + pipelineFrom + " WHERE " + cond
	if err := conn(ctx, r.pool).QueryRow(ctx, sql, c.Args()...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count distinct %s: %w", field, err)
	}
	return n, nil
}

// GroupBy acumula p.value en Sum.
func (r *PipelineRepo) GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error) {
	return groupSQL(ctx, conn(ctx, r.pool), PipelineColumns, pipelineFrom, where, field, "p.value")
}

// Update reemplaza los campos editables (client_id es inmutable).
func (r *PipelineRepo) Update(ctx context.Context, p *entity.PipelineItem) error {
	sql := `
		UPDATE pipeline_items SET products = $2, value = $3, priority = $4, status = $5, last_contact = $6,
			demo_date = $7, delivery_date = $8, payment_plan = $9, notes = $10, tags = $11,
			assigned_to_id = $12, updated_at = $13
		WHERE id = $1`
	tag, err := conn(ctx, r.pool).Exec(ctx, sql,
		p.ID, p.Products, p.Value, p.Priority, p.Status, p.LastContact,
		p.DemoDate, p.DeliveryDate, p.PaymentPlan, p.Notes, p.Tags,
		p.AssignedToID, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update pipeline item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la oportunidad; el historial se conserva.
func (r *PipelineRepo) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM pipeline_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pipeline item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

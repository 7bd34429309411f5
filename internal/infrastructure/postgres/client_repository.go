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

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientColumns campos filtrables y ordenables de clients.
var ClientColumns = query.Columns{
	"id":           "c.id",
	"nombre":       "c.nombre",
	"apellido":     "c.apellido",
	"email":        "c.email",
	"telefono":     "c.telefono",
	"empresa":      "c.empresa",
	"cargo":        "c.cargo",
	"direccion":    "c.direccion",
	"source":       "c.source",
	"estado":       "c.estado",
	"etapa":        "c.etapa",
	"tags":         "c.tags",
	"notas":        "c.notas",
	"createdById":  "c.created_by_id",
	"assignedToId": "c.assigned_to_id",
	"referredById": "c.referred_by_id",
	"createdAt":    "c.created_at",
	"updatedAt":    "c.updated_at",
}

const clientSelect = `
	SELECT c.id, c.nombre, c.apellido, c.email, c.telefono, c.empresa, c.cargo, c.direccion,
		c.source, c.estado, c.etapa, COALESCE(c.tags, '{}'), c.notas, c.custom_fields,
		c.created_by_id, c.assigned_to_id, c.referred_by_id, c.created_at, c.updated_at
	FROM clients c`

// ClientRepo implementación de ClientRepository sobre PostgreSQL.
type ClientRepo struct {
	pool Querier
}

// NewClientRepository construye el adaptador. Dentro de TxRunner.WithinTx usa la transacción del contexto.
func NewClientRepository(pool Querier) *ClientRepo {
	return &ClientRepo{pool: pool}
}

func scanClient(row pgx.Row) (*entity.Client, error) {
	var c entity.Client
	err := row.Scan(
		&c.ID, &c.Nombre, &c.Apellido, &c.Email, &c.Telefono, &c.Empresa, &c.Cargo, &c.Direccion,
		&c.Source, &c.Estado, &c.Etapa, &c.Tags, &c.Notas, &c.CustomFields,
		&c.CreatedByID, &c.AssignedToID, &c.ReferredByID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste un nuevo cliente.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	sql := `
		INSERT INTO clients (id, nombre, apellido, email, telefono, empresa, cargo, direccion,
			source, estado, etapa, tags, notas, custom_fields,
			created_by_id, assigned_to_id, referred_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := conn(ctx, r.pool).Exec(ctx, sql,
		c.ID, c.Nombre, c.Apellido, c.Email, c.Telefono, c.Empresa, c.Cargo, c.Direccion,
		c.Source, c.Estado, c.Etapa, c.Tags, c.Notas, c.CustomFields,
		c.CreatedByID, c.AssignedToID, c.ReferredByID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID; nil si no existe.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	c, err := scanClient(conn(ctx, r.pool).QueryRow(ctx, clientSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// Find página de clientes según la consulta compilada.
func (r *ClientRepo) Find(ctx context.Context, q query.Query) ([]*entity.Client, error) {
	c := query.NewCompiler(ClientColumns)
	sql, err := selectSQL(c, clientSelect, "c.id", q)
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, sql, c.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	list := []*entity.Client{}
	for rows.Next() {
		cl, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, cl)
	}
	return list, rows.Err()
}

// FindFirst primer cliente (más antiguo) que cumple where; nil si ninguno.
func (r *ClientRepo) FindFirst(ctx context.Context, where query.Predicate) (*entity.Client, error) {
	list, err := r.Find(ctx, query.Query{
		Where: where,
		Sort:  query.Sort{Field: "createdAt"},
		Page:  query.Page{Number: 1, Limit: 1},
	})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r *ClientRepo) FindIDs(ctx context.Context, where query.Predicate) ([]string, error) {
	return idsSQL(ctx, conn(ctx, r.pool), ClientColumns, "clients c", "c.id", where)
}

func (r *ClientRepo) Count(ctx context.Context, where query.Predicate) (int64, error) {
	return countSQL(ctx, conn(ctx, r.pool), ClientColumns, "clients c", where)
}

func (r *ClientRepo) GroupBy(ctx context.Context, where query.Predicate, field string) ([]query.Group, error) {
	return groupSQL(ctx, conn(ctx, r.pool), ClientColumns, "clients c", where, field, "")
}

// Update reemplaza los campos editables.
func (r *ClientRepo) Update(ctx context.Context, c *entity.Client) error {
	sql := `
		UPDATE clients SET nombre = $2, apellido = $3, email = $4, telefono = $5, empresa = $6,
			cargo = $7, direccion = $8, source = $9, estado = $10, etapa = $11, tags = $12,
			notas = $13, custom_fields = $14, assigned_to_id = $15, referred_by_id = $16, updated_at = $17
		WHERE id = $1`
	tag, err := conn(ctx, r.pool).Exec(ctx, sql,
		c.ID, c.Nombre, c.Apellido, c.Email, c.Telefono, c.Empresa,
		c.Cargo, c.Direccion, c.Source, c.Estado, c.Etapa, c.Tags,
		c.Notas, c.CustomFields, c.AssignedToID, c.ReferredByID, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetStage actualiza solo la etapa.
func (r *ClientRepo) SetStage(ctx context.Context, id, stage string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE clients SET etapa = $2, updated_at = now() WHERE id = $1`, id, stage)
	if err != nil {
		return fmt.Errorf("set client stage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountRelated ventas, tareas y oportunidades que referencian al cliente.
func (r *ClientRepo) CountRelated(ctx context.Context, id string) (entity.RelatedCounts, error) {
	sql := `
		SELECT
			(SELECT COUNT(*) FROM sales WHERE client_id = $1),
			(SELECT COUNT(*) FROM tasks WHERE client_id = $1),
			(SELECT COUNT(*) FROM pipeline_items WHERE client_id = $1)`
	var c entity.RelatedCounts
	if err := conn(ctx, r.pool).QueryRow(ctx, sql, id).Scan(&c.Sales, &c.Tasks, &c.PipelineItems); err != nil {
		return c, fmt.Errorf("count client relations: %w", err)
	}
	return c, nil
}

// Delete elimina un cliente por ID.
func (r *ClientRepo) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

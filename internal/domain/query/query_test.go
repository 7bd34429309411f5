package query_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/query"
)

// row registro mínimo para evaluar predicados.
type row map[string]any

func (r row) Field(name string) any { return r[name] }

var cols = query.Columns{
	"assignedToId": "c.assigned_to_id",
	"createdById":  "c.created_by_id",
	"estado":       "c.estado",
	"nombre":       "c.nombre",
	"email":        "c.email",
	"tags":         "c.tags",
	"dueDate":      "t.due_date",
	"updatedAt":    "c.updated_at",
}

// ---------- Eval ----------

func TestEval_Basicos(t *testing.T) {
	email := "ana@example.com"
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r := row{
		"assignedToId": "u1",
		"estado":       "ACTIVO",
		"nombre":       "Ana María",
		"email":        &email,
		"tags":         []string{"vip", "feria"},
		"dueDate":      &due,
		"referredById": (*string)(nil),
	}

	assert.True(t, query.Eq("assignedToId", "u1").Eval(r))
	assert.False(t, query.Eq("assignedToId", "u2").Eval(r))
	assert.True(t, query.Eq("email", "ana@example.com").Eval(r))
	assert.True(t, query.In("estado", "ACTIVO", "INACTIVO").Eval(r))
	assert.False(t, query.In("estado").Eval(r))
	assert.True(t, query.Contains("nombre", "MARÍA").Eval(r))
	assert.True(t, query.HasAny("tags", "otro", "vip").Eval(r))
	assert.False(t, query.HasAny("tags", "otro").Eval(r))
	assert.True(t, query.Before("dueDate", due.Add(time.Second)).Eval(r))
	assert.True(t, query.AtOrBefore("dueDate", due).Eval(r))
	assert.True(t, query.AtOrAfter("dueDate", due).Eval(r))
	assert.True(t, query.IsNull("referredById").Eval(r))
	assert.False(t, query.Not(query.IsNull("referredById")).Eval(r))
}

func TestAndOr_Simplificacion(t *testing.T) {
	r := row{"estado": "ACTIVO"}

	assert.Equal(t, query.All(), query.And())
	assert.Equal(t, query.All(), query.And(nil, query.All()))
	assert.Equal(t, query.None(), query.Or())
	assert.Equal(t, query.None(), query.And(query.Eq("estado", "ACTIVO"), query.None()))
	assert.Equal(t, query.All(), query.Or(query.Eq("estado", "X"), query.All()))

	single := query.And(nil, query.Eq("estado", "ACTIVO"))
	assert.Equal(t, query.Eq("estado", "ACTIVO"), single)
	assert.True(t, single.Eval(r))
}

// ---------- Builder ----------

func TestBuild_BusquedaNoAmpliaVisibilidad(t *testing.T) {
	visibility := query.Or(query.Eq("assignedToId", "u1"), query.Eq("createdById", "u1"))
	search, err := query.NewSearch("ana", "nombre", "email")
	require.NoError(t, err)
	q := query.Build(visibility, nil, search, query.NewPage(0, 0), query.Sort{})

	mine := row{"assignedToId": "u1", "nombre": "Ana"}
	foreign := row{"assignedToId": "u2", "createdById": "u2", "nombre": "Ana"}
	assert.True(t, q.Where.Eval(mine))
	assert.False(t, q.Where.Eval(foreign))
	assert.Equal(t, query.DefaultSort, q.Sort)
	assert.Equal(t, query.Page{Number: 1, Limit: 50}, q.Page)
}

func TestBuild_SinVisibilidadNoDevuelveNada(t *testing.T) {
	q := query.Build(nil, nil, nil, query.Unpaged(), query.DefaultSort)
	assert.Equal(t, query.None(), q.Where)
}

func TestNewSearch_Minimo(t *testing.T) {
	_, err := query.NewSearch(" a ", "nombre")
	assert.ErrorIs(t, err, domain.ErrSearchTooShort)
	_, err = query.NewSearch("añ", "nombre")
	assert.NoError(t, err)
}

func TestPage(t *testing.T) {
	assert.Equal(t, query.Page{Number: 1, Limit: 50}, query.NewPage(-1, 0))
	assert.Equal(t, query.Page{Number: 3, Limit: 100}, query.NewPage(3, 500))
	assert.Equal(t, 20, query.NewPage(3, 10).Offset())
	assert.Equal(t, 0, query.Unpaged().Offset())
	assert.Equal(t, 3, query.Pages(23, 10))
	assert.Equal(t, 0, query.Pages(0, 10))
	assert.Equal(t, 0, query.Pages(5, 0))
}

func TestNewSort_ListaBlanca(t *testing.T) {
	assert.Equal(t, query.Sort{Field: "nombre", Desc: false}, query.NewSort("nombre", "ASC", cols, query.DefaultSort))
	assert.Equal(t, query.Sort{Field: "nombre", Desc: true}, query.NewSort("nombre", "", cols, query.DefaultSort))
	assert.Equal(t, query.DefaultSort, query.NewSort("password", "asc", cols, query.DefaultSort))
}

// ---------- Compiler ----------

func TestCompiler_Where(t *testing.T) {
	visibility := query.Or(query.Eq("assignedToId", "u1"), query.Eq("createdById", "u1"))
	search, err := query.NewSearch("50%", "nombre", "email")
	require.NoError(t, err)
	q := query.Build(visibility, []query.Predicate{query.Eq("estado", "ACTIVO")}, search, query.NewPage(2, 10), query.Sort{Field: "nombre"})

	c := query.NewCompiler(cols)
	where, err := c.Where(q.Where)
	require.NoError(t, err)
	assert.Equal(t,
		"((c.assigned_to_id = $1 OR c.created_by_id = $2) AND c.estado = $3 AND (c.nombre ILIKE $4 OR c.email ILIKE $5))",
		where)
	order, err := c.OrderBy(q.Sort, "c.id")
	require.NoError(t, err)
	assert.Equal(t, "c.nombre ASC, c.id ASC", order)
	assert.Equal(t, " LIMIT $6 OFFSET $7", c.LimitOffset(q.Page))
	assert.Equal(t, []any{"u1", "u1", "ACTIVO", `%50\%%`, `%50\%%`, 10, 10}, c.Args())
}

func TestCompiler_OtrosPredicados(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := query.NewCompiler(cols, "previo")
	where, err := c.Where(query.And(
		query.HasAny("tags", "vip"),
		query.In("estado", "ACTIVO"),
		query.Before("dueDate", due),
		query.Not(query.IsNull("email")),
		query.Eq("nombre", nil),
	))
	require.NoError(t, err)
	assert.Equal(t,
		"(c.tags && $2::text[] AND c.estado = ANY($3) AND t.due_date < $4 AND NOT (c.email IS NULL) AND c.nombre IS NULL)",
		where)
	assert.Len(t, c.Args(), 4)

	for _, p := range []query.Predicate{query.All(), nil} {
		s, err := query.NewCompiler(cols).Where(p)
		require.NoError(t, err)
		assert.Equal(t, "TRUE", s)
	}
	s, err := query.NewCompiler(cols).Where(query.None())
	require.NoError(t, err)
	assert.Equal(t, "FALSE", s)
	assert.Empty(t, query.NewCompiler(cols).LimitOffset(query.Unpaged()))
}

func TestCompiler_CampoNoPermitido(t *testing.T) {
	_, err := query.NewCompiler(cols).Where(query.Eq("password", "x"))
	assert.Error(t, err)
	_, err = query.NewCompiler(cols).OrderBy(query.Sort{Field: "password"}, "id")
	assert.Error(t, err)
}

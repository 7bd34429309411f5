package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/CRM-api/internal/domain/query"
)

// Querier operaciones comunes a pgxpool.Pool y pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

type txKey struct{}

// conn devuelve la transacción del contexto si existe; si no, el pool.
func conn(ctx context.Context, pool Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// selectSQL arma SELECT ... WHERE ... ORDER BY ... LIMIT para una consulta de listado.
func selectSQL(c *query.Compiler, base, idColumn string, q query.Query) (string, error) {
	where, err := c.Where(q.Where)
	if err != nil {
		return "", err
	}
	order, err := c.OrderBy(q.Sort, idColumn)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s WHERE %s ORDER BY %s%s", base, where, order, c.LimitOffset(q.Page)), nil
}

// countSQL cuenta filas de from que cumplen where.
func countSQL(ctx context.Context, db Querier, cols query.Columns, from string, where query.Predicate) (int64, error) {
	c := query.NewCompiler(cols)
	cond, err := c.Where(where)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM "+from+" WHERE "+cond, c.Args()...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// idsSQL ids de from que cumplen where.
func idsSQL(ctx context.Context, db Querier, cols query.Columns, from, idColumn string, where query.Predicate) ([]string, error) {
	c := query.NewCompiler(cols)
	cond, err := c.Where(where)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, "SELECT "+idColumn+" FROM "+from+" WHERE "+cond, c.Args()...)
	if err != nil {
		return nil, fmt.Errorf("find ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// groupSQL agrupa por field; sumExpr vacío deja Sum en cero.
func groupSQL(ctx context.Context, db Querier, cols query.Columns, from string, where query.Predicate, field, sumExpr string) ([]query.Group, error) {
	c := query.NewCompiler(cols)
	col, err := c.Column(field)
	if err != nil {
		return nil, err
	}
	cond, err := c.Where(where)
	if err != nil {
		return nil, err
	}
	if sumExpr == "" {
		sumExpr = "0"
	}
	sql := fmt.Sprintf(`SELECT COALESCE(%[1]s::text, ''), COUNT(*), COALESCE(SUM(%[2]s), 0)::numeric
		FROM %[3]s WHERE %[4]s GROUP BY 1 ORDER BY 2 DESC, 1 ASC`, col, sumExpr, from, cond)
	rows, err := db.Query(ctx, sql, c.Args()...)
	if err != nil {
		return nil, fmt.Errorf("group by %s: %w", field, err)
	}
	defer rows.Close()
	var out []query.Group
	for rows.Next() {
		var g query.Group
		if err := rows.Scan(&g.Key, &g.Count, &g.Sum); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

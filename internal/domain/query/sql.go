package query

import (
	"fmt"
	"strings"
)

// Columns mapea nombres de campo a expresiones SQL. También actúa como lista blanca
// de campos filtrables y ordenables.
type Columns map[string]string

// Compiler traduce un Predicate a una cláusula WHERE de PostgreSQL con parámetros $n.
type Compiler struct {
	cols Columns
	args []any
}

// NewCompiler construye un compilador; los parámetros se numeran desde len(args)+1.
func NewCompiler(cols Columns, args ...any) *Compiler {
	return &Compiler{cols: cols, args: append([]any(nil), args...)}
}

// Args devuelve los parámetros acumulados en orden.
func (c *Compiler) Args() []any { return c.args }

// Arg agrega un parámetro y devuelve su placeholder.
func (c *Compiler) Arg(v any) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}

// Column resuelve un campo a su expresión SQL.
func (c *Compiler) Column(field string) (string, error) {
	col, ok := c.cols[field]
	if !ok {
		return "", fmt.Errorf("query: campo no permitido %q", field)
	}
	return col, nil
}

// Where compila el predicado.
func (c *Compiler) Where(p Predicate) (string, error) {
	if p == nil {
		return "TRUE", nil
	}
	switch x := p.(type) {
	case AllPred:
		return "TRUE", nil
	case NonePred:
		return "FALSE", nil
	case EqPred:
		col, err := c.Column(x.Field)
		if err != nil {
			return "", err
		}
		v := normalize(x.Value)
		if v == nil {
			return col + " IS NULL", nil
		}
		return col + " = " + c.Arg(v), nil
	case InPred:
		col, err := c.Column(x.Field)
		if err != nil {
			return "", err
		}
		return col + " = ANY(" + c.Arg(x.Values) + ")", nil
	case ContainsPred:
		col, err := c.Column(x.Field)
		if err != nil {
			return "", err
		}
		return col + " ILIKE " + c.Arg("%"+escapeLike(x.Term)+"%"), nil
	case HasAnyPred:
		col, err := c.Column(x.Field)
		if err != nil {
			return "", err
		}
		return col + " && " + c.Arg(x.Values) + "::text[]", nil
	case CmpPred:
		col, err := c.Column(x.Field)
		if err != nil {
			return "", err
		}
		return col + " " + string(x.Op) + " " + c.Arg(x.Value), nil
	case NullPred:
		col, err := c.Column(x.Field)
		if err != nil {
			return "", err
		}
		if x.Null {
			return col + " IS NULL", nil
		}
		return col + " IS NOT NULL", nil
	case AndPred:
		return c.join(x.Terms, " AND ")
	case OrPred:
		return c.join(x.Terms, " OR ")
	case NotPred:
		inner, err := c.Where(x.Term)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	}
	return "", fmt.Errorf("query: predicado no soportado %T", p)
}

// OrderBy compila el ordenamiento; desempata por id para que la paginación sea estable.
func (c *Compiler) OrderBy(s Sort, idColumn string) (string, error) {
	col, err := c.Column(s.Field)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, %s ASC", col, dir, idColumn), nil
}

// LimitOffset compila la paginación; Page sin límite no agrega nada.
func (c *Compiler) LimitOffset(p Page) string {
	if p.Limit <= 0 {
		return ""
	}
	return " LIMIT " + c.Arg(p.Limit) + " OFFSET " + c.Arg(p.Offset())
}

func (c *Compiler) join(terms []Predicate, sep string) (string, error) {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		s, err := c.Where(t)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

package query

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/CRM-api/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100

	minSearchLen = 2
)

// Page paginación 1-indexada. Limit <= 0 significa sin límite (exportaciones, kanban).
type Page struct {
	Number int
	Limit  int
}

// NewPage aplica los valores por defecto (page=1, limit=50) y el tope de limit.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: number, Limit: limit}
}

// Unpaged sin paginación.
func Unpaged() Page { return Page{} }

// Offset (page-1)*limit.
func (p Page) Offset() int {
	if p.Limit <= 0 || p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// Pages ceil(total/limit).
func Pages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Sort ordenamiento por un único campo.
type Sort struct {
	Field string
	Desc  bool
}

// DefaultSort última actualización primero.
var DefaultSort = Sort{Field: "updatedAt", Desc: true}

// NewSort valida el campo contra la lista blanca; si no es válido usa def.
func NewSort(field, order string, allowed Columns, def Sort) Sort {
	if field == "" {
		return def
	}
	if _, ok := allowed[field]; !ok {
		return def
	}
	return Sort{Field: field, Desc: !strings.EqualFold(order, "asc")}
}

// Query consulta ejecutable por un repositorio.
type Query struct {
	Where Predicate
	Sort  Sort
	Page  Page
}

// Build compone (visibilidad) AND (filtros...) AND (búsqueda). La búsqueda queda como
// un grupo OR independiente: nunca se mezcla con los términos de propiedad.
func Build(visibility Predicate, filters []Predicate, search Predicate, page Page, sort Sort) Query {
	terms := make([]Predicate, 0, len(filters)+2)
	if visibility == nil {
		visibility = None()
	}
	terms = append(terms, visibility)
	terms = append(terms, filters...)
	terms = append(terms, search)
	if sort.Field == "" {
		sort = DefaultSort
	}
	return Query{Where: And(terms...), Sort: sort, Page: page}
}

// NewSearch término libre sobre varios campos (OR). Rechaza términos de menos de 2
// caracteres antes de llegar al almacenamiento.
func NewSearch(term string, fields ...string) (Predicate, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < minSearchLen {
		return nil, domain.ErrSearchTooShort
	}
	terms := make([]Predicate, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, Contains(f, term))
	}
	return Or(terms...), nil
}

// Group resultado de una agregación por campo.
type Group struct {
	Key   string
	Count int64
	Sum   decimal.Decimal
}

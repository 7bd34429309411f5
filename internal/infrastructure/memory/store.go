// Package memory implementa los repositorios sobre mapas en memoria. Los filtros se
// resuelven con Predicate.Eval, el mismo árbol que el adaptador PostgreSQL compila a SQL.
// Se usa en tests y con STORE_DRIVER=memory para demos locales.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/CRM-api/internal/domain/query"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu sync.RWMutex

	users   map[string]*userRow
	clients map[string]*clientRow
	items   map[string]*itemRow
	history []*historyRow
	tasks   map[string]*taskRow
	// ventas registradas por cliente (no hay módulo de ventas; bloquean eliminaciones)
	sales map[string]int64

	seq int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		users:   map[string]*userRow{},
		clients: map[string]*clientRow{},
		items:   map[string]*itemRow{},
		tasks:   map[string]*taskRow{},
		sales:   map[string]int64{},
	}
}

// AddSale registra una venta asociada al cliente.
func (s *Store) AddSale(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales[clientID]++
}

// WithinTx ejecuta fn. El almacén en memoria no tiene rollback: cada repositorio
// toma su propio lock.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// next secuencia de inserción; desempata registros creados en el mismo instante.
func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

// filter aplica el predicado, ordena y pagina.
func filter[T query.Record](rows []T, q query.Query, seq func(T) int64) []T {
	where := q.Where
	if where == nil {
		where = query.All()
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if where.Eval(r) {
			out = append(out, r)
		}
	}
	sortRows(out, q.Sort, seq)
	return paginate(out, q.Page)
}

func sortRows[T query.Record](rows []T, s query.Sort, seq func(T) int64) {
	if s.Field == "" {
		s = query.DefaultSort
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compare(rows[i].Field(s.Field), rows[j].Field(s.Field))
		if c == 0 {
			return seq(rows[i]) < seq(rows[j])
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}

func paginate[T any](rows []T, p query.Page) []T {
	if p.Limit <= 0 {
		return rows
	}
	off := p.Offset()
	if off >= len(rows) {
		return []T{}
	}
	end := off + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[off:end]
}

func count[T query.Record](rows []T, where query.Predicate) int64 {
	if where == nil {
		where = query.All()
	}
	var n int64
	for _, r := range rows {
		if where.Eval(r) {
			n++
		}
	}
	return n
}

// groupBy agrupa por campo; sum (opcional) acumula un monto por fila.
func groupBy[T query.Record](rows []T, where query.Predicate, field string, sum func(T) decimal.Decimal) []query.Group {
	if where == nil {
		where = query.All()
	}
	idx := map[string]int{}
	var out []query.Group
	for _, r := range rows {
		if !where.Eval(r) {
			continue
		}
		key := keyOf(r.Field(field))
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, query.Group{Key: key})
		}
		out[i].Count++
		if sum != nil {
			out[i].Sum = out[i].Sum.Add(sum(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func keyOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func compare(a, b any) int {
	a, b = deref(a), deref(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case string:
		y, _ := b.(string)
		return strings.Compare(strings.ToLower(x), strings.ToLower(y))
	case time.Time:
		y, _ := b.(time.Time)
		return x.Compare(y)
	case bool:
		y, _ := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case int:
		y, _ := b.(int)
		return x - y
	case decimal.Decimal:
		y, _ := b.(decimal.Decimal)
		return x.Cmp(y)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func deref(v any) any {
	switch x := v.(type) {
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func ptrCopy[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

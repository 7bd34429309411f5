package crm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/access"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
)

const (
	copySuffix     = " (Copia)"
	maxValueLength = 20
	maxSearchLimit = 20
)

// maxValue cota exclusiva de pipeline_items.value, NUMERIC(14,2): 12 dígitos enteros.
var maxValue = decimal.New(1, 12)

// searchFrom devuelve nil si el parámetro search no vino en la petición.
func searchFrom(p dto.ListParams, fields ...string) (query.Predicate, error) {
	if !p.HasSearch && p.Search == "" {
		return nil, nil
	}
	return query.NewSearch(p.Search, fields...)
}

// searchLimit límite de los endpoints /search (por defecto 10, máximo 20).
func searchLimit(limit int) query.Page {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return query.Page{Number: 1, Limit: limit}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func eqIf(field, value string) query.Predicate {
	if value == "" {
		return nil
	}
	return query.Eq(field, value)
}

// checkAccess nil -> ErrNotFound; fuera de la visibilidad -> ErrForbidden.
func checkAccess(p access.Policy, kind access.Resource, r query.Record, found bool) error {
	if !found {
		return domain.ErrNotFound
	}
	if !p.CanAccess(kind, r) {
		return domain.ErrForbidden
	}
	return nil
}

func countItems(groups []query.Group) []dto.CountItem {
	out := make([]dto.CountItem, 0, len(groups))
	for _, g := range groups {
		out = append(out, dto.CountItem{Key: g.Key, Count: g.Count})
	}
	return out
}

// byUser agrupa por responsable y resuelve los nombres.
func byUser(ctx context.Context, users repository.UserRepository, groups []query.Group) ([]dto.CountItem, error) {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.Key)
	}
	found, err := users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := countItems(groups)
	for i := range out {
		if u, ok := found[out[i].Key]; ok {
			out[i].Label = u.FullName()
		} else {
			out[i].Label = "Sin asignar"
		}
	}
	return out, nil
}

// resolveAssignee el responsable debe existir.
func resolveAssignee(ctx context.Context, users repository.UserRepository, field, id string) error {
	u, err := users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.NewValidationError(field, "el usuario no existe", id)
	}
	return nil
}

// ParseValue acepta el valor monetario como string o número JSON. nil equivale a 0.
func ParseValue(field string, v any) (decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, nil
		}
		if len(s) > maxValueLength {
			return decimal.Zero, domain.NewValidationError(field, "valor demasiado largo", x)
		}
		d, err = decimal.NewFromString(s)
	case json.Number:
		d, err = decimal.NewFromString(x.String())
	case float64:
		d = decimal.NewFromFloat(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case decimal.Decimal:
		d = x
	default:
		return decimal.Zero, domain.NewValidationError(field, "debe ser un número", nil)
	}
	if err != nil {
		return decimal.Zero, domain.NewValidationError(field, "debe ser un número", v)
	}
	if d.IsNegative() {
		return decimal.Zero, domain.NewValidationError(field, "no puede ser negativo", d.String())
	}
	if !d.Equal(d.Truncate(2)) {
		return decimal.Zero, domain.NewValidationError(field, "admite como máximo 2 decimales", d.String())
	}
	if d.GreaterThanOrEqual(maxValue) {
		return decimal.Zero, domain.NewValidationError(field, "admite como máximo 12 dígitos enteros", d.String())
	}
	return d, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func ownerFilter(userID string) query.Predicate {
	return query.Or(
		query.Eq(access.FieldAssignedTo, userID),
		query.Eq(access.FieldCreatedBy, userID),
	)
}

// fullName nombre de un usuario o vacío.
func fullName(u *entity.User) string {
	if u == nil {
		return ""
	}
	return u.FullName()
}

// Package access resuelve qué filas de Client, PipelineItem y Task puede ver o
// modificar un usuario. Cada rol es una variante de Policy; listados, detalles y
// operaciones masivas consumen el mismo predicado.
package access

import (
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/query"
)

// Resource tipo de recurso protegido.
type Resource string

const (
	Client       Resource = "client"
	PipelineItem Resource = "pipeline_item"
	Task         Resource = "task"
)

// Campos de propiedad (nombres de query.Record).
const (
	FieldAssignedTo = "assignedToId"
	FieldCreatedBy  = "createdById"
	FieldReferredBy = "referredById"
)

// Policy regla de visibilidad de un usuario.
type Policy interface {
	// Visibility predicado de filas visibles para el recurso.
	Visibility(kind Resource) query.Predicate
	// CanAccess evalúa el mismo predicado de Visibility sobre un registro concreto.
	CanAccess(kind Resource, record query.Record) bool
	// Privileged exento del filtro por propiedad.
	Privileged() bool
	// UserID usuario al que pertenece la política.
	UserID() string
}

// ScopeFunc restricción adicional para DISTRIBUIDOR. nil = sin restricción.
type ScopeFunc func(user *entity.User, kind Resource) query.Predicate

// Option configura la construcción de políticas.
type Option func(*options)

type options struct {
	distributorScope ScopeFunc
}

// WithDistributorScope punto de extensión para acotar la visibilidad de DISTRIBUIDOR
// (por ejemplo a su organización). Por defecto no hay restricción.
func WithDistributorScope(fn ScopeFunc) Option {
	return func(o *options) { o.distributorScope = fn }
}

// For devuelve la política del usuario según su rol. Roles desconocidos reciben la
// regla más restrictiva (propietario).
func For(user *entity.User, opts ...Option) Policy {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	switch user.Role {
	case entity.RoleSuperAdmin:
		return superAdmin{id: user.ID}
	case entity.RoleDistribuidor:
		return distribuidor{user: user, scope: o.distributorScope}
	case entity.RoleEmprendedor, entity.RoleAsistente:
		return owner{id: user.ID}
	default:
		return owner{id: user.ID}
	}
}

type superAdmin struct{ id string }

func (p superAdmin) Visibility(Resource) query.Predicate { return query.All() }
func (p superAdmin) CanAccess(k Resource, r query.Record) bool {
	return canAccess(p, k, r)
}
func (p superAdmin) Privileged() bool { return true }
func (p superAdmin) UserID() string   { return p.id }

type distribuidor struct {
	user  *entity.User
	scope ScopeFunc
}

func (p distribuidor) Visibility(k Resource) query.Predicate {
	if p.scope == nil {
		return query.All()
	}
	if pred := p.scope(p.user, k); pred != nil {
		return pred
	}
	return query.All()
}
func (p distribuidor) CanAccess(k Resource, r query.Record) bool {
	return canAccess(p, k, r)
}
func (p distribuidor) Privileged() bool { return true }
func (p distribuidor) UserID() string   { return p.user.ID }

// owner EMPRENDEDOR, ASISTENTE y cualquier rol no reconocido.
type owner struct{ id string }

func (p owner) Visibility(k Resource) query.Predicate {
	terms := []query.Predicate{
		query.Eq(FieldAssignedTo, p.id),
		query.Eq(FieldCreatedBy, p.id),
	}
	if k == Client {
		terms = append(terms, query.Eq(FieldReferredBy, p.id))
	}
	return query.Or(terms...)
}
func (p owner) CanAccess(k Resource, r query.Record) bool {
	return canAccess(p, k, r)
}
func (p owner) Privileged() bool { return false }
func (p owner) UserID() string   { return p.id }

func canAccess(p Policy, k Resource, r query.Record) bool {
	if r == nil {
		return false
	}
	return p.Visibility(k).Eval(r)
}

// CheckBatch diferencia de conjuntos entre los ids pedidos y los accesibles. Si falta
// alguno la operación completa se rechaza.
func CheckBatch(requested, accessible []string) error {
	ok := make(map[string]struct{}, len(accessible))
	for _, id := range accessible {
		ok[id] = struct{}{}
	}
	var missing []string
	seen := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, found := ok[id]; !found {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &domain.BatchAccessError{Missing: missing}
	}
	return nil
}

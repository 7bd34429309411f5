// Package query define los predicados de filtrado que comparten las políticas de acceso,
// los listados y las comprobaciones de un solo registro.
//
// Un mismo Predicate se evalúa en memoria (Eval) y se compila a SQL (Compiler), de modo
// que el filtro de un listado y la verificación del detalle no pueden divergir.
package query

import (
	"strings"
	"time"
)

// Record expone los campos de una entidad por nombre (nombres JSON en camelCase).
type Record interface {
	Field(name string) any
}

// Predicate condición booleana sobre un Record.
type Predicate interface {
	Eval(r Record) bool
}

// Op operador de comparación para fechas.
type Op string

const (
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

// AllPred no restringe nada.
type AllPred struct{}

func (AllPred) Eval(Record) bool { return true }

// NonePred no deja pasar nada.
type NonePred struct{}

func (NonePred) Eval(Record) bool { return false }

// EqPred igualdad escalar (string, bool, int, time).
type EqPred struct {
	Field string
	Value any
}

func (p EqPred) Eval(r Record) bool {
	return equalValues(normalize(r.Field(p.Field)), normalize(p.Value))
}

// InPred el campo es uno de los valores.
type InPred struct {
	Field  string
	Values []string
}

func (p InPred) Eval(r Record) bool {
	s, ok := normalize(r.Field(p.Field)).(string)
	if !ok {
		return false
	}
	for _, v := range p.Values {
		if v == s {
			return true
		}
	}
	return false
}

// ContainsPred subcadena sin distinguir mayúsculas.
type ContainsPred struct {
	Field string
	Term  string
}

func (p ContainsPred) Eval(r Record) bool {
	s, ok := normalize(r.Field(p.Field)).(string)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(p.Term))
}

// HasAnyPred el campo (lista) contiene alguno de los valores.
type HasAnyPred struct {
	Field  string
	Values []string
}

func (p HasAnyPred) Eval(r Record) bool {
	list, ok := r.Field(p.Field).([]string)
	if !ok {
		return false
	}
	for _, have := range list {
		for _, want := range p.Values {
			if have == want {
				return true
			}
		}
	}
	return false
}

// CmpPred comparación de fechas.
type CmpPred struct {
	Field string
	Op    Op
	Value time.Time
}

func (p CmpPred) Eval(r Record) bool {
	t, ok := normalize(r.Field(p.Field)).(time.Time)
	if !ok {
		return false
	}
	switch p.Op {
	case OpLt:
		return t.Before(p.Value)
	case OpLte:
		return !t.After(p.Value)
	case OpGt:
		return t.After(p.Value)
	case OpGte:
		return !t.Before(p.Value)
	}
	return false
}

// NullPred el campo es (o no es) nulo.
type NullPred struct {
	Field string
	Null  bool
}

func (p NullPred) Eval(r Record) bool {
	isNull := normalize(r.Field(p.Field)) == nil
	return isNull == p.Null
}

// AndPred conjunción.
type AndPred struct {
	Terms []Predicate
}

func (p AndPred) Eval(r Record) bool {
	for _, t := range p.Terms {
		if !t.Eval(r) {
			return false
		}
	}
	return true
}

// OrPred disyunción.
type OrPred struct {
	Terms []Predicate
}

func (p OrPred) Eval(r Record) bool {
	for _, t := range p.Terms {
		if t.Eval(r) {
			return true
		}
	}
	return false
}

// NotPred negación.
type NotPred struct {
	Term Predicate
}

func (p NotPred) Eval(r Record) bool { return !p.Term.Eval(r) }

// All predicado sin restricción.
func All() Predicate { return AllPred{} }

// None predicado que no deja pasar ningún registro.
func None() Predicate { return NonePred{} }

// Eq campo == valor.
func Eq(field string, value any) Predicate { return EqPred{Field: field, Value: value} }

// In campo ∈ valores. Sin valores no deja pasar nada.
func In(field string, values ...string) Predicate {
	if len(values) == 0 {
		return None()
	}
	return InPred{Field: field, Values: values}
}

// Contains búsqueda de subcadena sin distinguir mayúsculas.
func Contains(field, term string) Predicate { return ContainsPred{Field: field, Term: term} }

// HasAny alguno de los valores está presente en el campo lista.
func HasAny(field string, values ...string) Predicate {
	if len(values) == 0 {
		return All()
	}
	return HasAnyPred{Field: field, Values: values}
}

// Before campo < t.
func Before(field string, t time.Time) Predicate { return CmpPred{Field: field, Op: OpLt, Value: t} }

// AtOrBefore campo <= t.
func AtOrBefore(field string, t time.Time) Predicate {
	return CmpPred{Field: field, Op: OpLte, Value: t}
}

// AtOrAfter campo >= t.
func AtOrAfter(field string, t time.Time) Predicate {
	return CmpPred{Field: field, Op: OpGte, Value: t}
}

// IsNull campo nulo.
func IsNull(field string) Predicate { return NullPred{Field: field, Null: true} }

// Not negación.
func Not(p Predicate) Predicate { return NotPred{Term: p} }

// And combina términos por conjunción. Ignora nil y All; cada término conserva su
// propia estructura (un Or anidado sigue siendo un grupo independiente).
func And(terms ...Predicate) Predicate {
	out := make([]Predicate, 0, len(terms))
	for _, t := range terms {
		if t == nil {
			continue
		}
		if _, ok := t.(AllPred); ok {
			continue
		}
		if _, ok := t.(NonePred); ok {
			return None()
		}
		out = append(out, t)
	}
	switch len(out) {
	case 0:
		return All()
	case 1:
		return out[0]
	}
	return AndPred{Terms: out}
}

// Or combina términos por disyunción. Sin términos no deja pasar nada.
func Or(terms ...Predicate) Predicate {
	out := make([]Predicate, 0, len(terms))
	for _, t := range terms {
		if t == nil {
			continue
		}
		if _, ok := t.(AllPred); ok {
			return All()
		}
		if _, ok := t.(NonePred); ok {
			continue
		}
		out = append(out, t)
	}
	switch len(out) {
	case 0:
		return None()
	case 1:
		return out[0]
	}
	return OrPred{Terms: out}
}

func normalize(v any) any {
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
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

func equalValues(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case int:
		y, ok := b.(int)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return false
}

// Package validation valida los DTO de entrada con go-playground/validator y traduce
// los errores a domain.ValidationError (todos los campos, no solo el primero).
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/CRM-api/internal/domain"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct valida s. Devuelve *domain.ValidationError con un detalle por campo inválido.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{}
	for _, fe := range verrs {
		out.Add(fieldPath(fe), message(fe), safeValue(fe.Value()))
	}
	return out
}

// fieldPath ruta sin el nombre del struct raíz (updates.estado, tags[0]).
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "email":
		return "debe ser un email válido"
	case "min":
		if isList {
			return fmt.Sprintf("debe tener al menos %s elemento(s)", fe.Param())
		}
		return fmt.Sprintf("debe tener al menos %s caracteres", fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("no puede tener más de %s elementos", fe.Param())
		}
		return fmt.Sprintf("no puede exceder %s caracteres", fe.Param())
	case "oneof":
		return "debe ser uno de: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid":
		return "debe ser un identificador válido"
	}
	return "valor inválido"
}

func safeValue(v any) any {
	if s, ok := v.(string); ok && len(s) > 200 {
		return s[:200]
	}
	switch v.(type) {
	case string, bool, int, int64, float64, nil:
		return v
	}
	return nil
}

// Email indica si s es un email con formato válido.
func Email(s string) bool {
	return instance().Var(s, "required,email") == nil
}

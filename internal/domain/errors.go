package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrInvalidToken       = errors.New("token inválido")
	ErrTokenExpired       = errors.New("token expirado")
	ErrUserDisabled       = errors.New("usuario desactivado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrSearchTooShort     = errors.New("el término de búsqueda debe tener al menos 2 caracteres")
)

// FieldError detalle de validación por campo.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationError agrupa todos los campos inválidos de una petición.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		fields = append(fields, d.Field)
	}
	return "datos de entrada inválidos: " + strings.Join(fields, ", ")
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Add registra un campo inválido.
func (e *ValidationError) Add(field, message string, value any) {
	e.Details = append(e.Details, FieldError{Field: field, Message: message, Value: value})
}

// OrNil devuelve nil si no hay detalles.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Details) == 0 {
		return nil
	}
	return e
}

// NewValidationError atajo para un único campo.
func NewValidationError(field, message string, value any) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message, value)
	return v
}

// ConflictError colisión de clave única con un registro existente.
type ConflictError struct {
	Field      string
	ExistingID string
	Nombre     string
	Apellido   string
}

// ExistingName nombre completo del registro existente.
func (e *ConflictError) ExistingName() string {
	return strings.TrimSpace(e.Nombre + " " + e.Apellido)
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ya existe un registro con el mismo %s (%s)", e.Field, e.ExistingID)
}

func (e *ConflictError) Unwrap() error { return ErrDuplicate }

// DependencyError la eliminación está bloqueada por registros relacionados.
type DependencyError struct {
	Resource string
	Counts   map[string]int64
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("no se puede eliminar %s: tiene registros asociados", e.Resource)
}

func (e *DependencyError) Unwrap() error { return ErrConflict }

// BatchAccessError alguno de los ids de una operación masiva no es accesible.
type BatchAccessError struct {
	Missing []string
}

func (e *BatchAccessError) Error() string {
	return fmt.Sprintf("sin acceso a %d de los registros solicitados", len(e.Missing))
}

func (e *BatchAccessError) Unwrap() error { return ErrForbidden }

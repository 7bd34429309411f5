package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/domain"
)

// apiError error propio de la capa HTTP (cuerpo mal formado, parámetros inválidos).
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(code, message string) error {
	return &apiError{status: fiber.StatusBadRequest, code: code, message: message}
}

var errInvalidBody = badRequest("INVALID_BODY", "cuerpo inválido")

// existingClient referencia al registro con el que colisiona un alta.
type existingClient struct {
	ID       string `json:"id"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
}

// ErrorHandler handler de errores de Fiber: todo error que sale de un handler termina
// aquí y se traduce al sobre {error, code, details}. El detalle de un 500 solo se
// expone en desarrollo.
func ErrorHandler(log zerolog.Logger, development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err)
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("error interno")
			if development {
				body.Details = err.Error()
			}
		}
		return c.Status(status).JSON(body)
	}
}

// classify mapea errores de dominio a status HTTP y código.
func classify(err error) (int, dto.ErrorResponse) {
	var (
		apiErr     *apiError
		validation *domain.ValidationError
		conflict   *domain.ConflictError
		dependency *domain.DependencyError
		batch      *domain.BatchAccessError
		fiberErr   *fiber.Error
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.status, dto.ErrorResponse{Error: apiErr.message, Code: apiErr.code}
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Error:   "datos de entrada inválidos",
			Code:    "VALIDATION_ERROR",
			Details: validation.Details,
		}
	case errors.As(err, &conflict):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Error: conflictMessage(conflict.Field),
			Code:  "CONFLICT",
			Details: fiber.Map{
				"field": conflict.Field,
				"existingClient": existingClient{
					ID:       conflict.ExistingID,
					Nombre:   conflict.Nombre,
					Apellido: conflict.Apellido,
				},
			},
		}
	case errors.As(err, &dependency):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Error:   dependency.Error(),
			Code:    "DEPENDENCY",
			Details: dependency.Counts,
		}
	case errors.As(err, &batch):
		return fiber.StatusForbidden, dto.ErrorResponse{
			Error:   "no tienes acceso a todos los registros solicitados",
			Code:    "FORBIDDEN",
			Details: fiber.Map{"missing": batch.Missing},
		}
	case errors.Is(err, domain.ErrSearchTooShort):
		return fiber.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "SEARCH_TOO_SHORT"}
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "EMAIL_EXISTS"}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "DUPLICATE"}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "CONFLICT"}
	case errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: "USER_NOT_FOUND"}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Error: err.Error(), Code: "FORBIDDEN"}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Error: "credenciales inválidas", Code: "UNAUTHORIZED"}
	case errors.Is(err, domain.ErrTokenExpired):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Code: "TOKEN_EXPIRED"}
	case errors.Is(err, domain.ErrInvalidToken):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Code: "INVALID_TOKEN"}
	case errors.Is(err, domain.ErrUserDisabled):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Code: "USER_DISABLED"}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, dto.ErrorResponse{Error: fiberErr.Message, Code: codeForStatus(fiberErr.Code)}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Error: "error interno del servidor", Code: "INTERNAL_ERROR"}
	}
}

func conflictMessage(field string) string {
	switch field {
	case "email":
		return "ya existe un cliente con ese email"
	case "telefono":
		return "ya existe un cliente con ese teléfono"
	default:
		return "ya existe un registro con los mismos datos"
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	default:
		if status >= fiber.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}

package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
)

// Locals keys para el usuario autenticado y su token en Fiber.
const (
	LocalUser  = "user"
	LocalToken = "token"
)

// Authenticator resuelve un Bearer token a un usuario activo. Lo implementa
// *auth.AuthUseCase.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

// AuthMiddleware valida el Bearer Token y carga el usuario (releído de la base) en
// c.Locals. Un usuario desactivado o borrado pierde el acceso en la siguiente petición.
func AuthMiddleware(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Error: "token de acceso requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Error: "formato: Bearer <token>"})
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Error: "token vacío"})
		}

		user, err := authn.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "USER_NOT_FOUND", Error: "usuario no encontrado"})
			}
			return err
		}
		c.Locals(LocalUser, user)
		c.Locals(LocalToken, token)
		return c.Next()
	}
}

// RequireRole admite solo los roles indicados. Debe usarse DESPUÉS de AuthMiddleware.
func RequireRole(roles ...entity.Role) fiber.Handler {
	required := make([]string, 0, len(roles))
	for _, r := range roles {
		required = append(required, string(r))
	}
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Error: "usuario no autenticado"})
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.RoleErrorResponse{
			Error:         "no tienes permisos para realizar esta acción",
			Code:          "FORBIDDEN",
			RequiredRoles: required,
			UserRole:      string(user.Role),
		})
	}
}

// RequirePrivileged atajo para SUPER_ADMIN y DISTRIBUIDOR.
func RequirePrivileged() fiber.Handler {
	return RequireRole(entity.PrivilegedRoles...)
}

// GetUser devuelve el usuario autenticado (después del middleware de auth).
func GetUser(c *fiber.Ctx) *entity.User {
	u, _ := c.Locals(LocalUser).(*entity.User)
	return u
}

// GetUserID id del usuario autenticado o vacío.
func GetUserID(c *fiber.Ctx) string {
	if u := GetUser(c); u != nil {
		return u.ID
	}
	return ""
}

// GetRole rol del usuario autenticado o vacío.
func GetRole(c *fiber.Ctx) string {
	if u := GetUser(c); u != nil {
		return string(u.Role)
	}
	return ""
}

// GetToken token crudo de la petición.
func GetToken(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalToken).(string)
	return s
}

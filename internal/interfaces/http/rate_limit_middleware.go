package http

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/infrastructure/ratelimit"
)

// KeyFunc clave de conteo de una petición.
type KeyFunc func(c *fiber.Ctx) string

// KeyByIP cuenta por IP de origen (rutas públicas).
func KeyByIP(c *fiber.Ctx) string { return "ip:" + c.IP() }

// KeyByUser cuenta por usuario autenticado; sin usuario cae a la IP.
func KeyByUser(c *fiber.Ctx) string {
	if id := GetUserID(c); id != "" {
		return "user:" + id
	}
	return KeyByIP(c)
}

// RateLimitRecorder cuenta los rechazos por regla.
type RateLimitRecorder interface {
	RateLimitHit(rule string)
}

// RateLimiter fábrica de middlewares por regla sobre un mismo limitador. Con limiter nil
// los middlewares dejan pasar todo.
type RateLimiter struct {
	limiter ratelimit.Limiter
	rec     RateLimitRecorder
	log     zerolog.Logger
}

// NewRateLimiter rec puede ser nil.
func NewRateLimiter(limiter ratelimit.Limiter, rec RateLimitRecorder, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{limiter: limiter, rec: rec, log: log}
}

// Limit responde 429 con retryAfter (segundos) cuando la clave agotó la regla. Si el
// limitador falla la petición sigue.
func (rl *RateLimiter) Limit(rule ratelimit.Rule, key KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl == nil || rl.limiter == nil {
			return c.Next()
		}
		d, err := rl.limiter.Allow(c.UserContext(), rule, key(c))
		if err != nil {
			rl.log.Warn().Err(err).Str("rule", rule.Name).Msg("limitador de tasa no disponible")
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if d.Allowed {
			return c.Next()
		}

		retry := int(math.Ceil(d.RetryAfter.Seconds()))
		if retry < 1 {
			retry = 1
		}
		if rl.rec != nil {
			rl.rec.RateLimitHit(rule.Name)
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.RateLimitResponse{
			Error:      "demasiadas peticiones, intente más tarde",
			Code:       "RATE_LIMITED",
			RetryAfter: retry,
		})
	}
}

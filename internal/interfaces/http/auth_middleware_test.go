package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/infrastructure/ratelimit"
	apphttp "github.com/jhoicas/CRM-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/CRM-api/pkg/jwt"
)

// fakeAuthenticator resuelve tokens fijos a usuarios.
type fakeAuthenticator map[string]*entity.User

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*entity.User, error) {
	switch token {
	case "vencido":
		return nil, domain.ErrTokenExpired
	case "huerfano":
		return nil, domain.ErrUserNotFound
	}
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, domain.ErrInvalidToken
}

func testUsers() fakeAuthenticator {
	return fakeAuthenticator{
		"tok-admin": {ID: "u-admin", Role: entity.RoleSuperAdmin, IsActive: true},
		"tok-dist":  {ID: "u-dist", Role: entity.RoleDistribuidor, IsActive: true},
		"tok-emp":   {ID: "u-emp", Role: entity.RoleEmprendedor, IsActive: true},
		"tok-asis":  {ID: "u-asis", Role: entity.RoleAsistente, IsActive: true},
	}
}

// buildTestApp ruta protegida con AuthMiddleware + RequireRole y un handler que
// devuelve los locals cargados.
func buildTestApp(allowed ...entity.Role) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(zerolog.Nop(), false)})
	app.Get("/protected",
		apphttp.AuthMiddleware(testUsers()),
		apphttp.RequireRole(allowed...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"userId": apphttp.GetUserID(c),
				"role":   apphttp.GetRole(c),
				"token":  apphttp.GetToken(c),
			})
		},
	)
	return app
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestRequireRole_RolPermitidoPasa(t *testing.T) {
	app := buildTestApp(entity.PrivilegedRoles...)

	resp, body := doRequest(t, app, "Bearer tok-dist")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u-dist", body["userId"])
	assert.Equal(t, "DISTRIBUIDOR", body["role"])
	assert.Equal(t, "tok-dist", body["token"])
}

func TestRequireRole_RolNoPermitido403(t *testing.T) {
	app := buildTestApp(entity.RoleSuperAdmin)

	for _, tok := range []string{"tok-dist", "tok-emp", "tok-asis"} {
		resp, body := doRequest(t, app, "Bearer "+tok)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, tok)
		assert.Equal(t, "FORBIDDEN", body["code"])
		assert.Equal(t, []any{"SUPER_ADMIN"}, body["requiredRoles"])
	}
}

func TestAuthMiddleware_Errores401(t *testing.T) {
	app := buildTestApp(entity.Roles...)

	cases := []struct {
		header string
		code   string
	}{
		{"", "MISSING_TOKEN"},
		{"Basic tok-admin", "INVALID_TOKEN"},
		{"Bearer desconocido", "INVALID_TOKEN"},
		{"Bearer vencido", "TOKEN_EXPIRED"},
		{"Bearer huerfano", "USER_NOT_FOUND"},
	}
	for _, tc := range cases {
		resp, body := doRequest(t, app, tc.header)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.header)
		assert.Equal(t, tc.code, body["code"], tc.header)
	}
}

func TestAuthMiddleware_BearerSinDistinguirMayusculas(t *testing.T) {
	app := buildTestApp(entity.Roles...)

	resp, _ := doRequest(t, app, "bearer tok-emp")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole_SinAutenticar401(t *testing.T) {
	app := fiber.New()
	app.Get("/protected", apphttp.RequirePrivileged(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, body := doRequest(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

// errLimiter limitador caído.
type errLimiter struct{}

func (errLimiter) Allow(context.Context, ratelimit.Rule, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis caído")
}

type hits map[string]int

func (h hits) RateLimitHit(rule string) { h[rule]++ }

func TestRateLimiter_PorUsuarioYFallaAbierto(t *testing.T) {
	rule := ratelimit.Rule{Name: "prueba", Limit: 1, Window: time.Minute}
	rec := hits{}

	app := fiber.New()
	app.Use(apphttp.AuthMiddleware(testUsers()))
	app.Get("/limited", apphttp.NewRateLimiter(ratelimit.NewInMemory(), rec, zerolog.Nop()).Limit(rule, apphttp.KeyByUser),
		func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/open", apphttp.NewRateLimiter(errLimiter{}, rec, zerolog.Nop()).Limit(rule, apphttp.KeyByUser),
		func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	get := func(path, tok string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := get("/limited", "tok-emp")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp = get("/limited", "tok-emp")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `"retryAfter":60`)
	assert.Equal(t, 1, rec["prueba"])

	// Cada usuario tiene su propio cupo.
	assert.Equal(t, http.StatusOK, get("/limited", "tok-asis").StatusCode)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get("/open", "tok-emp").StatusCode)
	}
}

func TestJWT_GenerarYParsear(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, "u-1", "ana@crm.test", "EMPRENDEDOR", testIssuer, testExpMin)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ana@crm.test", claims.Email)
	assert.Equal(t, "EMPRENDEDOR", claims.Role)
	assert.InDelta(t, time.Hour.Seconds(), claims.Remaining(time.Now()).Seconds(), 5)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err)
}

func TestJWT_TokenVencido(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, "u-1", "ana@crm.test", "EMPRENDEDOR", testIssuer, -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testJWTSecret, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrExpired)
}

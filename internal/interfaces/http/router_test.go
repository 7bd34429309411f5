package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/CRM-api/internal/application/auth"
	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/application/usecase"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/infrastructure/excel"
	"github.com/jhoicas/CRM-api/internal/infrastructure/memory"
	"github.com/jhoicas/CRM-api/internal/infrastructure/pdf"
	"github.com/jhoicas/CRM-api/internal/infrastructure/ratelimit"
	apphttp "github.com/jhoicas/CRM-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/CRM-api/pkg/jwt"
	"github.com/jhoicas/CRM-api/pkg/phone"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "crm-api-test"
	testExpMin    = 60
)

type api struct {
	app   *fiber.App
	users *memory.UserRepo
	admin *entity.User
	ana   *entity.User
	beto  *entity.User
}

// newAPI arma la aplicación completa sobre el store en memoria. limiter nil = sin límites.
func newAPI(t *testing.T, limiter ratelimit.Limiter) *api {
	t.Helper()
	log := zerolog.Nop()
	s := memory.NewStore()
	users := memory.NewUserRepository(s)
	clients := memory.NewClientRepository(s)
	items := memory.NewPipelineRepository(s)
	history := memory.NewHistoryRepository(s)
	tasks := memory.NewTaskRepository(s)
	phones := phone.NewNormalizer("US")

	hasher := auth.NewHasher(bcrypt.MinCost)
	authUC := auth.NewAuthUseCase(users, hasher, auth.JWTConfig{
		Secret:     testJWTSecret,
		ExpMinutes: testExpMin,
		Issuer:     testIssuer,
	}, nil)
	clientUC := crm.NewClientUseCase(clients, users, s, phones, log)
	ledger := crm.NewHistoryLedger(history, log, nil)

	var rl *apphttp.RateLimiter
	if limiter != nil {
		rl = apphttp.NewRateLimiter(limiter, nil, log)
	}

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(log, false)})
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:         authUC,
		UserUC:         usecase.NewUserUseCase(users, authUC, hasher),
		ClientUC:       clientUC,
		ImportUC:       crm.NewImportUseCase(clients, phones, log, nil),
		ExportUC:       crm.NewExportUseCase(clientUC, excel.NewClientReport(), pdf.NewClientReport()),
		PipelineUC:     crm.NewPipelineUseCase(items, clients, users, ledger, log, nil),
		TaskUC:         crm.NewTaskUseCase(tasks, clients, users, log),
		ContactParser:  excel.NewContactParser(),
		ImportTemplate: excel.WriteTemplate,
		RateLimiter:    rl,
	})

	a := &api{app: app, users: users}
	a.admin = a.addUser(t, "admin@crm.test", entity.RoleSuperAdmin)
	a.ana = a.addUser(t, "ana@crm.test", entity.RoleEmprendedor)
	a.beto = a.addUser(t, "beto@crm.test", entity.RoleEmprendedor)
	return a
}

func (a *api) addUser(t *testing.T, email string, role entity.Role) *entity.User {
	t.Helper()
	now := time.Now().UTC()
	u := &entity.User{
		ID:        "u-" + email,
		Email:     email,
		Firstname: "Usuario",
		Lastname:  string(role),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, a.users.Create(context.Background(), u))
	return u
}

// bearer genera un JWT válido para el usuario.
func bearer(t *testing.T, u *entity.User) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, u.ID, u.Email, string(u.Role), testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// do lanza la petición; body se serializa a JSON si no es nil.
func (a *api) do(t *testing.T, method, path, authHeader string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func (a *api) createClient(t *testing.T, as *entity.User, nombre, tel string) string {
	t.Helper()
	resp, out := a.do(t, http.MethodPost, "/api/clients", bearer(t, as), map[string]any{
		"nombre":   nombre,
		"apellido": "Prueba",
		"telefono": tel,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, out)
	return out["id"].(string)
}

func TestAPI_SinTokenDevuelve401(t *testing.T) {
	a := newAPI(t, nil)

	resp, out := a.do(t, http.MethodGet, "/api/clients", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", out["code"])

	resp, out = a.do(t, http.MethodGet, "/api/clients", "Token abc", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", out["code"])

	resp, out = a.do(t, http.MethodGet, "/api/clients", "Bearer no-es-un-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", out["code"])
}

func TestAPI_UsuarioDesactivadoPierdeAcceso(t *testing.T) {
	a := newAPI(t, nil)
	tok := bearer(t, a.ana)

	resp, _ := a.do(t, http.MethodPut, "/api/users/"+a.ana.ID+"/deactivate", bearer(t, a.admin), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, out := a.do(t, http.MethodGet, "/api/auth/verify", tok, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "USER_DISABLED", out["code"])
}

func TestAPI_RolInsuficienteDevuelveRolesRequeridos(t *testing.T) {
	a := newAPI(t, nil)

	resp, out := a.do(t, http.MethodGet, "/api/users", bearer(t, a.ana), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", out["code"])
	assert.Equal(t, []any{"SUPER_ADMIN", "DISTRIBUIDOR"}, out["requiredRoles"])
	assert.Equal(t, "EMPRENDEDOR", out["userRole"])

	resp, _ = a.do(t, http.MethodGet, "/api/users", bearer(t, a.admin), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAPI_EliminarUsuarioSoloSuperAdmin(t *testing.T) {
	a := newAPI(t, nil)
	dist := a.addUser(t, "dist@crm.test", entity.RoleDistribuidor)

	resp, out := a.do(t, http.MethodDelete, "/api/users/"+a.beto.ID, bearer(t, dist), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, []any{"SUPER_ADMIN"}, out["requiredRoles"])

	resp, _ = a.do(t, http.MethodDelete, "/api/users/"+a.beto.ID, bearer(t, a.admin), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAPI_RegistroYLogin(t *testing.T) {
	a := newAPI(t, nil)

	resp, out := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     "Nuevo@CRM.test",
		"password":  "secreto1",
		"firstname": "Nuevo",
		"lastname":  "Usuario",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, out)
	user := out["user"].(map[string]any)
	assert.Equal(t, "EMPRENDEDOR", user["role"])
	assert.Equal(t, "nuevo@crm.test", user["email"])
	assert.NotContains(t, out, "token")

	resp, out = a.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     "jefe@crm.test",
		"password":  "secreto1",
		"firstname": "Jefe",
		"lastname":  "Nuevo",
		"role":      "SUPER_ADMIN",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, out)

	resp, out = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "nuevo@crm.test", "password": "incorrecta",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", out["code"])

	resp, out = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "nuevo@crm.test", "password": "secreto1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, out)
	token := out["token"].(string)
	require.NotEmpty(t, token)

	resp, out = a.do(t, http.MethodGet, "/api/auth/verify", "Bearer "+token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["valid"])
}

func TestAPI_ClienteDuplicadoDevuelveExistente(t *testing.T) {
	a := newAPI(t, nil)
	id := a.createClient(t, a.ana, "Lucía", "+1 415 555 0101")

	// Mismo teléfono con otro formato y otro dueño: la unicidad es global.
	resp, out := a.do(t, http.MethodPost, "/api/clients", bearer(t, a.beto), map[string]any{
		"nombre":   "Otra",
		"apellido": "Persona",
		"telefono": "(415) 555-0101",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CONFLICT", out["code"])
	details := out["details"].(map[string]any)
	assert.Equal(t, "telefono", details["field"])
	existing := details["existingClient"].(map[string]any)
	assert.Equal(t, id, existing["id"])
	assert.Equal(t, "Lucía", existing["nombre"])
}

func TestAPI_ValidacionDevuelveDetalles(t *testing.T) {
	a := newAPI(t, nil)

	resp, out := a.do(t, http.MethodPost, "/api/clients", bearer(t, a.ana), map[string]any{"nombre": "L"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])
	assert.NotEmpty(t, out["details"])
}

func TestAPI_BusquedaCortaDevuelve400(t *testing.T) {
	a := newAPI(t, nil)
	tok := bearer(t, a.ana)

	for _, path := range []string{"/api/clients/search?q=a", "/api/pipeline/search?q=a", "/api/tasks/search?q=a", "/api/clients?search=a"} {
		resp, out := a.do(t, http.MethodGet, path, tok, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
		assert.Equal(t, "SEARCH_TOO_SHORT", out["code"], path)
	}
}

func TestAPI_ClienteAjenoDevuelve403(t *testing.T) {
	a := newAPI(t, nil)
	id := a.createClient(t, a.ana, "Lucía", "+1 415 555 0102")

	resp, out := a.do(t, http.MethodGet, "/api/clients/"+id, bearer(t, a.beto), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", out["code"])

	resp, _ = a.do(t, http.MethodPut, "/api/clients/"+id, bearer(t, a.beto), map[string]any{"nombre": "Robado"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = a.do(t, http.MethodGet, "/api/clients/"+id, bearer(t, a.admin), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, out = a.do(t, http.MethodGet, "/api/clients/no-existe", bearer(t, a.ana), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", out["code"])
}

func TestAPI_EliminarClienteConDependencias(t *testing.T) {
	a := newAPI(t, nil)
	tok := bearer(t, a.ana)
	id := a.createClient(t, a.ana, "Lucía", "+1 415 555 0103")

	resp, out := a.do(t, http.MethodPost, "/api/pipeline", tok, map[string]any{
		"clientId":    id,
		"products":    []string{"Olla"},
		"value":       "1500.50",
		"lastContact": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, out)
	itemID := out["id"].(string)

	resp, out = a.do(t, http.MethodDelete, "/api/clients/"+id, tok, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "DEPENDENCY", out["code"])
	details := out["details"].(map[string]any)
	assert.EqualValues(t, 1, details["pipelineItems"])
	assert.EqualValues(t, 0, details["tasks"])

	resp, _ = a.do(t, http.MethodDelete, "/api/pipeline/"+itemID, tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = a.do(t, http.MethodDelete, "/api/clients/"+id, tok, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAPI_CambioDeEstadoDejaHistorial(t *testing.T) {
	a := newAPI(t, nil)
	tok := bearer(t, a.ana)
	id := a.createClient(t, a.ana, "Lucía", "+1 415 555 0104")

	resp, out := a.do(t, http.MethodPost, "/api/pipeline", tok, map[string]any{
		"clientId":    id,
		"products":    []string{"Olla"},
		"lastContact": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, out)
	itemID := out["id"].(string)

	resp, out = a.do(t, http.MethodPatch, "/api/pipeline/"+itemID+"/status", tok, map[string]any{"status": "CONTACTADO"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, out)
	assert.Equal(t, "CONTACTADO", out["status"])

	req := httptest.NewRequest(http.MethodGet, "/api/pipeline/"+itemID+"/history", nil)
	req.Header.Set(fiber.HeaderAuthorization, tok)
	raw, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, raw.StatusCode)
	var history []map[string]any
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&history))
	require.Len(t, history, 2)
	assert.Equal(t, "STATUS_CHANGED", history[0]["action"])
	assert.Equal(t, "CREATED", history[1]["action"])

	resp, out = a.do(t, http.MethodGet, "/api/pipeline/kanban", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["columns"], 12)
	assert.Len(t, out["order"], 12)
}

func TestAPI_OperacionesMasivasSoloPrivilegiados(t *testing.T) {
	a := newAPI(t, nil)
	due := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)

	resp, out := a.do(t, http.MethodPost, "/api/tasks", bearer(t, a.ana), map[string]any{
		"title":   "Llamar a Lucía",
		"dueDate": due,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, out)
	taskID := out["id"].(string)
	assert.Equal(t, "SEGUIMIENTO", out["type"])

	body := map[string]any{"taskIds": []string{taskID}}
	resp, _ = a.do(t, http.MethodDelete, "/api/tasks/bulk-delete", bearer(t, a.ana), body)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, out = a.do(t, http.MethodPost, "/api/tasks/bulk-complete", bearer(t, a.admin), body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, out)
	assert.EqualValues(t, 1, out["updated"])

	resp, out = a.do(t, http.MethodGet, "/api/tasks/"+taskID, bearer(t, a.ana), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "COMPLETED", out["status"])

	resp, out = a.do(t, http.MethodDelete, "/api/tasks/bulk-delete", bearer(t, a.admin), body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, out)
	resp, _ = a.do(t, http.MethodGet, "/api/tasks/"+taskID, bearer(t, a.admin), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAPI_LimiteDeTasaEnLogin(t *testing.T) {
	a := newAPI(t, ratelimit.NewInMemory())
	body := map[string]any{"email": "nadie@crm.test", "password": "x"}

	for i := 0; i < ratelimit.Login.Limit; i++ {
		resp, _ := a.do(t, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "intento %d", i+1)
	}
	resp, out := a.do(t, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", out["code"])
	assert.Greater(t, out["retryAfter"].(float64), float64(0))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))

	// Otra regla sobre la misma IP no se ve afectada.
	resp, _ = a.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "nuevo@crm.test", "password": "secreto1", "firstname": "Nuevo", "lastname": "Usuario",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestAPI_ExportarYPlantilla(t *testing.T) {
	a := newAPI(t, nil)
	tok := bearer(t, a.ana)
	a.createClient(t, a.ana, "Lucía", "+1 415 555 0105")

	for _, tc := range []struct{ path, contentType string }{
		{"/api/clients/export?format=xlsx", excel.TemplateContentType},
		{"/api/clients/export?format=pdf", "application/pdf"},
		{"/api/clients/import-template", excel.TemplateContentType},
	} {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set(fiber.HeaderAuthorization, tok)
		resp, err := a.app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, tc.path)
		assert.Equal(t, tc.contentType, resp.Header.Get(fiber.HeaderContentType), tc.path)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment", tc.path)
	}

	resp, out := a.do(t, http.MethodGet, "/api/clients/export?format=csv", tok, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, out["code"])
}

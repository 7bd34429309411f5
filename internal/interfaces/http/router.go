package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/CRM-api/internal/application/auth"
	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/application/usecase"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/infrastructure/ratelimit"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	UserUC     *usecase.UserUseCase
	ClientUC   *crm.ClientUseCase
	ImportUC   *crm.ImportUseCase
	ExportUC   *crm.ExportUseCase
	PipelineUC *crm.PipelineUseCase
	TaskUC     *crm.TaskUseCase

	ContactParser  crm.ContactSheetParser
	ImportTemplate TemplateWriter

	// RateLimiter nil = sin límites.
	RateLimiter *RateLimiter
}

// Router registra las rutas de la API bajo /api.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	rl := deps.RateLimiter
	authMW := AuthMiddleware(deps.AuthUC)
	privileged := RequirePrivileged()

	// Auth
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", rl.Limit(ratelimit.Register, KeyByIP), authHandler.Register)
	authGroup.Post("/login", rl.Limit(ratelimit.Login, KeyByIP), authHandler.Login)
	authGroup.Get("/profile", authMW, authHandler.Profile)
	authGroup.Put("/profile", authMW, authHandler.UpdateProfile)
	authGroup.Put("/change-password", authMW, authHandler.ChangePassword)
	authGroup.Get("/verify", authMW, authHandler.Verify)
	authGroup.Post("/logout", authMW, authHandler.Logout)

	// Users
	users := api.Group("/users", authMW)
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/", privileged, userHandler.List)
	users.Get("/stats", privileged, userHandler.Stats)
	users.Post("/", privileged, userHandler.Create)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)
	users.Put("/:id/password", privileged, userHandler.SetPassword)
	users.Put("/:id/activate", privileged, userHandler.Activate)
	users.Put("/:id/deactivate", privileged, userHandler.Deactivate)
	users.Delete("/:id", RequireRole(entity.RoleSuperAdmin), userHandler.Delete)

	// Clients: rutas fijas antes de /:id
	clients := api.Group("/clients", authMW)
	clientHandler := NewClientHandler(deps.ClientUC, deps.ImportUC, deps.ExportUC, deps.ContactParser, deps.ImportTemplate)
	clients.Get("/", clientHandler.List)
	clients.Post("/", rl.Limit(ratelimit.CreateClient, KeyByUser), clientHandler.Create)
	clients.Get("/stats", clientHandler.Stats)
	clients.Get("/search", clientHandler.Search)
	clients.Get("/export", clientHandler.Export)
	clients.Get("/import-template", clientHandler.ImportTemplate)
	clients.Post("/import", rl.Limit(ratelimit.ImportFile, KeyByUser), clientHandler.Import)
	clients.Post("/import-contacts", rl.Limit(ratelimit.ImportContacts, KeyByUser), clientHandler.ImportContacts)
	clients.Post("/bulk-update", privileged, rl.Limit(ratelimit.BulkUpdate, KeyByUser), clientHandler.BulkUpdate)
	clients.Post("/check-duplicates", clientHandler.CheckDuplicates)
	clients.Get("/my/summary", clientHandler.MySummary)
	clients.Get("/my/recent", clientHandler.Recent)
	clients.Get("/user/:userId", privileged, clientHandler.ByUser)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Put("/:id", clientHandler.Update)
	clients.Post("/:id/duplicate", clientHandler.Duplicate)
	clients.Delete("/:id", clientHandler.Delete)

	// Pipeline
	pipeline := api.Group("/pipeline", authMW)
	pipelineHandler := NewPipelineHandler(deps.PipelineUC)
	pipeline.Get("/", pipelineHandler.List)
	pipeline.Post("/", pipelineHandler.Create)
	pipeline.Get("/kanban", pipelineHandler.Kanban)
	pipeline.Get("/stats", pipelineHandler.Stats)
	pipeline.Get("/search", pipelineHandler.Search)
	pipeline.Post("/bulk-update", privileged, pipelineHandler.BulkUpdate)
	pipeline.Get("/:id", pipelineHandler.GetByID)
	pipeline.Get("/:id/history", pipelineHandler.History)
	pipeline.Put("/:id", pipelineHandler.Update)
	pipeline.Patch("/:id/status", pipelineHandler.ChangeStatus)
	pipeline.Post("/:id/duplicate", pipelineHandler.Duplicate)
	pipeline.Delete("/:id", pipelineHandler.Delete)

	// Tasks
	tasks := api.Group("/tasks", authMW)
	taskHandler := NewTaskHandler(deps.TaskUC)
	tasks.Get("/", taskHandler.List)
	tasks.Post("/", taskHandler.Create)
	tasks.Get("/my-tasks", taskHandler.MyTasks)
	tasks.Get("/stats", taskHandler.Stats)
	tasks.Get("/search", taskHandler.Search)
	tasks.Get("/overdue", taskHandler.Overdue)
	tasks.Get("/upcoming", taskHandler.Upcoming)
	tasks.Post("/bulk-update", privileged, taskHandler.BulkUpdate)
	tasks.Post("/bulk-complete", privileged, taskHandler.BulkComplete)
	tasks.Post("/bulk-assign", privileged, taskHandler.BulkAssign)
	tasks.Delete("/bulk-delete", privileged, taskHandler.BulkDelete)
	tasks.Get("/:id", taskHandler.GetByID)
	tasks.Put("/:id", taskHandler.Update)
	tasks.Delete("/:id", taskHandler.Delete)
	tasks.Patch("/:id/status", taskHandler.ChangeStatus)
	tasks.Patch("/:id/complete", taskHandler.Complete)
	tasks.Patch("/:id/start", taskHandler.Start)
	tasks.Patch("/:id/cancel", taskHandler.Cancel)
	tasks.Put("/:id/priority", taskHandler.SetPriority)
	tasks.Post("/:id/duplicate", taskHandler.Duplicate)
	tasks.Post("/:id/reminder", taskHandler.SetReminder)
	tasks.Delete("/:id/reminder", taskHandler.ClearReminder)
}

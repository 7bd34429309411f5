package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"

	"github.com/jhoicas/CRM-api/docs"
	"github.com/jhoicas/CRM-api/internal/application/auth"
	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/application/usecase"
	"github.com/jhoicas/CRM-api/internal/infrastructure/excel"
	"github.com/jhoicas/CRM-api/internal/infrastructure/jobs"
	infrapdf "github.com/jhoicas/CRM-api/internal/infrastructure/pdf"
	"github.com/jhoicas/CRM-api/internal/infrastructure/ratelimit"
	infraredis "github.com/jhoicas/CRM-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/CRM-api/internal/interfaces/http"
	"github.com/jhoicas/CRM-api/pkg/config"
	"github.com/jhoicas/CRM-api/pkg/logger"
	"github.com/jhoicas/CRM-api/pkg/metrics"
	"github.com/jhoicas/CRM-api/pkg/phone"
)

const swaggerFile = "./docs/swagger.json"

// @title                       CRM API
// @version                     1.0
// @description                 CRM de ventas: usuarios, clientes, pipeline con historial y tareas.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	m := metrics.New()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.shutdown()

	// Redis opcional: lista negra de logout y limitador compartido entre réplicas.
	var (
		revoker auth.TokenRevoker
		limiter ratelimit.Limiter
	)
	if cfg.Redis.URL != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		revoker = infraredis.NewTokenBlacklist(rdb)
		limiter = ratelimit.NewRedis(rdb)
		log.Info().Msg("redis conectado: lista negra y límites compartidos")
	} else {
		limiter = ratelimit.NewInMemory()
	}
	if !cfg.RateLimit.Enabled {
		limiter = nil
	}

	phones := phone.NewNormalizer(cfg.Phone.DefaultRegion)
	hasher := auth.NewHasher(auth.DefaultCost)
	authUC := auth.NewAuthUseCase(st.users, hasher, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, revoker).WithLogger(log.Named("auth"))
	userUC := usecase.NewUserUseCase(st.users, authUC, hasher)

	clientUC := crm.NewClientUseCase(st.clients, st.users, st.tx, phones, log.Named("clients"))
	importUC := crm.NewImportUseCase(st.clients, phones, log.Named("import"), m)
	exportUC := crm.NewExportUseCase(clientUC, excel.NewClientReport(), infrapdf.NewClientReport())
	ledger := crm.NewHistoryLedger(st.history, log.Named("history"), m)
	pipelineUC := crm.NewPipelineUseCase(st.items, st.clients, st.users, ledger, log.Named("pipeline"), m)
	taskUC := crm.NewTaskUseCase(st.tasks, st.clients, st.users, log.Named("tasks"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
		ErrorHandler: httpRouter.ErrorHandler(log.Named("http"), cfg.App.IsDevelopment()),
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete}, ","),
	}))
	app.Use(httpRouter.Observability(log.Named("http"), m))

	// Swagger UI en local: http://localhost:<port>/docs (requiere swag init)
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "CRM API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		UserUC:         userUC,
		ClientUC:       clientUC,
		ImportUC:       importUC,
		ExportUC:       exportUC,
		PipelineUC:     pipelineUC,
		TaskUC:         taskUC,
		ContactParser:  excel.NewContactParser(),
		ImportTemplate: excel.WriteTemplate,
		RateLimiter:    httpRouter.NewRateLimiter(limiter, m, log.Named("ratelimit")),
	})

	scheduler := jobs.NewScheduler(log.Named("jobs"))
	if err := scheduler.AddOverdueSweep(cfg.Jobs.OverdueSweep, jobs.NewOverdueSweep(taskUC, m, log.Named("jobs"))); err != nil {
		log.Fatal().Err(err).Msg("programar tareas")
	}
	scheduler.Start()

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scheduler.Stop()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

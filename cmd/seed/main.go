// seed carga usuarios y clientes de demostración en PostgreSQL.
//
// Uso: go run ./cmd/seed
// La contraseña de todos los usuarios se toma de SEED_PASSWORD (por defecto admin123).
// Es idempotente: usuarios con el mismo email y clientes con el mismo teléfono se omiten.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/jhoicas/CRM-api/internal/application/auth"
	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/infrastructure/postgres"
	"github.com/jhoicas/CRM-api/pkg/config"
	"github.com/jhoicas/CRM-api/pkg/logger"
	"github.com/jhoicas/CRM-api/pkg/phone"
)

type seedUser struct {
	email, firstname, lastname, phone string
	role                              entity.Role
	subRole                           string
}

var users = []seedUser{
	{"admin@crm.com", "Super", "Admin", "+54911234567", entity.RoleSuperAdmin, ""},
	{"distribuidor@crm.com", "María", "Distribuidora", "+54911234568", entity.RoleDistribuidor, ""},
	{"emprendedor1@crm.com", "Juan", "Pérez", "+54911234569", entity.RoleEmprendedor, ""},
	{"emprendedor2@crm.com", "Ana", "González", "+54911234570", entity.RoleEmprendedor, ""},
	{"asistente@crm.com", "Carlos", "Asistente", "+54911234571", entity.RoleAsistente, entity.SubRoleComercial},
}

// clientes de ejemplo; owner es el email del usuario que los crea.
var clients = []struct {
	owner string
	in    dto.CreateClientRequest
}{
	{"emprendedor1@crm.com", dto.CreateClientRequest{
		Nombre: "Laura", Apellido: "Martínez", Email: "laura.martinez@email.com", Telefono: "+54911555001",
		Empresa: "Marketing Digital SA", Cargo: "Directora", Source: "LANDING", Etapa: "Cliente",
		Direccion: "Av. Corrientes 1234, CABA", Tags: []string{"premium", "marketing"},
		Notas: "Cliente VIP con múltiples compras",
	}},
	{"emprendedor1@crm.com", dto.CreateClientRequest{
		Nombre: "Roberto", Apellido: "Silva", Email: "roberto.silva@empresa.com", Telefono: "+54911555002",
		Empresa: "Tech Solutions", Cargo: "CTO", Source: "REFERIDO", Etapa: "Prospecto",
		Direccion: "Av. Santa Fe 5678, CABA", Tags: []string{"tecnología", "interesado"},
		Notas: "Referido por Laura Martínez",
	}},
	{"emprendedor2@crm.com", dto.CreateClientRequest{
		Nombre: "Sofía", Apellido: "López", Email: "sofia.lopez@gmail.com", Telefono: "+54911555003",
		Source: "STAND", Etapa: "Prospecto", Tags: []string{"feria"},
	}},
	{"emprendedor2@crm.com", dto.CreateClientRequest{
		Nombre: "Diego", Apellido: "Fernández", Telefono: "+54911555004",
		Empresa: "Constructora DF", Source: "GOOGLE_CONTACTS", Estado: "INACTIVO",
	}},
	{"distribuidor@crm.com", dto.CreateClientRequest{
		Nombre: "Valentina", Apellido: "Ruiz", Email: "vruiz@convenio.org", Telefono: "+54911555005",
		Source: "CONVENIO", Etapa: "Cliente", Tags: []string{"convenio"},
	}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "admin123"
		log.Warn().Msg("SEED_PASSWORD no definido, se usa la contraseña por defecto")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	userRepo := postgres.NewUserRepository(pool)
	authUC := auth.NewAuthUseCase(userRepo, auth.NewHasher(auth.DefaultCost), auth.JWTConfig{Secret: cfg.JWT.Secret}, nil)
	clientUC := crm.NewClientUseCase(postgres.NewClientRepository(pool), userRepo, postgres.NewTxRunner(pool),
		phone.NewNormalizer(cfg.Phone.DefaultRegion), log.Named("seed"))

	byEmail := make(map[string]*entity.User, len(users))
	for _, u := range users {
		in := dto.RegisterRequest{
			Email:     u.email,
			Password:  password,
			Firstname: u.firstname,
			Lastname:  u.lastname,
			Phone:     u.phone,
		}
		if u.subRole != "" {
			sub := u.subRole
			in.SubRole = &sub
		}
		created, err := authUC.NewUser(ctx, in, u.role)
		switch {
		case errors.Is(err, domain.ErrEmailAlreadyExists):
			created, err = userRepo.GetByEmail(ctx, u.email)
			if err != nil {
				log.Fatal().Err(err).Str("email", u.email).Msg("leer usuario existente")
			}
			log.Info().Str("email", u.email).Msg("usuario ya existe, se omite")
		case err != nil:
			log.Fatal().Err(err).Str("email", u.email).Msg("crear usuario")
		default:
			log.Info().Str("email", u.email).Str("role", string(u.role)).Msg("usuario creado")
		}
		byEmail[u.email] = created
	}

	var created, skipped int
	for _, c := range clients {
		owner := byEmail[c.owner]
		in := c.in
		in.AssignedToID = owner.ID
		_, err := clientUC.Create(ctx, owner, in)
		var conflict *domain.ConflictError
		switch {
		case errors.As(err, &conflict):
			skipped++
		case err != nil:
			log.Fatal().Err(err).Str("cliente", in.Nombre).Msg("crear cliente")
		default:
			created++
		}
	}

	log.Info().Int("usuarios", len(users)).Int("clientes_creados", created).Int("clientes_omitidos", skipped).Msg("seed completado")
}

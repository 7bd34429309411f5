package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
	"github.com/jhoicas/CRM-api/internal/infrastructure/memory"
	"github.com/jhoicas/CRM-api/internal/infrastructure/postgres"
	"github.com/jhoicas/CRM-api/pkg/config"
	"github.com/jhoicas/CRM-api/pkg/logger"
)

// store repositorios del driver elegido en STORE_DRIVER.
type store struct {
	users    repository.UserRepository
	clients  repository.ClientRepository
	items    repository.PipelineRepository
	history  repository.PipelineHistoryRepository
	tasks    repository.TaskRepository
	tx       crm.TxRunner
	shutdown func()
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case "memory":
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &store{
			users:    memory.NewUserRepository(s),
			clients:  memory.NewClientRepository(s),
			items:    memory.NewPipelineRepository(s),
			history:  memory.NewHistoryRepository(s),
			tasks:    memory.NewTaskRepository(s),
			tx:       s,
			shutdown: func() {},
		}, nil
	case "postgres", "":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		return &store{
			users:    postgres.NewUserRepository(pool),
			clients:  postgres.NewClientRepository(pool),
			items:    postgres.NewPipelineRepository(pool),
			history:  postgres.NewHistoryRepository(pool),
			tasks:    postgres.NewTaskRepository(pool),
			tx:       postgres.NewTxRunner(pool),
			shutdown: pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("STORE_DRIVER desconocido: %q", cfg.Store.Driver)
	}
}

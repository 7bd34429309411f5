package crm_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/CRM-api/internal/application/crm"
	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
	"github.com/jhoicas/CRM-api/internal/infrastructure/memory"
	"github.com/jhoicas/CRM-api/pkg/phone"
)

var errStorage = errors.New("almacenamiento no disponible")

// fakeRecorder cuenta las llamadas del caso de uso.
type fakeRecorder struct {
	mu            sync.Mutex
	historyFailed int
	promoteFailed int
	imported      map[string]int
	statusChanges []string
}

func newFakeRecorder() *fakeRecorder { return &fakeRecorder{imported: map[string]int{}} }

func (r *fakeRecorder) HistoryWriteFailed() {
	r.mu.Lock()
	r.historyFailed++
	r.mu.Unlock()
}

func (r *fakeRecorder) PromotionFailed() {
	r.mu.Lock()
	r.promoteFailed++
	r.mu.Unlock()
}

func (r *fakeRecorder) Imported(result string) {
	r.mu.Lock()
	r.imported[result]++
	r.mu.Unlock()
}

func (r *fakeRecorder) StatusChanged(status string) {
	r.mu.Lock()
	r.statusChanges = append(r.statusChanges, status)
	r.mu.Unlock()
}

// failingHistory historial que siempre falla al escribir.
type failingHistory struct {
	repository.PipelineHistoryRepository
}

func (failingHistory) Append(context.Context, *entity.PipelineHistory) error { return errStorage }

// failingStage clientes cuya promoción de etapa siempre falla.
type failingStage struct {
	*memory.ClientRepo
}

func (failingStage) SetStage(context.Context, string, string) error { return errStorage }

// failingDelete oportunidades cuyo borrado siempre falla.
type failingDelete struct {
	*memory.PipelineRepo
}

func (failingDelete) Delete(context.Context, string) error { return errStorage }

type env struct {
	store    *memory.Store
	users    *memory.UserRepo
	clients  repository.ClientRepository
	items    *memory.PipelineRepo
	history  repository.PipelineHistoryRepository
	tasks    *memory.TaskRepo
	rec      *fakeRecorder
	client   *crm.ClientUseCase
	pipeline *crm.PipelineUseCase
	task     *crm.TaskUseCase
	imports  *crm.ImportUseCase

	admin, distributor, ana, beto *entity.User
}

type envOption func(e *env)

func withHistory(h repository.PipelineHistoryRepository) envOption {
	return func(e *env) { e.history = h }
}

func withFailingPromotion() envOption {
	return func(e *env) { e.clients = failingStage{memory.NewClientRepository(e.store)} }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	s := memory.NewStore()
	e := &env{
		store:   s,
		users:   memory.NewUserRepository(s),
		clients: memory.NewClientRepository(s),
		items:   memory.NewPipelineRepository(s),
		history: memory.NewHistoryRepository(s),
		tasks:   memory.NewTaskRepository(s),
		rec:     newFakeRecorder(),
	}
	for _, o := range opts {
		o(e)
	}
	log := zerolog.Nop()
	phones := phone.NewNormalizer("US")
	ledger := crm.NewHistoryLedger(e.history, log, e.rec)

	e.client = crm.NewClientUseCase(e.clients, e.users, s, phones, log)
	e.pipeline = crm.NewPipelineUseCase(e.items, e.clients, e.users, ledger, log, e.rec)
	e.task = crm.NewTaskUseCase(e.tasks, e.clients, e.users, log)
	e.imports = crm.NewImportUseCase(e.clients, phones, log, e.rec)

	e.admin = e.addUser(t, "admin@crm.test", entity.RoleSuperAdmin)
	e.distributor = e.addUser(t, "dist@crm.test", entity.RoleDistribuidor)
	e.ana = e.addUser(t, "ana@crm.test", entity.RoleEmprendedor)
	e.beto = e.addUser(t, "beto@crm.test", entity.RoleEmprendedor)
	return e
}

func (e *env) addUser(t *testing.T, email string, role entity.Role) *entity.User {
	t.Helper()
	now := time.Now().UTC()
	u := &entity.User{
		ID:        "u-" + email,
		Email:     email,
		Firstname: string(role),
		Lastname:  email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

// newClient crea un cliente como actor; tel debe ser único en el test.
func (e *env) newClient(t *testing.T, actor *entity.User, nombre, tel string) *dto.ClientResponse {
	t.Helper()
	c, err := e.client.Create(context.Background(), actor, dto.CreateClientRequest{
		Nombre:   nombre,
		Apellido: "Prueba",
		Telefono: tel,
	})
	require.NoError(t, err)
	return c
}

func (e *env) newItem(t *testing.T, actor *entity.User, clientID string, value any) *dto.PipelineItemResponse {
	t.Helper()
	lastContact := time.Now().UTC()
	it, err := e.pipeline.Create(context.Background(), actor, dto.CreatePipelineItemRequest{
		ClientID:    clientID,
		Products:    []string{"Olla"},
		Value:       value,
		LastContact: &lastContact,
	})
	require.NoError(t, err)
	return it
}

func (e *env) historyOf(t *testing.T, itemID string) []*entity.PipelineHistory {
	t.Helper()
	h, err := e.history.ListByItem(context.Background(), itemID)
	require.NoError(t, err)
	return h
}

func strp(s string) *string { return &s }

func timePtr() *time.Time {
	t := time.Now().UTC()
	return &t
}

// Package ratelimit limita peticiones por clave (IP o usuario) con una ventana por regla.
// Hay dos implementaciones: en proceso (token bucket) y Redis (ventana fija compartida
// entre réplicas).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rule límite de una ruta: Limit peticiones cada Window.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Reglas por ruta.
var (
	Register       = Rule{Name: "register", Limit: 5, Window: 15 * time.Minute}
	Login          = Rule{Name: "login", Limit: 10, Window: 15 * time.Minute}
	CreateClient   = Rule{Name: "create_client", Limit: 20, Window: 5 * time.Minute}
	ImportFile     = Rule{Name: "import_file", Limit: 3, Window: 15 * time.Minute}
	ImportContacts = Rule{Name: "import_contacts", Limit: 5, Window: 15 * time.Minute}
	BulkUpdate     = Rule{Name: "bulk_update", Limit: 10, Window: 15 * time.Minute}
)

// Decision resultado de una consulta al limitador.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter consume una petición de key bajo la regla.
type Limiter interface {
	Allow(ctx context.Context, rule Rule, key string) (Decision, error)
}

type visitor struct {
	lim      *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// InMemoryLimiter token bucket por clave: Limit de ráfaga que se recarga a lo largo de
// Window. Solo sirve para una instancia.
type InMemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewInMemory limitador en proceso.
func NewInMemory() *InMemoryLimiter {
	return &InMemoryLimiter{
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow nunca devuelve error.
func (l *InMemoryLimiter) Allow(_ context.Context, rule Rule, key string) (Decision, error) {
	rule = normalize(rule)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cleanup(now)

	k := rule.Name + ":" + key
	v, ok := l.visitors[k]
	if !ok {
		v = &visitor{
			lim:    rate.NewLimiter(rate.Every(rule.Window/time.Duration(rule.Limit)), rule.Limit),
			window: rule.Window,
		}
		l.visitors[k] = v
	}
	v.lastSeen = now

	r := v.lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true, Remaining: int(v.lim.TokensAt(now))}, nil
}

// cleanup descarta visitantes inactivos por más de una ventana (el bucket ya estaría lleno).
func (l *InMemoryLimiter) cleanup(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > v.window {
			delete(l.visitors, k)
		}
	}
}

func normalize(rule Rule) Rule {
	if rule.Limit <= 0 {
		rule.Limit = 1
	}
	if rule.Window <= 0 {
		rule.Window = time.Minute
	}
	return rule
}

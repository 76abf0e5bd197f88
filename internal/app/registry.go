package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"baclog/internal/domain"
)

// Registry hands out the per-user Coordinator, creating it on first use.
// One registry owns the periodic refresh loop for every active coordinator,
// so recomputation keeps running with no client attached.
type Registry struct {
	profiles domain.ProfileRepository
	drinks   domain.DrinkRepository
	engine   *Engine
	clock    domain.Clock
	notifier domain.Notifier
	cfg      CoordinatorConfig
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	coords map[int64]*Coordinator
}

// NewRegistry creates a Registry that builds coordinators from the given
// collaborators.
func NewRegistry(profiles domain.ProfileRepository, drinks domain.DrinkRepository, engine *Engine, clock domain.Clock, notifier domain.Notifier, cfg CoordinatorConfig, refreshInterval time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		profiles: profiles,
		drinks:   drinks,
		engine:   engine,
		clock:    clock,
		notifier: notifier,
		cfg:      cfg,
		interval: refreshInterval,
		log:      log,
		coords:   make(map[int64]*Coordinator),
	}
}

// Engine exposes the shared estimation engine for read-only use.
func (r *Registry) Engine() *Engine { return r.engine }

// For returns the coordinator for userID, creating it if needed.
func (r *Registry) For(userID int64) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coords[userID]
	if !ok {
		c = NewCoordinator(userID, r.profiles, r.drinks, r.engine, r.clock, r.notifier, r.cfg, r.log)
		r.coords[userID] = c
	}
	return c
}

// Run drives the periodic refresh for every active coordinator until ctx is
// cancelled. Ticks run each coordinator in its own goroutine; a slow store
// for one user must not delay the others.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info().Dur("interval", r.interval).Msg("estimate refresh loop started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("estimate refresh loop stopped")
			return
		case <-ticker.C:
			for _, c := range r.active() {
				go c.OnTimerTick(ctx)
			}
		}
	}
}

func (r *Registry) active() []*Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Coordinator, 0, len(r.coords))
	for _, c := range r.coords {
		out = append(out, c)
	}
	return out
}

package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"baclog/internal/domain"
)

// CoordinatorConfig carries the per-coordinator settings.
type CoordinatorConfig struct {
	// Lookback bounds how far back drinks are loaded for a recompute. Any
	// drink older than this has long since stopped contributing.
	Lookback time.Duration
}

// Coordinator owns the single authoritative BAC estimate for one user. All
// ledger mutations and recomputations for that user go through it, one at a
// time; reads of the published estimate are lock-free snapshots.
type Coordinator struct {
	userID   int64
	profiles domain.ProfileRepository
	drinks   domain.DrinkRepository
	engine   *Engine
	clock    domain.Clock
	notifier domain.Notifier
	cfg      CoordinatorConfig
	log      zerolog.Logger

	published atomic.Pointer[domain.BACEstimate]

	// mu guards the coalescing state below, never the computation itself.
	mu      sync.Mutex
	busy    bool
	pending bool
}

// NewCoordinator creates the coordinator for one user.
func NewCoordinator(userID int64, profiles domain.ProfileRepository, drinks domain.DrinkRepository, engine *Engine, clock domain.Clock, notifier domain.Notifier, cfg CoordinatorConfig, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		userID:   userID,
		profiles: profiles,
		drinks:   drinks,
		engine:   engine,
		clock:    clock,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With().Int64("user_id", userID).Logger(),
	}
}

// CurrentEstimate returns the last published estimate. It never blocks on an
// in-flight recomputation and never computes; ok is false until the first
// recompute has published.
func (c *Coordinator) CurrentEstimate() (domain.BACEstimate, bool) {
	p := c.published.Load()
	if p == nil {
		return domain.BACEstimate{}, false
	}
	return *p, true
}

// OnDrinkAdded persists the drink and recomputes the estimate.
func (c *Coordinator) OnDrinkAdded(ctx context.Context, d domain.DrinkRecord) error {
	if err := c.drinks.AddDrink(ctx, d); err != nil {
		return fmt.Errorf("%w: add drink: %v", ErrDataUnavailable, err)
	}
	return c.RequestRecompute(ctx)
}

// OnDrinkRemoved removes the drink by ID and recomputes the estimate.
// removed is false when no drink with that ID exists for the user.
func (c *Coordinator) OnDrinkRemoved(ctx context.Context, id string) (bool, error) {
	removed, err := c.drinks.RemoveDrink(ctx, c.userID, id)
	if err != nil {
		return false, fmt.Errorf("%w: remove drink: %v", ErrDataUnavailable, err)
	}
	if !removed {
		return false, nil
	}
	return true, c.RequestRecompute(ctx)
}

// OnTimerTick recomputes with no ledger change; BAC falls with elapsed time
// alone, so the published estimate goes stale without this.
func (c *Coordinator) OnTimerTick(ctx context.Context) {
	if err := c.RequestRecompute(ctx); err != nil {
		c.log.Warn().Err(err).Msg("periodic recompute skipped")
	}
}

// RequestRecompute runs a recomputation. Requests arriving while one is in
// flight are coalesced into a single follow-up pass rather than queued
// per-event; the follow-up reads the clock when it actually runs, which
// keeps publications in non-decreasing clock order. A coalesced caller gets
// a nil error; the in-flight caller observes the final pass's outcome.
func (c *Coordinator) RequestRecompute(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.pending = true
		c.mu.Unlock()
		return nil
	}
	c.busy = true
	c.mu.Unlock()

	for {
		err := c.recomputeOnce(ctx)

		c.mu.Lock()
		if c.pending {
			c.pending = false
			c.mu.Unlock()
			continue
		}
		c.busy = false
		c.mu.Unlock()
		return err
	}
}

func (c *Coordinator) recomputeOnce(ctx context.Context) error {
	now := c.clock.Now()

	profile, err := c.profiles.GetProfile(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("%w: load profile: %v", ErrDataUnavailable, err)
	}
	if profile == nil {
		return fmt.Errorf("%w: no profile for user %d", ErrDataUnavailable, c.userID)
	}
	drinks, err := c.drinks.ListDrinksBetween(ctx, c.userID, now.Add(-c.cfg.Lookback), now)
	if err != nil {
		return fmt.Errorf("%w: load drinks: %v", ErrDataUnavailable, err)
	}

	est, err := c.engine.Calculate(*profile, drinks, now)
	if err != nil {
		// Data integrity bugs keep the previous estimate too; a stale but
		// correct value beats a silently zeroed one.
		return err
	}

	prev := c.published.Swap(&est)
	oldLevel := domain.LevelSafe
	if prev != nil {
		oldLevel = c.engine.Level(prev.BAC)
	}
	newLevel := c.engine.Level(est.BAC)

	c.log.Debug().
		Float64("bac", est.BAC).
		Str("level", string(newLevel)).
		Int("contributing", len(est.ContributingDrinkIDs)).
		Time("sober_at", est.SoberAt).
		Msg("estimate published")

	if newLevel != oldLevel {
		crossing := domain.ThresholdCrossing{UserID: c.userID, From: oldLevel, To: newLevel, Estimate: est}
		if nerr := c.notifier.NotifyThresholdCrossed(ctx, crossing); nerr != nil {
			c.log.Warn().Err(nerr).Msg("threshold crossing notification failed")
		}
	}
	return nil
}

// Predict computes the what-if estimate for a hypothetical extra drink using
// the same profile, drink window, and clock as a recompute. A zero ConsumedAt
// means "drunk right now". Nothing is persisted or published.
func (c *Coordinator) Predict(ctx context.Context, hypothetical domain.DrinkRecord) (domain.BACEstimate, error) {
	now := c.clock.Now()
	if hypothetical.ConsumedAt.IsZero() {
		hypothetical.ConsumedAt = now
	}

	profile, err := c.profiles.GetProfile(ctx, c.userID)
	if err != nil {
		return domain.BACEstimate{}, fmt.Errorf("%w: load profile: %v", ErrDataUnavailable, err)
	}
	if profile == nil {
		return domain.BACEstimate{}, fmt.Errorf("%w: no profile for user %d", ErrDataUnavailable, c.userID)
	}
	drinks, err := c.drinks.ListDrinksBetween(ctx, c.userID, now.Add(-c.cfg.Lookback), now)
	if err != nil {
		return domain.BACEstimate{}, fmt.Errorf("%w: load drinks: %v", ErrDataUnavailable, err)
	}

	return c.engine.Predict(*profile, drinks, hypothetical, now)
}

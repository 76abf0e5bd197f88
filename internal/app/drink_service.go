package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"baclog/internal/domain"
)

// Upper bound on a single logged drink; anything above this is garbage input.
const maxAlcoholGramsPerDrink = 500.0

// DrinkConfig carries the constants used to derive alcohol mass and the
// standard-drink display count.
type DrinkConfig struct {
	EthanolDensityGramsPerMl float64
	GramsPerStandardDrink    float64
}

// DrinkService encapsulates drink-logging use cases. Ledger mutations are
// routed through the user's coordinator so every change triggers exactly one
// coalesced recomputation.
type DrinkService struct {
	repo   domain.DrinkRepository
	coords *Registry
	clock  domain.Clock
	cfg    DrinkConfig
}

// NewDrinkService creates a DrinkService backed by the given repository and
// coordinator registry.
func NewDrinkService(repo domain.DrinkRepository, coords *Registry, clock domain.Clock, cfg DrinkConfig) *DrinkService {
	return &DrinkService{repo: repo, coords: coords, clock: clock, cfg: cfg}
}

// LogDrinkInput carries a new drink. Either AlcoholGrams is set directly, or
// VolumeMl and ABVPercent are set and the mass is derived. A zero ConsumedAt
// means "now".
type LogDrinkInput struct {
	Name         string
	AlcoholGrams float64
	VolumeMl     float64
	ABVPercent   float64
	ConsumedAt   time.Time
}

// LogDrink validates the input, derives the alcohol mass if needed, mints an
// ID, and records the drink through the user's coordinator.
func (s *DrinkService) LogDrink(ctx context.Context, userID int64, in LogDrinkInput) (domain.DrinkRecord, error) {
	grams := in.AlcoholGrams
	if grams == 0 && in.VolumeMl > 0 {
		if in.ABVPercent <= 0 || in.ABVPercent > 100 {
			return domain.DrinkRecord{}, errors.New("abvPercent must be in (0, 100]")
		}
		grams = s.DeriveAlcoholGrams(in.VolumeMl, in.ABVPercent)
	}
	if grams <= 0 {
		return domain.DrinkRecord{}, errors.New("drink must contain alcohol: set alcoholGrams or volumeMl+abvPercent")
	}
	if grams > maxAlcoholGramsPerDrink {
		return domain.DrinkRecord{}, fmt.Errorf("alcoholGrams %v exceeds the per-drink limit of %v", grams, maxAlcoholGramsPerDrink)
	}

	now := s.clock.Now()
	consumedAt := in.ConsumedAt
	if consumedAt.IsZero() {
		consumedAt = now
	}
	if consumedAt.After(now) {
		return domain.DrinkRecord{}, errors.New("consumedAt must not be in the future")
	}

	rec := domain.DrinkRecord{
		ID:           ulid.Make().String(),
		UserID:       userID,
		Name:         strings.TrimSpace(in.Name),
		AlcoholGrams: grams,
		ConsumedAt:   consumedAt.UTC(),
	}
	if err := s.coords.For(userID).OnDrinkAdded(ctx, rec); err != nil {
		return domain.DrinkRecord{}, err
	}
	return rec, nil
}

// RemoveDrink deletes a drink by ID through the coordinator. removed is
// false when the ID does not exist for this user.
func (s *DrinkService) RemoveDrink(ctx context.Context, userID int64, id string) (bool, error) {
	if id == "" {
		return false, errors.New("drink id required")
	}
	return s.coords.For(userID).OnDrinkRemoved(ctx, id)
}

// UndoLast removes the most recently consumed drink, returning its ID.
func (s *DrinkService) UndoLast(ctx context.Context, userID int64) (bool, string, error) {
	items, err := s.repo.ListRecentDrinks(ctx, userID, 1)
	if err != nil {
		return false, "", err
	}
	if len(items) == 0 {
		return false, "", nil
	}
	removed, err := s.coords.For(userID).OnDrinkRemoved(ctx, items[0].ID)
	return removed, items[0].ID, err
}

// ListRecent returns the most recent drinks up to limit.
func (s *DrinkService) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.DrinkRecord, error) {
	return s.repo.ListRecentDrinks(ctx, userID, limit)
}

// StandardDrinks converts an alcohol mass to the display-facing count of
// standard drinks.
func (s *DrinkService) StandardDrinks(grams float64) float64 {
	return grams / s.cfg.GramsPerStandardDrink
}

// DeriveAlcoholGrams converts a beverage volume and ABV into the mass of
// pure ethanol it contains.
func (s *DrinkService) DeriveAlcoholGrams(volumeMl, abvPercent float64) float64 {
	return volumeMl * (abvPercent / 100) * s.cfg.EthanolDensityGramsPerMl
}

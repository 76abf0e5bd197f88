// Package app holds the application services and business logic.
package app

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"baclog/internal/domain"
)

var (
	// ErrDataIntegrity indicates input that violates an engine invariant
	// (negative weight, negative alcohol mass, future-dated drink). It marks
	// a bug upstream of the engine and is never retried.
	ErrDataIntegrity = errors.New("data integrity violation")
	// ErrInvalidPrediction indicates a hypothetical drink with no alcohol
	// content passed to Predict.
	ErrInvalidPrediction = errors.New("invalid hypothetical drink")
	// ErrDataUnavailable indicates the profile or drink log could not be
	// loaded. The previously published estimate stays in place.
	ErrDataUnavailable = errors.New("profile or drink data unavailable")
)

// EngineConfig holds the constants of the decay model.
type EngineConfig struct {
	MetabolismRatePerHour float64
	Thresholds            domain.Thresholds
}

// Engine computes BAC estimates from a profile and a drink log. It is
// stateless: every call takes all inputs explicitly and no call mutates them.
type Engine struct {
	cfg EngineConfig
}

// NewEngine creates an Engine with the given model constants.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Calculate derives a fresh BACEstimate as of now from the given drinks.
// Drinks whose alcohol has been fully eliminated contribute nothing; an
// empty or fully-metabolized set yields the zero estimate. Intermediate
// math stays in double precision, the BAC percentage is rounded half-up to
// three decimals once at the end.
func (e *Engine) Calculate(profile domain.Profile, drinks []domain.DrinkRecord, now time.Time) (domain.BACEstimate, error) {
	if profile.WeightKg <= 0 {
		return domain.BACEstimate{}, fmt.Errorf("%w: weight must be > 0, got %v", ErrDataIntegrity, profile.WeightKg)
	}
	if len(drinks) == 0 {
		return domain.ZeroEstimate(now), nil
	}

	var totalGrams float64
	contributing := make([]string, 0, len(drinks))
	for _, d := range drinks {
		if d.AlcoholGrams < 0 {
			return domain.BACEstimate{}, fmt.Errorf("%w: drink %s has negative alcohol grams", ErrDataIntegrity, d.ID)
		}
		if d.ConsumedAt.After(now) {
			return domain.BACEstimate{}, fmt.Errorf("%w: drink %s is dated after the query instant", ErrDataIntegrity, d.ID)
		}
		remaining, err := domain.RemainingAlcoholGrams(d.AlcoholGrams, d.ConsumedAt, profile, e.cfg.MetabolismRatePerHour, now)
		if err != nil {
			return domain.BACEstimate{}, fmt.Errorf("%w: %v", ErrDataIntegrity, err)
		}
		if remaining > 0 {
			totalGrams += remaining
			contributing = append(contributing, d.ID)
		}
	}
	if totalGrams <= 0 {
		return domain.ZeroEstimate(now), nil
	}

	bac := roundHalfUp3(domain.BACPercent(totalGrams, profile))
	if bac == 0 {
		// Trace amounts that round to 0.000 publish as fully sober.
		return domain.ZeroEstimate(now), nil
	}
	sort.Strings(contributing)

	soberAt := now.Add(hours(bac / e.cfg.MetabolismRatePerHour))
	legalAt := now
	if bac > e.cfg.Thresholds.Legal {
		legalAt = now.Add(hours((bac - e.cfg.Thresholds.Legal) / e.cfg.MetabolismRatePerHour))
	}

	return domain.BACEstimate{
		BAC:                  bac,
		ComputedAt:           now,
		SoberAt:              soberAt,
		LegalAt:              legalAt,
		ContributingDrinkIDs: contributing,
	}, nil
}

// Predict returns the estimate that Calculate would produce if hypothetical
// were added to drinks, without mutating either. Results are identical to a
// Calculate call over the combined set.
func (e *Engine) Predict(profile domain.Profile, drinks []domain.DrinkRecord, hypothetical domain.DrinkRecord, now time.Time) (domain.BACEstimate, error) {
	if hypothetical.AlcoholGrams <= 0 {
		return domain.BACEstimate{}, fmt.Errorf("%w: alcohol grams must be > 0, got %v", ErrInvalidPrediction, hypothetical.AlcoholGrams)
	}
	combined := make([]domain.DrinkRecord, 0, len(drinks)+1)
	combined = append(combined, drinks...)
	combined = append(combined, hypothetical)
	return e.Calculate(profile, combined, now)
}

// Level returns the category for a BAC percentage under the configured
// thresholds.
func (e *Engine) Level(bac float64) domain.Level {
	return e.cfg.Thresholds.LevelFor(bac)
}

// effectBand pairs a lower BAC bound with the physiological effects typical
// at or above it.
type effectBand struct {
	min     float64
	effects []string
}

var effectBands = []effectBand{
	{0.30, []string{
		"Risk of loss of consciousness",
		"Dangerously depressed breathing and heart rate",
		"Potential alcohol poisoning; medical attention advised",
	}},
	{0.20, []string{
		"Confusion and disorientation",
		"Nausea and vomiting",
		"Blackouts and memory loss likely",
	}},
	{0.15, []string{
		"Major loss of balance and motor control",
		"Severely impaired judgment",
		"Possible vomiting",
	}},
	{0.08, []string{
		"Poor muscle coordination and slowed reaction time",
		"Impaired self-control, reasoning, and memory",
		"Legally impaired for driving in most jurisdictions",
	}},
	{0.05, []string{
		"Exaggerated behavior and lowered inhibition",
		"Reduced alertness and impaired judgment",
	}},
	{0.02, []string{
		"Mild relaxation and slight mood elevation",
		"Some loss of judgment",
	}},
}

// PossibleEffects returns the typical physiological effects for a BAC
// percentage, most significant first. The list is informational display
// copy; it carries no safety-critical computation.
func PossibleEffects(bac float64) []string {
	for _, band := range effectBands {
		if bac >= band.min {
			return band.effects
		}
	}
	return []string{"Little to no noticeable effect"}
}

// roundHalfUp3 rounds to three decimal places, ties away from zero being
// irrelevant here since BAC is never negative.
func roundHalfUp3(v float64) float64 {
	return math.Floor(v*1000+0.5) / 1000
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

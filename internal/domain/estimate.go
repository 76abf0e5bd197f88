package domain

import (
	"context"
	"time"
)

// Level is the BAC category a user currently falls into.
type Level string

// Level categories, ordered from lowest to highest BAC.
const (
	LevelSafe    Level = "safe"
	LevelCaution Level = "caution"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Thresholds are the BAC category boundaries in percentage units.
// Invariant: Caution < Legal < High.
type Thresholds struct {
	Caution float64
	Legal   float64
	High    float64
}

// LevelFor returns the category for a BAC percentage.
func (t Thresholds) LevelFor(bac float64) Level {
	switch {
	case bac >= t.High:
		return LevelDanger
	case bac >= t.Legal:
		return LevelWarning
	case bac >= t.Caution:
		return LevelCaution
	default:
		return LevelSafe
	}
}

// BACEstimate is a derived snapshot of a user's estimated blood-alcohol
// concentration. Estimates are recomputed wholesale, never partially mutated.
//
// Invariants: SoberAt >= ComputedAt, LegalAt <= SoberAt, and BAC == 0 implies
// an empty contributing set with SoberAt == LegalAt == ComputedAt.
type BACEstimate struct {
	BAC                  float64   `json:"bac"`
	ComputedAt           time.Time `json:"computedAt"`
	SoberAt              time.Time `json:"soberAt"`
	LegalAt              time.Time `json:"legalAt"`
	ContributingDrinkIDs []string  `json:"contributingDrinkIds"`
}

// ZeroEstimate returns the estimate for a user with no alcohol in their
// system as of now.
func ZeroEstimate(now time.Time) BACEstimate {
	return BACEstimate{
		BAC:                  0,
		ComputedAt:           now,
		SoberAt:              now,
		LegalAt:              now,
		ContributingDrinkIDs: []string{},
	}
}

// ThresholdCrossing records a transition between BAC categories.
type ThresholdCrossing struct {
	UserID   int64       `json:"userId"`
	From     Level       `json:"from"`
	To       Level       `json:"to"`
	Estimate BACEstimate `json:"estimate"`
}

// Notifier is the port for the external notification layer. It receives
// threshold crossings and decides whether to surface a user-visible alert.
type Notifier interface {
	NotifyThresholdCrossed(ctx context.Context, c ThresholdCrossing) error
}

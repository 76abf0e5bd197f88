package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeOrdering indicates a query instant earlier than the drink it
// asks about. This is a caller bug, not a runtime condition.
var ErrInvalidTimeOrdering = errors.New("query instant precedes drink timestamp")

const gramsPerKg = 1000.0

// EliminationGramsPerHour converts the metabolism rate (a BAC-percentage
// decrease per hour) into a grams-per-hour elimination rate for the profile.
// The same body-weight and body-water scaling is used when converting grams
// back to a BAC percentage, so elimination and production stay symmetric.
func EliminationGramsPerHour(p Profile, ratePerHour float64) float64 {
	return ratePerHour * p.WeightKg * gramsPerKg * p.Gender.BodyWaterConstant() / 100
}

// RemainingAlcoholGrams returns the un-metabolized alcohol mass of a single
// drink at instant at, assuming linear Widmark elimination since consumedAt.
// The result is clamped at zero; a drink is still contributing iff the
// result is > 0.
func RemainingAlcoholGrams(alcoholGrams float64, consumedAt time.Time, p Profile, ratePerHour float64, at time.Time) (float64, error) {
	if at.Before(consumedAt) {
		return 0, fmt.Errorf("%w: drink consumed %s, queried %s",
			ErrInvalidTimeOrdering, consumedAt.Format(time.RFC3339), at.Format(time.RFC3339))
	}
	elapsedHours := at.Sub(consumedAt).Hours()
	remaining := alcoholGrams - EliminationGramsPerHour(p, ratePerHour)*elapsedHours
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// BACPercent converts a total mass of un-metabolized alcohol into a BAC
// percentage via the Widmark inverse. The result is not rounded; callers
// round once at the end of a full calculation.
func BACPercent(totalGrams float64, p Profile) float64 {
	return totalGrams / (p.WeightKg * gramsPerKg * p.Gender.BodyWaterConstant()) * 100
}

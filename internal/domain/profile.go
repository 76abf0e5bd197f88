// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
)

// Gender selects the Widmark body-water distribution constant.
type Gender string

// Recognised gender values.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is one of the recognised gender values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// BodyWaterConstant returns the Widmark distribution ratio for the gender.
// Unrecognised values fall back to the midpoint used for GenderOther.
func (g Gender) BodyWaterConstant() float64 {
	switch g {
	case GenderMale:
		return 0.68
	case GenderFemale:
		return 0.55
	default:
		return 0.615
	}
}

// Profile holds the per-user physiology inputs for BAC estimation.
type Profile struct {
	UserID   int64   `json:"userId"`
	WeightKg float64 `json:"weightKg"`
	Gender   Gender  `json:"gender"`
}

// ProfileRepository is the port for profile persistence.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	UpsertProfile(ctx context.Context, p Profile) error
}

package app

import (
	"context"
	"errors"

	"baclog/internal/domain"
)

// ProfileService encapsulates profile use cases. Profile edits trigger a
// recompute: weight and gender both feed the decay model.
type ProfileService struct {
	repo   domain.ProfileRepository
	coords *Registry
}

// NewProfileService creates a ProfileService backed by the given repository.
func NewProfileService(repo domain.ProfileRepository, coords *Registry) *ProfileService {
	return &ProfileService{repo: repo, coords: coords}
}

// Get returns the user's profile, or nil when none has been saved.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// Update validates and stores new profile values. Weight may be submitted in
// "kg" or "lb"; it is stored in kg.
func (s *ProfileService) Update(ctx context.Context, userID int64, weight float64, unit string, gender domain.Gender) (domain.Profile, error) {
	if unit != "kg" && unit != "lb" {
		return domain.Profile{}, errors.New("unit must be \"kg\" or \"lb\"")
	}
	weightKg := domain.ConvertWeight(weight, unit, "kg")
	if weightKg <= 0 || weightKg > 650 {
		return domain.Profile{}, errors.New("weight must be > 0 and within a plausible range")
	}
	if !gender.Valid() {
		return domain.Profile{}, errors.New("gender must be \"male\", \"female\", or \"other\"")
	}

	p := domain.Profile{UserID: userID, WeightKg: weightKg, Gender: gender}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return domain.Profile{}, err
	}
	if err := s.coords.For(userID).RequestRecompute(ctx); err != nil && !errors.Is(err, ErrDataUnavailable) {
		return domain.Profile{}, err
	}
	return p, nil
}

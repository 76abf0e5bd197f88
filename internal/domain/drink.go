package domain

import (
	"context"
	"time"
)

// DrinkRecord is a single logged drink. AlcoholGrams is the mass of pure
// ethanol; it is derived upstream from volume and ABV, the estimation math
// only ever sees grams. Records are immutable once created and removed by ID.
type DrinkRecord struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"userId"`
	Name         string    `json:"name"`
	AlcoholGrams float64   `json:"alcoholGrams"`
	ConsumedAt   time.Time `json:"consumedAt"`
}

// DrinkRepository is the port for drink persistence.
type DrinkRepository interface {
	AddDrink(ctx context.Context, d DrinkRecord) error
	RemoveDrink(ctx context.Context, userID int64, id string) (bool, error)
	ListDrinksBetween(ctx context.Context, userID int64, from, to time.Time) ([]DrinkRecord, error)
	ListRecentDrinks(ctx context.Context, userID int64, limit int) ([]DrinkRecord, error)
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"baclog/internal/domain"
)

// GetProfile returns a user's profile, or nil when none has been saved.
func (d *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var p domain.Profile
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id, weight_kg, gender FROM profiles WHERE user_id = $1;",
		userID,
	).Scan(&p.UserID, &p.WeightKg, &p.Gender)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile inserts or replaces a user's profile.
func (d *DB) UpsertProfile(ctx context.Context, p domain.Profile) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO profiles(user_id, weight_kg, gender, updated_at) VALUES($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET weight_kg = EXCLUDED.weight_kg, gender = EXCLUDED.gender, updated_at = EXCLUDED.updated_at;`,
		p.UserID, p.WeightKg, string(p.Gender), time.Now().UTC(),
	)
	return err
}

package postgres

import (
	"context"
	"time"

	"baclog/internal/domain"
)

// AddDrink inserts a new drink record.
func (d *DB) AddDrink(ctx context.Context, rec domain.DrinkRecord) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO drinks(id, user_id, name, alcohol_grams, consumed_at) VALUES($1, $2, $3, $4, $5);",
		rec.ID, rec.UserID, rec.Name, rec.AlcoholGrams, rec.ConsumedAt.UTC(),
	)
	return err
}

// RemoveDrink deletes a drink by ID, scoped to a user. Returns whether a row
// was deleted.
func (d *DB) RemoveDrink(ctx context.Context, userID int64, id string) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM drinks WHERE id=$1 AND user_id=$2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListDrinksBetween returns a user's drinks consumed within [from, to],
// ordered by consumption time ascending.
func (d *DB) ListDrinksBetween(ctx context.Context, userID int64, from, to time.Time) ([]domain.DrinkRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, name, alcohol_grams, consumed_at FROM drinks
		 WHERE user_id=$1 AND consumed_at >= $2 AND consumed_at <= $3
		 ORDER BY consumed_at ASC;`,
		userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.DrinkRecord, 0)
	for rows.Next() {
		var rec domain.DrinkRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.AlcoholGrams, &rec.ConsumedAt); err != nil {
			return nil, err
		}
		rec.UserID = userID
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListRecentDrinks returns the user's most recent drinks up to limit,
// newest first.
func (d *DB) ListRecentDrinks(ctx context.Context, userID int64, limit int) ([]domain.DrinkRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, name, alcohol_grams, consumed_at FROM drinks WHERE user_id=$1 ORDER BY consumed_at DESC LIMIT $2;",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.DrinkRecord, 0, limit)
	for rows.Next() {
		var rec domain.DrinkRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.AlcoholGrams, &rec.ConsumedAt); err != nil {
			return nil, err
		}
		rec.UserID = userID
		out = append(out, rec)
	}
	return out, rows.Err()
}

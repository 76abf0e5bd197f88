// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"baclog/internal/domain"
)

// DB implements every repository port in memory, guarded by one mutex. It
// mirrors the Postgres adapter's semantics so the two are interchangeable.
type DB struct {
	mu       sync.Mutex
	profiles map[int64]domain.Profile
	drinks   []domain.DrinkRecord
	users    []*domain.User
	sessions map[string]*domain.Session

	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		profiles: make(map[int64]domain.Profile),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.DrinkRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- ProfileRepository ---

// GetProfile returns the stored profile or nil.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// UpsertProfile stores the profile, replacing any previous one.
func (db *DB) UpsertProfile(ctx context.Context, p domain.Profile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.profiles[p.UserID] = p
	return nil
}

// --- DrinkRepository ---

// AddDrink appends a drink record.
func (db *DB) AddDrink(ctx context.Context, d domain.DrinkRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.drinks {
		if existing.ID == d.ID {
			return errors.New("drink id already exists")
		}
	}
	d.ConsumedAt = d.ConsumedAt.UTC()
	db.drinks = append(db.drinks, d)
	return nil
}

// RemoveDrink deletes a drink by ID, scoped to a user.
func (db *DB) RemoveDrink(ctx context.Context, userID int64, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, d := range db.drinks {
		if d.UserID == userID && d.ID == id {
			db.drinks = append(db.drinks[:i], db.drinks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListDrinksBetween returns the user's drinks with from <= consumedAt <= to,
// ordered by consumption time ascending.
func (db *DB) ListDrinksBetween(ctx context.Context, userID int64, from, to time.Time) ([]domain.DrinkRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.DrinkRecord, 0)
	for _, d := range db.drinks {
		if d.UserID != userID {
			continue
		}
		if d.ConsumedAt.Before(from.UTC()) || d.ConsumedAt.After(to.UTC()) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConsumedAt.Before(out[j].ConsumedAt)
	})
	return out, nil
}

// ListRecentDrinks returns the user's most recent drinks up to limit,
// newest first.
func (db *DB) ListRecentDrinks(ctx context.Context, userID int64, limit int) ([]domain.DrinkRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.DrinkRecord, 0)
	for _, d := range db.drinks {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConsumedAt.After(out[j].ConsumedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps the DB as a SessionRepository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		return s, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}

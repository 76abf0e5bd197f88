package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"baclog/internal/app"
	"baclog/internal/domain"
)

type fakeUserRepo struct {
	users  map[string]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.users[username], nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Create(_ context.Context, username, passwordHash string) (*domain.User, error) {
	r.nextID++
	u := &domain.User{ID: r.nextID, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.users[username] = u
	return u, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) { return len(r.users), nil }

type fakeSessionRepo struct {
	sessions map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, userID int64, token, userAgent string, expiresAt time.Time) error {
	r.sessions[token] = &domain.Session{Token: token, UserID: userID, UserAgent: userAgent, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (r *fakeSessionRepo) GetByToken(_ context.Context, token string) (*domain.Session, error) {
	return r.sessions[token], nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, token string) error {
	delete(r.sessions, token)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context) error {
	now := time.Now()
	for k, s := range r.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.sessions, k)
		}
	}
	return nil
}

func TestSignupAndLogin(t *testing.T) {
	svc := app.NewAuthService(newFakeUserRepo(), newFakeSessionRepo())
	ctx := context.Background()

	user, err := svc.Signup(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.PasswordHash == "correct-horse" {
		t.Fatal("password stored in plain text")
	}

	token, err := svc.Login(ctx, "alice", "correct-horse", "test-agent")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	got, err := svc.ValidateSession(ctx, token, "test-agent")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("username = %q; want alice", got.Username)
	}
}

func TestSignup_Validation(t *testing.T) {
	svc := app.NewAuthService(newFakeUserRepo(), newFakeSessionRepo())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "ab", "long-enough-pass"); err == nil {
		t.Error("expected error for short username")
	}
	if _, err := svc.Signup(ctx, "alice", "short"); err == nil {
		t.Error("expected error for short password")
	}

	if _, err := svc.Signup(ctx, "alice", "correct-horse"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Signup(ctx, "alice", "another-password"); !errors.Is(err, app.ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := app.NewAuthService(newFakeUserRepo(), newFakeSessionRepo())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "alice", "correct-horse"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, "alice", "wrong", "agent"); !errors.Is(err, app.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "whatever", "agent"); !errors.Is(err, app.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateSession_UserAgentMismatch(t *testing.T) {
	svc := app.NewAuthService(newFakeUserRepo(), newFakeSessionRepo())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "alice", "correct-horse"); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Login(ctx, "alice", "correct-horse", "agent-a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateSession(ctx, token, "agent-b"); !errors.Is(err, app.ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired on agent mismatch, got %v", err)
	}
	// The mismatch burns the session.
	if _, err := svc.ValidateSession(ctx, token, "agent-a"); !errors.Is(err, app.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after burn, got %v", err)
	}
}

func TestValidateSession_Expired(t *testing.T) {
	sessions := newFakeSessionRepo()
	svc := app.NewAuthService(newFakeUserRepo(), sessions)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "alice", "correct-horse"); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Login(ctx, "alice", "correct-horse", "agent")
	if err != nil {
		t.Fatal(err)
	}
	sessions.sessions[token].ExpiresAt = time.Now().Add(-time.Minute)

	if _, err := svc.ValidateSession(ctx, token, "agent"); !errors.Is(err, app.ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
}

func TestLoginWithUser_RegistersOnFirstSight(t *testing.T) {
	users := newFakeUserRepo()
	svc := app.NewAuthService(users, newFakeSessionRepo())
	ctx := context.Background()

	token, err := svc.LoginWithUser(ctx, "sso@example.com", "agent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user, err := svc.ValidateSession(ctx, token, "agent")
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "sso@example.com" {
		t.Errorf("username = %q", user.Username)
	}
	// The placeholder hash must never verify as a password.
	if _, err := svc.Login(ctx, "sso@example.com", "!sso", "agent"); !errors.Is(err, app.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for SSO account, got %v", err)
	}
}

func TestValidateForwardAuth(t *testing.T) {
	users := newFakeUserRepo()
	svc := app.NewAuthService(users, newFakeSessionRepo())
	ctx := context.Background()

	if _, err := svc.ValidateForwardAuth(ctx, ""); err == nil {
		t.Error("expected error for empty header")
	}
	if _, err := svc.ValidateForwardAuth(ctx, "ghost"); !errors.Is(err, app.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := svc.Signup(ctx, "alice", "correct-horse"); err != nil {
		t.Fatal(err)
	}
	user, err := svc.ValidateForwardAuth(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("username = %q; want alice", user.Username)
	}
}

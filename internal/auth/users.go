package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"causebook.org/internal/ids"
	"causebook.org/internal/pledge"
)

// User is an account that can authenticate and pledge.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Superuser    bool      `json:"superuser"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserStore persists accounts. CreateUser fails with pledge.ErrConflict when
// the username or email is taken.
type UserStore interface {
	CreateUser(ctx context.Context, u User) (User, error)
	FindUserByUsername(ctx context.Context, username string) (User, error)
}

// Users wraps account registration and credential checks over a UserStore.
type Users struct {
	store UserStore
}

// NewUsers constructs the account service.
func NewUsers(store UserStore) (*Users, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	return &Users{store: store}, nil
}

// Register creates a member account.
func (s *Users) Register(ctx context.Context, username, email, password string) (User, error) {
	return s.create(ctx, username, email, password, false)
}

// Authenticate verifies credentials and returns the account.
func (s *Users) Authenticate(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return User{}, fmt.Errorf("%w: username and password are required", pledge.ErrInvalidInput)
	}
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return User{}, pledge.ErrNotFound
	}
	return user, nil
}

// Roles returns the role claims to embed in the user's tokens.
func (u User) Roles() []string {
	if u.Superuser {
		return []string{RoleAdmin}
	}
	return nil
}

// EnsureSuperuser creates the default admin account if it does not exist yet.
// Safe to run on every startup.
func (s *Users) EnsureSuperuser(ctx context.Context, username, email, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	if _, err := s.store.FindUserByUsername(ctx, strings.TrimSpace(strings.ToLower(username))); err == nil {
		return nil
	} else if !errors.Is(err, pledge.ErrNotFound) {
		return err
	}
	_, err := s.create(ctx, username, email, password, true)
	if errors.Is(err, pledge.ErrConflict) {
		// Lost a startup race to another instance; the account exists.
		return nil
	}
	return err
}

func (s *Users) create(ctx context.Context, username, email, password string, superuser bool) (User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return User{}, fmt.Errorf("%w: username is required", pledge.ErrInvalidInput)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", pledge.ErrInvalidInput)
	}
	if len(password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", pledge.ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	return s.store.CreateUser(ctx, User{
		ID:           ids.New(),
		Username:     username,
		Email:        email,
		Superuser:    superuser,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
}

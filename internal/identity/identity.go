// Package identity answers "who is the current user" for the expense core and
// manages credentials and sessions.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"flux/internal/core"
)

const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired session")
)

type (
	// Identity is the authenticated principal attached to a request.
	Identity struct {
		UserID string
		Email  string
	}

	// User is a stored account.
	User struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Session is issued by SignIn.
	Session struct {
		Token     string
		ExpiresAt time.Time
		Identity  Identity
	}

	// UserStore persists accounts.
	UserStore interface {
		CreateUser(ctx context.Context, u User) error
		GetUserByEmail(ctx context.Context, email string) (User, error)
	}

	// Provider is the identity boundary used by the HTTP layer.
	Provider interface {
		SignUp(ctx context.Context, email, password string) (Identity, error)
		SignIn(ctx context.Context, email, password string) (Session, error)
		SignOut(ctx context.Context, token string) error
		Authenticate(ctx context.Context, token string) (Identity, error)
	}
)

type ctxKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the current identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// Require returns the current identity or core.ErrUnauthenticated.
func Require(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, core.ErrUnauthenticated
	}
	return id, nil
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateSignUp checks registration input the way the sign-up form does.
func ValidateSignUp(email, password, confirm string) error {
	if _, err := mail.ParseAddress(NormalizeEmail(email)); err != nil {
		return &core.ValidationError{Field: "email", Message: "invalid email address", Err: err}
	}
	if password != confirm {
		return &core.ValidationError{Field: "confirm_password", Message: "Passwords do not match"}
	}
	if len(password) < MinPasswordLength {
		return &core.ValidationError{Field: "password", Message: "Password must be at least 6 characters"}
	}
	return nil
}

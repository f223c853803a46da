package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"flux/internal/cache"
)

// Claims carried by session tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Local is a Provider backed by a UserStore, bcrypt hashes and HS256 tokens.
// Signed-out token ids are kept in an in-process revocation list until they
// would have expired anyway.
type Local struct {
	users   UserStore
	secret  []byte
	ttl     time.Duration
	revoked *cache.LRUCache[struct{}]
	now     func() time.Time
	cost    int
}

type LocalOption func(*Local)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) LocalOption {
	return func(l *Local) { l.now = now }
}

// WithBcryptCost sets the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) LocalOption {
	return func(l *Local) { l.cost = cost }
}

func NewLocal(users UserStore, secret string, ttl time.Duration, opts ...LocalOption) *Local {
	l := &Local{
		users:   users,
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: cache.NewLRUCache[struct{}](10000, ttl),
		now:     time.Now,
		cost:    bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (l *Local) SignUp(ctx context.Context, email, password string) (Identity, error) {
	email = NormalizeEmail(email)
	if err := ValidateSignUp(email, password, password); err != nil {
		return Identity{}, err
	}
	if _, err := l.users.GetUserByEmail(ctx, email); err == nil {
		return Identity{}, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return Identity{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(password, l.cost)
	if err != nil {
		return Identity{}, err
	}
	u := User{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: l.now().UTC()}
	if err := l.users.CreateUser(ctx, u); err != nil {
		return Identity{}, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return Identity{UserID: u.ID, Email: u.Email}, nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := l.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := l.now()
	exp := now.Add(l.ttl)
	claims := Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp, Identity: Identity{UserID: u.ID, Email: u.Email}}, nil
}

// SignOut revokes token. Signing out an already invalid token is not an error.
func (l *Local) SignOut(_ context.Context, token string) error {
	claims, err := l.parse(token)
	if err != nil {
		return nil
	}
	l.revoked.Set(claims.ID, struct{}{})
	return nil
}

func (l *Local) Authenticate(_ context.Context, token string) (Identity, error) {
	claims, err := l.parse(token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if _, revoked := l.revoked.Get(claims.ID); revoked {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

func (l *Local) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return l.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(l.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

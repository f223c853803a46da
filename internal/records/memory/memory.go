// Package memory is an in-process record and user store, used for local
// development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"flux/internal/core"
	"flux/internal/identity"
)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
	users map[string]identity.User // by email
}

func New() *Store {
	return &Store{users: make(map[string]identity.User)}
}

// NewWithExpenses seeds the store; records without an ID get one.
func NewWithExpenses(seed []core.Expense) *Store {
	s := New()
	for _, e := range seed {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		s.items = append(s.items, e)
	}
	return s
}

// Find returns the owner's expenses within [from, to], newest first.
func (s *Store) Find(ctx context.Context, owner string, from, to core.Date) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Expense, 0)
	for _, e := range s.items {
		if e.OwnerID != owner || e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Insert stores the expense and assigns it a UUID.
func (s *Store) Insert(ctx context.Context, e core.Expense) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("invalid expense: %w", err)
	}
	e.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return e.ID, nil
}

func (s *Store) DeleteByID(ctx context.Context, owner, id string) (core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id && e.OwnerID == owner {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, u identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return identity.ErrEmailTaken
	}
	s.users[u.Email] = u
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return identity.User{}, identity.ErrUserNotFound
	}
	return u, nil
}

// Len reports how many expenses are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

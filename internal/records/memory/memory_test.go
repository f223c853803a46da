package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"flux/internal/core"
	"flux/internal/identity"
	"flux/internal/records"
)

var _ records.Store = (*Store)(nil)
var _ identity.UserStore = (*Store)(nil)

func TestMemoryStoreInsertFindDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	add := func(owner string, d core.Date, amt core.Money, created time.Time) string {
		t.Helper()
		id, err := s.Insert(ctx, core.Expense{OwnerID: owner, Amount: amt, Category: core.CategoryFood, Date: d, CreatedAt: created})
		if err != nil || id == "" {
			t.Fatalf("insert: id=%q err=%v", id, err)
		}
		return id
	}
	a := add("u1", core.NewDate(2025, 3, 1), 100, base)
	b := add("u1", core.NewDate(2025, 3, 3), 200, base)
	c := add("u1", core.NewDate(2025, 3, 3), 300, base.Add(time.Hour))
	add("u1", core.NewDate(2025, 3, 9), 400, base)
	add("u2", core.NewDate(2025, 3, 2), 500, base)

	got, err := s.Find(ctx, "u1", core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 7))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].ID != c || got[1].ID != b || got[2].ID != a {
		t.Fatalf("unexpected order: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}

	if _, err := s.DeleteByID(ctx, "u2", b); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for another owner's record, got %v", err)
	}
	removed, err := s.DeleteByID(ctx, "u1", b)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.ID != b || removed.OwnerID != "u1" || removed.Date.IsZero() {
		t.Fatalf("unexpected removed record: %+v", removed)
	}
	if _, err := s.DeleteByID(ctx, "u1", b); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if s.Len() != 4 {
		t.Fatalf("expected 4 records left, got %d", s.Len())
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Insert(context.Background(), core.Expense{OwnerID: "u1", Amount: 0, Date: core.NewDate(2025, 1, 1)})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestMemoryStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := identity.User{ID: "1", Email: "a@b.c", PasswordHash: "x"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, u); !errors.Is(err, identity.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	got, err := s.GetUserByEmail(ctx, "a@b.c")
	if err != nil || got.ID != "1" {
		t.Fatalf("unexpected user %+v err=%v", got, err)
	}
	if _, err := s.GetUserByEmail(ctx, "x@y.z"); !errors.Is(err, identity.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	jkt := time.FixedZone("WIB", 7*3600)
	// 2025-03-09 20:00 UTC is already the 10th in Jakarta.
	instant := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)
	if got := DateOf(instant.In(jkt)); !got.Equal(NewDate(2025, 3, 10)) {
		t.Fatalf("expected 2025-03-10, got %s", got)
	}
	if got := DateOf(instant); !got.Equal(NewDate(2025, 3, 9)) {
		t.Fatalf("expected 2025-03-09, got %s", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-02-28 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-02-28" || d.Label() != "Feb 28" {
		t.Fatalf("unexpected date %s / %s", d, d.Label())
	}
	if _, err := ParseDate("28/02/2025"); err == nil {
		t.Fatalf("expected error for wrong layout")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := Money(1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Money(0).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if err := Money(-5).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestDraftNormalize(t *testing.T) {
	today := NewDate(2025, 6, 15)
	d := ExpenseDraft{Amount: 25000, Category: "Coffee "}.Normalize(today)
	if d.Category != CategoryCoffee {
		t.Fatalf("expected coffee, got %q", d.Category)
	}
	if d.Description != "Coffee" {
		t.Fatalf("expected description to default to category name, got %q", d.Description)
	}
	if !d.Date.Equal(today) {
		t.Fatalf("expected today's date, got %s", d.Date)
	}

	d = ExpenseDraft{Amount: 1, Category: "unknown", Description: "  lunch "}.Normalize(today)
	if d.Category != CategoryOther || d.Description != "lunch" {
		t.Fatalf("unexpected normalization: %+v", d)
	}
}

func TestDraftValidate(t *testing.T) {
	today := NewDate(2025, 6, 15)
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	cases := []struct {
		name  string
		draft ExpenseDraft
		field string
	}{
		{"ok", ExpenseDraft{Amount: 1, Category: CategoryFood, Description: "a", Date: today}, ""},
		{"zero amount", ExpenseDraft{Amount: 0, Category: CategoryFood, Description: "a", Date: today}, "amount"},
		{"negative amount", ExpenseDraft{Amount: -10, Category: CategoryFood, Description: "a", Date: today}, "amount"},
		{"future date", ExpenseDraft{Amount: 1, Category: CategoryFood, Description: "a", Date: NewDate(2025, 6, 16)}, "expense_date"},
		{"long description", ExpenseDraft{Amount: 1, Category: CategoryFood, Description: string(long), Date: today}, "description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.draft.Validate(today)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}

func TestStoreErrorUnwrap(t *testing.T) {
	base := errors.New("disk full")
	err := error(&StoreError{Op: "insert", Err: base})
	if !errors.Is(err, base) {
		t.Fatalf("expected errors.Is to find the store cause")
	}
	if !IsStoreFailure(err) || IsValidation(err) {
		t.Fatalf("unexpected classification for %v", err)
	}
}

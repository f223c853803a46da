package core

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

const maxDescriptionLength = 200

type (
	// Date is a calendar date without a time component, stored at UTC midnight.
	Date struct {
		time.Time
	}

	// Money is an amount in rupiah, the smallest unit in use.
	Money int64

	Expense struct {
		ID          string
		OwnerID     string
		Amount      Money
		Category    CategoryID
		Description string
		Date        Date
		CreatedAt   time.Time
	}

	// ExpenseDraft is user input for a new expense before the store assigns identity.
	ExpenseDraft struct {
		Amount      Money
		Category    CategoryID
		Description string
		Date        Date // zero means today
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrFutureDate       = errors.New("date is in the future")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidDateRange = errors.New("invalid date range")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Label renders the short chart label, e.g. "Jan 02".
func (d Date) Label() string {
	return d.Format("Jan 02")
}

// In returns local midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// DaysUntil counts calendar days from d to o; negative when o precedes d.
func (d Date) DaysUntil(o Date) int {
	return int(o.Sub(d.Time).Hours() / 24)
}

func (m Money) Validate() error {
	if m <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Int64() int64 { return int64(m) }

func (m Money) String() string { return FormatIDR(m) }

// Normalize fills defaults on a draft: today's date when missing, and the
// category display name when the description is blank.
func (d ExpenseDraft) Normalize(today Date) ExpenseDraft {
	d.Category = NormalizeCategory(d.Category)
	d.Description = strings.TrimSpace(d.Description)
	if d.Description == "" {
		d.Description = LookupCategory(d.Category).Name
	}
	if d.Date.IsZero() {
		d.Date = today
	}
	return d
}

// Validate checks a normalized draft against today's date.
func (d ExpenseDraft) Validate(today Date) error {
	if err := d.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Message: "amount must be greater than zero", Err: err}
	}
	if err := d.Date.Validate(); err != nil {
		return &ValidationError{Field: "expense_date", Message: err.Error(), Err: err}
	}
	if d.Date.After(today) {
		return &ValidationError{Field: "expense_date", Message: "date cannot be in the future", Err: ErrFutureDate}
	}
	if len(d.Description) > maxDescriptionLength {
		return &ValidationError{Field: "description", Message: ErrDescriptionLong.Error(), Err: ErrDescriptionLong}
	}
	return nil
}

// Expense builds the record to insert for owner.
func (d ExpenseDraft) Expense(owner string, createdAt time.Time) Expense {
	return Expense{
		OwnerID:     owner,
		Amount:      d.Amount,
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date,
		CreatedAt:   createdAt,
	}
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(e.Description) > maxDescriptionLength {
		return ErrDescriptionLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.OwnerID) == "" {
		return ErrUnauthenticated
	}
	return nil
}

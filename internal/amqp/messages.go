package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"flux/internal/core"
)

type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpensePayload is the wire form of an expense.
type ExpensePayload struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Amount      int64  `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	ExpenseDate string `json:"expense_date"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ExpenseEvent announces a committed mutation. It carries the full record so
// consumers do not need to read the store back.
type ExpenseEvent struct {
	Type      EventType      `json:"type"`
	Expense   ExpensePayload `json:"expense"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewExpenseEvent(t EventType, e core.Expense) *ExpenseEvent {
	p := ExpensePayload{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Amount:      int64(e.Amount),
		Category:    string(e.Category),
		Description: e.Description,
		ExpenseDate: e.Date.String(),
	}
	if !e.CreatedAt.IsZero() {
		p.CreatedAt = e.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return &ExpenseEvent{Type: t, Expense: p, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and checks an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventExpenseCreated, EventExpenseDeleted:
	default:
		return nil, errors.New("unknown event type " + string(msg.Type))
	}
	if msg.Expense.ID == "" {
		return nil, errors.New("event without expense id")
	}
	return &msg, nil
}

// ToExpense converts the payload back to a domain record.
func (p ExpensePayload) ToExpense() (core.Expense, error) {
	d, err := core.ParseDate(p.ExpenseDate)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Amount:      core.Money(p.Amount),
		Category:    core.NormalizeCategory(core.CategoryID(p.Category)),
		Description: p.Description,
		Date:        d,
	}
	if p.CreatedAt != "" {
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, p.CreatedAt)
	}
	return e, nil
}

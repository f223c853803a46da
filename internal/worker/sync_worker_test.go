package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flux/internal/amqp"
	"flux/internal/core"
)

type deleteCall struct {
	id   string
	date core.Date
}

type fakeMirror struct {
	appended []core.Expense
	deleted  []deleteCall
	err      error
}

func (m *fakeMirror) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.appended = append(m.appended, e)
	return "2025 Expenses!A2:G2", nil
}

func (m *fakeMirror) DeleteExpense(_ context.Context, id string, date core.Date) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, deleteCall{id: id, date: date})
	return nil
}

func sampleExpense() core.Expense {
	return core.Expense{
		ID:          "e1",
		OwnerID:     "u1",
		Amount:      42_000,
		Category:    core.CategoryFood,
		Description: "bakso",
		Date:        core.NewDate(2025, 2, 14),
		CreatedAt:   time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestSyncWorker_Created(t *testing.T) {
	m := &fakeMirror{}
	w := NewSyncWorker(m)

	err := w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.EventExpenseCreated, sampleExpense()))
	require.NoError(t, err)
	require.Len(t, m.appended, 1)
	got := m.appended[0]
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, core.Money(42_000), got.Amount)
	assert.Equal(t, core.NewDate(2025, 2, 14), got.Date)
}

func TestSyncWorker_CreatedMalformedIsDropped(t *testing.T) {
	m := &fakeMirror{}
	w := NewSyncWorker(m)

	ev := amqp.NewExpenseEvent(amqp.EventExpenseCreated, sampleExpense())
	ev.Expense.ExpenseDate = "14/02/2025"
	assert.NoError(t, w.HandleEvent(context.Background(), ev))
	assert.Empty(t, m.appended)
}

func TestSyncWorker_Deleted(t *testing.T) {
	m := &fakeMirror{}
	w := NewSyncWorker(m)
	w.now = func() time.Time { return time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.EventExpenseDeleted, sampleExpense())))

	unknownDate := core.Expense{ID: "e2"}
	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.EventExpenseDeleted, unknownDate)))

	require.Len(t, m.deleted, 2)
	assert.Equal(t, deleteCall{id: "e1", date: core.NewDate(2025, 2, 14)}, m.deleted[0])
	assert.Equal(t, "e2", m.deleted[1].id)
	assert.Equal(t, 2026, m.deleted[1].date.Year())
}

func TestSyncWorker_MirrorErrorsAreReturned(t *testing.T) {
	m := &fakeMirror{err: errors.New("quota exceeded")}
	w := NewSyncWorker(m)

	err := w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.EventExpenseCreated, sampleExpense()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	err = w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.EventExpenseDeleted, sampleExpense()))
	require.Error(t, err)
}

func TestSyncWorker_UnknownTypeIsIgnored(t *testing.T) {
	m := &fakeMirror{}
	w := NewSyncWorker(m)
	ev := amqp.NewExpenseEvent("expense.renamed", sampleExpense())
	assert.NoError(t, w.HandleEvent(context.Background(), ev))
	assert.Empty(t, m.appended)
	assert.Empty(t, m.deleted)
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flux/internal/amqp"
	"flux/internal/core"
	"flux/internal/identity"
	"flux/internal/records/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.ExpenseEvent
	err    error
	closed bool
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, ev *amqp.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

type failingStore struct {
	*memory.Store
	err error
}

func (s failingStore) Insert(context.Context, core.Expense) (string, error) { return "", s.err }

func (s failingStore) DeleteByID(context.Context, string, string) (core.Expense, error) {
	return core.Expense{}, s.err
}

func userCtx(id string) context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{UserID: id, Email: id + "@example.com"})
}

func newTestService(pub EventPublisher, seed ...core.Expense) (*ExpenseService, *memory.Store) {
	store := memory.NewWithExpenses(seed)
	tr := NewTracker(store, TrackerConfig{
		WeeklyLimit: 1_000_000,
		Location:    time.UTC,
		CacheSize:   50,
		CacheTTL:    time.Minute,
		Now:         func() time.Time { return fixedNow },
	})
	return NewExpenseService(store, tr, pub), store
}

func TestExpenseService_RequiresIdentity(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()

	_, _, err := svc.AddExpense(ctx, core.ExpenseDraft{Amount: 1000})
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = svc.DeleteExpense(ctx, "x")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = svc.Dashboard(ctx, core.Filter{Mode: core.FilterDaily})
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = svc.Refresh(ctx)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	assert.Equal(t, 0, store.Len())
}

func TestExpenseService_AddExpense(t *testing.T) {
	pub := &recordingPublisher{}
	svc, store := newTestService(pub, seedExpenses()...)
	ctx := userCtx("u1")

	before, err := svc.Dashboard(ctx, core.Filter{Mode: core.FilterWeekly})
	require.NoError(t, err)
	require.Equal(t, core.Money(900_000), before.WeeklyTotal)

	e, snap, err := svc.AddExpense(ctx, core.ExpenseDraft{Amount: 50_000, Category: " Coffee "})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "u1", e.OwnerID)
	assert.Equal(t, core.CategoryCoffee, e.Category)
	assert.Equal(t, "Coffee", e.Description)
	assert.Equal(t, core.NewDate(2025, 3, 12), e.Date)
	assert.Equal(t, fixedNow, e.CreatedAt)
	assert.Equal(t, 5, store.Len())

	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, core.Money(950_000), snap.WeeklyTotal)
	assert.Equal(t, core.Money(950_000), snap.Metrics.Total)
	assert.Equal(t, snap.Token, svc.Tracker().Current("u1").Token)
	assert.Len(t, snap.Expenses, 3)

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.EventExpenseCreated, pub.events[0].Type)
	assert.Equal(t, e.ID, pub.events[0].Expense.ID)
	assert.Equal(t, int64(50_000), pub.events[0].Expense.Amount)
}

func TestExpenseService_AddExpenseOutsideActiveRange(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestService(pub, seedExpenses()...)
	ctx := userCtx("u1")

	before, err := svc.Dashboard(ctx, core.Filter{Mode: core.FilterDaily})
	require.NoError(t, err)
	require.Equal(t, core.Money(600_000), before.Metrics.Total)
	require.Equal(t, core.Money(900_000), before.WeeklyTotal)

	// Earlier this week: only the weekly aggregate moves.
	_, snap, err := svc.AddExpense(ctx, core.ExpenseDraft{Amount: 50_000, Category: core.CategoryFood, Date: core.NewDate(2025, 3, 11)})
	require.NoError(t, err)
	assert.Equal(t, core.FilterDaily, snap.Filter.Mode)
	assert.Equal(t, core.Money(600_000), snap.Metrics.Total)
	assert.Equal(t, core.Money(950_000), snap.WeeklyTotal)
	assert.Len(t, snap.Expenses, 1)

	// Last month: neither total moves.
	_, snap, err = svc.AddExpense(ctx, core.ExpenseDraft{Amount: 20_000, Category: core.CategoryFood, Date: core.NewDate(2025, 2, 10)})
	require.NoError(t, err)
	assert.Equal(t, core.Money(600_000), snap.Metrics.Total)
	assert.Equal(t, core.Money(950_000), snap.WeeklyTotal)
	assert.Len(t, pub.events, 2)
}

func TestExpenseService_AddExpenseValidation(t *testing.T) {
	pub := &recordingPublisher{}
	svc, store := newTestService(pub)
	ctx := userCtx("u1")

	tests := []struct {
		name  string
		draft core.ExpenseDraft
		field string
		is    error
	}{
		{"zero amount", core.ExpenseDraft{Amount: 0}, "amount", core.ErrInvalidAmount},
		{"negative amount", core.ExpenseDraft{Amount: -5}, "amount", core.ErrInvalidAmount},
		{"future date", core.ExpenseDraft{Amount: 10, Date: core.NewDate(2025, 3, 13)}, "expense_date", core.ErrFutureDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.AddExpense(ctx, tt.draft)
			require.Error(t, err)
			assert.True(t, core.IsValidation(err))
			assert.ErrorIs(t, err, tt.is)
			var ve *core.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, pub.events)
}

func TestExpenseService_DeleteExpense(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestService(pub, seedExpenses()...)
	ctx := userCtx("u1")

	snap, err := svc.Refresh(ctx)
	require.NoError(t, err)
	var target core.Expense
	for _, e := range snap.Expenses {
		if e.Amount == 600_000 {
			target = e
		}
	}
	require.NotEmpty(t, target.ID)

	snap, err = svc.DeleteExpense(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Money(300_000), snap.WeeklyTotal)
	assert.Len(t, snap.Expenses, 1)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, amqp.EventExpenseDeleted, ev.Type)
	assert.Equal(t, target.ID, ev.Expense.ID)
	assert.Equal(t, "2025-03-12", ev.Expense.ExpenseDate)

	_, err = svc.DeleteExpense(ctx, target.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.False(t, core.IsStoreFailure(err))
}

func TestExpenseService_DeleteOutsideActiveRange(t *testing.T) {
	pub := &recordingPublisher{}
	old := expense("u1", 75_000, core.CategoryTravel, core.NewDate(2024, 6, 1))
	old.ID = "old"
	svc, store := newTestService(pub, append(seedExpenses(), old)...)
	ctx := userCtx("u1")

	snap, err := svc.Dashboard(ctx, core.Filter{Mode: core.FilterDaily})
	require.NoError(t, err)
	for _, e := range snap.Expenses {
		require.NotEqual(t, "old", e.ID)
	}

	snap, err = svc.DeleteExpense(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, core.Money(600_000), snap.Metrics.Total)
	assert.Equal(t, 4, store.Len())

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, amqp.EventExpenseDeleted, ev.Type)
	assert.Equal(t, "old", ev.Expense.ID)
	assert.Equal(t, "2024-06-01", ev.Expense.ExpenseDate)
	assert.Equal(t, int64(75_000), ev.Expense.Amount)
}

func TestExpenseService_DeleteIsOwnerScoped(t *testing.T) {
	svc, store := newTestService(nil, seedExpenses()...)

	snap, err := svc.Refresh(userCtx("u2"))
	require.NoError(t, err)
	require.Len(t, snap.Expenses, 1)

	_, err = svc.DeleteExpense(userCtx("u1"), snap.Expenses[0].ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, 4, store.Len())
}

func TestExpenseService_StoreFailure(t *testing.T) {
	store := failingStore{Store: memory.New(), err: errors.New("disk full")}
	tr := NewTracker(store, TrackerConfig{Location: time.UTC, Now: func() time.Time { return fixedNow }})
	pub := &recordingPublisher{}
	svc := NewExpenseService(store, tr, pub)
	ctx := userCtx("u1")

	_, _, err := svc.AddExpense(ctx, core.ExpenseDraft{Amount: 1000})
	require.Error(t, err)
	assert.True(t, core.IsStoreFailure(err))
	assert.Contains(t, err.Error(), "disk full")

	_, err = svc.DeleteExpense(ctx, "anything")
	assert.True(t, core.IsStoreFailure(err))
	assert.Empty(t, pub.events)
}

func TestExpenseService_PublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: amqp.ErrCircuitOpen}
	svc, store := newTestService(pub)

	e, snap, err := svc.AddExpense(userCtx("u1"), core.ExpenseDraft{Amount: 20_000, Category: core.CategoryFood, Description: "nasi goreng"})
	require.NoError(t, err)
	assert.Equal(t, "nasi goreng", e.Description)
	assert.Equal(t, core.Money(20_000), snap.WeeklyTotal)
	assert.Equal(t, 1, store.Len())
	assert.Len(t, pub.events, 1)
}

func TestExpenseService_Close(t *testing.T) {
	svc, _ := newTestService(nil)
	assert.NoError(t, svc.Close())

	pub := &recordingPublisher{}
	svc, _ = newTestService(pub)
	assert.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}

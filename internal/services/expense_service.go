package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"flux/internal/amqp"
	"flux/internal/core"
	"flux/internal/identity"
	"flux/internal/records"
)

// EventPublisher announces committed mutations, e.g. to the sheets worker.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ExpenseService orchestrates mutations: it writes to the record store, then
// invalidates and refreshes the caller's dashboard and publishes an event.
// Event publishing is best effort and never fails a committed mutation.
type ExpenseService struct {
	store     records.Store
	tracker   *Tracker
	publisher EventPublisher
}

// NewExpenseService wires the service. publisher may be nil.
func NewExpenseService(store records.Store, tracker *Tracker, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{store: store, tracker: tracker, publisher: publisher}
}

func (s *ExpenseService) Tracker() *Tracker { return s.tracker }

// Dashboard sets the caller's filter and returns a fresh snapshot.
func (s *ExpenseService) Dashboard(ctx context.Context, f core.Filter) (Snapshot, error) {
	id, err := identity.Require(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return s.tracker.SetFilter(ctx, id.UserID, f), nil
}

// Refresh re-runs the caller's pipeline with the current filter.
func (s *ExpenseService) Refresh(ctx context.Context) (Snapshot, error) {
	id, err := identity.Require(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return s.tracker.Refresh(ctx, id.UserID), nil
}

// AddExpense stores a new expense for the current user. Store failures are
// returned as *core.StoreError wrapping the original error.
func (s *ExpenseService) AddExpense(ctx context.Context, draft core.ExpenseDraft) (core.Expense, Snapshot, error) {
	id, err := identity.Require(ctx)
	if err != nil {
		return core.Expense{}, Snapshot{}, err
	}

	today := s.tracker.Today()
	draft = draft.Normalize(today)
	if err := draft.Validate(today); err != nil {
		return core.Expense{}, Snapshot{}, err
	}

	e := draft.Expense(id.UserID, s.tracker.Now())
	newID, err := s.store.Insert(ctx, e)
	if err != nil {
		return core.Expense{}, Snapshot{}, &core.StoreError{Op: "insert", Err: err}
	}
	e.ID = newID

	slog.InfoContext(ctx, "Expense added",
		"id", e.ID,
		"user_id", id.UserID,
		"amount", int64(e.Amount),
		"category", e.Category,
		"date", e.Date.String())

	snap := s.afterMutation(ctx, id.UserID)
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseCreated, e))
	return e, snap, nil
}

// DeleteExpense removes one of the current user's expenses. An id that does
// not exist or belongs to someone else yields core.ErrNotFound.
func (s *ExpenseService) DeleteExpense(ctx context.Context, expenseID string) (Snapshot, error) {
	id, err := identity.Require(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	deleted, err := s.store.DeleteByID(ctx, id.UserID, expenseID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Snapshot{}, err
		}
		return Snapshot{}, &core.StoreError{Op: "delete", Err: err}
	}
	slog.InfoContext(ctx, "Expense deleted", "id", expenseID, "user_id", id.UserID)

	snap := s.afterMutation(ctx, id.UserID)
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseDeleted, deleted))
	return snap, nil
}

func (s *ExpenseService) afterMutation(ctx context.Context, owner string) Snapshot {
	s.tracker.Invalidate(owner)
	return s.tracker.Refresh(ctx, owner)
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event", "type", ev.Type)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", ev.Type,
			"id", ev.Expense.ID,
			"error", err)
	}
}

// Close releases the publisher when it owns a connection.
func (s *ExpenseService) Close() error {
	if c, ok := s.publisher.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"flux/internal/amqp"
	"flux/internal/core"
	"flux/internal/sheets"
)

// SyncWorker applies expense events to the spreadsheet mirror.
type SyncWorker struct {
	mirror sheets.ExpenseMirror
	now    func() time.Time
}

func NewSyncWorker(mirror sheets.ExpenseMirror) *SyncWorker {
	return &SyncWorker{mirror: mirror, now: time.Now}
}

// HandleEvent is the AMQP consumer callback. A returned error makes the
// message be requeued, so only transient failures should surface here.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	switch ev.Type {
	case amqp.EventExpenseCreated:
		return w.handleCreated(ctx, ev)
	case amqp.EventExpenseDeleted:
		return w.handleDeleted(ctx, ev)
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", ev.Type, "id", ev.Expense.ID)
		return nil
	}
}

func (w *SyncWorker) handleCreated(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense created event",
		"id", ev.Expense.ID,
		"timestamp", ev.Timestamp)

	e, err := ev.Expense.ToExpense()
	if err != nil {
		// Malformed payloads will never succeed; drop them.
		slog.ErrorContext(ctx, "Dropping malformed expense event", "id", ev.Expense.ID, "error", err)
		return nil
	}

	ref, err := w.mirror.AppendExpense(ctx, e)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced expense",
		"id", e.ID,
		"sheets_ref", ref,
		"amount", int64(e.Amount),
		"category", e.Category)
	return nil
}

func (w *SyncWorker) handleDeleted(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense deleted event",
		"id", ev.Expense.ID,
		"timestamp", ev.Timestamp)

	// The date selects the year sheet. Deletes issued without a known date
	// fall back to the current year.
	date, err := core.ParseDate(ev.Expense.ExpenseDate)
	if err != nil || date.Year() <= 1 {
		date = core.DateOf(w.now())
	}

	if err := w.mirror.DeleteExpense(ctx, ev.Expense.ID, date); err != nil {
		slog.ErrorContext(ctx, "Failed to delete expense from Google Sheets",
			"id", ev.Expense.ID,
			"error", err)
		return fmt.Errorf("delete expense from sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully deleted expense from Google Sheets", "id", ev.Expense.ID)
	return nil
}

// Package sheets defines the spreadsheet mirror that receives a copy of every
// stored expense.
package sheets

import (
	"context"

	"flux/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror keeps a spreadsheet copy of stored expenses. Both
	// operations are idempotent: appending an id already present and deleting
	// an id that is absent are no-ops.
	ExpenseMirror interface {
		AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
		DeleteExpense(ctx context.Context, id string, date core.Date) error
	}
)

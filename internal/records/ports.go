// Package records defines the record-store boundary used by the expense core.
//
// The core issues exactly three request shapes against the store: a ranged
// read scoped to an owner, an insert, and a delete by identity.
package records

import (
	"context"

	"flux/internal/core"
)

// Ports for outbound adapters.
type (
	// Finder returns the owner's expenses whose date lies within [from, to],
	// newest date first, ties broken by newest creation time.
	Finder interface {
		Find(ctx context.Context, owner string, from, to core.Date) ([]core.Expense, error)
	}

	// Inserter persists a new expense and returns the identity it assigned.
	Inserter interface {
		Insert(ctx context.Context, e core.Expense) (id string, err error)
	}

	// Deleter removes one of the owner's expenses and returns the removed
	// record. It returns core.ErrNotFound when no record matched.
	Deleter interface {
		DeleteByID(ctx context.Context, owner, id string) (core.Expense, error)
	}

	Store interface {
		Finder
		Inserter
		Deleter
	}
)

// Package ledger declares the store ports the business services depend on.
package ledger

import (
	"context"

	"conti/internal/core"
)

// Filter narrows a transaction query. Zero values mean "no constraint".
type Filter struct {
	Kind     core.Kind
	Category string
	DateFrom core.Date // inclusive
	DateTo   core.Date // inclusive
	Limit    int
	// NewestFirst orders by id descending instead of ascending.
	NewestFirst bool
}

// Match reports whether t satisfies every constraint of f except Limit.
func (f Filter) Match(t core.Transaction) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if !f.DateFrom.IsZero() && t.Date.Before(f.DateFrom.Time) {
		return false
	}
	if !f.DateTo.IsZero() && t.Date.After(f.DateTo.Time) {
		return false
	}
	return true
}

// Ports for outbound adapters.
type (
	TransactionStore interface {
		InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		QueryTransactions(ctx context.Context, f Filter) ([]core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	// BudgetStore is keyed by category.
	BudgetStore interface {
		GetBudget(ctx context.Context, category string) (core.Budget, error)
		// ListBudgets returns budgets in insertion order.
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		UpsertBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, category string) error
	}

	TemplateStore interface {
		CreateTemplate(ctx context.Context, rt core.RecurringTemplate) (int64, error)
		GetTemplate(ctx context.Context, id int64) (core.RecurringTemplate, error)
		ListTemplates(ctx context.Context, activeOnly bool) ([]core.RecurringTemplate, error)
		UpdateTemplate(ctx context.Context, rt core.RecurringTemplate) error
	}

	// Store bundles every port plus an atomic unit of work.
	Store interface {
		TransactionStore
		BudgetStore
		TemplateStore

		// WithinTx runs fn against a store whose writes are committed together
		// when fn returns nil and discarded otherwise.
		WithinTx(ctx context.Context, fn func(Store) error) error
	}
)

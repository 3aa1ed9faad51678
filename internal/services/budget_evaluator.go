package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/log"

	"github.com/shopspring/decimal"
)

// WarningThreshold is the percentage of a budget at which a warning alert is raised.
const WarningThreshold = 80

// BudgetEvaluator compares spending in a budget's current window with its ceiling.
type BudgetEvaluator struct {
	store ledger.Store
}

func NewBudgetEvaluator(store ledger.Store) *BudgetEvaluator {
	return &BudgetEvaluator{store: store}
}

// PeriodWindowStart returns the first day of the window containing today.
// Weeks start on Monday. Unknown periods are treated as yearly.
func PeriodWindowStart(period core.Period, today core.Date) core.Date {
	switch period {
	case core.PeriodMonthly:
		return core.NewDate(today.Year(), today.Month(), 1)
	case core.PeriodWeekly:
		offset := (int(today.Weekday()) + 6) % 7
		return today.AddDays(-offset)
	default:
		return core.NewDate(today.Year(), int(time.January), 1)
	}
}

// StatusFor computes the status of b over txs. Only expenses in b's
// category dated on or after the window start count; there is no upper bound.
func StatusFor(b core.Budget, txs []core.Transaction, today core.Date) core.BudgetStatus {
	start := PeriodWindowStart(b.Period, today)
	spent := decimal.Zero
	for _, t := range txs {
		if t.Kind != core.Expense || t.Category != b.Category {
			continue
		}
		if t.Date.Before(start.Time) {
			continue
		}
		spent = spent.Add(t.Amount)
	}

	return core.BudgetStatus{
		Category:     b.Category,
		Period:       b.Period,
		WindowStart:  start,
		BudgetAmount: b.Amount,
		SpentAmount:  spent,
		Remaining:    b.Amount.Sub(spent),
		Percentage:   core.Percent(spent, b.Amount),
		OverBudget:   spent.GreaterThan(b.Amount),
	}
}

// AlertFor returns the alert a status raises, if any.
func AlertFor(s core.BudgetStatus) (core.Alert, bool) {
	switch {
	case s.OverBudget:
		return core.Alert{
			Kind:     core.AlertOverBudget,
			Category: s.Category,
			Message: fmt.Sprintf("Over budget in %s: %s / %s",
				s.Category, s.SpentAmount.StringFixed(0), s.BudgetAmount.StringFixed(0)),
		}, true
	case s.Percentage >= WarningThreshold:
		return core.Alert{
			Kind:     core.AlertWarning,
			Category: s.Category,
			Message:  fmt.Sprintf("Near budget limit in %s: %.0f%% used", s.Category, s.Percentage),
		}, true
	}
	return core.Alert{}, false
}

func (e *BudgetEvaluator) status(ctx context.Context, b core.Budget, today core.Date) (core.BudgetStatus, error) {
	txs, err := e.store.QueryTransactions(ctx, ledger.Filter{
		Kind:     core.Expense,
		Category: b.Category,
		DateFrom: PeriodWindowStart(b.Period, today),
	})
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return StatusFor(b, txs, today), nil
}

// Status returns the status of the budget for category, or nil when there is none.
func (e *BudgetEvaluator) Status(ctx context.Context, category string, today core.Date) (*core.BudgetStatus, error) {
	category = strings.TrimSpace(category)
	b, err := e.store.GetBudget(ctx, category)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load budget", log.FieldCategory, category, "error", err)
		return nil, core.StoreFailure("get budget", err)
	}

	s, err := e.status(ctx, b, today)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to compute budget status", log.FieldCategory, category, "error", err)
		return nil, core.StoreFailure("budget status", err)
	}
	return &s, nil
}

// AllStatuses returns one status per stored budget in storage order.
func (e *BudgetEvaluator) AllStatuses(ctx context.Context, today core.Date) ([]core.BudgetStatus, error) {
	budgets, err := e.store.ListBudgets(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list budgets", "error", err)
		return nil, core.StoreFailure("list budgets", err)
	}

	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		s, err := e.status(ctx, b, today)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to compute budget status", log.FieldCategory, b.Category, "error", err)
			return nil, core.StoreFailure("budget status", err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Alerts lists over-budget and near-limit alerts in storage order.
func (e *BudgetEvaluator) Alerts(ctx context.Context, today core.Date) ([]core.Alert, error) {
	statuses, err := e.AllStatuses(ctx, today)
	if err != nil {
		return nil, err
	}

	var alerts []core.Alert
	for _, s := range statuses {
		if a, ok := AlertFor(s); ok {
			alerts = append(alerts, a)
		}
	}
	return alerts, nil
}

// CreateOrReplace stores the budget for category, replacing any existing one.
func (e *BudgetEvaluator) CreateOrReplace(ctx context.Context, category string, amount decimal.Decimal, period core.Period, today core.Date) error {
	b := core.Budget{
		Category:  strings.TrimSpace(category),
		Amount:    amount,
		Period:    period,
		StartDate: today,
	}
	if err := b.Validate(); err != nil {
		return core.Invalid(err)
	}

	if err := e.store.UpsertBudget(ctx, b); err != nil {
		slog.ErrorContext(ctx, "Failed to save budget", log.FieldCategory, b.Category, "error", err)
		return core.StoreFailure("upsert budget", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		log.FieldCategory, b.Category,
		"amount", b.Amount.String(),
		"period", b.Period)
	return nil
}

// Delete removes the budget for category. It reports false with ErrNotFound
// when there is none.
func (e *BudgetEvaluator) Delete(ctx context.Context, category string) (bool, error) {
	category = strings.TrimSpace(category)
	if err := e.store.DeleteBudget(ctx, category); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.ErrorContext(ctx, "Failed to delete budget", log.FieldCategory, category, "error", err)
		}
		return false, core.StoreFailure("delete budget", err)
	}
	slog.InfoContext(ctx, "Budget deleted", log.FieldCategory, category)
	return true, nil
}

// List returns every budget in storage order.
func (e *BudgetEvaluator) List(ctx context.Context) ([]core.Budget, error) {
	budgets, err := e.store.ListBudgets(ctx)
	if err != nil {
		return nil, core.StoreFailure("list budgets", err)
	}
	return budgets, nil
}

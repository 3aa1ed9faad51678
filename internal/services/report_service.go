package services

import (
	"context"
	"sort"

	"conti/internal/core"
	"conti/internal/ledger"

	"github.com/shopspring/decimal"
)

// ReportService computes dashboard figures from the ledger.
type ReportService struct {
	store ledger.TransactionStore
}

func NewReportService(store ledger.TransactionStore) *ReportService {
	return &ReportService{store: store}
}

// Summarize totals txs overall and for the calendar month of today.
func Summarize(txs []core.Transaction, today core.Date) core.Summary {
	s := core.Summary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		MonthIncome:  decimal.Zero,
		MonthExpense: decimal.Zero,
	}
	for _, t := range txs {
		inMonth := t.Date.Year() == today.Year() && t.Date.Month() == today.Month()
		switch t.Kind {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
			if inMonth {
				s.MonthIncome = s.MonthIncome.Add(t.Amount)
			}
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
			if inMonth {
				s.MonthExpense = s.MonthExpense.Add(t.Amount)
			}
		}
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// MonthlyTotals buckets txs by YYYY-MM and keeps the last months buckets
// that have data, oldest first. months <= 0 keeps all of them.
func MonthlyTotals(txs []core.Transaction, months int) []core.MonthTotals {
	buckets := make(map[string]*core.MonthTotals)
	for _, t := range txs {
		key := t.Date.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &core.MonthTotals{Month: key, Income: decimal.Zero, Expense: decimal.Zero}
			buckets[key] = b
		}
		switch t.Kind {
		case core.Income:
			b.Income = b.Income.Add(t.Amount)
		case core.Expense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}

	out := make([]core.MonthTotals, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	if months > 0 && len(out) > months {
		out = out[len(out)-months:]
	}
	return out
}

// ExpenseByCategory sums expenses per category, largest first. Blank
// categories count as the default category. limit <= 0 keeps every category.
func ExpenseByCategory(txs []core.Transaction, limit int) []core.CategoryAmount {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Kind != core.Expense {
			continue
		}
		name := t.Category
		if name == "" {
			name = core.DefaultCategory
		}
		totals[name] = totals[name].Add(t.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *ReportService) all(ctx context.Context, f ledger.Filter) ([]core.Transaction, error) {
	txs, err := r.store.QueryTransactions(ctx, f)
	if err != nil {
		return nil, core.StoreFailure("query transactions", err)
	}
	return txs, nil
}

func (r *ReportService) Summary(ctx context.Context, today core.Date) (core.Summary, error) {
	txs, err := r.all(ctx, ledger.Filter{})
	if err != nil {
		return core.Summary{}, err
	}
	return Summarize(txs, today), nil
}

func (r *ReportService) MonthlyTrend(ctx context.Context, months int) ([]core.MonthTotals, error) {
	txs, err := r.all(ctx, ledger.Filter{})
	if err != nil {
		return nil, err
	}
	return MonthlyTotals(txs, months), nil
}

func (r *ReportService) CategoryBreakdown(ctx context.Context, limit int) ([]core.CategoryAmount, error) {
	txs, err := r.all(ctx, ledger.Filter{Kind: core.Expense})
	if err != nil {
		return nil, err
	}
	return ExpenseByCategory(txs, limit), nil
}

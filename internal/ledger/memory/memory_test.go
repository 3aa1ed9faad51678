package memory

import (
	"context"
	"errors"
	"testing"

	"conti/internal/core"
	"conti/internal/ledger"

	"github.com/shopspring/decimal"
)

func expense(day int, amount int64, category string) core.Transaction {
	return core.Transaction{
		Date:     core.NewDate(2024, 5, day),
		Amount:   decimal.NewFromInt(amount),
		Kind:     core.Expense,
		Category: category,
	}
}

func TestStoreTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()

	id1, err := s.InsertTransaction(ctx, expense(1, 10, "Food"))
	if err != nil || id1 != 1 {
		t.Fatalf("unexpected insert: id=%d err=%v", id1, err)
	}
	id2, _ := s.InsertTransaction(ctx, expense(2, 20, "Rent"))

	got, err := s.QueryTransactions(ctx, ledger.Filter{Category: "Food"})
	if err != nil || len(got) != 1 || got[0].ID != id1 {
		t.Fatalf("unexpected query: %v err=%v", got, err)
	}

	newest, _ := s.QueryTransactions(ctx, ledger.Filter{NewestFirst: true, Limit: 1})
	if len(newest) != 1 || newest[0].ID != id2 {
		t.Fatalf("expected newest id %d, got %v", id2, newest)
	}

	if err := s.DeleteTransaction(ctx, id1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, id1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, 99); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreBudgetsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, c := range []string{"Rent", "Food", "Fun"} {
		_ = s.UpsertBudget(ctx, core.Budget{Category: c, Amount: decimal.NewFromInt(1), Period: core.PeriodMonthly})
	}
	_ = s.UpsertBudget(ctx, core.Budget{Category: "Food", Amount: decimal.NewFromInt(9), Period: core.PeriodWeekly})

	all, _ := s.ListBudgets(ctx)
	if len(all) != 3 || all[0].Category != "Rent" || all[1].Category != "Food" || all[2].Category != "Fun" {
		t.Fatalf("unexpected order: %v", all)
	}
	if !all[1].Amount.Equal(decimal.NewFromInt(9)) || all[1].Period != core.PeriodWeekly {
		t.Fatalf("upsert did not overwrite: %+v", all[1])
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx ledger.Store) error {
		if _, err := tx.InsertTransaction(ctx, expense(1, 10, "Food")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	all, _ := s.QueryTransactions(ctx, ledger.Filter{})
	if len(all) != 0 {
		t.Fatalf("expected rollback, found %d rows", len(all))
	}

	err = s.WithinTx(ctx, func(tx ledger.Store) error {
		_, err := tx.InsertTransaction(ctx, expense(1, 10, "Food"))
		return err
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	all, _ = s.QueryTransactions(ctx, ledger.Filter{})
	if len(all) != 1 {
		t.Fatalf("expected 1 committed row, got %d", len(all))
	}
}

func TestTemplatesActiveFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, _ := s.CreateTemplate(ctx, core.RecurringTemplate{Name: "a", Active: true})
	_, _ = s.CreateTemplate(ctx, core.RecurringTemplate{Name: "b", Active: false})

	active, _ := s.ListTemplates(ctx, true)
	if len(active) != 1 || active[0].ID != id {
		t.Fatalf("unexpected active list: %v", active)
	}
	all, _ := s.ListTemplates(ctx, false)
	if len(all) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(all))
	}
}

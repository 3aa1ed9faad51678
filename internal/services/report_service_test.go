package services

import (
	"context"
	"testing"

	"conti/internal/core"
	"conti/internal/ledger/memory"

	"github.com/shopspring/decimal"
)

func reportFixture() []core.Transaction {
	income := func(d core.Date, amount int64) core.Transaction {
		return core.Transaction{Date: d, Amount: decimal.NewFromInt(amount), Kind: core.Income, Category: "Salary"}
	}
	return []core.Transaction{
		income(core.NewDate(2024, 1, 25), 3000),
		expense(core.NewDate(2024, 1, 3), 800, "Rent"),
		expense(core.NewDate(2024, 2, 3), 800, "Rent"),
		expense(core.NewDate(2024, 2, 9), 120, "Food"),
		income(core.NewDate(2024, 3, 25), 3000),
		expense(core.NewDate(2024, 3, 3), 800, "Rent"),
		expense(core.NewDate(2024, 3, 10), 80, ""),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(reportFixture(), core.NewDate(2024, 3, 15))

	checks := []struct {
		name string
		got  decimal.Decimal
		want int64
	}{
		{"total income", s.TotalIncome, 6000},
		{"total expense", s.TotalExpense, 2600},
		{"month income", s.MonthIncome, 3000},
		{"month expense", s.MonthExpense, 880},
		{"net", s.Net, 3400},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.NewFromInt(c.want)) {
			t.Errorf("%s = %s, want %d", c.name, c.got, c.want)
		}
	}
}

func TestMonthlyTotals(t *testing.T) {
	got := MonthlyTotals(reportFixture(), 2)
	if len(got) != 2 {
		t.Fatalf("MonthlyTotals() = %d months, want 2", len(got))
	}
	if got[0].Month != "2024-02" || got[1].Month != "2024-03" {
		t.Errorf("months = %s, %s", got[0].Month, got[1].Month)
	}
	if !got[0].Expense.Equal(decimal.NewFromInt(920)) || !got[0].Income.IsZero() {
		t.Errorf("2024-02 = %+v", got[0])
	}

	if all := MonthlyTotals(reportFixture(), 0); len(all) != 3 {
		t.Errorf("MonthlyTotals(0) = %d months, want 3", len(all))
	}
}

func TestExpenseByCategory(t *testing.T) {
	got := ExpenseByCategory(reportFixture(), 0)
	want := []struct {
		name   string
		amount int64
	}{{"Rent", 2400}, {"Food", 120}, {core.DefaultCategory, 80}}

	if len(got) != len(want) {
		t.Fatalf("ExpenseByCategory() = %+v", got)
	}
	for i, w := range want {
		if got[i].Name != w.name || !got[i].Amount.Equal(decimal.NewFromInt(w.amount)) {
			t.Errorf("[%d] = %s %s, want %s %d", i, got[i].Name, got[i].Amount, w.name, w.amount)
		}
	}

	if top := ExpenseByCategory(reportFixture(), 1); len(top) != 1 || top[0].Name != "Rent" {
		t.Errorf("ExpenseByCategory(1) = %+v", top)
	}
}

func TestReportService(t *testing.T) {
	ctx := context.Background()
	r := NewReportService(memory.Seed(reportFixture()))

	s, err := r.Summary(ctx, core.NewDate(2024, 3, 15))
	if err != nil || !s.Net.Equal(decimal.NewFromInt(3400)) {
		t.Errorf("Summary() = %+v, %v", s, err)
	}

	trend, err := r.MonthlyTrend(ctx, 6)
	if err != nil || len(trend) != 3 {
		t.Errorf("MonthlyTrend() = %+v, %v", trend, err)
	}

	cats, err := r.CategoryBreakdown(ctx, 2)
	if err != nil || len(cats) != 2 || cats[1].Name != "Food" {
		t.Errorf("CategoryBreakdown() = %+v, %v", cats, err)
	}
}

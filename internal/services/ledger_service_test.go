package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/ledger/memory"

	"github.com/shopspring/decimal"
)

type opRecorder struct {
	ops []amqp.Op
	ids []int64
}

func (r *opRecorder) PublishTransactionEvent(_ context.Context, op amqp.Op, id int64) error {
	r.ops = append(r.ops, op)
	r.ids = append(r.ids, id)
	return nil
}

func TestLedgerService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rec := &opRecorder{}
	svc := NewLedgerService(store, rec)

	id, err := svc.Create(ctx, core.Transaction{
		Date:   core.NewDate(2024, 3, 1),
		Amount: decimal.NewFromInt(25),
		Kind:   core.Expense,
		Notes:  "  coffee  ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Category != core.DefaultCategory {
		t.Errorf("Category = %q, want %q", got.Category, core.DefaultCategory)
	}
	if got.Notes != "coffee" {
		t.Errorf("Notes = %q", got.Notes)
	}

	got.Amount = decimal.NewFromInt(30)
	got.Category = "Food"
	if err := svc.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	updated, _ := svc.Get(ctx, id)
	if !updated.Amount.Equal(decimal.NewFromInt(30)) || updated.Category != "Food" {
		t.Errorf("after Update() = %+v", updated)
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want not found", err)
	}

	want := []amqp.Op{amqp.OpCreated, amqp.OpUpdated, amqp.OpDeleted}
	if len(rec.ops) != len(want) {
		t.Fatalf("published %v, want %v", rec.ops, want)
	}
	for i := range want {
		if rec.ops[i] != want[i] || rec.ids[i] != id {
			t.Errorf("event %d = %s/%d, want %s/%d", i, rec.ops[i], rec.ids[i], want[i], id)
		}
	}
}

func TestLedgerService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New(), nil)

	tests := []struct {
		name string
		tx   core.Transaction
	}{
		{"zero amount", core.Transaction{Date: core.NewDate(2024, 1, 1), Amount: decimal.Zero, Kind: core.Expense}},
		{"negative amount", core.Transaction{Date: core.NewDate(2024, 1, 1), Amount: decimal.NewFromInt(-4), Kind: core.Expense}},
		{"bad kind", core.Transaction{Date: core.NewDate(2024, 1, 1), Amount: decimal.NewFromInt(4), Kind: "loan"}},
		{"no date", core.Transaction{Amount: decimal.NewFromInt(4), Kind: core.Income}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.tx); core.KindOf(err) != core.KindValidation {
				t.Errorf("Create() error = %v, want validation", err)
			}
		})
	}

	t.Run("update missing", func(t *testing.T) {
		err := svc.Update(ctx, core.Transaction{ID: 9, Date: core.NewDate(2024, 1, 1), Amount: decimal.NewFromInt(1), Kind: core.Income})
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Update() error = %v, want not found", err)
		}
	})

	t.Run("delete missing", func(t *testing.T) {
		if err := svc.Delete(ctx, 9); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Delete() error = %v, want not found", err)
		}
	})
}

func TestLedgerService_RecentAndCategories(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.Seed([]core.Transaction{
		expense(core.NewDate(2024, 1, 1), 1, "Rent"),
		expense(core.NewDate(2024, 1, 2), 2, "Food"),
		expense(core.NewDate(2024, 1, 3), 3, "Food"),
		expense(core.NewDate(2024, 1, 4), 4, ""),
	}), nil)

	recent, err := svc.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != 4 || recent[1].ID != 3 {
		t.Errorf("Recent(2) = %+v", recent)
	}

	cats, err := svc.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(cats, ",") != "Food,Rent" {
		t.Errorf("Categories() = %v", cats)
	}

	food, _ := svc.List(ctx, ledger.Filter{Category: "Food"})
	if len(food) != 2 {
		t.Errorf("List(Food) = %d, want 2", len(food))
	}
}

func TestImporter_ImportCSV(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	im := NewImporter(store)

	var progress []int
	im.OnRow = func(done, total int) { progress = append(progress, done) }

	input := "id,date,amount,type,category,notes\n" +
		"7,2024-03-01,10,expense,Food,a\n" +
		"8,2024-03-02,x,expense,Food,b\n" +
		"9,2024-03-03,20,income,Gift,c\n"

	imported, skipped, err := im.ImportCSV(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if imported != 2 || skipped != 1 {
		t.Errorf("ImportCSV() = %d imported, %d skipped, want 2, 1", imported, skipped)
	}
	if len(progress) != 2 || progress[1] != 2 {
		t.Errorf("progress = %v", progress)
	}

	txs, _ := store.QueryTransactions(ctx, ledger.Filter{})
	if len(txs) != 2 || txs[0].ID != 1 {
		t.Errorf("stored = %+v, want fresh ids", txs)
	}
}

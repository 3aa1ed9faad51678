package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Fatalf("unexpected date %s", d)
	}
	for _, bad := range []string{"", "2024-02-30", "29/02/2024", "2 07 2008"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestDateOfDropsClock(t *testing.T) {
	d := DateOf(time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC))
	if !d.Equal(NewDate(2024, 3, 9).Time) {
		t.Fatalf("expected 2024-03-09, got %s", d)
	}
}

func TestDateOnOrBefore(t *testing.T) {
	a := NewDate(2024, 1, 1)
	b := NewDate(2024, 1, 2)
	if !a.OnOrBefore(b) || !a.OnOrBefore(a) || b.OnOrBefore(a) {
		t.Fatalf("OnOrBefore ordering broken")
	}
}

func TestParseEnums(t *testing.T) {
	if k, err := ParseKind(" Expense "); err != nil || k != Expense {
		t.Fatalf("expected expense, got %q %v", k, err)
	}
	if _, err := ParseKind("transfer"); err == nil {
		t.Fatalf("expected error for transfer")
	}
	if p, err := ParsePeriod("WEEKLY"); err != nil || p != PeriodWeekly {
		t.Fatalf("expected weekly, got %q %v", p, err)
	}
	if _, err := ParsePeriod("daily"); err == nil {
		t.Fatalf("daily is not a budget period")
	}
	if f, err := ParseFrequency("monthly"); err != nil || f != Monthly {
		t.Fatalf("expected monthly, got %q %v", f, err)
	}
	if _, err := ParseFrequency("biweekly"); err == nil {
		t.Fatalf("expected error for biweekly")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:   NewDate(2025, 1, 1),
		Amount: decimal.RequireFromString("10.50"),
		Kind:   Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{}, Amount: decimal.NewFromInt(1), Kind: Expense},
		{Date: NewDate(2025, 1, 1), Amount: decimal.Zero, Kind: Expense},
		{Date: NewDate(2025, 1, 1), Amount: decimal.NewFromInt(-3), Kind: Expense},
		{Date: NewDate(2025, 1, 1), Amount: decimal.NewFromInt(1), Kind: "gift"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRecurringTemplateValidate(t *testing.T) {
	good := RecurringTemplate{
		Name:           "Rent",
		Amount:         decimal.NewFromInt(900),
		Kind:           Expense,
		Frequency:      Monthly,
		NextOccurrence: NewDate(2025, 1, 1),
		Active:         true,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noName := good
	noName.Name = "  "
	badFreq := good
	badFreq.Frequency = "fortnightly"
	noDate := good
	noDate.NextOccurrence = Date{}
	for i, rt := range []RecurringTemplate{noName, badFreq, noDate} {
		if err := rt.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRecurringNote(t *testing.T) {
	rt := RecurringTemplate{Name: "Rent", Notes: "flat 2B"}
	if got := RecurringNote(rt); got != "[Recurring: Rent] flat 2B" {
		t.Fatalf("unexpected note %q", got)
	}
	rt.Notes = ""
	if got := RecurringNote(rt); got != "[Recurring: Rent] " {
		t.Fatalf("unexpected note %q", got)
	}
}

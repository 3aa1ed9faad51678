package ledger

import (
	"testing"

	"conti/internal/core"

	"github.com/shopspring/decimal"
)

func TestFilterMatch(t *testing.T) {
	tx := core.Transaction{
		Date:     core.NewDate(2024, 5, 10),
		Amount:   decimal.NewFromInt(10),
		Kind:     core.Expense,
		Category: "Food",
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"kind match", Filter{Kind: core.Expense}, true},
		{"kind mismatch", Filter{Kind: core.Income}, false},
		{"category mismatch", Filter{Category: "Rent"}, false},
		{"from same day", Filter{DateFrom: core.NewDate(2024, 5, 10)}, true},
		{"from after", Filter{DateFrom: core.NewDate(2024, 5, 11)}, false},
		{"to same day", Filter{DateTo: core.NewDate(2024, 5, 10)}, true},
		{"to before", Filter{DateTo: core.NewDate(2024, 5, 9)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tx); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

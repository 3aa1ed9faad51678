package core

import "github.com/shopspring/decimal"

// AlertKind names the severity of a budget alert.
type AlertKind string

const (
	AlertOverBudget AlertKind = "over_budget"
	AlertWarning    AlertKind = "warning"
)

// BudgetStatus is spend-versus-ceiling for one budget in its current window.
type BudgetStatus struct {
	Category     string
	Period       Period
	WindowStart  Date
	BudgetAmount decimal.Decimal
	SpentAmount  decimal.Decimal
	Remaining    decimal.Decimal
	Percentage   float64
	OverBudget   bool
}

type Alert struct {
	Kind     AlertKind
	Category string
	Message  string
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// MonthTotals is income and expense for one YYYY-MM bucket.
type MonthTotals struct {
	Month   string
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Summary holds the headline numbers of the dashboard.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	MonthIncome  decimal.Decimal
	MonthExpense decimal.Decimal
	Net          decimal.Decimal
}

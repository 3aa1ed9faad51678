package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ISODate is the layout used to persist and exchange calendar dates.
const ISODate = "2006-01-02"

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// DefaultCategory is assigned to transactions entered without a category.
const DefaultCategory = "Other"

type (
	// Frequency is how often a recurring template fires.
	Frequency string

	// Period selects the window shape a budget is evaluated over.
	Period string

	// Kind tells income from expense.
	Kind string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID       int64 // Store-assigned identifier
		Date     Date
		Amount   decimal.Decimal
		Kind     Kind
		Category string
		Notes    string
	}

	Budget struct {
		Category  string // Unique key
		Amount    decimal.Decimal
		Period    Period
		StartDate Date // Creation or last edit, informational only
	}

	RecurringTemplate struct {
		ID             int64
		Name           string
		Amount         decimal.Decimal
		Kind           Kind
		Category       string
		Notes          string
		Frequency      Frequency
		NextOccurrence Date
		Active         bool
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid transaction type")
	ErrInvalidPeriod    = errors.New("invalid budget period")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISODate, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String renders the date in its persisted ISO form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(ISODate)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// OnOrBefore reports whether d is the same day as o or earlier.
func (d Date) OnOrBefore(o Date) bool {
	return !d.Time.After(o.Time)
}

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (p Period) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

func validateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := validateAmount(b.Amount); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (rt RecurringTemplate) Validate() error {
	if len(strings.TrimSpace(rt.Name)) == 0 {
		return ErrEmptyName
	}
	if len(rt.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := validateAmount(rt.Amount); err != nil {
		return err
	}
	if !rt.Kind.Valid() {
		return ErrInvalidKind
	}

	// Unknown frequencies are stored as-is by older data but never accepted on create.
	if !rt.Frequency.Valid() {
		return ErrInvalidFrequency
	}

	if err := rt.NextOccurrence.Validate(); err != nil {
		return errors.New("invalid next occurrence: " + err.Error())
	}
	return nil
}

// RecurringNote composes the notes of a transaction materialized from rt.
func RecurringNote(rt RecurringTemplate) string {
	return fmt.Sprintf("[Recurring: %s] %s", rt.Name, rt.Notes)
}

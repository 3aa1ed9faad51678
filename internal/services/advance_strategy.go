// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for advancing a recurring
// template's next occurrence. Each frequency type (daily, weekly, monthly,
// yearly) has its own strategy that encapsulates the calendar arithmetic.
package services

import (
	"time"

	"conti/internal/core"
)

// Advancer is the strategy interface for computing the occurrence that
// follows a given date.
type Advancer interface {
	// Next returns the occurrence after d.
	Next(d core.Date) core.Date
}

// clampDay is used when the source day does not exist in the target month.
// It is 28 on purpose rather than the true last day of the month.
const clampDay = 28

// DailyAdvancer moves one calendar day forward.
type DailyAdvancer struct{}

func (DailyAdvancer) Next(d core.Date) core.Date {
	return d.AddDays(1)
}

// WeeklyAdvancer moves seven calendar days forward.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Next(d core.Date) core.Date {
	return d.AddDays(7)
}

// MonthlyAdvancer moves to the same day of the next month, clamping to day 28
// when that day does not exist (Jan 31 -> Feb 28, even in leap years).
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Next(d core.Date) core.Date {
	year, month, day := d.Year(), d.Month()+1, d.Day()
	if month > 12 {
		month = 1
		year++
	}
	if day > daysIn(year, month) {
		day = clampDay
	}
	return core.NewDate(year, month, day)
}

// YearlyAdvancer moves to the same month and day of the next year.
// Feb 29 becomes Feb 28 when the next year is not a leap year.
type YearlyAdvancer struct{}

func (YearlyAdvancer) Next(d core.Date) core.Date {
	year, month, day := d.Year()+1, d.Month(), d.Day()
	if day > daysIn(year, month) {
		day = clampDay
	}
	return core.NewDate(year, month, day)
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// advanceStrategies has an advancer for exactly the frequencies core.Frequency.Valid accepts.
var advanceStrategies = map[core.Frequency]Advancer{
	core.Daily:   DailyAdvancer{},
	core.Weekly:  WeeklyAdvancer{},
	core.Monthly: MonthlyAdvancer{},
	core.Yearly:  YearlyAdvancer{},
}

// Advance returns the occurrence following d for the given frequency.
// An unknown frequency leaves d unchanged.
func Advance(d core.Date, frequency core.Frequency) core.Date {
	a, ok := advanceStrategies[frequency]
	if !ok {
		return d
	}
	return a.Next(d)
}

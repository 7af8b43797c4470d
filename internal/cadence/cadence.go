// Package cadence maps recurrence kinds to calendar step functions.
//
// Each kind advances a date by a fixed number of weeks or months. Month
// arithmetic clamps to the last valid day of the target month (January 31
// plus one month is February 28 or 29), it never rolls into the following
// month.
package cadence

import (
	"fmt"
	"time"

	"financas/internal/core"
)

// maxIterations bounds occurrence counting. It is a runaway-loop guard, not a
// domain limit: callers must not rely on exact counts beyond it.
const maxIterations = 1000

// Stepper advances a date by the fixed increment of one recurrence kind.
type Stepper interface {
	Step(d core.Date) core.Date
}

// weekStepper advances by a fixed number of weeks.
type weekStepper struct {
	weeks int
}

func (s weekStepper) Step(d core.Date) core.Date {
	return core.Date{Time: d.AddDate(0, 0, 7*s.weeks)}
}

// monthStepper advances by a fixed number of months, clamping the day to the
// last valid day of the target month.
type monthStepper struct {
	months int
}

func (s monthStepper) Step(d core.Date) core.Date {
	return AddMonths(d, s.months)
}

// steppers maps recurrence kinds to their calendar increments. Once is
// deliberately absent: a one-off entry has no step.
var steppers = map[core.RecurrenceKind]Stepper{
	core.Weekly:      weekStepper{weeks: 1},
	core.Biweekly:    weekStepper{weeks: 2},
	core.Monthly:     monthStepper{months: 1},
	core.Bimonthly:   monthStepper{months: 2},
	core.Quarterly:   monthStepper{months: 3},
	core.FourMonthly: monthStepper{months: 4},
	core.Semiannual:  monthStepper{months: 6},
	core.Annual:      monthStepper{months: 12},
}

// StepperFor returns the stepper for a recurrence kind. Unknown kinds and
// core.Once are rejected explicitly; there is no silent monthly fallback.
func StepperFor(kind core.RecurrenceKind) (Stepper, error) {
	s, ok := steppers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidRecurrenceKind, kind)
	}
	return s, nil
}

// Step advances date by the increment of kind.
func Step(kind core.RecurrenceKind, d core.Date) (core.Date, error) {
	s, err := StepperFor(kind)
	if err != nil {
		return core.Date{}, err
	}
	return s.Step(d), nil
}

// CountOccurrences counts how many times kind occurs between start and end,
// inclusive of the start date as occurrence 1. It returns 0 when end is
// before start. For core.Once the count is always 1. Counting stops at
// maxIterations.
func CountOccurrences(kind core.RecurrenceKind, start, end core.Date) (int, error) {
	if kind == core.Once {
		return 1, nil
	}
	s, err := StepperFor(kind)
	if err != nil {
		return 0, err
	}

	count := 0
	cur := start
	for !cur.After(end.Time) {
		count++
		if count >= maxIterations {
			break
		}
		cur = s.Step(cur)
	}
	return count, nil
}

// AddMonths adds n months to d, clamping the day of month to the last valid
// day of the target month instead of letting time.AddDate normalize forward.
func AddMonths(d core.Date, n int) core.Date {
	year, month := d.Year(), d.Month()+n
	for month > 12 {
		month -= 12
		year++
	}
	for month < 1 {
		month += 12
		year--
	}
	day := d.Day()
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WithDay returns d with its day of month replaced by day when the month has
// that many days; otherwise d is returned unchanged. This mirrors the
// generator policy for impossible calendar days: keep the natural date for
// the offending month only.
func WithDay(d core.Date, day int) core.Date {
	if day < 1 || day > DaysIn(d.Year(), d.Month()) {
		return d
	}
	return core.NewDate(d.Year(), d.Month(), day)
}

// Package billing resolves credit-card purchase dates to billing due dates.
package billing

import (
	"financas/internal/cadence"
	"financas/internal/core"
)

// ResolveDueDate maps a purchase date to the due date of the statement it
// belongs to, given the card's close day and due day.
//
// A purchase strictly before the month's close date belongs to the current
// statement; on or after it, to the next one. The due day is then applied to
// the statement month, and when the due day is numerically smaller than the
// close day the payment rolls into the following month. Days that do not
// exist in a month clamp to its last day.
//
// The mapping is not idempotent: feeding an already-resolved due date back in
// shifts it forward again. It must run exactly once, at creation time; edits
// to an existing card-linked installment pass the date through unchanged.
func ResolveDueDate(purchase core.Date, card core.CardConfig) core.Date {
	closeDate := clampedDay(purchase.Year(), purchase.Month(), card.CloseDay)

	statement := purchase
	if !purchase.Before(closeDate.Time) {
		// Purchase lands on or after the close: next statement.
		statement = cadence.AddMonths(statement, 1)
	}

	due := clampedDay(statement.Year(), statement.Month(), card.DueDay)
	if card.DueDay < card.CloseDay {
		due = clampedDay(due.Year(), due.Month()+1, card.DueDay)
	}
	return due
}

// ApplyCard rewrites a series for card billing at creation time: the start
// date becomes the resolved due date, and any recurring cadence is forced to
// monthly on the card's due day, since card-billed charges always cycle with
// the statement.
//
// Never call this when editing an existing series; see ResolveDueDate.
func ApplyCard(series core.EntrySeries, card core.CardConfig) core.EntrySeries {
	series.StartDate = ResolveDueDate(series.StartDate, card)
	if series.Recurrence != core.Once {
		series.Recurrence = core.Monthly
		series.CommonDay = card.DueDay
	}
	return series
}

// clampedDay builds a date in year/month with the given day, clamped to the
// month's last day. month may be 13 to mean January of the next year.
func clampedDay(year, month, day int) core.Date {
	if month > 12 {
		month -= 12
		year++
	}
	if last := cadence.DaysIn(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

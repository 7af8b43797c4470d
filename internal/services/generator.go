package services

import (
	"fmt"
	"strconv"

	"financas/internal/cadence"
	"financas/internal/core"
)

// DefaultHorizonYears is how far past the start year an open-ended series is
// materialized: rows are generated through December 31 of the start year plus
// this many years.
const DefaultHorizonYears = 1

// Generator expands an EntrySeries into concrete installments. It performs no
// I/O; persistence belongs to SeriesService.
type Generator struct {
	// HorizonYears overrides DefaultHorizonYears when positive.
	HorizonYears int
}

func (g Generator) horizonYears() int {
	if g.HorizonYears > 0 {
		return g.HorizonYears
	}
	return DefaultHorizonYears
}

// Horizon returns the materialization cutoff for an open-ended series whose
// reference date is d: December 31 of d's year plus the configured horizon.
func (g Generator) Horizon(d core.Date) core.Date {
	return core.NewDate(d.Year()+g.horizonYears(), 12, 31)
}

// Expand generates the ordered installments of a series.
//
// A once series yields exactly one row. A bounded series yields one row per
// occurrence between start and end dates, all labeled with the total count.
// An open-ended series is labeled core.OpenEndedLabel and materialized only
// through the horizon; at least one row is always produced.
//
// When CommonDay is set, each emitted date has its day of month overwritten
// to it, except in months too short for it, which keep their natural day.
func (g Generator) Expand(series core.EntrySeries) ([]core.Installment, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	if series.Recurrence == core.Once {
		return []core.Installment{buildInstallment(series, series.StartDate, 1, "1")}, nil
	}

	stepper, err := cadence.StepperFor(series.Recurrence)
	if err != nil {
		return nil, err
	}

	var label string
	var total int
	if series.EndDate.IsEmpty() {
		label = core.OpenEndedLabel
		total, err = cadence.CountOccurrences(series.Recurrence, series.StartDate, g.Horizon(series.StartDate))
		if err != nil {
			return nil, err
		}
		if total == 0 {
			total = 1
		}
	} else {
		total, err = cadence.CountOccurrences(series.Recurrence, series.StartDate, series.EndDate)
		if err != nil {
			return nil, err
		}
		label = strconv.Itoa(total)
	}

	installments := make([]core.Installment, 0, total)
	cur := series.StartDate
	for seq := 1; seq <= total; seq++ {
		if !series.EndDate.IsEmpty() && cur.After(series.EndDate.Time) {
			break
		}
		if series.CommonDay > 0 {
			cur = cadence.WithDay(cur, series.CommonDay)
		}
		installments = append(installments, buildInstallment(series, cur, seq, label))
		cur = stepper.Step(cur)
	}
	return installments, nil
}

// Extend continues an open-ended series past its last materialized row,
// producing the occurrences after last's date up to and including through.
// The returned rows resume the sequence numbering and keep the open-ended
// label.
func (g Generator) Extend(last core.Installment, through core.Date) ([]core.Installment, error) {
	if last.TotalLabel != core.OpenEndedLabel {
		return nil, fmt.Errorf("series %s is bounded, nothing to extend", last.SeriesID)
	}
	stepper, err := cadence.StepperFor(last.Recurrence)
	if err != nil {
		return nil, err
	}

	var out []core.Installment
	cur := stepper.Step(last.EffectiveDate)
	for seq := last.Sequence + 1; !cur.After(through.Time); seq++ {
		if last.CommonDay > 0 {
			cur = cadence.WithDay(cur, last.CommonDay)
			if cur.After(through.Time) {
				break
			}
		}
		next := last
		next.ID = 0
		next.EffectiveDate = cur
		next.Sequence = seq
		out = append(out, next)
		cur = stepper.Step(cur)

		if seq-last.Sequence >= maxExtendRows {
			break
		}
	}
	return out, nil
}

// maxExtendRows bounds a single Extend call the same way occurrence counting
// is bounded.
const maxExtendRows = 1000

func buildInstallment(series core.EntrySeries, date core.Date, seq int, label string) core.Installment {
	return core.Installment{
		Type:          series.Type,
		CategoryID:    series.CategoryID,
		SubcategoryID: series.SubcategoryID,
		EffectiveDate: date,
		Amount:        series.Amount,
		Recurrence:    series.Recurrence,
		TotalLabel:    label,
		Sequence:      seq,
		CommonDay:     series.CommonDay,
		OwnerID:       series.OwnerID,
		Fixed:         series.Fixed,
		CardID:        series.CardID,
	}
}

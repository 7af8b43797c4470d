package core

import (
	"errors"
	"time"
)

const (
	Once        RecurrenceKind = "once"
	Weekly      RecurrenceKind = "weekly"
	Biweekly    RecurrenceKind = "biweekly"
	Monthly     RecurrenceKind = "monthly"
	Bimonthly   RecurrenceKind = "bimonthly"
	Quarterly   RecurrenceKind = "quarterly"
	FourMonthly RecurrenceKind = "four-monthly"
	Semiannual  RecurrenceKind = "semiannual"
	Annual      RecurrenceKind = "annual"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

// OpenEndedLabel is the sentinel stored in Installment.TotalLabel when a
// series has no end date.
const OpenEndedLabel = "x"

type (
	RecurrenceKind string

	EntryType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// EntrySeries is the request to create one or more installments. It is
	// never persisted itself; it only drives generation.
	EntrySeries struct {
		Type          EntryType
		CategoryID    int64
		SubcategoryID int64 // 0 means none
		StartDate     Date
		EndDate       Date // zero means open-ended
		Recurrence    RecurrenceKind
		Amount        Money // value of each installment
		CommonDay     int   // preferred day of month, 0 means none
		OwnerID       int64
		Fixed         bool  // recurring obligation (subscription, rent)
		CardID        int64 // 0 means no card; expenses only
	}

	// Installment is one persisted income or expense row.
	Installment struct {
		ID            int64
		SeriesID      string // shared by every row of one generation call
		Type          EntryType
		CategoryID    int64
		SubcategoryID int64
		EffectiveDate Date
		Amount        Money
		Recurrence    RecurrenceKind
		TotalLabel    string // decimal count, or OpenEndedLabel
		Sequence      int    // 1-based position within the series
		CommonDay     int
		OwnerID       int64
		Fixed         bool
		CardID        int64
		Paid          bool
		CreatedAt     time.Time
	}

	// CardConfig is the billing configuration of a credit card. Owned by the
	// card-management side; the billing resolver only reads it.
	CardConfig struct {
		CloseDay int // statement close day of month, 1-31
		DueDay   int // payment due day of month, 1-31
	}
)

var (
	ErrInvalidRecurrenceKind = errors.New("invalid recurrence kind")
	ErrInvalidEntryType      = errors.New("invalid entry type")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidDay            = errors.New("invalid day of month")
	ErrInvalidDate           = errors.New("invalid date")
	ErrMissingCategory       = errors.New("missing category")
	ErrCardOnIncome          = errors.New("card not allowed on income entries")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty reports whether the date is unset (used for optional dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (k RecurrenceKind) Validate() error {
	switch k {
	case Once, Weekly, Biweekly, Monthly, Bimonthly, Quarterly, FourMonthly, Semiannual, Annual:
		return nil
	default:
		return ErrInvalidRecurrenceKind
	}
}

func (t EntryType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidEntryType
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c CardConfig) Validate() error {
	if c.CloseDay < 1 || c.CloseDay > 31 {
		return ErrInvalidDay
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidDay
	}
	return nil
}

// Validate checks an EntrySeries before any generation or storage mutation.
// All validation errors are detected here so a failing series never produces
// partial writes.
func (s EntrySeries) Validate() error {
	if err := s.Type.Validate(); err != nil {
		return err
	}
	if s.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if err := s.StartDate.Validate(); err != nil {
		return errors.New("invalid start date")
	}
	if !s.EndDate.IsEmpty() {
		if err := s.EndDate.Validate(); err != nil {
			return errors.New("invalid end date")
		}
	}
	if err := s.Recurrence.Validate(); err != nil {
		return err
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if s.CommonDay != 0 && (s.CommonDay < 1 || s.CommonDay > 31) {
		return ErrInvalidDay
	}
	if s.CardID != 0 && s.Type != Expense {
		return ErrCardOnIncome
	}
	return nil
}

package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatal("expected error for zero date")
	}
}

func TestRecurrenceKindValidate(t *testing.T) {
	valid := []RecurrenceKind{Once, Weekly, Biweekly, Monthly, Bimonthly, Quarterly, FourMonthly, Semiannual, Annual}
	for _, k := range valid {
		if err := k.Validate(); err != nil {
			t.Errorf("%s: expected valid, got %v", k, err)
		}
	}
	for _, k := range []RecurrenceKind{"", "daily", "mensal", "MONTHLY"} {
		if err := k.Validate(); !errors.Is(err, ErrInvalidRecurrenceKind) {
			t.Errorf("%q: expected ErrInvalidRecurrenceKind, got %v", k, err)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatal("expected error for zero")
	}
	if err := (Money{Cents: -100}).Validate(); err == nil {
		t.Fatal("expected error for negative")
	}
}

func TestCardConfigValidate(t *testing.T) {
	cases := []struct {
		cfg CardConfig
		ok  bool
	}{
		{CardConfig{CloseDay: 25, DueDay: 5}, true},
		{CardConfig{CloseDay: 1, DueDay: 31}, true},
		{CardConfig{CloseDay: 0, DueDay: 5}, false},
		{CardConfig{CloseDay: 25, DueDay: 32}, false},
		{CardConfig{CloseDay: -1, DueDay: 5}, false},
	}
	for i, tc := range cases {
		err := tc.cfg.Validate()
		if tc.ok && err != nil {
			t.Errorf("case %d: expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestEntrySeriesValidate(t *testing.T) {
	good := EntrySeries{
		Type:       Expense,
		CategoryID: 3,
		StartDate:  NewDate(2024, 1, 15),
		Recurrence: Monthly,
		Amount:     Money{Cents: 12050},
		OwnerID:    1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*EntrySeries)
		wantErr error
	}{
		{"bad type", func(s *EntrySeries) { s.Type = "transfer" }, ErrInvalidEntryType},
		{"missing category", func(s *EntrySeries) { s.CategoryID = 0 }, ErrMissingCategory},
		{"zero start", func(s *EntrySeries) { s.StartDate = Date{} }, nil},
		{"bad recurrence", func(s *EntrySeries) { s.Recurrence = "daily" }, ErrInvalidRecurrenceKind},
		{"zero amount", func(s *EntrySeries) { s.Amount = Money{} }, ErrInvalidAmount},
		{"day too small", func(s *EntrySeries) { s.CommonDay = -2 }, ErrInvalidDay},
		{"day too large", func(s *EntrySeries) { s.CommonDay = 32 }, ErrInvalidDay},
		{"card on income", func(s *EntrySeries) { s.Type = Income; s.CardID = 7 }, ErrCardOnIncome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := good
			tt.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEntrySeriesValidateOpenEnded(t *testing.T) {
	s := EntrySeries{
		Type:       Income,
		CategoryID: 1,
		StartDate:  NewDate(2024, 6, 1),
		Recurrence: Weekly,
		Amount:     Money{Cents: 500},
		OwnerID:    2,
	}
	// No end date is a valid open-ended series
	if err := s.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

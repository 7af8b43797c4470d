package storage

import (
	"context"
	"path/filepath"
	"testing"

	"financas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "financas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testInstallment(seriesID string, seq int, date core.Date) core.Installment {
	return core.Installment{
		SeriesID:      seriesID,
		Type:          core.Expense,
		CategoryID:    3,
		EffectiveDate: date,
		Amount:        core.Money{Cents: 12050},
		Recurrence:    core.Monthly,
		TotalLabel:    "3",
		Sequence:      seq,
		OwnerID:       1,
	}
}

func TestCreateSeriesRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rows := []core.Installment{
		testInstallment("s1", 1, core.NewDate(2024, 1, 15)),
		testInstallment("s1", 2, core.NewDate(2024, 2, 15)),
	}
	rows[1].SubcategoryID = 9
	rows[1].CardID = 4
	rows[1].CommonDay = 15

	if err := repo.CreateSeries(ctx, rows); err != nil {
		t.Fatalf("CreateSeries() error = %v", err)
	}
	for i, row := range rows {
		if row.ID == 0 {
			t.Fatalf("row %d: ID not written back", i)
		}
		if row.CreatedAt.IsZero() {
			t.Fatalf("row %d: CreatedAt not written back", i)
		}
	}

	got, err := repo.GetInstallment(ctx, 1, rows[1].ID)
	if err != nil {
		t.Fatalf("GetInstallment() error = %v", err)
	}
	if got.SeriesID != "s1" || got.Sequence != 2 || got.Amount.Cents != 12050 {
		t.Errorf("unexpected row: %+v", got)
	}
	if !got.EffectiveDate.Equal(core.NewDate(2024, 2, 15).Time) {
		t.Errorf("date = %s, want 2024-02-15", got.EffectiveDate.Format("2006-01-02"))
	}
	if got.SubcategoryID != 9 || got.CardID != 4 || got.CommonDay != 15 {
		t.Errorf("optional fields lost: %+v", got)
	}

	// First row left its optional ids unset; they must come back as 0.
	first, err := repo.GetInstallment(ctx, 1, rows[0].ID)
	if err != nil {
		t.Fatalf("GetInstallment() error = %v", err)
	}
	if first.SubcategoryID != 0 || first.CardID != 0 || first.CommonDay != 0 {
		t.Errorf("unset optional fields not zero: %+v", first)
	}
}

func TestCreateSeriesRollsBackOnInvalidRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bad := testInstallment("s1", 2, core.NewDate(2024, 2, 15))
	bad.Amount.Cents = 0 // violates the amount check

	err := repo.CreateSeries(ctx, []core.Installment{
		testInstallment("s1", 1, core.NewDate(2024, 1, 15)),
		bad,
	})
	if err == nil {
		t.Fatal("expected error from invalid row")
	}

	// The valid first row must not survive the failed batch.
	for month := 1; month <= 2; month++ {
		rows, err := repo.ListInstallmentsByMonth(ctx, 1, 2024, month)
		if err != nil {
			t.Fatalf("ListInstallmentsByMonth() error = %v", err)
		}
		if len(rows) != 0 {
			t.Fatalf("month %d: %d rows survived a rolled-back batch", month, len(rows))
		}
	}
}

func TestTogglePaid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rows := []core.Installment{testInstallment("s1", 1, core.NewDate(2024, 1, 15))}
	if err := repo.CreateSeries(ctx, rows); err != nil {
		t.Fatalf("CreateSeries() error = %v", err)
	}

	paid, err := repo.TogglePaid(ctx, 1, rows[0].ID)
	if err != nil {
		t.Fatalf("TogglePaid() error = %v", err)
	}
	if !paid {
		t.Fatal("first toggle should mark paid")
	}

	paid, err = repo.TogglePaid(ctx, 1, rows[0].ID)
	if err != nil {
		t.Fatalf("TogglePaid() error = %v", err)
	}
	if paid {
		t.Fatal("second toggle should mark unpaid")
	}

	if _, err := repo.TogglePaid(ctx, 1, 9999); err == nil {
		t.Fatal("expected error for unknown installment")
	}
	if _, err := repo.TogglePaid(ctx, 2, rows[0].ID); err == nil {
		t.Fatal("expected error for wrong owner")
	}
}

func seedTwoSeries(t *testing.T, repo *SQLiteRepository) (a, b []core.Installment) {
	t.Helper()
	a = []core.Installment{
		testInstallment("sa", 1, core.NewDate(2024, 1, 15)),
		testInstallment("sa", 2, core.NewDate(2024, 2, 15)),
		testInstallment("sa", 3, core.NewDate(2024, 3, 15)),
	}
	b = []core.Installment{testInstallment("sb", 1, core.NewDate(2024, 2, 20))}
	if err := repo.CreateSeries(context.Background(), a); err != nil {
		t.Fatalf("seed series a: %v", err)
	}
	if err := repo.CreateSeries(context.Background(), b); err != nil {
		t.Fatalf("seed series b: %v", err)
	}
	return a, b
}

func TestUpdateFutureInstallments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a, b := seedTwoSeries(t, repo)

	newAmount := int64(20000)
	n, err := repo.UpdateFutureInstallments(ctx, 1, "sa", core.NewDate(2024, 2, 15),
		InstallmentChanges{AmountCents: &newAmount})
	if err != nil {
		t.Fatalf("UpdateFutureInstallments() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("updated %d rows, want 2", n)
	}

	wantCents := map[int64]int64{
		a[0].ID: 12050, // before the cut, untouched
		a[1].ID: 20000,
		a[2].ID: 20000,
		b[0].ID: 12050, // other series, untouched
	}
	for id, want := range wantCents {
		got, err := repo.GetInstallment(ctx, 1, id)
		if err != nil {
			t.Fatalf("GetInstallment(%d) error = %v", id, err)
		}
		if got.Amount.Cents != want {
			t.Errorf("installment %d: cents = %d, want %d", id, got.Amount.Cents, want)
		}
	}
}

func TestUpdateFutureInstallmentsNoChanges(t *testing.T) {
	repo := newTestRepo(t)
	seedTwoSeries(t, repo)

	n, err := repo.UpdateFutureInstallments(context.Background(), 1, "sa",
		core.NewDate(2024, 1, 15), InstallmentChanges{})
	if err != nil {
		t.Fatalf("UpdateFutureInstallments() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("updated %d rows with empty changes, want 0", n)
	}
}

func TestDeleteFutureInstallments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a, b := seedTwoSeries(t, repo)

	n, err := repo.DeleteFutureInstallments(ctx, 1, "sa", core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatalf("DeleteFutureInstallments() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted %d rows, want 2", n)
	}

	if _, err := repo.GetInstallment(ctx, 1, a[0].ID); err != nil {
		t.Errorf("row before the cut deleted: %v", err)
	}
	if _, err := repo.GetInstallment(ctx, 1, a[1].ID); err == nil {
		t.Error("row at the cut survived")
	}
	if _, err := repo.GetInstallment(ctx, 1, b[0].ID); err != nil {
		t.Errorf("other series touched: %v", err)
	}
}

func TestDeleteInstallment(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rows := []core.Installment{testInstallment("s1", 1, core.NewDate(2024, 1, 15))}
	if err := repo.CreateSeries(ctx, rows); err != nil {
		t.Fatalf("CreateSeries() error = %v", err)
	}

	if err := repo.DeleteInstallment(ctx, 1, rows[0].ID); err != nil {
		t.Fatalf("DeleteInstallment() error = %v", err)
	}
	if _, err := repo.GetInstallment(ctx, 1, rows[0].ID); err == nil {
		t.Fatal("installment still readable after delete")
	}
	if err := repo.DeleteInstallment(ctx, 1, rows[0].ID); err == nil {
		t.Fatal("expected error deleting a missing installment")
	}
}

func TestListInstallmentsByMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedTwoSeries(t, repo)

	other := testInstallment("sc", 1, core.NewDate(2024, 2, 10))
	other.OwnerID = 2
	if err := repo.CreateSeries(ctx, []core.Installment{other}); err != nil {
		t.Fatalf("seed other owner: %v", err)
	}

	rows, err := repo.ListInstallmentsByMonth(ctx, 1, 2024, 2)
	if err != nil {
		t.Fatalf("ListInstallmentsByMonth() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].SeriesID != "sa" || rows[1].SeriesID != "sb" {
		t.Errorf("rows out of date order: %s then %s", rows[0].SeriesID, rows[1].SeriesID)
	}
	for _, row := range rows {
		if row.OwnerID != 1 {
			t.Errorf("row of owner %d leaked into owner 1's listing", row.OwnerID)
		}
	}
}

func TestReadMonthOverview(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	salary := testInstallment("si", 1, core.NewDate(2024, 3, 5))
	salary.Type = core.Income
	salary.CategoryID = 1
	salary.Amount.Cents = 500000

	rent := testInstallment("sr", 1, core.NewDate(2024, 3, 10))
	rent.CategoryID = 3
	rent.Amount.Cents = 120000

	grocery := testInstallment("sg", 1, core.NewDate(2024, 3, 20))
	grocery.CategoryID = 5
	grocery.Amount.Cents = 80000

	for _, batch := range [][]core.Installment{{salary}, {rent}, {grocery}} {
		if err := repo.CreateSeries(ctx, batch); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	overview, err := repo.ReadMonthOverview(ctx, 1, 2024, 3)
	if err != nil {
		t.Fatalf("ReadMonthOverview() error = %v", err)
	}
	if overview.Income.Cents != 500000 {
		t.Errorf("income = %d, want 500000", overview.Income.Cents)
	}
	if overview.Expense.Cents != 200000 {
		t.Errorf("expense = %d, want 200000", overview.Expense.Cents)
	}
	if len(overview.ByExpense) != 2 {
		t.Fatalf("got %d expense categories, want 2", len(overview.ByExpense))
	}
	if overview.ByExpense[0].CategoryID != 3 || overview.ByExpense[0].Amount.Cents != 120000 {
		t.Errorf("largest category first: %+v", overview.ByExpense[0])
	}
	if overview.ByExpense[1].CategoryID != 5 || overview.ByExpense[1].Amount.Cents != 80000 {
		t.Errorf("second category: %+v", overview.ByExpense[1])
	}
}

func TestListOpenSeriesTails(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	open := []core.Installment{
		testInstallment("so", 1, core.NewDate(2024, 1, 15)),
		testInstallment("so", 2, core.NewDate(2024, 2, 15)),
		testInstallment("so", 3, core.NewDate(2024, 3, 15)),
	}
	for i := range open {
		open[i].TotalLabel = core.OpenEndedLabel
	}
	if err := repo.CreateSeries(ctx, open); err != nil {
		t.Fatalf("seed open series: %v", err)
	}
	seedTwoSeries(t, repo) // bounded series must not show up

	tails, err := repo.ListOpenSeriesTails(ctx)
	if err != nil {
		t.Fatalf("ListOpenSeriesTails() error = %v", err)
	}
	if len(tails) != 1 {
		t.Fatalf("got %d tails, want 1", len(tails))
	}
	tail := tails[0]
	if tail.SeriesID != "so" || tail.Sequence != 3 {
		t.Errorf("tail = series %s seq %d, want so seq 3", tail.SeriesID, tail.Sequence)
	}
	if !tail.EffectiveDate.Equal(core.NewDate(2024, 3, 15).Time) {
		t.Errorf("tail date = %s, want 2024-03-15", tail.EffectiveDate.Format("2006-01-02"))
	}
}

func TestCardLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateCard(ctx, 1, "nubank", core.CardConfig{CloseDay: 25, DueDay: 5})
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}

	cfg, err := repo.GetCardConfig(ctx, id)
	if err != nil {
		t.Fatalf("GetCardConfig() error = %v", err)
	}
	if cfg.CloseDay != 25 || cfg.DueDay != 5 {
		t.Errorf("config = %+v", cfg)
	}

	if err := repo.DeactivateCard(ctx, 1, id); err != nil {
		t.Fatalf("DeactivateCard() error = %v", err)
	}
	if _, err := repo.GetCardConfig(ctx, id); err == nil {
		t.Fatal("deactivated card still resolvable")
	}

	if _, err := repo.CreateCard(ctx, 1, "bad", core.CardConfig{CloseDay: 0, DueDay: 5}); err == nil {
		t.Fatal("expected error for invalid card config")
	}
	if err := repo.DeactivateCard(ctx, 1, 9999); err == nil {
		t.Fatal("expected error deactivating a missing card")
	}
}

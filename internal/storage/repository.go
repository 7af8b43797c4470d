package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"financas/internal/core"

	_ "modernc.org/sqlite"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
)

const installmentColumns = `id, series_id, entry_type, category_id, subcategory_id,
	effective_date, amount_cents, recurrence, total_label, seq, common_day,
	owner_id, fixed, card_id, paid, created_at`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateSeries inserts every installment of one generation batch in a single
// transaction: a failure on any row rolls back the whole series. Assigned IDs
// and the shared creation timestamp are written back into the slice.
func (r *SQLiteRepository) CreateSeries(ctx context.Context, installments []core.Installment) error {
	if len(installments) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := range installments {
		id, err := insertInstallment(ctx, tx, installments[i], now)
		if err != nil {
			return fmt.Errorf("insert installment %d/%d: %w", i+1, len(installments), err)
		}
		installments[i].ID = id
		installments[i].CreatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit series: %w", err)
	}

	slog.InfoContext(ctx, "Series batch saved",
		"series_id", installments[0].SeriesID,
		"rows", len(installments),
		"first_date", installments[0].EffectiveDate.Format(dateLayout))

	return nil
}

func insertInstallment(ctx context.Context, tx *sql.Tx, inst core.Installment, createdAt time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO installment (
			series_id, entry_type, category_id, subcategory_id, effective_date,
			amount_cents, recurrence, total_label, seq, common_day,
			owner_id, fixed, card_id, paid, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.SeriesID,
		string(inst.Type),
		inst.CategoryID,
		nullableID(inst.SubcategoryID),
		inst.EffectiveDate.Format(dateLayout),
		inst.Amount.Cents,
		string(inst.Recurrence),
		inst.TotalLabel,
		inst.Sequence,
		nullableID(int64(inst.CommonDay)),
		inst.OwnerID,
		inst.Fixed,
		nullableID(inst.CardID),
		inst.Paid,
		createdAt.Format(timestampLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetInstallment fetches one installment scoped to its owner.
func (r *SQLiteRepository) GetInstallment(ctx context.Context, ownerID, id int64) (core.Installment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+installmentColumns+` FROM installment WHERE id = ? AND owner_id = ?`,
		id, ownerID)
	inst, err := scanInstallment(row)
	if err == sql.ErrNoRows {
		return core.Installment{}, fmt.Errorf("installment %d not found", id)
	}
	if err != nil {
		return core.Installment{}, fmt.Errorf("get installment: %w", err)
	}
	return inst, nil
}

// TogglePaid flips the paid flag of one installment and returns the new
// value.
func (r *SQLiteRepository) TogglePaid(ctx context.Context, ownerID, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var paid bool
	err = tx.QueryRowContext(ctx,
		`SELECT paid FROM installment WHERE id = ? AND owner_id = ?`, id, ownerID).Scan(&paid)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("installment %d not found", id)
	}
	if err != nil {
		return false, fmt.Errorf("read paid flag: %w", err)
	}

	paid = !paid
	if _, err := tx.ExecContext(ctx,
		`UPDATE installment SET paid = ? WHERE id = ? AND owner_id = ?`, paid, id, ownerID); err != nil {
		return false, fmt.Errorf("update paid flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle: %w", err)
	}

	slog.InfoContext(ctx, "Installment payment toggled", "id", id, "paid", paid)
	return paid, nil
}

// InstallmentChanges lists the fields a bulk update may change. Nil fields
// are left untouched; a zero SubcategoryID pointer value clears the
// subcategory.
type InstallmentChanges struct {
	CategoryID    *int64
	SubcategoryID *int64
	AmountCents   *int64
	Fixed         *bool
}

// UpdateFutureInstallments applies changes to every installment of a series
// dated on or after from ("this and future" edit). Rows are matched by the
// exact series id, not by the old category/amount/timestamp signature.
func (r *SQLiteRepository) UpdateFutureInstallments(ctx context.Context, ownerID int64, seriesID string, from core.Date, changes InstallmentChanges) (int64, error) {
	var set []string
	var args []any

	if changes.CategoryID != nil {
		set = append(set, "category_id = ?")
		args = append(args, *changes.CategoryID)
	}
	if changes.SubcategoryID != nil {
		set = append(set, "subcategory_id = ?")
		args = append(args, nullableID(*changes.SubcategoryID))
	}
	if changes.AmountCents != nil {
		set = append(set, "amount_cents = ?")
		args = append(args, *changes.AmountCents)
	}
	if changes.Fixed != nil {
		set = append(set, "fixed = ?")
		args = append(args, *changes.Fixed)
	}
	if len(set) == 0 {
		return 0, nil
	}

	args = append(args, seriesID, ownerID, from.Format(dateLayout))
	res, err := r.db.ExecContext(ctx,
		`UPDATE installment SET `+strings.Join(set, ", ")+
			` WHERE series_id = ? AND owner_id = ? AND effective_date >= ?`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("update future installments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Series bulk update applied",
		"series_id", seriesID, "from", from.Format(dateLayout), "rows", n)
	return n, nil
}

// DeleteFutureInstallments removes every installment of a series dated on or
// after from ("this and future" delete).
func (r *SQLiteRepository) DeleteFutureInstallments(ctx context.Context, ownerID int64, seriesID string, from core.Date) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM installment WHERE series_id = ? AND owner_id = ? AND effective_date >= ?`,
		seriesID, ownerID, from.Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("delete future installments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Series bulk delete applied",
		"series_id", seriesID, "from", from.Format(dateLayout), "rows", n)
	return n, nil
}

// DeleteInstallment removes a single installment.
func (r *SQLiteRepository) DeleteInstallment(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM installment WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("installment %d not found", id)
	}
	return nil
}

// ListInstallmentsByMonth returns an owner's installments with an effective
// date inside the given month, ordered by date then sequence.
func (r *SQLiteRepository) ListInstallmentsByMonth(ctx context.Context, ownerID int64, year, month int) ([]core.Installment, error) {
	first := core.NewDate(year, month, 1)
	next := core.NewDate(year, month+1, 1)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM installment
		 WHERE owner_id = ? AND effective_date >= ? AND effective_date < ?
		 ORDER BY effective_date, seq, id`,
		ownerID, first.Format(dateLayout), next.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list installments by month: %w", err)
	}
	defer rows.Close()

	var out []core.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// ReadMonthOverview aggregates an owner's month: total income, total expense
// and expense totals per category.
func (r *SQLiteRepository) ReadMonthOverview(ctx context.Context, ownerID int64, year, month int) (core.MonthOverview, error) {
	overview := core.MonthOverview{Year: year, Month: month}

	first := core.NewDate(year, month, 1).Format(dateLayout)
	next := core.NewDate(year, month+1, 1).Format(dateLayout)

	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN entry_type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN entry_type = 'expense' THEN amount_cents ELSE 0 END), 0)
		 FROM installment
		 WHERE owner_id = ? AND effective_date >= ? AND effective_date < ?`,
		ownerID, first, next).Scan(&overview.Income.Cents, &overview.Expense.Cents)
	if err != nil {
		return overview, fmt.Errorf("month totals: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category_id, SUM(amount_cents)
		 FROM installment
		 WHERE owner_id = ? AND entry_type = 'expense' AND effective_date >= ? AND effective_date < ?
		 GROUP BY category_id
		 ORDER BY SUM(amount_cents) DESC`,
		ownerID, first, next)
	if err != nil {
		return overview, fmt.Errorf("category sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.CategoryID, &ca.Amount.Cents); err != nil {
			return overview, fmt.Errorf("scan category sum: %w", err)
		}
		overview.ByExpense = append(overview.ByExpense, ca)
	}
	return overview, rows.Err()
}

// ListOpenSeriesTails returns the last materialized installment of every
// open-ended series, across all owners. Used by the horizon processor.
func (r *SQLiteRepository) ListOpenSeriesTails(ctx context.Context) ([]core.Installment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM installment i
		 WHERE i.total_label = ?
		   AND i.seq = (SELECT MAX(i2.seq) FROM installment i2 WHERE i2.series_id = i.series_id)
		 ORDER BY i.series_id`,
		core.OpenEndedLabel)
	if err != nil {
		return nil, fmt.Errorf("list open series tails: %w", err)
	}
	defer rows.Close()

	var out []core.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// GetCardConfig returns the billing configuration of an active card.
func (r *SQLiteRepository) GetCardConfig(ctx context.Context, cardID int64) (core.CardConfig, error) {
	var cfg core.CardConfig
	err := r.db.QueryRowContext(ctx,
		`SELECT close_day, due_day FROM card WHERE id = ? AND active = 1`,
		cardID).Scan(&cfg.CloseDay, &cfg.DueDay)
	if err == sql.ErrNoRows {
		return cfg, fmt.Errorf("card %d not found", cardID)
	}
	if err != nil {
		return cfg, fmt.Errorf("get card config: %w", err)
	}
	return cfg, nil
}

// CreateCard registers a credit card and returns its id.
func (r *SQLiteRepository) CreateCard(ctx context.Context, ownerID int64, name string, cfg core.CardConfig) (int64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO card (owner_id, name, close_day, due_day) VALUES (?, ?, ?, ?)`,
		ownerID, name, cfg.CloseDay, cfg.DueDay)
	if err != nil {
		return 0, fmt.Errorf("create card: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Card registered",
		"id", id, "name", name, "close_day", cfg.CloseDay, "due_day", cfg.DueDay)
	return id, nil
}

// DeactivateCard soft-deletes a card; its past installments keep referring
// to it.
func (r *SQLiteRepository) DeactivateCard(ctx context.Context, ownerID, cardID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE card SET active = 0 WHERE id = ? AND owner_id = ?`, cardID, ownerID)
	if err != nil {
		return fmt.Errorf("deactivate card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("card %d not found", cardID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstallment(row rowScanner) (core.Installment, error) {
	var (
		inst          core.Installment
		entryType     string
		recurrence    string
		subcategoryID sql.NullInt64
		commonDay     sql.NullInt64
		cardID        sql.NullInt64
		effectiveDate string
		createdAt     string
	)
	err := row.Scan(
		&inst.ID, &inst.SeriesID, &entryType, &inst.CategoryID, &subcategoryID,
		&effectiveDate, &inst.Amount.Cents, &recurrence, &inst.TotalLabel,
		&inst.Sequence, &commonDay, &inst.OwnerID, &inst.Fixed, &cardID,
		&inst.Paid, &createdAt,
	)
	if err != nil {
		return inst, err
	}

	inst.Type = core.EntryType(entryType)
	inst.Recurrence = core.RecurrenceKind(recurrence)
	inst.SubcategoryID = subcategoryID.Int64
	inst.CommonDay = int(commonDay.Int64)
	inst.CardID = cardID.Int64

	d, err := time.Parse(dateLayout, effectiveDate)
	if err != nil {
		return inst, fmt.Errorf("parse effective_date %q: %w", effectiveDate, err)
	}
	inst.EffectiveDate = core.Date{Time: d}

	ts, err := time.Parse(timestampLayout, createdAt)
	if err != nil {
		return inst, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	inst.CreatedAt = ts

	return inst, nil
}

func nullableID(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

// Package storage is the SQLite implementation of the ledger store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/log"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var _ ledger.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	inTx    bool
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil && !r.inTx {
		return r.db.Close()
	}
	return nil
}

// WithinTx runs fn inside one SQL transaction. Nested calls join the outer one.
func (r *SQLiteRepository) WithinTx(ctx context.Context, fn func(ledger.Store) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txRepo := &SQLiteRepository{
		db:      r.db,
		queries: r.queries.WithTx(tx),
		inTx:    true,
	}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Dates written by older versions may use day-first layouts.
var legacyDateLayouts = []string{core.ISODate, "02/01/2006", "02-01-2006"}

func parseStoredDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}

func toTransaction(row TransactionRow) (core.Transaction, error) {
	d, err := parseStoredDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", row.ID, err)
	}
	return core.Transaction{
		ID:       row.ID,
		Date:     d,
		Amount:   decimal.NewFromFloat(row.Amount),
		Kind:     core.Kind(strings.ToLower(row.Type)),
		Category: row.Category.String,
		Notes:    row.Notes.String,
	}, nil
}

func fromTransaction(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:       t.ID,
		Date:     t.Date.String(),
		Amount:   t.Amount.InexactFloat64(),
		Type:     string(t.Kind),
		Category: nullString(t.Category),
		Notes:    nullString(t.Notes),
	}
}

func toTemplate(row RecurringRow) (core.RecurringTemplate, error) {
	d, err := parseStoredDate(row.NextDate)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("recurring template %d: %w", row.ID, err)
	}
	return core.RecurringTemplate{
		ID:             row.ID,
		Name:           row.Name,
		Amount:         decimal.NewFromFloat(row.Amount),
		Kind:           core.Kind(strings.ToLower(row.Type)),
		Category:       row.Category.String,
		Notes:          row.Notes.String,
		Frequency:      core.Frequency(strings.ToLower(row.Frequency)),
		NextOccurrence: d,
		Active:         strings.EqualFold(strings.TrimSpace(row.IsActive), "true"),
	}, nil
}

func fromTemplate(rt core.RecurringTemplate) RecurringRow {
	active := "false"
	if rt.Active {
		active = "true"
	}
	return RecurringRow{
		ID:        rt.ID,
		Name:      rt.Name,
		Amount:    rt.Amount.InexactFloat64(),
		Type:      string(rt.Kind),
		Category:  nullString(rt.Category),
		Notes:     nullString(rt.Notes),
		Frequency: string(rt.Frequency),
		NextDate:  rt.NextOccurrence.String(),
		IsActive:  active,
	}
}

func toBudget(row BudgetRow) core.Budget {
	start, err := parseStoredDate(row.StartDate)
	if err != nil {
		start = core.Date{}
	}
	return core.Budget{
		Category:  row.Category,
		Amount:    decimal.NewFromFloat(row.Amount),
		Period:    core.Period(strings.ToLower(row.Period)),
		StartDate: start,
	}
}

func notFound(what string, key any) error {
	return fmt.Errorf("%s %v: %w", what, key, core.ErrNotFound)
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := r.queries.CreateTransaction(ctx, fromTransaction(t))
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		log.FieldDate, t.Date.String(),
		"type", t.Kind)

	return id, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	n, err := r.queries.UpdateTransaction(ctx, fromTransaction(t))
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return notFound("transaction", t.ID)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, notFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return toTransaction(row)
}

func (r *SQLiteRepository) QueryTransactions(ctx context.Context, f ledger.Filter) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, TransactionQuery{
		Type:        string(f.Kind),
		Category:    f.Category,
		DateFrom:    f.DateFrom.String(),
		DateTo:      f.DateTo.String(),
		Limit:       f.Limit,
		NewestFirst: f.NewestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable transaction row", "id", row.ID, "error", err)
			continue
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return notFound("transaction", id)
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, category string) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, category)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, notFound("budget", fmt.Sprintf("%q", category))
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return toBudget(row), nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	budgets := make([]core.Budget, len(rows))
	for i, row := range rows {
		budgets[i] = toBudget(row)
	}
	return budgets, nil
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	err := r.queries.UpsertBudget(ctx, BudgetRow{
		Category:  b.Category,
		Amount:    b.Amount.InexactFloat64(),
		Period:    string(b.Period),
		StartDate: b.StartDate.String(),
	})
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, category string) error {
	n, err := r.queries.DeleteBudget(ctx, category)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n == 0 {
		return notFound("budget", fmt.Sprintf("%q", category))
	}
	return nil
}

func (r *SQLiteRepository) CreateTemplate(ctx context.Context, rt core.RecurringTemplate) (int64, error) {
	id, err := r.queries.CreateRecurring(ctx, fromTemplate(rt))
	if err != nil {
		return 0, fmt.Errorf("create recurring template: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetTemplate(ctx context.Context, id int64) (core.RecurringTemplate, error) {
	row, err := r.queries.GetRecurring(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTemplate{}, notFound("recurring template", id)
	}
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("get recurring template: %w", err)
	}
	return toTemplate(row)
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context, activeOnly bool) ([]core.RecurringTemplate, error) {
	rows, err := r.queries.ListRecurring(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}

	out := make([]core.RecurringTemplate, 0, len(rows))
	for _, row := range rows {
		rt, err := toTemplate(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable recurring template", "id", row.ID, "error", err)
			continue
		}
		out = append(out, rt)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateTemplate(ctx context.Context, rt core.RecurringTemplate) error {
	n, err := r.queries.UpdateRecurring(ctx, fromTemplate(rt))
	if err != nil {
		return fmt.Errorf("update recurring template: %w", err)
	}
	if n == 0 {
		return notFound("recurring template", rt.ID)
	}
	return nil
}

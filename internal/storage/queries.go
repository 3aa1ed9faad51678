package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the persisted layout.
type (
	TransactionRow struct {
		ID       int64
		Date     string
		Amount   float64
		Type     string
		Category sql.NullString
		Notes    sql.NullString
	}

	BudgetRow struct {
		ID        int64
		Category  string
		Amount    float64
		Period    string
		StartDate string
	}

	RecurringRow struct {
		ID        int64
		Name      string
		Amount    float64
		Type      string
		Category  sql.NullString
		Notes     sql.NullString
		Frequency string
		NextDate  string
		IsActive  string
	}
)

const createTransaction = `INSERT INTO transactions (date, amount, type, category, notes)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, r TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction, r.Date, r.Amount, r.Type, r.Category, r.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updateTransaction = `UPDATE transactions
SET date = ?, amount = ?, type = ?, category = ?, notes = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, r TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction, r.Date, r.Amount, r.Type, r.Category, r.Notes, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getTransaction = `SELECT id, date, amount, type, category, notes FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	var r TransactionRow
	err := q.db.QueryRowContext(ctx, getTransaction, id).
		Scan(&r.ID, &r.Date, &r.Amount, &r.Type, &r.Category, &r.Notes)
	return r, err
}

// TransactionQuery is the SQL form of a ledger filter.
type TransactionQuery struct {
	Type        string
	Category    string
	DateFrom    string
	DateTo      string
	Limit       int
	NewestFirst bool
}

// isoDate reads the date column in YYYY-MM-DD form so range filters agree
// with parseStoredDate on day-first rows written outside the store.
const isoDate = `CASE WHEN trim(date) GLOB '[0-9][0-9][/-][0-9][0-9][/-][0-9][0-9][0-9][0-9]'
THEN substr(trim(date), 7, 4) || '-' || substr(trim(date), 4, 2) || '-' || substr(trim(date), 1, 2)
ELSE trim(date) END`

func (q *Queries) ListTransactions(ctx context.Context, tq TransactionQuery) ([]TransactionRow, error) {
	var (
		where []string
		args  []interface{}
	)
	if tq.Type != "" {
		where = append(where, "type = ?")
		args = append(args, tq.Type)
	}
	if tq.Category != "" {
		where = append(where, "category = ?")
		args = append(args, tq.Category)
	}
	if tq.DateFrom != "" {
		where = append(where, isoDate+" >= ?")
		args = append(args, tq.DateFrom)
	}
	if tq.DateTo != "" {
		where = append(where, isoDate+" <= ?")
		args = append(args, tq.DateTo)
	}

	var b strings.Builder
	b.WriteString("SELECT id, date, amount, type, category, notes FROM transactions")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if tq.NewestFirst {
		b.WriteString(" ORDER BY id DESC")
	} else {
		b.WriteString(" ORDER BY id ASC")
	}
	if tq.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, tq.Limit)
	}

	rows, err := q.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TransactionRow
	for rows.Next() {
		var r TransactionRow
		if err := rows.Scan(&r.ID, &r.Date, &r.Amount, &r.Type, &r.Category, &r.Notes); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getBudget = `SELECT id, category, amount, period, start_date FROM budgets WHERE category = ?`

func (q *Queries) GetBudget(ctx context.Context, category string) (BudgetRow, error) {
	var r BudgetRow
	err := q.db.QueryRowContext(ctx, getBudget, category).
		Scan(&r.ID, &r.Category, &r.Amount, &r.Period, &r.StartDate)
	return r, err
}

const listBudgets = `SELECT id, category, amount, period, start_date FROM budgets ORDER BY id ASC`

func (q *Queries) ListBudgets(ctx context.Context) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BudgetRow
	for rows.Next() {
		var r BudgetRow
		if err := rows.Scan(&r.ID, &r.Category, &r.Amount, &r.Period, &r.StartDate); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

// The row keeps its id so listing order stays insertion order.
const upsertBudget = `INSERT INTO budgets (category, amount, period, start_date)
VALUES (?, ?, ?, ?)
ON CONFLICT (category) DO UPDATE SET
    amount = excluded.amount,
    period = excluded.period,
    start_date = excluded.start_date`

func (q *Queries) UpsertBudget(ctx context.Context, r BudgetRow) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, r.Category, r.Amount, r.Period, r.StartDate)
	return err
}

const deleteBudget = `DELETE FROM budgets WHERE category = ?`

func (q *Queries) DeleteBudget(ctx context.Context, category string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudget, category)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createRecurring = `INSERT INTO recurring_transactions
    (name, amount, type, category, notes, frequency, next_date, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRecurring(ctx context.Context, r RecurringRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, createRecurring,
		r.Name, r.Amount, r.Type, r.Category, r.Notes, r.Frequency, r.NextDate, r.IsActive)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const recurringColumns = `id, name, amount, type, category, notes, frequency, next_date, is_active`

func scanRecurring(s interface{ Scan(...interface{}) error }) (RecurringRow, error) {
	var r RecurringRow
	err := s.Scan(&r.ID, &r.Name, &r.Amount, &r.Type, &r.Category, &r.Notes, &r.Frequency, &r.NextDate, &r.IsActive)
	return r, err
}

func (q *Queries) GetRecurring(ctx context.Context, id int64) (RecurringRow, error) {
	return scanRecurring(q.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ?`, id))
}

func (q *Queries) ListRecurring(ctx context.Context, activeOnly bool) ([]RecurringRow, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_transactions`
	if activeOnly {
		query += ` WHERE lower(is_active) = 'true'`
	}
	query += ` ORDER BY id ASC`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RecurringRow
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const updateRecurring = `UPDATE recurring_transactions
SET name = ?, amount = ?, type = ?, category = ?, notes = ?, frequency = ?, next_date = ?, is_active = ?
WHERE id = ?`

func (q *Queries) UpdateRecurring(ctx context.Context, r RecurringRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateRecurring,
		r.Name, r.Amount, r.Type, r.Category, r.Notes, r.Frequency, r.NextDate, r.IsActive, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

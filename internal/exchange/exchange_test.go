package exchange

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"conti/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Date: core.NewDate(2024, 1, 5), Amount: decimal.RequireFromString("12.50"), Kind: core.Expense, Category: "Food", Notes: "lunch, with \"quotes\""},
		{ID: 2, Date: core.NewDate(2024, 1, 25), Amount: decimal.NewFromInt(3000), Kind: core.Income, Category: "Salary"},
		{ID: 3, Date: core.NewDate(2024, 2, 1), Amount: decimal.NewFromInt(800), Kind: core.Expense, Category: "Housing", Notes: "[Recurring: Rent] "},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, sample()))

	firstLine, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, "id,date,amount,type,category,notes", firstLine)

	res, err := ImportCSV(&buf)
	require.NoError(t, err)
	assert.Zero(t, res.Skipped)
	require.Len(t, res.Transactions, 3)

	for i, want := range sample() {
		got := res.Transactions[i]
		assert.Zero(t, got.ID, "ids are assigned by the store")
		assert.True(t, got.Date.Equal(want.Date.Time), "date %d", i)
		assert.True(t, got.Amount.Equal(want.Amount), "amount %d", i)
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.Category, got.Category)
		assert.Equal(t, want.Notes, got.Notes)
	}
}

func TestImportCSV_SkipsInvalidRows(t *testing.T) {
	input := strings.Join([]string{
		"date,amount,type,category,notes",
		"2024-03-01,10.00,expense,Food,ok",
		"2024-03-02,abc,expense,Food,bad amount",
		"2024-03-03,5,transfer,Food,bad type",
		",5,expense,Food,no date",
		"2024-03-04,,income,Gift,no amount",
		"2024-03-05,7,INCOME,Gift,upper case type",
		"2024-03-06,3",
		"not-a-date,3,expense,,bad date",
	}, "\n")

	res, err := ImportCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 6, res.Skipped)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "ok", res.Transactions[0].Notes)
	assert.Equal(t, core.Income, res.Transactions[1].Kind)
}

func TestImportCSV_MissingRequiredColumn(t *testing.T) {
	input := "date,amount,category\n2024-03-01,10,Food\n2024-03-02,11,Food\n"

	res, err := ImportCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
	assert.Equal(t, 2, res.Skipped)
}

func TestImportCSV_Empty(t *testing.T) {
	res, err := ImportCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, ExportJSON(&buf, sample(), now))

	var doc struct {
		ExportDate   string `json:"export_date"`
		Transactions []struct {
			ID     int64   `json:"id"`
			Date   string  `json:"date"`
			Amount float64 `json:"amount"`
			Type   string  `json:"type"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2024-04-01T09:30:00Z", doc.ExportDate)
	require.Len(t, doc.Transactions, 3)
	assert.Equal(t, "2024-01-05", doc.Transactions[0].Date)
	assert.InDelta(t, 12.5, doc.Transactions[0].Amount, 1e-9)
	assert.Equal(t, "income", doc.Transactions[1].Type)
}

func TestExportXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "2024-01-25", rows[2][1])
	assert.Equal(t, "Salary", rows[2][4])
}

func TestBackupRestore(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "data", "conti.db")
	require.NoError(t, os.MkdirAll(filepath.Dir(db), 0o755))
	require.NoError(t, os.WriteFile(db, []byte("original"), 0o644))

	backup := filepath.Join(dir, "backups", BackupName(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NoError(t, Backup(db, backup))
	assert.Equal(t, "conti_backup_20240102_030405.db", filepath.Base(backup))

	require.NoError(t, os.WriteFile(db, []byte("changed"), 0o644))
	require.NoError(t, Restore(backup, db))

	got, err := os.ReadFile(db)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	assert.Error(t, Backup(filepath.Join(dir, "missing.db"), backup))
	assert.Error(t, Restore(dir, db))
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/config"
	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/ledger/memory"
	"conti/internal/log"
	"conti/internal/storage"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func testSession(t *testing.T) (*session, *App) {
	t.Helper()
	cfg := &config.Config{
		DataBackend:         "memory",
		UpcomingHorizonDays: 30,
		ProcessOnStart:      true,
	}
	logger := log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
	app := NewApp(cfg, logger, memory.New(), nil)
	app.Now = func() time.Time { return testNow }
	return &session{cfg: cfg, logger: logger, app: app}, app
}

func run(s *session, args ...string) (string, error) {
	cmd := newRootCommand(s)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand(&session{})

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"tx", "budget", "recurring", "report", "import", "export", "db"} {
		assert.True(t, names[want], "missing %s command", want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("no-process"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(core.Invalid(errors.New("bad"))))
	assert.Equal(t, 3, ExitCode(core.ErrNotFound))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}

func TestTxCommands(t *testing.T) {
	s, app := testSession(t)
	ctx := context.Background()

	out, err := run(s, "tx", "add", "--type", "expense", "--amount", "12,50", "--category", "Food", "--date", "2024-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, "Added transaction 1")

	out, err = run(s, "tx", "add", "--type", "income", "--amount", "2500")
	require.NoError(t, err)
	assert.Contains(t, out, "Added transaction 2")

	income, err := app.Ledger.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", income.Date.String())
	assert.Equal(t, core.DefaultCategory, income.Category)

	out, err = run(s, "tx", "list", "--type", "expense")
	require.NoError(t, err)
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "12.50")
	assert.NotContains(t, out, "2500.00")

	out, err = run(s, "tx", "recent", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2500.00")

	_, err = run(s, "tx", "edit", "1", "--amount", "20", "--notes", "dinner")
	require.NoError(t, err)
	edited, err := app.Ledger.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "20.00", core.FormatAmount(edited.Amount))
	assert.Equal(t, "dinner", edited.Notes)
	assert.Equal(t, "Food", edited.Category)

	out, err = run(s, "tx", "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "Other")

	_, err = run(s, "tx", "delete", "1")
	require.NoError(t, err)
	_, err = run(s, "tx", "delete", "1")
	assert.Equal(t, 3, ExitCode(err))
}

func TestTxAdd_Invalid(t *testing.T) {
	s, _ := testSession(t)

	tests := []struct {
		name string
		args []string
	}{
		{"negative amount", []string{"tx", "add", "--type", "expense", "--amount", "-5"}},
		{"bad type", []string{"tx", "add", "--type", "gift", "--amount", "5"}},
		{"bad date", []string{"tx", "add", "--type", "expense", "--amount", "5", "--date", "31/31/2024"}},
		{"bad id", []string{"tx", "delete", "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(s, tt.args...)
			require.Error(t, err)
			assert.Equal(t, 2, ExitCode(err))
		})
	}
}

func TestBudgetCommands(t *testing.T) {
	s, _ := testSession(t)

	out, err := run(s, "budget", "set", "Food", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Budget for Food set to 100.00 (monthly)")

	_, err = run(s, "tx", "add", "--type", "expense", "--amount", "85", "--category", "Food", "--date", "2024-03-02")
	require.NoError(t, err)

	out, err = run(s, "budget", "status", "Food")
	require.NoError(t, err)
	assert.Contains(t, out, "85.00")
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "85.0%")

	out, err = run(s, "budget", "alerts")
	require.NoError(t, err)
	assert.Contains(t, out, "Near budget limit in Food: 85% used")

	out, err = run(s, "budget", "status", "Travel")
	require.NoError(t, err)
	assert.Contains(t, out, "No budget for Travel.")

	out, err = run(s, "budget", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Food")

	_, err = run(s, "budget", "delete", "Food")
	require.NoError(t, err)
	_, err = run(s, "budget", "delete", "Food")
	assert.Equal(t, 3, ExitCode(err))

	_, err = run(s, "budget", "set", "Food", "100", "--period", "daily")
	assert.Equal(t, 2, ExitCode(err))
}

func TestRecurringCommands(t *testing.T) {
	s, app := testSession(t)
	ctx := context.Background()

	out, err := run(s, "recurring", "add", "Rent", "--type", "expense", "--amount", "900", "--next", "2024-03-01", "--category", "Housing")
	require.NoError(t, err)
	assert.Contains(t, out, "Created recurring template 1")

	// The next command fires the due template before running.
	out, err = run(s, "recurring", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-04-01")

	txs, err := app.Store.QueryTransactions(ctx, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "2024-03-01", txs[0].Date.String())
	assert.Equal(t, "[Recurring: Rent] ", txs[0].Notes)

	out, err = run(s, "--no-process", "recurring", "upcoming")
	require.NoError(t, err)
	assert.Contains(t, out, "Rent")

	out, err = run(s, "--no-process", "recurring", "upcoming", "--days", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "No recurring templates.")

	_, err = run(s, "recurring", "update", "1", "amount=950", "color=blue")
	require.NoError(t, err)
	rt, err := app.Store.GetTemplate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "950.00", core.FormatAmount(rt.Amount))

	_, err = run(s, "recurring", "update", "1", "amount")
	assert.Equal(t, 2, ExitCode(err))

	_, err = run(s, "recurring", "delete", "1")
	require.NoError(t, err)
	out, err = run(s, "recurring", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No recurring templates.")

	out, err = run(s, "recurring", "process")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed 0 recurring transactions")
}

func TestReportCommands(t *testing.T) {
	s, _ := testSession(t)
	_, err := run(s, "tx", "add", "--type", "income", "--amount", "1000", "--date", "2024-02-01")
	require.NoError(t, err)
	_, err = run(s, "tx", "add", "--type", "expense", "--amount", "250", "--category", "Food", "--date", "2024-03-05")
	require.NoError(t, err)

	out, err := run(s, "report", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Total income")
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "750.00")

	out, err = run(s, "report", "trend")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-02")
	assert.Contains(t, out, "2024-03")

	out, err = run(s, "report", "categories", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Food")

	_, err = run(s, "report", "trend", "--months", "0")
	assert.Equal(t, 2, ExitCode(err))
}

func TestImportExportCSV(t *testing.T) {
	s, app := testSession(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "in.csv")
	data := "date,amount,type,category,notes\n" +
		"2024-01-05,10.00,expense,Food,lunch\n" +
		"2024-01-06,abc,expense,Food,\n" +
		"2024-01-07,200,Income,Salary,\n"
	require.NoError(t, os.WriteFile(src, []byte(data), 0o600))

	out, err := run(s, "import", "csv", src, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 transactions")
	assert.Contains(t, out, "Skipped 1 invalid rows")

	txs, err := app.Store.QueryTransactions(context.Background(), ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	dst := filepath.Join(dir, "out.csv")
	out, err = run(s, "export", "csv", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 transactions")

	written, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(written), "id,date,amount,type,category,notes")
	assert.Contains(t, string(written), "Salary")

	out, err = run(s, "export", "json", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"export_date"`)

	_, err = run(s, "export", "xlsx", filepath.Join(dir, "out.xlsx"))
	require.NoError(t, err)

	_, err = run(s, "import", "csv", filepath.Join(dir, "missing.csv"))
	assert.Equal(t, 2, ExitCode(err))
}

func TestCommands_LogOperations(t *testing.T) {
	s, app := testSession(t)
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelInfo, Format: "json", Output: &buf})
	s.logger, app.Logger = logger, logger

	dir := t.TempDir()
	src := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(src, []byte("date,amount,type,category\n2024-01-05,10,expense,Food\n"), 0o600))

	_, err := run(s, "import", "csv", src, "--quiet")
	require.NoError(t, err)
	_, err = run(s, "export", "csv", filepath.Join(dir, "out.csv"))
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, `"operation":"process"`)
	assert.Contains(t, logs, `"operation":"import"`)
	assert.Contains(t, logs, `"operation":"export"`)
	assert.Contains(t, logs, `"component":"exchange"`)
	assert.Contains(t, logs, `"count":1`)
}

type fakeSheets struct {
	header bool
	rows   []core.Transaction
}

func (f *fakeSheets) EnsureHeader(context.Context) error {
	f.header = true
	return nil
}

func (f *fakeSheets) AppendTransactions(_ context.Context, txs []core.Transaction) (string, error) {
	f.rows = append(f.rows, txs...)
	return "Transactions!A2:F3", nil
}

func TestExportSheets(t *testing.T) {
	s, app := testSession(t)

	_, err := run(s, "export", "sheets")
	assert.Equal(t, 2, ExitCode(err))

	fake := &fakeSheets{}
	orig := newSheetsExporter
	newSheetsExporter = func(context.Context, *config.Config) (sheetsExporter, error) { return fake, nil }
	defer func() { newSheetsExporter = orig }()

	app.Config.GoogleSpreadsheetID = "sheet-id"
	_, err = run(s, "tx", "add", "--type", "expense", "--amount", "3", "--date", "2024-03-01")
	require.NoError(t, err)

	out, err := run(s, "export", "sheets")
	require.NoError(t, err)
	assert.Contains(t, out, "Transactions!A2:F3")
	assert.True(t, fake.header)
	assert.Len(t, fake.rows, 1)
}

func TestDBCommands(t *testing.T) {
	s, _ := testSession(t)

	_, err := run(s, "db", "version")
	assert.Equal(t, 2, ExitCode(err))

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "conti.db")
	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	s.cfg = &config.Config{DataBackend: "sqlite", SQLiteDBPath: dbPath}

	out, err := run(s, "db", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version 2")

	backup := filepath.Join(dir, "backups", "copy.db")
	out, err = run(s, "db", "backup", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up")
	assert.FileExists(t, backup)

	out, err = run(s, "db", "restore", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "Restored")
}

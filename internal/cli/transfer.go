package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"conti/internal/config"
	"conti/internal/core"
	"conti/internal/exchange"
	"conti/internal/ledger"
	"conti/internal/log"
	"conti/internal/sheets"
	"conti/internal/sheets/google"
)

// sheetsExporter is the part of the Google client used by export sheets.
type sheetsExporter interface {
	sheets.BatchWriter
	EnsureHeader(ctx context.Context) error
}

// newSheetsExporter is replaced in tests.
var newSheetsExporter = func(ctx context.Context, cfg *config.Config) (sheetsExporter, error) {
	return google.New(ctx, google.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
}

func importCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from files",
	}
	cmd.AddCommand(importCSVCmd(s))
	return cmd
}

func importCSVCmd(s *session) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "csv <file>",
		Short: "Import transactions from a CSV file",
		Long: `Import transactions from a CSV file with the columns
date, amount, type, category and notes. Rows with a missing or invalid date,
amount or type are skipped. All valid rows are saved together.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return core.Invalid(fmt.Errorf("open %s: %w", path, err))
			}
			defer f.Close()

			var bar *progressbar.ProgressBar
			if !quiet {
				errOut := cmd.ErrOrStderr()
				app.Importer.OnRow = func(done, total int) {
					if bar == nil {
						bar = newImportBar(errOut, total)
					}
					_ = bar.Set(done)
				}
				defer func() { app.Importer.OnRow = nil }()
			}

			imported, skipped, err := app.Importer.ImportCSV(cmd.Context(), f)
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return err
			}

			app.Logger.WithComponent(log.ComponentExchange).InfoContext(cmd.Context(), "Import finished",
				log.NewFields().WithOperation(log.OpImport).WithPath(path).WithCount(imported).ToSlice()...)

			out := cmd.OutOrStdout()
			printSuccess(out, "Imported %d transactions", imported)
			if skipped > 0 {
				printWarning(out, "Skipped %d invalid rows", skipped)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not show a progress bar")

	return cmd
}

func newImportBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func exportCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every transaction",
	}

	cmd.AddCommand(exportFileCmd(s, "csv", "CSV with a header row", func(w io.Writer, txs []core.Transaction, _ time.Time) error {
		return exchange.ExportCSV(w, txs)
	}))
	cmd.AddCommand(exportFileCmd(s, "json", "JSON document with an export date", exchange.ExportJSON))
	cmd.AddCommand(exportFileCmd(s, "xlsx", "Excel workbook", func(w io.Writer, txs []core.Transaction, _ time.Time) error {
		return exchange.ExportXLSX(w, txs)
	}))
	cmd.AddCommand(exportSheetsCmd(s))

	return cmd
}

type exportFunc func(w io.Writer, txs []core.Transaction, now time.Time) error

func exportFileCmd(s *session, format, desc string, export exportFunc) *cobra.Command {
	return &cobra.Command{
		Use:   format + " <file>",
		Short: "Export as " + desc + " (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			txs, err := app.Ledger.List(cmd.Context(), ledger.Filter{})
			if err != nil {
				return err
			}

			path := args[0]
			if path == "-" {
				return export(cmd.OutOrStdout(), txs, app.Now())
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := export(f, txs, app.Now()); err != nil {
				f.Close()
				return fmt.Errorf("export %s: %w", format, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			app.Logger.WithComponent(log.ComponentExchange).InfoContext(cmd.Context(), "Export finished",
				log.NewFields().WithOperation(log.OpExport).WithPath(path).WithCount(len(txs)).ToSlice()...)
			printSuccess(cmd.OutOrStdout(), "Exported %d transactions to %s", len(txs), path)
			return nil
		},
	}
}

func exportSheetsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Append every transaction to the configured Google Sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := s.app
			if app.Config == nil || !app.Config.SheetsEnabled() {
				return core.Invalid(fmt.Errorf("GOOGLE_SPREADSHEET_ID is not configured"))
			}
			ctx := cmd.Context()

			txs, err := app.Ledger.List(ctx, ledger.Filter{})
			if err != nil {
				return err
			}

			client, err := newSheetsExporter(ctx, app.Config)
			if err != nil {
				return fmt.Errorf("google sheets: %w", err)
			}
			if err := client.EnsureHeader(ctx); err != nil {
				return err
			}
			ref, err := client.AppendTransactions(ctx, txs)
			if err != nil {
				return err
			}
			app.Logger.WithComponent(log.ComponentSheets).InfoContext(ctx, "Sheets export finished",
				log.NewFields().WithOperation(log.OpExport).WithCount(len(txs)).ToSlice()...)
			printSuccess(cmd.OutOrStdout(), "Exported %d transactions to %s", len(txs), orDash(ref))
			return nil
		},
	}
}
